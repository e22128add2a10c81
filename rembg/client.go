package rembg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	nhttp "github.com/chaos-io/outfitflow/util/http"
)

const removePath = "/api/remove"

// Client 调用外部 rembg 推理服务
// 协议：multipart POST 一张 PNG 到 /api/remove，返回带 alpha 的 PNG
type Client struct {
	baseURL string
	model   string
	timeout time.Duration
	cli     nhttp.IClient
}

func NewClient(baseURL, model string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		timeout: timeout,
		cli:     nhttp.NewHTTPClient(),
	}
}

func (c *Client) Remove(ctx context.Context, img image.Image) (image.Image, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "garment.png")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if err := png.Encode(part, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	_ = writer.WriteField("model", c.model)
	_ = writer.Close()

	var raw []byte
	reqParam := &nhttp.RequestParam{
		RequestURI: c.baseURL + removePath,
		Method:     "POST",
		Header:     map[string]string{"Content-Type": writer.FormDataContentType()},
		Body:       body,
		Response:   &raw,
		Timeout:    c.timeout,
	}
	if err := c.cli.DoHTTPRequest(ctx, reqParam); err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	// 代理或网关出错时常返回 HTML，提前识别，避免给出含糊的解码错误
	if mt := mimetype.Detect(raw); !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("unexpected model response type: %s", mt.String())
	}

	out, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode model output: %w", err)
	}
	if !out.Bounds().Size().Eq(img.Bounds().Size()) {
		return nil, fmt.Errorf("model output size %v does not match input %v",
			out.Bounds().Size(), img.Bounds().Size())
	}
	return out, nil
}
