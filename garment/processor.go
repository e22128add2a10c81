package garment

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"log/slog"
	"math"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/nfnt/resize"

	"github.com/chaos-io/outfitflow/rembg"
)

const (
	// MaxImageWidth 超过该宽度的图片先缩小再送模型
	MaxImageWidth = 1024
	// JPEGQuality 输出 JPEG 质量
	JPEGQuality = 90
)

// BackgroundColor 合成用的固定底色 #f8f9fa
var BackgroundColor = color.NRGBA{R: 248, G: 249, B: 250, A: 255}

// ProcessError 流水线任一步失败都包装成它，原始信息保留
type ProcessError struct {
	Err error
}

func (e *ProcessError) Error() string {
	return "processing failed: " + e.Err.Error()
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// Processor 单图处理：解码 → 归一化 → 限宽缩放 → 去背景 → 合成底色 → JPEG
type Processor struct {
	remover rembg.Remover
	logger  *slog.Logger
}

func NewProcessor(remover rembg.Remover, logger *slog.Logger) *Processor {
	return &Processor{
		remover: remover,
		logger:  logger,
	}
}

func (p *Processor) Process(ctx context.Context, data []byte) ([]byte, error) {
	out, err := p.process(ctx, data)
	if err != nil {
		return nil, &ProcessError{Err: err}
	}
	return out, nil
}

func (p *Processor) process(ctx context.Context, data []byte) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	src := toNRGBA(img)
	if resized := resizeWithinMaxWidth(src, MaxImageWidth); resized != src {
		src = resized
		p.logger.Info("image resized",
			"format", format,
			"width", src.Bounds().Dx(),
			"height", src.Bounds().Dy())
	}

	removed, err := p.remover.Remove(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("remove background: %w", err)
	}

	flat := compositeOnBackground(toNRGBA(removed), BackgroundColor)

	buf := &bytes.Buffer{}
	if err := jpeg.Encode(buf, flat, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// resizeWithinMaxWidth 宽度超限时等比缩到 maxWidth，Lanczos 采样
func resizeWithinMaxWidth(img *image.NRGBA, maxWidth int) *image.NRGBA {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	if w <= maxWidth {
		return img
	}

	newH := int(math.Round(float64(h) * float64(maxWidth) / float64(w)))
	resized := resize.Resize(uint(maxWidth), uint(newH), img, resize.Lanczos3)
	return toNRGBA(resized)
}

// compositeOnBackground 以前景自身的 alpha 作为蒙版，贴到不透明底色上
func compositeOnBackground(fg *image.NRGBA, bg color.NRGBA) *image.NRGBA {
	bounds := image.Rect(0, 0, fg.Bounds().Dx(), fg.Bounds().Dy())
	canvas := image.NewNRGBA(bounds)
	draw.Draw(canvas, bounds, image.NewUniform(bg), image.Point{}, draw.Src)
	draw.Draw(canvas, bounds, fg, fg.Bounds().Min, draw.Over)
	return canvas
}

func toNRGBA(img image.Image) *image.NRGBA {
	if nrgba, ok := img.(*image.NRGBA); ok {
		return nrgba
	}
	b := img.Bounds()
	dst := image.NewNRGBA(b)
	draw.Draw(dst, b, img, b.Min, draw.Src)
	return dst
}
