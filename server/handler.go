package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/chaos-io/outfitflow/garment"
	"github.com/chaos-io/outfitflow/rembg"
)

// Handler 四个端点的实现
type Handler struct {
	processor *garment.Processor
	batch     *garment.Batch
	health    *rembg.Health // 未配置模型服务时为 nil
	logger    *slog.Logger
}

func NewHandler(processor *garment.Processor, batch *garment.Batch, health *rembg.Health, logger *slog.Logger) *Handler {
	return &Handler{
		processor: processor,
		batch:     batch,
		health:    health,
		logger:    logger,
	}
}

func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Virtual Wardrobe API - Background Removal Service",
		"endpoints": gin.H{
			"single": "/remove-background",
			"batch":  "/remove-background-batch",
		},
		"status":       "online",
		"model_status": h.modelStatus(),
	})
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (h *Handler) RemoveBackground(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		h.fail(c, http.StatusBadRequest, fmt.Errorf("missing image file: %w", err))
		return
	}

	contentType := fh.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		h.fail(c, http.StatusBadRequest, errors.New("file must be an image"))
		return
	}

	data, err := readUpload(fh)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, fmt.Errorf("read upload: %w", err))
		return
	}

	h.logger.Info("processing image",
		"filename", fh.Filename,
		"declared", contentType,
		"detected", mimetype.Detect(data).String(),
		"bytes", len(data),
		"request_id", c.GetString(requestIDKey))

	out, err := h.processor.Process(c.Request.Context(), data)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "processed_"+fh.Filename))
	c.Data(http.StatusOK, "image/jpeg", out)
}

func (h *Handler) RemoveBackgroundBatch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		h.fail(c, http.StatusBadRequest, fmt.Errorf("invalid multipart form: %w", err))
		return
	}

	files := form.File["files"]
	// 数量不对就整批拒绝，不读文件内容
	if err := garment.CheckBatchSize(len(files)); err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}

	h.logger.Info("processing batch",
		"count", len(files),
		"request_id", c.GetString(requestIDKey))

	items := make([]garment.Item, 0, len(files))
	for _, fh := range files {
		data, err := readUpload(fh)
		if err != nil {
			// 读不出来按单项失败处理，空数据会在解码时报错并被跳过
			h.logger.Error("read upload failed", "filename", fh.Filename, "error", err.Error())
			data = nil
		}
		items = append(items, garment.Item{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	out, _, err := h.batch.Run(c.Request.Context(), items)
	if err != nil {
		var sizeErr *garment.SizeError
		if errors.As(err, &sizeErr) {
			h.fail(c, http.StatusBadRequest, err)
			return
		}
		h.fail(c, http.StatusInternalServerError, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="processed_garments.zip"`)
	c.Data(http.StatusOK, "application/zip", out)
}

func (h *Handler) fail(c *gin.Context, status int, err error) {
	h.logger.Error("request failed",
		"path", c.Request.URL.Path,
		"status", status,
		"error", err.Error(),
		"request_id", c.GetString(requestIDKey))
	c.JSON(status, gin.H{"detail": err.Error()})
}

func (h *Handler) modelStatus() string {
	switch {
	case h.health == nil:
		return "disabled"
	case h.health.Online():
		return "online"
	default:
		return "offline"
	}
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	return io.ReadAll(f)
}
