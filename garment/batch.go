package garment

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// MaxBatchSize 单次批量上限
const MaxBatchSize = 15

// Item 一次上传里的单个文件
type Item struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Summary 批量处理的结果统计，只用于日志
type Summary struct {
	Processed int
	Skipped   int
	Failed    int
}

// SizeError 批量数量不合法，属于请求级错误
type SizeError struct {
	Count int
}

func (e *SizeError) Error() string {
	if e.Count == 0 {
		return "no images received"
	}
	return fmt.Sprintf("batch of %d exceeds the maximum of %d images", e.Count, MaxBatchSize)
}

// Batch 顺序处理一组图片并打包成 ZIP
// 逐张处理是刻意的：同一时刻只有一张图的缓冲在内存里
type Batch struct {
	processor *Processor
	logger    *slog.Logger
}

func NewBatch(processor *Processor, logger *slog.Logger) *Batch {
	return &Batch{
		processor: processor,
		logger:    logger,
	}
}

// Run 按输入顺序处理每一项，单项失败跳过不中断
// 全部失败时仍返回空 ZIP，调用方可以用条目数判断
func (b *Batch) Run(ctx context.Context, items []Item) ([]byte, Summary, error) {
	if err := CheckBatchSize(len(items)); err != nil {
		return nil, Summary{}, err
	}

	var summary Summary
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)

	for idx, item := range items {
		if !strings.HasPrefix(item.ContentType, "image/") {
			b.logger.Warn("not an image, skipping",
				"index", idx, "filename", item.Filename, "content_type", item.ContentType)
			summary.Skipped++
			continue
		}

		b.logger.Info("processing batch item",
			"index", idx, "total", len(items), "filename", item.Filename)

		out, err := b.processor.Process(ctx, item.Data)
		if err != nil {
			b.logger.Error("batch item failed, skipping",
				"index", idx, "filename", item.Filename, "error", err.Error())
			summary.Failed++
			continue
		}

		name := fmt.Sprintf("%03d_%s.jpg", idx, baseName(item.Filename))
		w, err := zw.Create(name)
		if err != nil {
			return nil, summary, fmt.Errorf("create zip entry %s: %w", name, err)
		}
		if _, err := w.Write(out); err != nil {
			return nil, summary, fmt.Errorf("write zip entry %s: %w", name, err)
		}
		summary.Processed++
	}

	if err := zw.Close(); err != nil {
		return nil, summary, fmt.Errorf("close zip: %w", err)
	}

	b.logger.Info("batch done",
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"zip_bytes", buf.Len())

	return buf.Bytes(), summary, nil
}

// CheckBatchSize 批量数量校验，handler 在读取文件内容前也会调用
func CheckBatchSize(n int) error {
	if n == 0 || n > MaxBatchSize {
		return &SizeError{Count: n}
	}
	return nil
}

// baseName 去掉最后一个扩展名
func baseName(filename string) string {
	if i := strings.LastIndexByte(filename, '.'); i >= 0 {
		return filename[:i]
	}
	return filename
}
