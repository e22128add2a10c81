package garment

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBatch() *Batch {
	return NewBatch(newTestProcessor(nil), testLogger())
}

func readZipNames(t *testing.T, data []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func TestBatch_Run_SizeValidation(t *testing.T) {
	t.Parallel()

	b := newTestBatch()

	_, _, err := b.Run(context.Background(), nil)
	var sizeErr *SizeError
	require.ErrorAs(t, err, &sizeErr)
	assert.Equal(t, 0, sizeErr.Count)
	assert.Equal(t, "no images received", err.Error())

	items := make([]Item, MaxBatchSize+1)
	for i := range items {
		items[i] = Item{Filename: "a.png", ContentType: "image/png"}
	}
	_, _, err = b.Run(context.Background(), items)
	require.ErrorAs(t, err, &sizeErr)
	assert.Equal(t, MaxBatchSize+1, sizeErr.Count)
	assert.Contains(t, err.Error(), "exceeds the maximum")
}

func TestBatch_Run_FullBatch(t *testing.T) {
	t.Parallel()

	items := make([]Item, MaxBatchSize)
	for i := range items {
		items[i] = Item{
			Filename:    fmt.Sprintf("garment-%d.png", i),
			ContentType: "image/png",
			Data:        pngImage(t, 60, 40),
		}
	}

	out, summary, err := newTestBatch().Run(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, MaxBatchSize, summary.Processed)

	names := readZipNames(t, out)
	require.Len(t, names, MaxBatchSize)
	for i, name := range names {
		assert.Equal(t, fmt.Sprintf("%03d_garment-%d.jpg", i, i), name)
	}
}

// 非图片类型被跳过，其余条目保留原始序号
func TestBatch_Run_SkipsNonImages(t *testing.T) {
	t.Parallel()

	items := []Item{
		{Filename: "a.png", ContentType: "image/png", Data: pngImage(t, 30, 30)},
		{Filename: "notes.txt", ContentType: "text/plain", Data: []byte("hello")},
		{Filename: "b.png", ContentType: "image/png", Data: pngImage(t, 30, 30)},
	}

	out, summary, err := newTestBatch().Run(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.Skipped)

	names := readZipNames(t, out)
	assert.Equal(t, []string{"000_a.jpg", "002_b.jpg"}, names)
}

// 单项解码失败跳过，批量继续
func TestBatch_Run_ToleratesItemFailure(t *testing.T) {
	t.Parallel()

	items := []Item{
		{Filename: "good.png", ContentType: "image/png", Data: pngImage(t, 30, 30)},
		{Filename: "broken.png", ContentType: "image/png", Data: []byte("corrupt")},
		{Filename: "also-good.jpg", ContentType: "image/jpeg", Data: pngImage(t, 30, 30)},
	}

	out, summary, err := newTestBatch().Run(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.Failed)

	names := readZipNames(t, out)
	assert.Equal(t, []string{"000_good.jpg", "002_also-good.jpg"}, names)
}

// 全部失败也返回合法的空 ZIP
func TestBatch_Run_AllFailedYieldsEmptyArchive(t *testing.T) {
	t.Parallel()

	items := []Item{
		{Filename: "x.png", ContentType: "image/png", Data: []byte("nope")},
		{Filename: "y.txt", ContentType: "text/plain", Data: []byte("nope")},
	}

	out, summary, err := newTestBatch().Run(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Processed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Failed)
	assert.Empty(t, readZipNames(t, out))
}

func TestBaseName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"dress.png", "dress"},
		{"jacket.v2.jpeg", "jacket.v2"},
		{"no-extension", "no-extension"},
		{".hidden", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, baseName(tt.in), tt.in)
	}
}
