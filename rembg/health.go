package rembg

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	nhttp "github.com/chaos-io/outfitflow/util/http"
)

const (
	probeSchedule = "@every 30s"
	probeTimeout  = 5 * time.Second
)

// Health 周期性探测推理服务是否可达
// 结果只影响发现接口里的 model_status 字段，不影响任何处理路径
type Health struct {
	baseURL string
	cli     nhttp.IClient
	cron    *cron.Cron
	online  atomic.Bool
	logger  *slog.Logger
}

func NewHealth(baseURL string, logger *slog.Logger) *Health {
	return &Health{
		baseURL: strings.TrimRight(baseURL, "/"),
		cli:     nhttp.NewHTTPClient(),
		cron:    cron.New(),
		logger:  logger,
	}
}

func (h *Health) Start() error {
	h.probe()
	if _, err := h.cron.AddFunc(probeSchedule, h.probe); err != nil {
		return err
	}
	h.cron.Start()
	return nil
}

func (h *Health) Stop() {
	<-h.cron.Stop().Done()
}

func (h *Health) Online() bool {
	return h.online.Load()
}

func (h *Health) probe() {
	err := h.cli.DoHTTPRequest(context.Background(), &nhttp.RequestParam{
		RequestURI: h.baseURL + "/",
		Method:     "GET",
		Timeout:    probeTimeout,
	})

	was := h.online.Swap(err == nil)
	switch {
	case err != nil && was:
		h.logger.Warn("model server went offline", "url", h.baseURL, "error", err.Error())
	case err == nil && !was:
		h.logger.Info("model server online", "url", h.baseURL)
	}
}
