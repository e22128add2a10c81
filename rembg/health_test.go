package rembg

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealth_Probe(t *testing.T) {
	t.Parallel()

	var failing atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	h := NewHealth(server.URL, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.False(t, h.Online())

	h.probe()
	assert.True(t, h.Online())

	failing.Store(true)
	h.probe()
	assert.False(t, h.Online())

	failing.Store(false)
	h.probe()
	assert.True(t, h.Online())
}

func TestHealth_Probe_Unreachable(t *testing.T) {
	t.Parallel()

	h := NewHealth("http://127.0.0.1:1", slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.probe()
	assert.False(t, h.Online())
}
