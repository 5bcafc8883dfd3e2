package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/courierhub-platform/internal/config"
	"github.com/courierhub-platform/internal/domain/ledger"
	"github.com/courierhub-platform/internal/domain/shared"
)

// WatchHandler streams live ledger snapshots over server-sent events.
// Dashboards subscribe with a filter and receive a full query snapshot on
// every relevant change; the watcher conflates, so a slow consumer always
// gets the latest state rather than a backlog.
type WatchHandler struct {
	watcher   ledger.Watcher
	heartbeat time.Duration
	logger    *slog.Logger
}

// NewWatchHandler creates a new watch handler
func NewWatchHandler(cfg *config.WatchConfig, logger *slog.Logger, watcher ledger.Watcher) *WatchHandler {
	return &WatchHandler{
		watcher:   watcher,
		heartbeat: cfg.Heartbeat,
		logger:    logger,
	}
}

// Watch subscribes the client to live transaction snapshots filtered by
// driver, vendor, or status. The stream stays open until the client
// disconnects; idle periods carry SSE comments so proxies keep the
// connection alive.
func (h *WatchHandler) Watch(c *gin.Context) {
	var query WatchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.logger.Error("Invalid watch query", "error", err)
		RespondBadRequest(c, "Invalid watch query: "+err.Error())
		return
	}

	sub, err := h.watcher.Subscribe(c.Request.Context(), ledger.TransactionQuery{
		DriverID: query.DriverID,
		VendorID: query.VendorID,
		Status:   shared.TransactionStatus(query.Status),
		Limit:    query.Limit,
	})
	if err != nil {
		h.logger.Error("Failed to subscribe to transaction snapshots", "error", err)
		RespondInternalError(c)
		return
	}
	defer sub.Cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case snapshot, ok := <-sub.C:
			if !ok {
				return
			}
			c.SSEvent("snapshot", snapshot)
			c.Writer.Flush()
		case <-heartbeat.C:
			if _, err := c.Writer.WriteString(": keep-alive\n\n"); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}
