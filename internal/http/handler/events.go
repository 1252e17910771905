package handler

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/edirooss/gasket-console/internal/notify"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultNoticeLimit = 50
	noticePollInterval = time.Second
)

// ListNotices handles GET /api/notices.
//
//	?since=N → notices with Seq > N, oldest first
//	?limit=N → otherwise the N most recent, newest first (default 50)
func (h *ConsoleHandler) ListNotices(c *gin.Context) {
	feed := h.svc.Notices()
	c.Header("X-Last-Seq", strconv.FormatUint(feed.LastSeq(), 10))

	if raw, ok := c.GetQuery("since"); ok {
		since, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.Error(err)
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid since"})
			return
		}
		c.JSON(http.StatusOK, orEmpty(feed.Since(since)))
		return
	}

	limit := defaultNoticeLimit
	if raw, ok := c.GetQuery("limit"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid limit"})
			return
		}
		limit = n
	}
	c.JSON(http.StatusOK, orEmpty(feed.Recent(limit)))
}

func orEmpty(ns []notify.Notice) []notify.Notice {
	if ns == nil {
		return []notify.Notice{}
	}
	return ns
}

// Events handles GET /api/events as a server-sent event stream:
//
//	event: snapshot → every installed snapshot (latest wins for slow readers)
//	event: notice   → every notice pushed after the stream opened
//
// The current snapshot is sent first.
func (h *ConsoleHandler) Events(c *gin.Context) {
	ctx := c.Request.Context()
	snaps := h.svc.Store().Watch(ctx)
	feed := h.svc.Notices()
	lastNotice := feed.LastSeq()

	ticker := time.NewTicker(noticePollInterval)
	defer ticker.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	h.log.Debug("event stream opened", zap.String("remote", c.ClientIP()))
	defer h.log.Debug("event stream closed", zap.String("remote", c.ClientIP()))

	c.Stream(func(io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case snap, ok := <-snaps:
			if !ok {
				return false
			}
			c.SSEvent("snapshot", snap)
			return true
		case <-ticker.C:
			for _, n := range feed.Since(lastNotice) {
				c.SSEvent("notice", n)
				lastNotice = n.Seq
			}
			return true
		}
	})
}
