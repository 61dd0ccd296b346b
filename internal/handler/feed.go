package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"earnradar/internal/cursor"
	"earnradar/internal/feed"
	"earnradar/internal/wallet"
)

type FeedHandler struct {
	Feed *feed.Service
}

func (h *FeedHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/feed", h.feedPage)
}

func (h *FeedHandler) feedPage(c *gin.Context) {
	if h.Feed == nil {
		Error(c, http.StatusInternalServerError, "feed unavailable", nil)
		return
	}
	address := strings.TrimSpace(c.Query("address"))
	if address != "" && !wallet.ValidAddress(address) {
		Error(c, http.StatusBadRequest, "invalid wallet address", nil)
		return
	}
	token := strings.TrimSpace(c.Query("cursor"))
	limit := intQuery(c, "limit", 0)

	page, err := h.Feed.Page(c.Request.Context(), address, token, limit)
	if err != nil {
		if isCursorError(err) {
			Error(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}

	meta := map[string]any{
		"snapshot_ts": page.SnapshotTS,
		"total":       page.Total,
	}
	if page.NextCursor != "" {
		meta["next_cursor"] = page.NextCursor
	}
	Ok(c, page.Items, meta)
}

func isCursorError(err error) bool {
	if errors.Is(err, cursor.ErrEmptyCursor) ||
		errors.Is(err, cursor.ErrMalformed) ||
		errors.Is(err, cursor.ErrNotArray) ||
		errors.Is(err, cursor.ErrLength) {
		return true
	}
	return strings.HasPrefix(err.Error(), "cursor:")
}
