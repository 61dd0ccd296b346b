package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"earnradar/internal/ingest"
	"earnradar/internal/repository"
)

type SyncHandler struct {
	Repo   repository.Repository
	Syncer *ingest.Syncer
}

func (h *SyncHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/sync")
	group.POST("", h.triggerSync)
	group.GET("/state", h.syncState)
}

func (h *SyncHandler) triggerSync(c *gin.Context) {
	if h.Syncer == nil {
		Error(c, http.StatusInternalServerError, "syncer unavailable", nil)
		return
	}
	var only []string
	if src := strings.TrimSpace(c.Query("source")); src != "" {
		only = append(only, src)
	}
	results, err := h.Syncer.Run(c.Request.Context(), only...)
	if err != nil {
		if errors.Is(err, ingest.ErrSyncInProgress) {
			Error(c, http.StatusConflict, err.Error(), nil)
			return
		}
		if strings.Contains(err.Error(), "no matching sources") {
			Error(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, results, nil)
}

func (h *SyncHandler) syncState(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	states, err := h.Repo.ListSyncStates(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, states, nil)
}
