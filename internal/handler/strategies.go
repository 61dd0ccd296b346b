package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"earnradar/internal/models"
	"earnradar/internal/repository"
	"earnradar/internal/scoring"
)

type StrategyHandler struct {
	Repo repository.Repository
}

func (h *StrategyHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/strategies")
	group.GET("", h.listStrategies)
	group.POST("", h.createStrategy)
	group.GET("/:name", h.getStrategy)
	group.PUT("/:name", h.updateStrategy)
	group.DELETE("/:name", h.deleteStrategy)
}

type strategyRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Steps       []string `json:"steps"`
}

func (h *StrategyHandler) listStrategies(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	items, err := h.Repo.ListStrategies(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

func (h *StrategyHandler) getStrategy(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	item, err := h.Repo.GetStrategyByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "strategy not found", nil)
		return
	}
	Ok(c, item, nil)
}

func (h *StrategyHandler) createStrategy(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	var req strategyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		Error(c, http.StatusBadRequest, "name is required", nil)
		return
	}
	if existing, err := h.Repo.GetStrategyByName(c.Request.Context(), req.Name); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	} else if existing != nil {
		Error(c, http.StatusConflict, "strategy already exists", nil)
		return
	}
	if dup := duplicateStep(req.Steps); dup != "" {
		Error(c, http.StatusBadRequest, "duplicate step: "+dup, nil)
		return
	}

	agg, err := h.recomputeTrust(c, req.Steps)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}

	item := &models.Strategy{
		Name:                req.Name,
		Description:         req.Description,
		Steps:               models.EncodeSteps(req.Steps),
		TrustScoreCached:    agg.TrustScoreCached,
		StepsTrustBreakdown: models.EncodeBreakdown(agg.StepsTrustBreakdown),
	}
	if err := h.Repo.CreateStrategy(c.Request.Context(), item); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}

func (h *StrategyHandler) updateStrategy(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	item, err := h.Repo.GetStrategyByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "strategy not found", nil)
		return
	}

	var req strategyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	// The trust score is recomputed only when the step list changes; a pure
	// description edit keeps the cached value.
	if req.Steps != nil {
		if dup := duplicateStep(req.Steps); dup != "" {
			Error(c, http.StatusBadRequest, "duplicate step: "+dup, nil)
			return
		}
		agg, err := h.recomputeTrust(c, req.Steps)
		if err != nil {
			Error(c, http.StatusBadGateway, err.Error(), nil)
			return
		}
		item.Steps = models.EncodeSteps(req.Steps)
		item.TrustScoreCached = agg.TrustScoreCached
		item.StepsTrustBreakdown = models.EncodeBreakdown(agg.StepsTrustBreakdown)
	}
	if req.Description != "" {
		item.Description = req.Description
	}

	if err := h.Repo.UpdateStrategy(c.Request.Context(), item); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}

func (h *StrategyHandler) deleteStrategy(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	name := strings.TrimSpace(c.Param("name"))
	item, err := h.Repo.GetStrategyByName(c.Request.Context(), name)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "strategy not found", nil)
		return
	}
	if err := h.Repo.DeleteStrategyByName(c.Request.Context(), name); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, map[string]any{"name": name, "deleted": true}, nil)
}

// duplicateStep returns the first slug that appears more than once. Step lists
// must be duplicate-free so the breakdown does not count an opportunity twice.
func duplicateStep(steps []string) string {
	seen := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		step = strings.TrimSpace(step)
		if _, ok := seen[step]; ok {
			return step
		}
		seen[step] = struct{}{}
	}
	return ""
}

// recomputeTrust resolves the step slugs and aggregates their trust scores in
// step order. Slugs that resolve to nothing contribute the default score.
func (h *StrategyHandler) recomputeTrust(c *gin.Context, slugs []string) (scoring.TrustAggregate, error) {
	found, err := h.Repo.ListOpportunitiesBySlugs(c.Request.Context(), slugs)
	if err != nil {
		return scoring.TrustAggregate{}, err
	}
	bySlug := make(map[string]models.Opportunity, len(found))
	for _, opp := range found {
		bySlug[opp.Slug] = opp
	}
	ordered := make([]models.Opportunity, 0, len(slugs))
	for _, slug := range slugs {
		ordered = append(ordered, bySlug[slug])
	}
	return scoring.AggregateTrustScore(ordered), nil
}
