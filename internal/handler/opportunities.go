package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"earnradar/internal/repository"
	"earnradar/internal/scoring"
	"earnradar/internal/wallet"
)

type OpportunityHandler struct {
	Repo   repository.Repository
	Wallet *wallet.Client
}

func (h *OpportunityHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/opportunities")
	group.GET("", h.listOpportunities)
	group.GET("/:slug", h.getOpportunity)
	group.GET("/:slug/eligibility", h.checkEligibility)
}

func (h *OpportunityHandler) listOpportunities(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	order := strings.TrimSpace(strings.ToLower(c.Query("order")))

	orderBy := parseOrder(c.Query("sort_by"), map[string]string{
		"trust_score": "trust_score",
		"rank_score":  "rank_score",
		"expires_at":  "expires_at",
		"created_at":  "created_at",
		"updated_at":  "updated_at",
	})
	if orderBy == "" {
		orderBy = "trust_score"
	}

	params := repository.ListOpportunitiesParams{
		Limit:    limit,
		Offset:   offset,
		Status:   strQueryPtr(c, "status"),
		Type:     strQueryPtr(c, "type"),
		Chain:    strQueryPtr(c, "chain"),
		Source:   strQueryPtr(c, "source"),
		Protocol: strQueryPtr(c, "protocol"),
		MinTrust: floatQueryPtr(c, "min_trust"),
		OrderBy:  orderBy,
		Asc:      boolPtr(order == "asc"),
	}

	items, err := h.Repo.ListOpportunities(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountOpportunities(c.Request.Context(), repository.ListOpportunitiesParams{
		Status:   params.Status,
		Type:     params.Type,
		Chain:    params.Chain,
		Source:   params.Source,
		Protocol: params.Protocol,
		MinTrust: params.MinTrust,
	})
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

func (h *OpportunityHandler) getOpportunity(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		Error(c, http.StatusBadRequest, "invalid slug", nil)
		return
	}
	item, err := h.Repo.GetOpportunityBySlug(c.Request.Context(), slug)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "opportunity not found", nil)
		return
	}
	Ok(c, item, nil)
}

func (h *OpportunityHandler) checkEligibility(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	slug := strings.TrimSpace(c.Param("slug"))
	address := strings.TrimSpace(c.Query("address"))
	if !wallet.ValidAddress(address) {
		Error(c, http.StatusBadRequest, "invalid wallet address", nil)
		return
	}

	item, err := h.Repo.GetOpportunityBySlug(c.Request.Context(), slug)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "opportunity not found", nil)
		return
	}

	// Signals are best-effort: a provider outage degrades the verdict, it
	// does not fail the request.
	var sig *wallet.Signals
	if h.Wallet != nil {
		if got, err := h.Wallet.GetSignals(c.Request.Context(), address); err == nil {
			sig = got
		}
	}
	result := scoring.EvaluateEligibility(sig, item)
	Ok(c, result, map[string]any{"slug": item.Slug, "address": address})
}
