package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-match-api/internal/dto"
	"github.com/noah-isme/tutor-match-api/internal/middleware"
	appErrors "github.com/noah-isme/tutor-match-api/pkg/errors"
	"github.com/noah-isme/tutor-match-api/pkg/response"
)

type rankingService interface {
	Rank(ctx context.Context, req dto.RankRequest) (*dto.RankResponse, error)
	InvalidatePool(ctx context.Context) error
}

// MatchingHandler exposes tutor ranking.
type MatchingHandler struct {
	service rankingService
}

// NewMatchingHandler constructs the handler.
func NewMatchingHandler(service rankingService) *MatchingHandler {
	return &MatchingHandler{service: service}
}

// Rank godoc
// @Summary Rank tutors for a tutoring request
// @Description Scores every tutor in the supplied pool, or the active directory pool when none is given, highest first.
// @Tags Matching
// @Accept json
// @Produce json
// @Param payload body dto.RankRequest true "Request and optional tutor pool"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /matching/rank [post]
func (h *MatchingHandler) Rank(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "ranking service not configured"))
		return
	}
	var req dto.RankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid ranking payload"))
		return
	}
	result, err := h.service.Rank(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if len(req.Tutors) == 0 {
		middleware.SetPoolCacheHit(c, result.PoolCache)
	}
	response.JSON(c, http.StatusOK, result, nil, middleware.ExtractMeta(c))
}

// RefreshPool godoc
// @Summary Drop the cached tutor pool
// @Tags Matching
// @Produce json
// @Success 202 {object} response.Envelope
// @Router /matching/pool/refresh [post]
func (h *MatchingHandler) RefreshPool(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "ranking service not configured"))
		return
	}
	if err := h.service.InvalidatePool(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, gin.H{"refreshed": true})
}
