package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-match-api/internal/dto"
	"github.com/noah-isme/tutor-match-api/internal/models"
	appErrors "github.com/noah-isme/tutor-match-api/pkg/errors"
	"github.com/noah-isme/tutor-match-api/pkg/response"
)

type suggestionService interface {
	Generate(ctx context.Context, req dto.GenerateSuggestionRequest, actor string) (*models.MatchSuggestion, error)
	Get(ctx context.Context, id string) (*models.MatchSuggestion, error)
	List(ctx context.Context, query dto.SuggestionQuery) ([]models.MatchSuggestion, *models.Pagination, error)
	Transition(ctx context.Context, id string, req dto.TransitionSuggestionRequest, actor string) (*models.MatchSuggestion, error)
}

type batchEnqueuer interface {
	Enqueue(ctx context.Context, req dto.BatchSuggestionRequest, actor string) (*dto.BatchSuggestionResponse, error)
}

type contextCodec interface {
	Serialize(suggestion *models.MatchSuggestion) (string, time.Time, error)
	Deserialize(token string) *models.MatchSuggestion
}

// SuggestionHandler exposes the coordinator suggestion inbox and context handoff.
type SuggestionHandler struct {
	service suggestionService
	batch   batchEnqueuer
	handoff contextCodec
}

// NewSuggestionHandler constructs the handler. batch and handoff may be nil when those
// features are not configured.
func NewSuggestionHandler(service suggestionService, batch batchEnqueuer, handoff contextCodec) *SuggestionHandler {
	return &SuggestionHandler{service: service, batch: batch, handoff: handoff}
}

// Generate godoc
// @Summary Generate a suggestion for a tutoring request
// @Tags Suggestions
// @Accept json
// @Produce json
// @Param payload body dto.GenerateSuggestionRequest true "Request and optional tutor pool"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /suggestions [post]
func (h *SuggestionHandler) Generate(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "suggestion service not configured"))
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.GenerateSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid suggestion payload"))
		return
	}
	suggestion, err := h.service.Generate(c.Request.Context(), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, suggestion)
}

// Batch godoc
// @Summary Queue suggestion generation for many requests
// @Tags Suggestions
// @Accept json
// @Produce json
// @Param payload body dto.BatchSuggestionRequest true "Tutoring requests"
// @Success 202 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /suggestions/batch [post]
func (h *SuggestionHandler) Batch(c *gin.Context) {
	if h.batch == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrServiceDisabled, "batch generation not configured"))
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.BatchSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid batch payload"))
		return
	}
	ack, err := h.batch.Enqueue(c.Request.Context(), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, ack)
}

// List godoc
// @Summary List suggestions for the coordinator inbox
// @Tags Suggestions
// @Produce json
// @Param status query string false "Comma separated statuses (NEW, REVIEWED, REJECTED)"
// @Param search query string false "Student name or course substring"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} response.Envelope
// @Router /suggestions [get]
func (h *SuggestionHandler) List(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "suggestion service not configured"))
		return
	}
	query := dto.SuggestionQuery{
		Search: strings.TrimSpace(c.Query("search")),
		Limit:  queryInt(c, "limit"),
		Offset: queryInt(c, "offset"),
	}
	if rawStatus := c.Query("status"); rawStatus != "" {
		for _, part := range strings.Split(rawStatus, ",") {
			part = strings.ToUpper(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			query.Status = append(query.Status, models.SuggestionStatus(part))
		}
	}
	suggestions, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, suggestions, pagination)
}

// Get godoc
// @Summary Get suggestion detail
// @Tags Suggestions
// @Produce json
// @Param id path string true "Suggestion ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /suggestions/{id} [get]
func (h *SuggestionHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "suggestion service not configured"))
		return
	}
	suggestion, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, suggestion, nil)
}

// Transition godoc
// @Summary Mark a suggestion reviewed or rejected
// @Tags Suggestions
// @Accept json
// @Produce json
// @Param id path string true "Suggestion ID"
// @Param payload body dto.TransitionSuggestionRequest true "Target status and optional note"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /suggestions/{id}/transition [post]
func (h *SuggestionHandler) Transition(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "suggestion service not configured"))
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.TransitionSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid transition payload"))
		return
	}
	suggestion, err := h.service.Transition(c.Request.Context(), c.Param("id"), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, suggestion, nil)
}

// Handoff godoc
// @Summary Issue a context token for the override screen
// @Tags Suggestions
// @Produce json
// @Param id path string true "Suggestion ID"
// @Success 200 {object} response.Envelope
// @Router /suggestions/{id}/handoff [post]
func (h *SuggestionHandler) Handoff(c *gin.Context) {
	if h.service == nil || h.handoff == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrServiceDisabled, "context handoff not configured"))
		return
	}
	suggestion, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	token, expiresAt, err := h.handoff.Serialize(suggestion)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.HandoffResponse{Token: token, ExpiresAt: expiresAt}, nil)
}

// ResolveHandoff godoc
// @Summary Read back a handoff context token
// @Description Returns the suggestion snapshot, or null data when the token is expired, forged or malformed.
// @Tags Suggestions
// @Produce json
// @Param token path string true "Context token"
// @Success 200 {object} response.Envelope
// @Router /handoff/{token} [get]
func (h *SuggestionHandler) ResolveHandoff(c *gin.Context) {
	if h.handoff == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrServiceDisabled, "context handoff not configured"))
		return
	}
	snapshot := h.handoff.Deserialize(c.Param("token"))
	if snapshot == nil {
		response.JSON(c, http.StatusOK, nil, nil)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}
