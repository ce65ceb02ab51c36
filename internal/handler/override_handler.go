package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-match-api/internal/dto"
	"github.com/noah-isme/tutor-match-api/internal/models"
	appErrors "github.com/noah-isme/tutor-match-api/pkg/errors"
	"github.com/noah-isme/tutor-match-api/pkg/response"
)

type overrideService interface {
	CreateOverride(ctx context.Context, req dto.CreateOverrideRequest, actor string) (*models.ManualAssignment, error)
	Get(ctx context.Context, id string) (*models.ManualAssignment, error)
	List(ctx context.Context, query dto.OverrideQuery) ([]models.ManualAssignment, *models.Pagination, error)
}

// OverrideHandler exposes coordinator manual assignments.
type OverrideHandler struct {
	service overrideService
}

// NewOverrideHandler constructs the handler.
func NewOverrideHandler(service overrideService) *OverrideHandler {
	return &OverrideHandler{service: service}
}

// Create godoc
// @Summary Record a manual tutor assignment
// @Description Persists the override and rejects the linked suggestion when it is still NEW.
// @Tags Overrides
// @Accept json
// @Produce json
// @Param payload body dto.CreateOverrideRequest true "Override payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /overrides [post]
func (h *OverrideHandler) Create(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "override service not configured"))
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid override payload"))
		return
	}
	record, err := h.service.CreateOverride(c.Request.Context(), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.OverrideResponse{Record: record})
}

// List godoc
// @Summary List manual assignments
// @Tags Overrides
// @Produce json
// @Param studentId query string false "Student ID"
// @Param tutorId query string false "Tutor ID"
// @Param actor query string false "Coordinator who recorded the override"
// @Param suggestionId query string false "Linked suggestion ID"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} response.Envelope
// @Router /overrides [get]
func (h *OverrideHandler) List(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "override service not configured"))
		return
	}
	query := dto.OverrideQuery{
		StudentID:    strings.TrimSpace(c.Query("studentId")),
		TutorID:      strings.TrimSpace(c.Query("tutorId")),
		Actor:        strings.TrimSpace(c.Query("actor")),
		SuggestionID: strings.TrimSpace(c.Query("suggestionId")),
		Limit:        queryInt(c, "limit"),
		Offset:       queryInt(c, "offset"),
	}
	records, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// Get godoc
// @Summary Get manual assignment detail
// @Tags Overrides
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /overrides/{id} [get]
func (h *OverrideHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "override service not configured"))
		return
	}
	record, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}
