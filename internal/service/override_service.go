package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-match-api/internal/dto"
	"github.com/noah-isme/tutor-match-api/internal/models"
	appErrors "github.com/noah-isme/tutor-match-api/pkg/errors"
)

type assignmentStore interface {
	Create(ctx context.Context, assignment *models.ManualAssignment) error
	GetByID(ctx context.Context, id string) (*models.ManualAssignment, error)
	List(ctx context.Context, filter models.ManualAssignmentFilter) ([]models.ManualAssignment, error)
}

type suggestionTransitioner interface {
	Transition(ctx context.Context, id string, req dto.TransitionSuggestionRequest, actor string) (*models.MatchSuggestion, error)
}

type contextResolver interface {
	Resolve(raw json.RawMessage) *models.MatchSuggestion
}

// overrideInput holds the trimmed required fields in the order they are reported.
type overrideInput struct {
	StudentID string `json:"studentId" validate:"required"`
	TutorID   string `json:"tutorId" validate:"required"`
	Reason    string `json:"reason" validate:"required"`
}

// OverrideService records coordinator overrides. The stored assignment is the audit entry.
type OverrideService struct {
	store       assignmentStore
	suggestions suggestionTransitioner
	contexts    contextResolver
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewOverrideService constructs the service. suggestions and contexts are optional; without
// them overrides are recorded unlinked.
func NewOverrideService(store assignmentStore, suggestions suggestionTransitioner, contexts contextResolver, metrics *MetricsService, logger *zap.Logger) *OverrideService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverrideService{
		store:       store,
		suggestions: suggestions,
		contexts:    contexts,
		metrics:     metrics,
		validator:   newValidator(),
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreateOverride validates and persists a manual assignment. Nothing is written when
// validation fails. A linked NEW suggestion is then moved to REJECTED; a missing or already
// handled suggestion is left as it is.
func (s *OverrideService) CreateOverride(ctx context.Context, req dto.CreateOverrideRequest, actor string) (*models.ManualAssignment, error) {
	input := overrideInput{
		StudentID: strings.TrimSpace(req.StudentID),
		TutorID:   strings.TrimSpace(req.TutorID),
		Reason:    strings.TrimSpace(req.Reason),
	}
	if err := s.validator.Struct(input); err != nil {
		return nil, validationError(err)
	}
	if strings.TrimSpace(actor) == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "acting coordinator is required")
	}

	var snapshot *models.MatchSuggestion
	if s.contexts != nil {
		snapshot = s.contexts.Resolve(req.SuggestionContext)
	}

	assignment := &models.ManualAssignment{
		ID:                 uuid.NewString(),
		StudentID:          input.StudentID,
		TutorID:            input.TutorID,
		Course:             strings.TrimSpace(req.Course),
		Reason:             input.Reason,
		SuggestedSlot:      optionalPtr(req.Slot),
		SuggestionID:       linkedSuggestionID(req.SuggestionID, snapshot),
		SuggestionSnapshot: snapshot,
		Actor:              actor,
		CreatedAt:          s.now(),
	}
	if assignment.Course == "" && snapshot != nil {
		assignment.Course = snapshot.Request.Course
	}

	if err := s.store.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record manual assignment")
	}
	s.metrics.IncOverride(assignment.SuggestionID != nil)
	s.rejectLinked(ctx, assignment)

	s.logger.Info("manual assignment recorded",
		zap.String("assignment_id", assignment.ID),
		zap.String("student_id", assignment.StudentID),
		zap.String("tutor_id", assignment.TutorID),
		zap.String("actor", actor),
		zap.Bool("has_context", snapshot != nil),
	)
	return assignment, nil
}

// Get returns one assignment by id.
func (s *OverrideService) Get(ctx context.Context, id string) (*models.ManualAssignment, error) {
	assignment, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "manual assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load manual assignment")
	}
	return assignment, nil
}

// List returns the assignment log, newest first.
func (s *OverrideService) List(ctx context.Context, query dto.OverrideQuery) ([]models.ManualAssignment, *models.Pagination, error) {
	filter := models.ManualAssignmentFilter{
		StudentID:    strings.TrimSpace(query.StudentID),
		TutorID:      strings.TrimSpace(query.TutorID),
		Actor:        strings.TrimSpace(query.Actor),
		SuggestionID: strings.TrimSpace(query.SuggestionID),
		Limit:        normaliseLimit(query.Limit),
		Offset:       normaliseOffset(query.Offset),
	}
	assignments, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list manual assignments")
	}
	return assignments, &models.Pagination{Limit: filter.Limit, Offset: filter.Offset, Count: len(assignments)}, nil
}

func (s *OverrideService) rejectLinked(ctx context.Context, assignment *models.ManualAssignment) {
	if s.suggestions == nil || assignment.SuggestionID == nil {
		return
	}
	id := *assignment.SuggestionID
	_, err := s.suggestions.Transition(ctx, id, dto.TransitionSuggestionRequest{
		Status: models.SuggestionStatusRejected,
		Note:   fmt.Sprintf("Superseded by manual assignment %s", assignment.ID),
	}, assignment.Actor)
	switch {
	case err == nil:
	case errors.Is(err, appErrors.ErrNotFound), errors.Is(err, appErrors.ErrInvalidTransition):
		s.logger.Debug("linked suggestion left unchanged", zap.String("suggestion_id", id), zap.Error(err))
	default:
		s.logger.Warn("failed to reject linked suggestion", zap.String("suggestion_id", id), zap.Error(err))
	}
}

func linkedSuggestionID(explicit *string, snapshot *models.MatchSuggestion) *string {
	if id := optionalPtr(explicit); id != nil {
		return id
	}
	if snapshot != nil && strings.TrimSpace(snapshot.ID) != "" {
		id := strings.TrimSpace(snapshot.ID)
		return &id
	}
	return nil
}

func optionalPtr(value *string) *string {
	if value == nil {
		return nil
	}
	return optionalString(*value)
}
