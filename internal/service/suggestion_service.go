package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-match-api/internal/dto"
	"github.com/noah-isme/tutor-match-api/internal/models"
	appErrors "github.com/noah-isme/tutor-match-api/pkg/errors"
)

// suggestionStore persists suggestions. Transition is a compare-and-swap on status NEW and
// returns sql.ErrNoRows when the suggestion is missing or already handled.
type suggestionStore interface {
	Create(ctx context.Context, suggestion *models.MatchSuggestion) error
	GetByID(ctx context.Context, id string) (*models.MatchSuggestion, error)
	List(ctx context.Context, filter models.SuggestionFilter) ([]models.MatchSuggestion, error)
	Transition(ctx context.Context, params models.SuggestionTransition) error
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type poolResolver interface {
	ResolvePool(ctx context.Context, explicit []models.Tutor) ([]models.Tutor, error)
}

// SuggestionService manages the suggestion lifecycle: NEW, then exactly one of REVIEWED or REJECTED.
type SuggestionService struct {
	store     suggestionStore
	pools     poolResolver
	audit     auditLogger
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewSuggestionService constructs the service. pools and audit are optional.
func NewSuggestionService(store suggestionStore, pools poolResolver, audit auditLogger, metrics *MetricsService, logger *zap.Logger) *SuggestionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SuggestionService{
		store:     store,
		pools:     pools,
		audit:     audit,
		metrics:   metrics,
		validator: newValidator(),
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create persists a NEW suggestion for req pointing at top. The score must be the one the
// scoring engine produces for the pair so stored suggestions stay reproducible.
func (s *SuggestionService) Create(ctx context.Context, req *models.TutoringRequest, top *models.Tutor, score float64, justifications []string, actor string) (*models.MatchSuggestion, error) {
	if req == nil {
		return nil, appErrors.Validation("request", "")
	}
	if top == nil {
		return nil, appErrors.Validation("tutor", "")
	}
	expected := ScoreTutor(*req, *top)
	if expected.Score != roundScore(score) {
		return nil, appErrors.Validation("score", "score does not match the scoring engine output")
	}
	if len(justifications) == 0 {
		justifications = expected.Justifications
	}

	suggestion := &models.MatchSuggestion{
		ID:             uuid.NewString(),
		Status:         models.SuggestionStatusNew,
		Request:        req.Clone(),
		SuggestedTutor: top.Ref(),
		Score:          expected.Score,
		Justifications: append([]string(nil), justifications...),
		CreatedBy:      actor,
		CreatedAt:      s.now(),
	}
	if err := s.store.Create(ctx, suggestion); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create suggestion")
	}
	s.metrics.IncSuggestion(suggestion.Status)
	s.emitAudit(ctx, actor, models.AuditActionSuggestionCreate, suggestion.ID, nil, suggestion)
	return suggestion, nil
}

// Generate ranks the pool for the request and stores the top tutor as a NEW suggestion.
func (s *SuggestionService) Generate(ctx context.Context, req dto.GenerateSuggestionRequest, actor string) (*models.MatchSuggestion, error) {
	if err := s.validator.Struct(req.Request); err != nil {
		return nil, validationError(err)
	}
	pool := req.Tutors
	if len(pool) == 0 {
		if s.pools == nil {
			return nil, appErrors.Validation("tutors", "")
		}
		var err error
		if pool, err = s.pools.ResolvePool(ctx, nil); err != nil {
			return nil, err
		}
	}
	top, result, ok := TopTutor(req.Request, pool)
	if !ok {
		return nil, appErrors.Validation("tutors", "tutor pool is empty")
	}
	return s.Create(ctx, &req.Request, &top, result.Score, result.Justifications, actor)
}

// Get returns a suggestion by id.
func (s *SuggestionService) Get(ctx context.Context, id string) (*models.MatchSuggestion, error) {
	suggestion, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "suggestion not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load suggestion")
	}
	return suggestion, nil
}

// List filters suggestions by status and free text; both constraints must hold.
func (s *SuggestionService) List(ctx context.Context, query dto.SuggestionQuery) ([]models.MatchSuggestion, *models.Pagination, error) {
	for _, status := range query.Status {
		switch status {
		case models.SuggestionStatusNew, models.SuggestionStatusReviewed, models.SuggestionStatusRejected:
		default:
			return nil, nil, appErrors.Validation("status", "status must be NEW, REVIEWED or REJECTED")
		}
	}
	filter := models.SuggestionFilter{
		Status:     query.Status,
		SearchText: strings.TrimSpace(query.Search),
		Limit:      normaliseLimit(query.Limit),
		Offset:     normaliseOffset(query.Offset),
	}
	suggestions, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list suggestions")
	}
	return suggestions, &models.Pagination{Limit: filter.Limit, Offset: filter.Offset, Count: len(suggestions)}, nil
}

// Transition moves a NEW suggestion to REVIEWED or REJECTED. Concurrent callers race on the
// store's compare-and-swap; losers get the invalid transition error.
func (s *SuggestionService) Transition(ctx context.Context, id string, req dto.TransitionSuggestionRequest, actor string) (*models.MatchSuggestion, error) {
	target := models.SuggestionStatus(strings.ToUpper(strings.TrimSpace(string(req.Status))))
	if !target.Terminal() {
		return nil, appErrors.Validation("status", "status must be REVIEWED or REJECTED")
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status.Terminal() {
		return nil, appErrors.ErrInvalidTransition
	}

	params := models.SuggestionTransition{
		ID:         id,
		Status:     target,
		Note:       optionalString(req.Note),
		ReviewedBy: actor,
		ReviewedAt: s.now(),
	}
	if err := s.store.Transition(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidTransition
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update suggestion")
	}

	previous := current.Clone()
	current.Status = params.Status
	current.Note = params.Note
	current.ReviewedBy = &params.ReviewedBy
	current.ReviewedAt = &params.ReviewedAt
	s.metrics.IncSuggestion(current.Status)
	s.emitAudit(ctx, actor, models.AuditActionSuggestionTransition, id, &previous, current)
	return current, nil
}

func (s *SuggestionService) emitAudit(ctx context.Context, actor, action, id string, before, after *models.MatchSuggestion) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{
		Action:     action,
		Resource:   "match_suggestion",
		ResourceID: &id,
		IPAddress:  "system",
		UserAgent:  "suggestion-service",
		CreatedAt:  s.now(),
	}
	if actor != "" {
		entry.UserID = &actor
	}
	if before != nil {
		entry.OldValues, _ = json.Marshal(before)
	}
	if after != nil {
		entry.NewValues, _ = json.Marshal(after)
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to persist audit log", zap.String("suggestion_id", id), zap.Error(err))
	}
}

func optionalString(value string) *string {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil
	}
	return &v
}

func normaliseLimit(limit int) int {
	if limit <= 0 || limit > 200 {
		return 50
	}
	return limit
}

func normaliseOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
