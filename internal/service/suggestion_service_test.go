package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-match-api/internal/dto"
	"github.com/noah-isme/tutor-match-api/internal/models"
	appErrors "github.com/noah-isme/tutor-match-api/pkg/errors"
)

type suggestionStoreStub struct {
	mu          sync.Mutex
	suggestions map[string]*models.MatchSuggestion
	filter      models.SuggestionFilter
}

func newSuggestionStoreStub() *suggestionStoreStub {
	return &suggestionStoreStub{suggestions: make(map[string]*models.MatchSuggestion)}
}

func (s *suggestionStoreStub) Create(ctx context.Context, suggestion *models.MatchSuggestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := suggestion.Clone()
	s.suggestions[suggestion.ID] = &cp
	return nil
}

func (s *suggestionStoreStub) GetByID(ctx context.Context, id string) (*models.MatchSuggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if found, ok := s.suggestions[id]; ok {
		cp := found.Clone()
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *suggestionStoreStub) List(ctx context.Context, filter models.SuggestionFilter) ([]models.MatchSuggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = filter
	result := make([]models.MatchSuggestion, 0, len(s.suggestions))
	for _, item := range s.suggestions {
		result = append(result, item.Clone())
	}
	return result, nil
}

func (s *suggestionStoreStub) Transition(ctx context.Context, params models.SuggestionTransition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	found, ok := s.suggestions[params.ID]
	if !ok || found.Status != models.SuggestionStatusNew {
		return sql.ErrNoRows
	}
	found.Status = params.Status
	found.Note = params.Note
	found.ReviewedBy = &params.ReviewedBy
	found.ReviewedAt = &params.ReviewedAt
	return nil
}

func (s *suggestionStoreStub) status(id string) models.SuggestionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suggestions[id].Status
}

type auditStub struct {
	mu   sync.Mutex
	logs []*models.AuditLog
	err  error
}

func (a *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.logs = append(a.logs, log)
	return nil
}

func newSuggestion(t *testing.T, svc *SuggestionService) *models.MatchSuggestion {
	t.Helper()
	req := pointersRequest()
	tutor := models.Tutor{ID: "tut-1", Name: "Minh", Expertise: []string{"pointers", "recursion stack frames"}}
	result := ScoreTutor(req, tutor)
	suggestion, err := svc.Create(context.Background(), &req, &tutor, result.Score, result.Justifications, "coord-1")
	require.NoError(t, err)
	return suggestion
}

func TestSuggestionServiceCreate(t *testing.T) {
	store := newSuggestionStoreStub()
	audit := &auditStub{}
	svc := NewSuggestionService(store, nil, audit, NewMetricsService(), nil)

	suggestion := newSuggestion(t, svc)

	require.Equal(t, models.SuggestionStatusNew, suggestion.Status)
	require.Equal(t, 0.7, suggestion.Score)
	require.Equal(t, models.TutorRef{ID: "tut-1", Name: "Minh"}, suggestion.SuggestedTutor)
	require.Equal(t, "coord-1", suggestion.CreatedBy)
	require.Len(t, audit.logs, 1)
	require.Equal(t, models.AuditActionSuggestionCreate, audit.logs[0].Action)
}

func TestSuggestionServiceCreateValidation(t *testing.T) {
	svc := NewSuggestionService(newSuggestionStoreStub(), nil, nil, nil, nil)
	ctx := context.Background()
	req := pointersRequest()
	tutor := models.Tutor{ID: "tut-1", Expertise: []string{"pointers"}}

	_, err := svc.Create(ctx, nil, &tutor, 0.45, nil, "coord-1")
	requireField(t, err, "request")

	_, err = svc.Create(ctx, &req, nil, 0.45, nil, "coord-1")
	requireField(t, err, "tutor")

	_, err = svc.Create(ctx, &req, &tutor, 0.99, nil, "coord-1")
	requireField(t, err, "score")
}

func TestSuggestionServiceCreateCopiesRequest(t *testing.T) {
	store := newSuggestionStoreStub()
	svc := NewSuggestionService(store, nil, nil, nil, nil)
	req := pointersRequest()
	req.PreferredTime = strPtr("morning")
	tutor := models.Tutor{ID: "tut-1", Expertise: []string{"pointers"}}
	result := ScoreTutor(req, tutor)

	suggestion, err := svc.Create(context.Background(), &req, &tutor, result.Score, nil, "coord-1")
	require.NoError(t, err)
	require.Equal(t, result.Justifications, suggestion.Justifications)

	*req.PreferredTime = "evening"
	req.Course = "changed"
	stored, err := svc.Get(context.Background(), suggestion.ID)
	require.NoError(t, err)
	require.Equal(t, "CO1001", stored.Request.Course)
	require.Equal(t, "morning", *stored.Request.PreferredTime)
}

func TestSuggestionServiceGenerate(t *testing.T) {
	store := newSuggestionStoreStub()
	directory := &tutorDirectoryStub{tutors: tiedPool()}
	ranking := NewRankingService(directory, nil, nil, nil, RankingConfig{})
	svc := NewSuggestionService(store, ranking, nil, nil, nil)
	ctx := context.Background()

	suggestion, err := svc.Generate(ctx, dto.GenerateSuggestionRequest{Request: pointersRequest()}, "coord-1")
	require.NoError(t, err)
	require.Equal(t, "tut-top", suggestion.SuggestedTutor.ID)
	require.Equal(t, 1, directory.calls)

	explicit, err := svc.Generate(ctx, dto.GenerateSuggestionRequest{Request: pointersRequest(), Tutors: tiedPool()[:3]}, "coord-1")
	require.NoError(t, err)
	require.Equal(t, "tut-b", explicit.SuggestedTutor.ID)
	require.NotEqual(t, suggestion.ID, explicit.ID)

	_, err = svc.Generate(ctx, dto.GenerateSuggestionRequest{Request: models.TutoringRequest{Course: "CO1001"}}, "coord-1")
	requireField(t, err, "studentId")

	noDirectory := NewSuggestionService(store, nil, nil, nil, nil)
	_, err = noDirectory.Generate(ctx, dto.GenerateSuggestionRequest{Request: pointersRequest()}, "coord-1")
	requireField(t, err, "tutors")
}

func TestSuggestionServiceTransitionTerminal(t *testing.T) {
	store := newSuggestionStoreStub()
	audit := &auditStub{}
	svc := NewSuggestionService(store, nil, audit, nil, nil)
	ctx := context.Background()
	s1 := newSuggestion(t, svc)

	rejected, err := svc.Transition(ctx, s1.ID, dto.TransitionSuggestionRequest{Status: models.SuggestionStatusRejected, Note: "  student left  "}, "coord-2")
	require.NoError(t, err)
	require.Equal(t, models.SuggestionStatusRejected, rejected.Status)
	require.Equal(t, "student left", *rejected.Note)
	require.Equal(t, "coord-2", *rejected.ReviewedBy)
	require.NotNil(t, rejected.ReviewedAt)

	_, err = svc.Transition(ctx, s1.ID, dto.TransitionSuggestionRequest{Status: models.SuggestionStatusReviewed}, "coord-2")
	require.ErrorIs(t, err, appErrors.ErrInvalidTransition)
	require.Equal(t, "this suggestion was already handled", appErrors.FromError(err).Message)
	require.Equal(t, models.SuggestionStatusRejected, store.status(s1.ID))
	require.Len(t, audit.logs, 2)
}

func TestSuggestionServiceTransitionErrors(t *testing.T) {
	store := newSuggestionStoreStub()
	svc := NewSuggestionService(store, nil, &auditStub{err: errors.New("audit down")}, nil, nil)
	ctx := context.Background()
	s1 := newSuggestion(t, svc)

	_, err := svc.Transition(ctx, "missing", dto.TransitionSuggestionRequest{Status: models.SuggestionStatusReviewed}, "coord-1")
	require.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.Transition(ctx, s1.ID, dto.TransitionSuggestionRequest{Status: models.SuggestionStatusNew}, "coord-1")
	requireField(t, err, "status")

	reviewed, err := svc.Transition(ctx, s1.ID, dto.TransitionSuggestionRequest{Status: "reviewed"}, "coord-1")
	require.NoError(t, err)
	require.Equal(t, models.SuggestionStatusReviewed, reviewed.Status)
}

func TestSuggestionServiceConcurrentTransitions(t *testing.T) {
	store := newSuggestionStoreStub()
	svc := NewSuggestionService(store, nil, nil, nil, nil)
	s1 := newSuggestion(t, svc)

	const attempts = 16
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		status := models.SuggestionStatusReviewed
		if i%2 == 0 {
			status = models.SuggestionStatusRejected
		}
		wg.Add(1)
		go func(status models.SuggestionStatus) {
			defer wg.Done()
			_, err := svc.Transition(context.Background(), s1.ID, dto.TransitionSuggestionRequest{Status: status}, "coord-1")
			errs <- err
		}(status)
	}
	wg.Wait()
	close(errs)

	wins := 0
	for err := range errs {
		if err == nil {
			wins++
			continue
		}
		require.ErrorIs(t, err, appErrors.ErrInvalidTransition)
	}
	require.Equal(t, 1, wins)
	require.True(t, store.status(s1.ID).Terminal())
}

func TestSuggestionServiceList(t *testing.T) {
	store := newSuggestionStoreStub()
	svc := NewSuggestionService(store, nil, nil, nil, nil)
	newSuggestion(t, svc)

	items, page, err := svc.List(context.Background(), dto.SuggestionQuery{
		Status: []models.SuggestionStatus{models.SuggestionStatusNew},
		Search: "  co1001 ",
		Limit:  1000,
		Offset: -3,
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, 50, page.Limit)
	require.Equal(t, 0, page.Offset)
	require.Equal(t, "co1001", store.filter.SearchText)

	_, _, err = svc.List(context.Background(), dto.SuggestionQuery{Status: []models.SuggestionStatus{"ARCHIVED"}})
	requireField(t, err, "status")
}

func requireField(t *testing.T, err error, field string) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, appErrors.ErrValidation)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, field, appErr.Field)
}
