package repository

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/tutor-match-api/internal/models"
)

// MemorySuggestionStore keeps suggestions in process memory. It serves single-instance
// deployments and tests; state is lost on restart.
type MemorySuggestionStore struct {
	mu          sync.RWMutex
	suggestions map[string]*models.MatchSuggestion
	order       []string
}

// NewMemorySuggestionStore constructs an empty store.
func NewMemorySuggestionStore() *MemorySuggestionStore {
	return &MemorySuggestionStore{suggestions: make(map[string]*models.MatchSuggestion)}
}

// Create stores a copy of suggestion.
func (s *MemorySuggestionStore) Create(ctx context.Context, suggestion *models.MatchSuggestion) error {
	if suggestion.ID == "" {
		suggestion.ID = uuid.NewString()
	}
	if suggestion.Status == "" {
		suggestion.Status = models.SuggestionStatusNew
	}
	if suggestion.CreatedAt.IsZero() {
		suggestion.CreatedAt = time.Now().UTC()
	}
	cp := suggestion.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.suggestions[cp.ID]; !exists {
		s.order = append(s.order, cp.ID)
	}
	s.suggestions[cp.ID] = &cp
	return nil
}

// GetByID returns a copy of the stored suggestion or sql.ErrNoRows.
func (s *MemorySuggestionStore) GetByID(ctx context.Context, id string) (*models.MatchSuggestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	found, ok := s.suggestions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := found.Clone()
	return &cp, nil
}

// List applies the status and search constraints together, newest first.
func (s *MemorySuggestionStore) List(ctx context.Context, filter models.SuggestionFilter) ([]models.MatchSuggestion, error) {
	statuses := make(map[models.SuggestionStatus]struct{}, len(filter.Status))
	for _, status := range filter.Status {
		statuses[status] = struct{}{}
	}
	needle := strings.ToLower(strings.TrimSpace(filter.SearchText))

	s.mu.RLock()
	matched := make([]models.MatchSuggestion, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		item := s.suggestions[s.order[i]]
		if len(statuses) > 0 {
			if _, ok := statuses[item.Status]; !ok {
				continue
			}
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(item.Request.StudentName), needle) &&
			!strings.Contains(strings.ToLower(item.Request.Course), needle) {
			continue
		}
		matched = append(matched, item.Clone())
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, filter.Limit, filter.Offset), nil
}

// Transition applies the status change only while the suggestion is still NEW.
func (s *MemorySuggestionStore) Transition(ctx context.Context, params models.SuggestionTransition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	found, ok := s.suggestions[params.ID]
	if !ok || found.Status != models.SuggestionStatusNew {
		return sql.ErrNoRows
	}
	reviewedBy := params.ReviewedBy
	reviewedAt := params.ReviewedAt
	found.Status = params.Status
	found.ReviewedBy = &reviewedBy
	found.ReviewedAt = &reviewedAt
	if params.Note != nil {
		note := *params.Note
		found.Note = &note
	}
	return nil
}

// MemoryAssignmentStore is the in-process append-only override log.
type MemoryAssignmentStore struct {
	mu          sync.RWMutex
	assignments []models.ManualAssignment
}

// NewMemoryAssignmentStore constructs an empty log.
func NewMemoryAssignmentStore() *MemoryAssignmentStore {
	return &MemoryAssignmentStore{}
}

// Create appends a copy of assignment.
func (s *MemoryAssignmentStore) Create(ctx context.Context, assignment *models.ManualAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now().UTC()
	}
	cp := cloneAssignment(*assignment)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments = append(s.assignments, cp)
	return nil
}

// GetByID returns a copy of the assignment or sql.ErrNoRows.
func (s *MemoryAssignmentStore) GetByID(ctx context.Context, id string) (*models.ManualAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.assignments {
		if s.assignments[i].ID == id {
			cp := cloneAssignment(s.assignments[i])
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

// List returns assignments matching every non-empty filter field, newest first.
func (s *MemoryAssignmentStore) List(ctx context.Context, filter models.ManualAssignmentFilter) ([]models.ManualAssignment, error) {
	s.mu.RLock()
	matched := make([]models.ManualAssignment, 0, len(s.assignments))
	for i := len(s.assignments) - 1; i >= 0; i-- {
		a := s.assignments[i]
		if filter.StudentID != "" && a.StudentID != filter.StudentID {
			continue
		}
		if filter.TutorID != "" && a.TutorID != filter.TutorID {
			continue
		}
		if filter.Actor != "" && a.Actor != filter.Actor {
			continue
		}
		if filter.SuggestionID != "" && (a.SuggestionID == nil || *a.SuggestionID != filter.SuggestionID) {
			continue
		}
		matched = append(matched, cloneAssignment(a))
	}
	s.mu.RUnlock()
	return paginate(matched, filter.Limit, filter.Offset), nil
}

func cloneAssignment(a models.ManualAssignment) models.ManualAssignment {
	cp := a
	if a.SuggestedSlot != nil {
		slot := *a.SuggestedSlot
		cp.SuggestedSlot = &slot
	}
	if a.SuggestionID != nil {
		id := *a.SuggestionID
		cp.SuggestionID = &id
	}
	if a.SuggestionSnapshot != nil {
		snapshot := a.SuggestionSnapshot.Clone()
		cp.SuggestionSnapshot = &snapshot
	}
	return cp
}

func paginate[T any](items []T, limit, offset int) []T {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
