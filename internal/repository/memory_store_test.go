package repository

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-match-api/internal/models"
)

func seedSuggestion(t *testing.T, store *MemorySuggestionStore, name, course string, createdAt time.Time) *models.MatchSuggestion {
	t.Helper()
	suggestion := &models.MatchSuggestion{
		Request:        models.TutoringRequest{StudentID: "stu-" + name, StudentName: name, Course: course},
		SuggestedTutor: models.TutorRef{ID: "tut-1"},
		Score:          0.45,
		CreatedAt:      createdAt,
	}
	require.NoError(t, store.Create(context.Background(), suggestion))
	return suggestion
}

func TestMemorySuggestionStoreIsolation(t *testing.T) {
	store := NewMemorySuggestionStore()
	hint := "morning"
	suggestion := &models.MatchSuggestion{
		Request:        models.TutoringRequest{StudentID: "stu-1", Course: "CO1001", PreferredTime: &hint},
		Justifications: []string{"original"},
	}
	require.NoError(t, store.Create(context.Background(), suggestion))
	require.Equal(t, models.SuggestionStatusNew, suggestion.Status)

	hint = "evening"
	suggestion.Justifications[0] = "mutated"

	found, err := store.GetByID(context.Background(), suggestion.ID)
	require.NoError(t, err)
	require.Equal(t, "morning", *found.Request.PreferredTime)
	require.Equal(t, []string{"original"}, found.Justifications)

	_, err = store.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestMemorySuggestionStoreListFilters(t *testing.T) {
	store := NewMemorySuggestionStore()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	lan := seedSuggestion(t, store, "Lan", "CO1001", base)
	minh := seedSuggestion(t, store, "Minh", "MA1002", base.Add(time.Hour))
	seedSuggestion(t, store, "Khoa", "co1001-lab", base.Add(2*time.Hour))
	require.NoError(t, store.Transition(context.Background(), models.SuggestionTransition{ID: minh.ID, Status: models.SuggestionStatusRejected, ReviewedBy: "coord-1", ReviewedAt: base}))

	all, err := store.List(context.Background(), models.SuggestionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "Khoa", all[0].Request.StudentName)

	byCourse, err := store.List(context.Background(), models.SuggestionFilter{SearchText: "CO1001"})
	require.NoError(t, err)
	require.Len(t, byCourse, 2)

	byName, err := store.List(context.Background(), models.SuggestionFilter{SearchText: "lan", Status: []models.SuggestionStatus{models.SuggestionStatusNew}})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	require.Equal(t, lan.ID, byName[0].ID)

	rejectedCourse, err := store.List(context.Background(), models.SuggestionFilter{SearchText: "co1001", Status: []models.SuggestionStatus{models.SuggestionStatusRejected}})
	require.NoError(t, err)
	require.Empty(t, rejectedCourse)

	byNote, err := store.List(context.Background(), models.SuggestionFilter{SearchText: "stu-Lan"})
	require.NoError(t, err)
	require.Empty(t, byNote)

	paged, err := store.List(context.Background(), models.SuggestionFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	require.Equal(t, "Minh", paged[0].Request.StudentName)
}

func TestMemorySuggestionStoreTransitionIsCompareAndSwap(t *testing.T) {
	store := NewMemorySuggestionStore()
	suggestion := seedSuggestion(t, store, "Lan", "CO1001", time.Now())

	const workers = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status := models.SuggestionStatusReviewed
			if i%2 == 1 {
				status = models.SuggestionStatusRejected
			}
			err := store.Transition(context.Background(), models.SuggestionTransition{ID: suggestion.ID, Status: status, ReviewedBy: "coord", ReviewedAt: time.Now()})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			require.ErrorIs(t, err, sql.ErrNoRows)
		}(i)
	}
	wg.Wait()
	require.Equal(t, 1, wins)

	found, err := store.GetByID(context.Background(), suggestion.ID)
	require.NoError(t, err)
	require.True(t, found.Status.Terminal())
	require.Equal(t, "coord", *found.ReviewedBy)
}

func TestMemoryAssignmentStore(t *testing.T) {
	store := NewMemoryAssignmentStore()
	ctx := context.Background()
	suggestionID := "sug-1"
	first := &models.ManualAssignment{StudentID: "stu-1", TutorID: "tut-1", Reason: "r1", Actor: "coord-1", SuggestionID: &suggestionID}
	second := &models.ManualAssignment{StudentID: "stu-1", TutorID: "tut-2", Reason: "r2", Actor: "coord-2"}
	require.NoError(t, store.Create(ctx, first))
	require.NoError(t, store.Create(ctx, second))

	suggestionID = "changed"
	found, err := store.GetByID(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, "sug-1", *found.SuggestionID)

	_, err = store.GetByID(ctx, "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)

	list, err := store.List(ctx, models.ManualAssignmentFilter{StudentID: "stu-1"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, second.ID, list[0].ID)

	linked, err := store.List(ctx, models.ManualAssignmentFilter{SuggestionID: "sug-1"})
	require.NoError(t, err)
	require.Len(t, linked, 1)
	require.Equal(t, first.ID, linked[0].ID)

	byActor, err := store.List(ctx, models.ManualAssignmentFilter{Actor: "coord-2", TutorID: "tut-2"})
	require.NoError(t, err)
	require.Len(t, byActor, 1)
}
