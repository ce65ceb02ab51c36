package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"

	"github.com/noah-isme/tutor-match-api/internal/models"
)

const suggestionColumns = `id, status, request, student_name, course, tutor_id, tutor_name, score, justifications,
       note, created_by, created_at, reviewed_by, reviewed_at`

// suggestionRow flattens the searchable request fields next to the embedded request copy.
type suggestionRow struct {
	ID             string         `db:"id"`
	Status         string         `db:"status"`
	Request        types.JSONText `db:"request"`
	StudentName    string         `db:"student_name"`
	Course         string         `db:"course"`
	TutorID        string         `db:"tutor_id"`
	TutorName      string         `db:"tutor_name"`
	Score          float64        `db:"score"`
	Justifications pq.StringArray `db:"justifications"`
	Note           *string        `db:"note"`
	CreatedBy      string         `db:"created_by"`
	CreatedAt      time.Time      `db:"created_at"`
	ReviewedBy     *string        `db:"reviewed_by"`
	ReviewedAt     *time.Time     `db:"reviewed_at"`
}

func (row suggestionRow) toModel() (*models.MatchSuggestion, error) {
	var request models.TutoringRequest
	if err := json.Unmarshal(row.Request, &request); err != nil {
		return nil, fmt.Errorf("decode suggestion %s request: %w", row.ID, err)
	}
	return &models.MatchSuggestion{
		ID:             row.ID,
		Status:         models.SuggestionStatus(row.Status),
		Request:        request,
		SuggestedTutor: models.TutorRef{ID: row.TutorID, Name: row.TutorName},
		Score:          row.Score,
		Justifications: append([]string{}, row.Justifications...),
		Note:           row.Note,
		CreatedBy:      row.CreatedBy,
		CreatedAt:      row.CreatedAt,
		ReviewedBy:     row.ReviewedBy,
		ReviewedAt:     row.ReviewedAt,
	}, nil
}

// SuggestionRepository persists match suggestions in PostgreSQL. Rows are never deleted.
type SuggestionRepository struct {
	db *sqlx.DB
}

// NewSuggestionRepository constructs the repository.
func NewSuggestionRepository(db *sqlx.DB) *SuggestionRepository {
	return &SuggestionRepository{db: db}
}

// Create inserts a new suggestion row.
func (r *SuggestionRepository) Create(ctx context.Context, suggestion *models.MatchSuggestion) error {
	if suggestion.ID == "" {
		suggestion.ID = uuid.NewString()
	}
	if suggestion.Status == "" {
		suggestion.Status = models.SuggestionStatusNew
	}
	if suggestion.CreatedAt.IsZero() {
		suggestion.CreatedAt = time.Now().UTC()
	}
	request, err := json.Marshal(suggestion.Request)
	if err != nil {
		return fmt.Errorf("encode suggestion request: %w", err)
	}
	row := suggestionRow{
		ID:             suggestion.ID,
		Status:         string(suggestion.Status),
		Request:        types.JSONText(request),
		StudentName:    suggestion.Request.StudentName,
		Course:         suggestion.Request.Course,
		TutorID:        suggestion.SuggestedTutor.ID,
		TutorName:      suggestion.SuggestedTutor.Name,
		Score:          suggestion.Score,
		Justifications: pq.StringArray(suggestion.Justifications),
		Note:           suggestion.Note,
		CreatedBy:      suggestion.CreatedBy,
		CreatedAt:      suggestion.CreatedAt,
		ReviewedBy:     suggestion.ReviewedBy,
		ReviewedAt:     suggestion.ReviewedAt,
	}
	const query = `INSERT INTO match_suggestions
	(id, status, request, student_name, course, tutor_id, tutor_name, score, justifications, note, created_by, created_at, reviewed_by, reviewed_at)
	VALUES (:id, :status, :request, :student_name, :course, :tutor_id, :tutor_name, :score, :justifications, :note, :created_by, :created_at, :reviewed_by, :reviewed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("create suggestion: %w", err)
	}
	return nil
}

// GetByID fetches a suggestion by identifier.
func (r *SuggestionRepository) GetByID(ctx context.Context, id string) (*models.MatchSuggestion, error) {
	query := `SELECT ` + suggestionColumns + ` FROM match_suggestions WHERE id = $1`
	var row suggestionRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	return row.toModel()
}

// List returns suggestions matching the filter, newest first.
func (r *SuggestionRepository) List(ctx context.Context, filter models.SuggestionFilter) ([]models.MatchSuggestion, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	builder.WriteString(`SELECT ` + suggestionColumns + ` FROM match_suggestions`)

	conditions := make([]string, 0, 2)
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, string(status))
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if text := strings.TrimSpace(filter.SearchText); text != "" {
		args = append(args, "%"+escapeLike(text)+"%")
		conditions = append(conditions, fmt.Sprintf("(student_name ILIKE $%[1]d OR course ILIKE $%[1]d)", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC, id")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var rows []suggestionRow
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}
	suggestions := make([]models.MatchSuggestion, 0, len(rows))
	for _, row := range rows {
		suggestion, err := row.toModel()
		if err != nil {
			return nil, err
		}
		suggestions = append(suggestions, *suggestion)
	}
	return suggestions, nil
}

// Transition moves a NEW suggestion to a terminal status. It returns sql.ErrNoRows when the
// row is missing or another reviewer got there first.
func (r *SuggestionRepository) Transition(ctx context.Context, params models.SuggestionTransition) error {
	setParts := []string{
		"status = :status",
		"reviewed_by = :reviewed_by",
		"reviewed_at = :reviewed_at",
	}
	if params.Note != nil {
		setParts = append(setParts, "note = :note")
	}
	query := fmt.Sprintf("UPDATE match_suggestions SET %s WHERE id = :id AND status = '%s'",
		strings.Join(setParts, ", "),
		models.SuggestionStatusNew,
	)
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":          params.ID,
		"status":      string(params.Status),
		"reviewed_by": params.ReviewedBy,
		"reviewed_at": params.ReviewedAt,
		"note":        params.Note,
	})
	if err != nil {
		return fmt.Errorf("transition suggestion: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check suggestion transition rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(value string) string {
	return likeEscaper.Replace(value)
}
