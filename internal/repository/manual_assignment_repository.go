package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/tutor-match-api/internal/models"
)

const assignmentColumns = `id, student_id, tutor_id, course, reason, suggested_slot, suggestion_id,
       suggestion_snapshot, actor, created_at`

type assignmentRow struct {
	ID                 string             `db:"id"`
	StudentID          string             `db:"student_id"`
	TutorID            string             `db:"tutor_id"`
	Course             string             `db:"course"`
	Reason             string             `db:"reason"`
	SuggestedSlot      *string            `db:"suggested_slot"`
	SuggestionID       *string            `db:"suggestion_id"`
	SuggestionSnapshot types.NullJSONText `db:"suggestion_snapshot"`
	Actor              string             `db:"actor"`
	CreatedAt          time.Time          `db:"created_at"`
}

func (row assignmentRow) toModel() (*models.ManualAssignment, error) {
	assignment := &models.ManualAssignment{
		ID:            row.ID,
		StudentID:     row.StudentID,
		TutorID:       row.TutorID,
		Course:        row.Course,
		Reason:        row.Reason,
		SuggestedSlot: row.SuggestedSlot,
		SuggestionID:  row.SuggestionID,
		Actor:         row.Actor,
		CreatedAt:     row.CreatedAt,
	}
	if row.SuggestionSnapshot.Valid && len(row.SuggestionSnapshot.JSONText) > 0 {
		var snapshot models.MatchSuggestion
		if err := json.Unmarshal(row.SuggestionSnapshot.JSONText, &snapshot); err != nil {
			return nil, fmt.Errorf("decode assignment %s snapshot: %w", row.ID, err)
		}
		assignment.SuggestionSnapshot = &snapshot
	}
	return assignment, nil
}

// ManualAssignmentRepository is the append-only log of coordinator overrides.
type ManualAssignmentRepository struct {
	db *sqlx.DB
}

// NewManualAssignmentRepository constructs the repository.
func NewManualAssignmentRepository(db *sqlx.DB) *ManualAssignmentRepository {
	return &ManualAssignmentRepository{db: db}
}

// Create inserts an assignment. Assignments are immutable; corrections are new records.
func (r *ManualAssignmentRepository) Create(ctx context.Context, assignment *models.ManualAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now().UTC()
	}
	row := assignmentRow{
		ID:            assignment.ID,
		StudentID:     assignment.StudentID,
		TutorID:       assignment.TutorID,
		Course:        assignment.Course,
		Reason:        assignment.Reason,
		SuggestedSlot: assignment.SuggestedSlot,
		SuggestionID:  assignment.SuggestionID,
		Actor:         assignment.Actor,
		CreatedAt:     assignment.CreatedAt,
	}
	if assignment.SuggestionSnapshot != nil {
		snapshot, err := json.Marshal(assignment.SuggestionSnapshot)
		if err != nil {
			return fmt.Errorf("encode assignment snapshot: %w", err)
		}
		row.SuggestionSnapshot = types.NullJSONText{JSONText: types.JSONText(snapshot), Valid: true}
	}
	const query = `INSERT INTO manual_assignments
	(id, student_id, tutor_id, course, reason, suggested_slot, suggestion_id, suggestion_snapshot, actor, created_at)
	VALUES (:id, :student_id, :tutor_id, :course, :reason, :suggested_slot, :suggestion_id, :suggestion_snapshot, :actor, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("create manual assignment: %w", err)
	}
	return nil
}

// GetByID fetches an assignment by identifier.
func (r *ManualAssignmentRepository) GetByID(ctx context.Context, id string) (*models.ManualAssignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM manual_assignments WHERE id = $1`
	var row assignmentRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	return row.toModel()
}

// List returns assignments matching the filter, newest first.
func (r *ManualAssignmentRepository) List(ctx context.Context, filter models.ManualAssignmentFilter) ([]models.ManualAssignment, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	builder.WriteString(`SELECT ` + assignmentColumns + ` FROM manual_assignments`)

	conditions := make([]string, 0, 4)
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("student_id", filter.StudentID)
	add("tutor_id", filter.TutorID)
	add("actor", filter.Actor)
	add("suggestion_id", filter.SuggestionID)
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

	var rows []assignmentRow
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list manual assignments: %w", err)
	}
	assignments := make([]models.ManualAssignment, 0, len(rows))
	for _, row := range rows {
		assignment, err := row.toModel()
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, *assignment)
	}
	return assignments, nil
}
