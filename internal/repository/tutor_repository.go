package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"

	"github.com/noah-isme/tutor-match-api/internal/models"
)

type tutorRow struct {
	ID              string         `db:"id"`
	Name            string         `db:"name"`
	Expertise       pq.StringArray `db:"expertise"`
	Slots           types.JSONText `db:"slots"`
	WorkloadCurrent sql.NullInt64  `db:"workload_current"`
	WorkloadMax     sql.NullInt64  `db:"workload_max"`
	Status          string         `db:"status"`
}

func (row tutorRow) toModel() (models.Tutor, error) {
	tutor := models.Tutor{
		ID:        row.ID,
		Name:      row.Name,
		Expertise: append([]string{}, row.Expertise...),
		Status:    models.TutorStatus(row.Status),
	}
	if len(row.Slots) > 0 {
		if err := json.Unmarshal(row.Slots, &tutor.Slots); err != nil {
			return models.Tutor{}, fmt.Errorf("decode tutor %s slots: %w", row.ID, err)
		}
	}
	if row.WorkloadCurrent.Valid && row.WorkloadMax.Valid {
		tutor.Workload = &models.Workload{Current: int(row.WorkloadCurrent.Int64), Max: int(row.WorkloadMax.Int64)}
	}
	return tutor, nil
}

// TutorRepository reads the tutor directory. Profiles are owned by another system; this side
// only reads them.
type TutorRepository struct {
	db *sqlx.DB
}

// NewTutorRepository constructs the repository.
func NewTutorRepository(db *sqlx.DB) *TutorRepository {
	return &TutorRepository{db: db}
}

// ListActive returns active tutors in a stable order so every ranking pass sees the same pool order.
func (r *TutorRepository) ListActive(ctx context.Context, limit int) ([]models.Tutor, error) {
	if limit <= 0 {
		limit = 500
	}
	const query = `SELECT id, name, expertise, slots, workload_current, workload_max, status
	FROM tutors WHERE status = $1 ORDER BY name, id LIMIT $2`
	var rows []tutorRow
	if err := r.db.SelectContext(ctx, &rows, query, string(models.TutorStatusActive), limit); err != nil {
		return nil, fmt.Errorf("list active tutors: %w", err)
	}
	tutors := make([]models.Tutor, 0, len(rows))
	for _, row := range rows {
		tutor, err := row.toModel()
		if err != nil {
			return nil, err
		}
		tutors = append(tutors, tutor)
	}
	return tutors, nil
}
