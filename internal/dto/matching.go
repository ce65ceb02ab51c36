package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/tutor-match-api/internal/models"
)

// RankRequest asks for a ranking of Tutors against Request. When Tutors is empty the active
// pool is loaded from the tutor directory.
type RankRequest struct {
	Request models.TutoringRequest `json:"request"`
	Tutors  []models.Tutor         `json:"tutors"`
}

// RankResponse carries the ordered ranking.
type RankResponse struct {
	Results   []models.RankedTutor `json:"results"`
	PoolSize  int                  `json:"poolSize"`
	PoolCache bool                 `json:"poolCache"`
}

// GenerateSuggestionRequest ranks a pool and persists the top result as a NEW suggestion.
type GenerateSuggestionRequest struct {
	Request models.TutoringRequest `json:"request"`
	Tutors  []models.Tutor         `json:"tutors"`
}

// BatchSuggestionRequest queues suggestion generation for many requests against the directory pool.
type BatchSuggestionRequest struct {
	Requests []models.TutoringRequest `json:"requests" validate:"required,min=1,max=200,dive"`
}

// BatchSuggestionResponse acknowledges a queued batch.
type BatchSuggestionResponse struct {
	BatchID  string   `json:"batchId"`
	JobIDs   []string `json:"jobIds"`
	Requests int      `json:"requests"`
	Rejected int      `json:"rejected"`
}

// TransitionSuggestionRequest captures the coordinator decision and optional note.
type TransitionSuggestionRequest struct {
	Status models.SuggestionStatus `json:"status"`
	Note   string                  `json:"note"`
}

// SuggestionQuery mirrors supported inbox filters.
type SuggestionQuery struct {
	Status []models.SuggestionStatus
	Search string
	Limit  int
	Offset int
}

// HandoffResponse returns a context token for the override screen.
type HandoffResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// CreateOverrideRequest is the manual-assignment payload. SuggestionContext may be a handoff
// token string or an inline suggestion object.
type CreateOverrideRequest struct {
	StudentID         string          `json:"studentId"`
	TutorID           string          `json:"tutorId"`
	Course            string          `json:"course"`
	Reason            string          `json:"reason"`
	Slot              *string         `json:"slot,omitempty"`
	SuggestionID      *string         `json:"suggestionId,omitempty"`
	SuggestionContext json.RawMessage `json:"suggestionContext,omitempty"`
}

// OverrideResponse wraps the created assignment record.
type OverrideResponse struct {
	Record *models.ManualAssignment `json:"record"`
}

// OverrideQuery mirrors supported assignment log filters.
type OverrideQuery struct {
	StudentID    string
	TutorID      string
	Actor        string
	SuggestionID string
	Limit        int
	Offset       int
}
