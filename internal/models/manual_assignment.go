package models

import "time"

// ManualAssignment records a coordinator override. It is the audit entry for the override and
// is never edited after creation.
type ManualAssignment struct {
	ID                 string           `json:"id"`
	StudentID          string           `json:"studentId"`
	TutorID            string           `json:"tutorId"`
	Course             string           `json:"course"`
	Reason             string           `json:"reason"`
	SuggestedSlot      *string          `json:"suggestedSlot,omitempty"`
	SuggestionID       *string          `json:"suggestionId,omitempty"`
	SuggestionSnapshot *MatchSuggestion `json:"suggestionSnapshot,omitempty"`
	Actor              string           `json:"actor"`
	CreatedAt          time.Time        `json:"createdAt"`
}

// ManualAssignmentFilter constrains assignment log queries.
type ManualAssignmentFilter struct {
	StudentID    string
	TutorID      string
	Actor        string
	SuggestionID string
	Limit        int
	Offset       int
}
