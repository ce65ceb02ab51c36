package models

import "time"

// SuggestionStatus captures the lifecycle of an automatic match.
type SuggestionStatus string

const (
	SuggestionStatusNew      SuggestionStatus = "NEW"
	SuggestionStatusReviewed SuggestionStatus = "REVIEWED"
	SuggestionStatusRejected SuggestionStatus = "REJECTED"
)

// Terminal reports whether no further transition is allowed.
func (s SuggestionStatus) Terminal() bool {
	return s == SuggestionStatusReviewed || s == SuggestionStatusRejected
}

// MatchSuggestion is a system-generated recommendation. Request is an embedded copy so the
// suggestion survives later edits of the live request.
type MatchSuggestion struct {
	ID             string           `json:"id"`
	Status         SuggestionStatus `json:"status"`
	Request        TutoringRequest  `json:"request"`
	SuggestedTutor TutorRef         `json:"suggestedTutor"`
	Score          float64          `json:"score"`
	Justifications []string         `json:"justifications"`
	Note           *string          `json:"note,omitempty"`
	CreatedBy      string           `json:"createdBy,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	ReviewedBy     *string          `json:"reviewedBy,omitempty"`
	ReviewedAt     *time.Time       `json:"reviewedAt,omitempty"`
}

// Clone deep-copies the suggestion for snapshots and store isolation.
func (s MatchSuggestion) Clone() MatchSuggestion {
	cp := s
	cp.Request = s.Request.Clone()
	cp.Justifications = append([]string(nil), s.Justifications...)
	if s.Note != nil {
		note := *s.Note
		cp.Note = &note
	}
	if s.ReviewedBy != nil {
		by := *s.ReviewedBy
		cp.ReviewedBy = &by
	}
	if s.ReviewedAt != nil {
		at := *s.ReviewedAt
		cp.ReviewedAt = &at
	}
	return cp
}

// SuggestionFilter constrains inbox listing; fields combine with AND.
type SuggestionFilter struct {
	Status     []SuggestionStatus
	SearchText string
	Limit      int
	Offset     int
}

// SuggestionTransition is a compare-and-swap from NEW to a terminal status.
type SuggestionTransition struct {
	ID         string
	Status     SuggestionStatus
	Note       *string
	ReviewedBy string
	ReviewedAt time.Time
}
