package models

import "strings"

// TutoringRequest is a student's ask for help. PreferredTime is nil when the student gave no hint.
type TutoringRequest struct {
	StudentID     string  `json:"studentId" validate:"required"`
	StudentName   string  `json:"studentName,omitempty"`
	Course        string  `json:"course" validate:"required"`
	Note          string  `json:"note,omitempty"`
	PreferredTime *string `json:"preferredTime,omitempty"`
}

// TimeHint returns the trimmed preferred-time hint and whether one was given.
func (r TutoringRequest) TimeHint() (string, bool) {
	if r.PreferredTime == nil {
		return "", false
	}
	hint := strings.TrimSpace(*r.PreferredTime)
	return hint, hint != ""
}

// Clone deep-copies the request so stored snapshots never alias caller memory.
func (r TutoringRequest) Clone() TutoringRequest {
	cp := r
	if r.PreferredTime != nil {
		hint := *r.PreferredTime
		cp.PreferredTime = &hint
	}
	return cp
}
