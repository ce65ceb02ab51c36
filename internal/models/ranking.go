package models

// ScoreResult is the scoring engine output for one request/tutor pair.
type ScoreResult struct {
	Score          float64  `json:"score"`
	Justifications []string `json:"justifications"`
}

// RankedTutor is one entry of a ranking pass.
type RankedTutor struct {
	TutorID        string   `json:"tutorId"`
	TutorName      string   `json:"tutorName"`
	Score          float64  `json:"score"`
	Justifications []string `json:"justifications"`
}
