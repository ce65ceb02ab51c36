package models

// SlotMode describes how a tutoring slot is delivered.
type SlotMode string

const (
	SlotModeOnline  SlotMode = "online"
	SlotModeOffline SlotMode = "offline"
)

// TutorStatus flags whether a tutor takes new students.
type TutorStatus string

const (
	TutorStatusActive   TutorStatus = "ACTIVE"
	TutorStatusInactive TutorStatus = "INACTIVE"
)

// AvailabilitySlot is one recurring window, e.g. {Day: "Mon", Time: "afternoon 14:00-16:00"}.
type AvailabilitySlot struct {
	Day  string   `json:"day"`
	Time string   `json:"time"`
	Mode SlotMode `json:"mode,omitempty"`
}

// Workload is the tutor's current student count against capacity.
type Workload struct {
	Current int `json:"current"`
	Max     int `json:"max"`
}

// Tutor is a read-only scoring input supplied by the tutor directory.
// A nil Workload means the directory has no load data for the tutor.
type Tutor struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Expertise []string           `json:"expertise"`
	Slots     []AvailabilitySlot `json:"slots"`
	Workload  *Workload          `json:"workload,omitempty"`
	Status    TutorStatus        `json:"status"`
}

// Ref returns the denormalised reference stored on suggestions.
func (t Tutor) Ref() TutorRef {
	return TutorRef{ID: t.ID, Name: t.Name}
}

// TutorRef identifies the tutor a suggestion points at.
type TutorRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
