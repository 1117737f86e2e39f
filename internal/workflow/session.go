package workflow

import (
	"time"

	"github.com/knockline/backend/internal/models"
)

// Draft holds the values captured by the UI for the current interaction.
// Nothing in here is persisted until the owning step advances.
type Draft struct {
	ObjectionID  string    `json:"objection_id,omitempty"`
	FollowUpAt   time.Time `json:"follow_up_at"`
	NoteText     string    `json:"note_text,omitempty"`
	TripStart    string    `json:"trip_start,omitempty"`
	TripEnd      string    `json:"trip_end,omitempty"`
	TripDate     time.Time `json:"trip_date"`
	TripDistance float64   `json:"trip_distance_km,omitempty"`
}

// Session is the ephemeral state of one knock interaction. It is owned by a
// single control flow; the engine does no locking of its own. Closing a
// session never rolls back side effects already committed by earlier steps.
type Session struct {
	ID        string         `json:"id"`
	Contact   models.Contact `json:"contact"`
	Outcome   Outcome        `json:"outcome"`
	Knock     models.Knock   `json:"knock"`
	Steps     []StepKind     `json:"steps"`
	StepIndex int            `json:"step_index"`
	Draft     Draft          `json:"draft"`
	Closed    bool           `json:"closed"`

	// ConvertedTo holds the new customer id once the conversion procedure
	// has run for this session.
	ConvertedTo string `json:"converted_to,omitempty"`
}

// Current returns the step the session is sitting on.
func (s *Session) Current() StepKind {
	if s.StepIndex >= len(s.Steps) {
		return StepDone
	}
	return s.Steps[s.StepIndex]
}

// Done reports whether the session has reached the terminal step.
func (s *Session) Done() bool {
	return s.Current() == StepDone
}

// Satisfied reports whether the current step's precondition for Advance
// holds.
func (s *Session) Satisfied() bool {
	switch s.Current() {
	case StepObjection:
		return s.Draft.ObjectionID != ""
	case StepConvert:
		return s.ConvertedTo != ""
	default:
		// Schedule has a pre-populated date, Note and Trip are optional,
		// Done needs nothing.
		return true
	}
}

// collapseToDone discards the remaining steps. The trip step is always the
// last user-facing step, so both advancing and skipping it land here.
func (s *Session) collapseToDone() {
	s.Steps = []StepKind{StepDone}
	s.StepIndex = 0
}
