package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/knockline/backend/internal/models"
)

var (
	ErrUnknownOutcome   = errors.New("unknown outcome")
	ErrAlreadyCustomer  = errors.New("contact is already a customer")
	ErrSessionClosed    = errors.New("session is closed")
	ErrSessionDone      = errors.New("session already reached done")
	ErrStepNotSatisfied = errors.New("current step is not satisfied")
	ErrSkipNotAllowed   = errors.New("current step cannot be skipped")
	ErrWrongStep        = errors.New("operation not valid for current step")
)

// Engine drives the post-knock step sequence. It holds no per-session state;
// sessions are passed in by their single owner and must not be operated on
// concurrently.
type Engine struct {
	Store  Store
	Logger zerolog.Logger
}

// ChooseOutcome records the knock immediately and opens a session over the
// computed step sequence. The knock write is the one non-reversible step of
// the workflow: there is no undo-outcome operation.
func (e *Engine) ChooseOutcome(ctx context.Context, contact models.Contact, outcome Outcome, operator string) (*Session, error) {
	if outcome == OutcomeConvertedToSale && contact.IsCustomer() {
		return nil, ErrAlreadyCustomer
	}

	now := time.Now().UTC()
	knock := models.Knock{
		ID:        uuid.NewString(),
		ContactID: contact.ID,
		Status:    string(outcome),
		Lat:       contact.Lat,
		Lon:       contact.Lon,
		Operator:  operator,
		CreatedAt: now,
	}
	if err := e.Store.InsertKnock(ctx, knock); err != nil {
		return nil, fmt.Errorf("insert knock: %w", err)
	}

	s := &Session{
		ID:      uuid.NewString(),
		Contact: contact,
		Outcome: outcome,
		Knock:   knock,
		Steps:   StepsFor(outcome),
		Draft: Draft{
			FollowUpAt: now.Add(24 * time.Hour),
			TripDate:   now,
		},
	}

	e.Logger.Info().
		Str("session_id", s.ID).
		Str("contact_id", contact.ID).
		Str("outcome", string(outcome)).
		Msg("knock recorded")
	return s, nil
}

// SelectObjection captures the chosen objection and bumps its timesHeard
// counter, once per selection.
func (e *Engine) SelectObjection(ctx context.Context, s *Session, objectionID string) error {
	if s.Closed {
		return ErrSessionClosed
	}
	if s.Current() != StepObjection {
		return ErrWrongStep
	}
	if err := e.Store.IncrementObjectionHeard(ctx, objectionID); err != nil {
		return fmt.Errorf("increment objection: %w", err)
	}
	s.Draft.ObjectionID = objectionID
	return nil
}

// Advance commits the current step's side effect, if any, and moves to the
// next step. The trip step always collapses the remainder of the sequence to
// done, whether or not a trip was captured.
func (e *Engine) Advance(ctx context.Context, s *Session) error {
	if s.Closed {
		return ErrSessionClosed
	}
	if s.Done() {
		return ErrSessionDone
	}
	if !s.Satisfied() {
		return ErrStepNotSatisfied
	}

	switch s.Current() {
	case StepSchedule:
		appt := models.Appointment{
			ID:          uuid.NewString(),
			ContactID:   &s.Contact.ID,
			Title:       followUpTitle(s.Contact),
			Location:    s.Contact.Address,
			ClientName:  s.Contact.Name,
			Type:        "FOLLOW_UP",
			Notes:       s.Draft.NoteText,
			ScheduledAt: s.Draft.FollowUpAt,
			CreatedAt:   time.Now().UTC(),
		}
		if err := e.Store.InsertAppointment(ctx, appt); err != nil {
			return fmt.Errorf("insert appointment: %w", err)
		}
		e.Logger.Info().Str("session_id", s.ID).Time("scheduled_at", appt.ScheduledAt).Msg("follow-up scheduled")

	case StepNote:
		if s.Draft.NoteText != "" {
			note := models.Note{
				ID:        uuid.NewString(),
				ContactID: &s.Contact.ID,
				Content:   s.Draft.NoteText,
				CreatedAt: time.Now().UTC(),
			}
			if err := e.Store.InsertNote(ctx, note); err != nil {
				return fmt.Errorf("insert note: %w", err)
			}
		}

	case StepTrip:
		if s.Draft.TripEnd != "" {
			trip := models.Trip{
				ID:           uuid.NewString(),
				StartAddress: s.Draft.TripStart,
				EndAddress:   s.Draft.TripEnd,
				DistanceKm:   s.Draft.TripDistance,
				Date:         s.Draft.TripDate,
				CreatedAt:    time.Now().UTC(),
			}
			if err := e.Store.InsertTrip(ctx, trip); err != nil {
				return fmt.Errorf("insert trip: %w", err)
			}
			e.Logger.Info().Str("session_id", s.ID).Float64("distance_km", trip.DistanceKm).Msg("trip logged")
		}
		s.collapseToDone()
		return nil
	}

	s.StepIndex++
	return nil
}

// Skip discards the current step's captured value without committing it.
// Only note and trip steps are skippable.
func (e *Engine) Skip(ctx context.Context, s *Session) error {
	if s.Closed {
		return ErrSessionClosed
	}
	if s.Done() {
		return ErrSessionDone
	}
	if !s.Current().Skippable() {
		return ErrSkipNotAllowed
	}

	switch s.Current() {
	case StepNote:
		s.Draft.NoteText = ""
		s.StepIndex++
	case StepTrip:
		s.Draft.TripStart = ""
		s.Draft.TripEnd = ""
		s.Draft.TripDistance = 0
		s.collapseToDone()
	}
	return nil
}

// Close discards the session. Side effects already committed by earlier
// steps stay committed; there is no rollback.
func (e *Engine) Close(s *Session) {
	s.Closed = true
	e.Logger.Debug().Str("session_id", s.ID).Bool("done", s.Done()).Msg("session closed")
}

func followUpTitle(c models.Contact) string {
	if c.Name != "" {
		return "Follow up with " + c.Name
	}
	return "Follow up at " + c.Address
}
