package workflow

import (
	"context"

	"github.com/knockline/backend/internal/models"
)

// Store is the persistence port the engine writes through. Every call
// returns its error to the caller; the engine never swallows write failures.
type Store interface {
	InsertContact(ctx context.Context, c models.Contact) error
	DeleteContact(ctx context.Context, id string) error
	InsertKnock(ctx context.Context, k models.Knock) error
	InsertNote(ctx context.Context, n models.Note) error
	InsertAppointment(ctx context.Context, a models.Appointment) error
	InsertTrip(ctx context.Context, t models.Trip) error
	IncrementObjectionHeard(ctx context.Context, objectionID string) error

	// ReassignOwned re-points every knock, note, and appointment owned by
	// one contact to another.
	ReassignOwned(ctx context.Context, fromContactID, toContactID string) error
}
