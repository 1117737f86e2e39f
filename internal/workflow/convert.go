package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/knockline/backend/internal/models"
)

// ConvertProspect creates a customer from a prospect, moves the prospect's
// knocks, notes, and appointments onto it, and deletes the prospect. The
// steps run sequentially without a cross-entity transaction: if a later step
// fails after the customer row exists, both records remain in the store and
// the returned error names the failure point (manual-cleanup scenario).
// Invoking this twice for the same prospect produces two customers; callers
// must guard re-entry.
func (e *Engine) ConvertProspect(ctx context.Context, prospect models.Contact) (models.Contact, error) {
	if prospect.IsCustomer() {
		return models.Contact{}, ErrAlreadyCustomer
	}

	customer := models.Contact{
		ID:        uuid.NewString(),
		Name:      prospect.Name,
		Address:   prospect.Address,
		Phone:     prospect.Phone,
		Email:     prospect.Email,
		Lat:       prospect.Lat,
		Lon:       prospect.Lon,
		List:      models.ListCustomers,
		CreatedAt: time.Now().UTC(),
	}
	if err := e.Store.InsertContact(ctx, customer); err != nil {
		return models.Contact{}, fmt.Errorf("insert customer: %w", err)
	}
	if err := e.Store.ReassignOwned(ctx, prospect.ID, customer.ID); err != nil {
		return customer, fmt.Errorf("move owned records to customer %s: %w", customer.ID, err)
	}
	if err := e.Store.DeleteContact(ctx, prospect.ID); err != nil {
		return customer, fmt.Errorf("delete prospect %s after conversion: %w", prospect.ID, err)
	}

	e.Logger.Info().
		Str("prospect_id", prospect.ID).
		Str("customer_id", customer.ID).
		Msg("prospect converted")
	return customer, nil
}

// Convert runs the conversion procedure for the session's contact and marks
// the convert step satisfied. A second call on the same session is a no-op
// returning the customer already created, mirroring the UI closing the
// conversion form on success.
func (e *Engine) Convert(ctx context.Context, s *Session) (models.Contact, error) {
	if s.Closed {
		return models.Contact{}, ErrSessionClosed
	}
	if s.Current() != StepConvert {
		return models.Contact{}, ErrWrongStep
	}
	if s.ConvertedTo != "" {
		return s.Contact, nil
	}

	customer, err := e.ConvertProspect(ctx, s.Contact)
	if err != nil {
		return customer, err
	}
	s.ConvertedTo = customer.ID
	s.Contact = customer
	return customer, nil
}
