package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/knockline/backend/internal/models"
)

func seedProspectWithOwned(store *memStore, notes, knocks, appointments int) models.Contact {
	p := models.Contact{ID: "p1", Name: "Ann Doe", Address: "500 Oak St", List: models.ListProspects}
	store.contacts[p.ID] = p
	for i := 0; i < knocks; i++ {
		store.knocks = append(store.knocks, models.Knock{ID: time.Now().String(), ContactID: p.ID, Status: "WASNT_HOME"})
	}
	for i := 0; i < notes; i++ {
		id := p.ID
		store.notes = append(store.notes, models.Note{ContactID: &id, Content: "note"})
	}
	for i := 0; i < appointments; i++ {
		id := p.ID
		store.appointments = append(store.appointments, models.Appointment{ContactID: &id, Title: "Follow up"})
	}
	return p
}

func countOwned(store *memStore, contactID string) (notes, knocks, appointments int) {
	for _, n := range store.notes {
		if n.ContactID != nil && *n.ContactID == contactID {
			notes++
		}
	}
	for _, k := range store.knocks {
		if k.ContactID == contactID {
			knocks++
		}
	}
	for _, a := range store.appointments {
		if a.ContactID != nil && *a.ContactID == contactID {
			appointments++
		}
	}
	return
}

func TestConvertProspectMovesEverything(t *testing.T) {
	store := newMemStore()
	e := newTestEngine(store)
	p := seedProspectWithOwned(store, 2, 3, 1)

	customer, err := e.ConvertProspect(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !customer.IsCustomer() {
		t.Fatalf("expected customer list classification, got %s", customer.List)
	}
	if customer.Name != p.Name || customer.Address != p.Address {
		t.Fatalf("identity fields must carry over: %+v", customer)
	}

	notes, knocks, appointments := countOwned(store, customer.ID)
	if notes != 2 || knocks != 3 || appointments != 1 {
		t.Fatalf("expected 2/3/1 owned records on customer, got %d/%d/%d", notes, knocks, appointments)
	}
	if n, k, a := countOwned(store, p.ID); n+k+a != 0 {
		t.Fatalf("prospect must own nothing after conversion")
	}
	if _, exists := store.contacts[p.ID]; exists {
		t.Fatalf("prospect must be deleted after conversion")
	}
}

func TestConvertProspectRejectsCustomers(t *testing.T) {
	store := newMemStore()
	e := newTestEngine(store)
	customer := models.Contact{ID: "c1", List: models.ListCustomers}

	if _, err := e.ConvertProspect(context.Background(), customer); !errors.Is(err, ErrAlreadyCustomer) {
		t.Fatalf("expected ErrAlreadyCustomer, got %v", err)
	}
}

func TestConvertProspectPartialFailureLeavesBothRecords(t *testing.T) {
	store := newMemStore()
	e := newTestEngine(store)
	p := seedProspectWithOwned(store, 1, 1, 0)
	store.failOn = "DeleteContact"

	customer, err := e.ConvertProspect(context.Background(), p)
	if err == nil {
		t.Fatalf("expected delete failure to surface")
	}
	if customer.ID == "" {
		t.Fatalf("the created customer must be reported even on partial failure")
	}
	if _, exists := store.contacts[p.ID]; !exists {
		t.Fatalf("prospect should still exist after failed delete")
	}
	if _, exists := store.contacts[customer.ID]; !exists {
		t.Fatalf("customer should exist after partial failure")
	}
}

func TestSessionConvertSatisfiesStepOnce(t *testing.T) {
	store := newMemStore()
	e := newTestEngine(store)
	ctx := context.Background()
	p := seedProspectWithOwned(store, 0, 0, 0)

	s, err := e.ChooseOutcome(ctx, p, OutcomeConvertedToSale, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Satisfied() {
		t.Fatalf("convert step must not be satisfied before conversion")
	}
	if err := e.Advance(ctx, s); !errors.Is(err, ErrStepNotSatisfied) {
		t.Fatalf("expected ErrStepNotSatisfied, got %v", err)
	}

	first, err := e.Convert(ctx, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := e.Convert(ctx, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("repeat conversion within a session must be a no-op")
	}

	customers := 0
	for _, c := range store.contacts {
		if c.IsCustomer() {
			customers++
		}
	}
	if customers != 1 {
		t.Fatalf("expected exactly one customer, got %d", customers)
	}

	if !s.Satisfied() {
		t.Fatalf("convert step should be satisfied after conversion")
	}
	if err := e.Advance(ctx, s); err != nil {
		t.Fatalf("advance after conversion: %v", err)
	}
	if s.Current() != StepNote {
		t.Fatalf("expected NOTE after convert, got %s", s.Current())
	}
}

func TestSessionConvertOffStep(t *testing.T) {
	store := newMemStore()
	e := newTestEngine(store)
	ctx := context.Background()

	s, _ := e.ChooseOutcome(ctx, prospect(), OutcomeWasntHome, "")
	if _, err := e.Convert(ctx, s); !errors.Is(err, ErrWrongStep) {
		t.Fatalf("expected ErrWrongStep, got %v", err)
	}
}
