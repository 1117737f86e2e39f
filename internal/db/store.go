package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/knockline/backend/internal/models"
)

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// contacts

func (s *Store) InsertContact(ctx context.Context, c models.Contact) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO contacts (id, name, address, phone, email, lat, lon, list, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, c.ID, c.Name, c.Address, c.Phone, c.Email, c.Lat, c.Lon, c.List, c.CreatedAt)
	return err
}

func (s *Store) ImportContacts(ctx context.Context, contacts []models.Contact) (int64, error) {
	rows := make([][]any, 0, len(contacts))
	for _, c := range contacts {
		rows = append(rows, []any{c.ID, c.Name, c.Address, c.Phone, c.Email, c.Lat, c.Lon, c.List, c.CreatedAt})
	}
	return s.Pool.CopyFrom(ctx, pgx.Identifier{"contacts"},
		[]string{"id", "name", "address", "phone", "email", "lat", "lon", "list", "created_at"},
		pgx.CopyFromRows(rows))
}

func (s *Store) DeleteContact(ctx context.Context, id string) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	return err
}

// PurgeContact removes a contact together with everything it owns, in one
// transaction. Conversion does NOT use this; it re-points owned rows first
// and then deletes only the contact row.
func (s *Store) PurgeContact(ctx context.Context, id string) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		for _, table := range []string{"knocks", "notes", "appointments"} {
			if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE contact_id = $1`, table), id); err != nil {
				return err
			}
		}
		_, err := tx.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, id)
		return err
	})
}

func (s *Store) GetContact(ctx context.Context, id string) (models.Contact, error) {
	var c models.Contact
	err := s.Pool.QueryRow(ctx, `
		SELECT id, name, address, phone, email, lat, lon, list, created_at
		FROM contacts WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Address, &c.Phone, &c.Email, &c.Lat, &c.Lon, &c.List, &c.CreatedAt)
	return c, err
}

func (s *Store) ListContacts(ctx context.Context, list string, q string, limit, offset int) ([]models.Contact, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT id, name, address, phone, email, lat, lon, list, created_at FROM contacts`
	var args []any
	var wheres []string
	if list != "" {
		args = append(args, list)
		wheres = append(wheres, fmt.Sprintf("list = $%d", len(args)))
	}
	if q != "" {
		args = append(args, "%"+q+"%")
		wheres = append(wheres, fmt.Sprintf("(name ILIKE $%d OR address ILIKE $%d)", len(args), len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT $" + fmt.Sprint(len(args)+1) + " OFFSET $" + fmt.Sprint(len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanContacts(rows)
}

// ListAllContacts returns every contact, for address snapshots and identity
// resolution.
func (s *Store) ListAllContacts(ctx context.Context) ([]models.Contact, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, name, address, phone, email, lat, lon, list, created_at
		FROM contacts ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanContacts(rows)
}

func scanContacts(rows pgx.Rows) ([]models.Contact, error) {
	var out []models.Contact
	for rows.Next() {
		var c models.Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.Address, &c.Phone, &c.Email, &c.Lat, &c.Lon, &c.List, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetContactDetails returns a contact together with its owned knocks, notes,
// and appointments.
func (s *Store) GetContactDetails(ctx context.Context, id string) (map[string]any, error) {
	contact, err := s.GetContact(ctx, id)
	if err != nil {
		return nil, err
	}

	knocks, err := s.listKnocks(ctx, id)
	if err != nil {
		return nil, err
	}
	notes, err := s.listNotes(ctx, id)
	if err != nil {
		return nil, err
	}
	appointments, err := s.listAppointmentsFor(ctx, id)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"contact":      contact,
		"knocks":       knocks,
		"notes":        notes,
		"appointments": appointments,
	}, nil
}

// knocks

func (s *Store) InsertKnock(ctx context.Context, k models.Knock) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO knocks (id, contact_id, status, lat, lon, operator, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, k.ID, k.ContactID, k.Status, k.Lat, k.Lon, k.Operator, k.CreatedAt)
	return err
}

func (s *Store) DeleteKnock(ctx context.Context, id string) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM knocks WHERE id = $1`, id)
	return err
}

func (s *Store) listKnocks(ctx context.Context, contactID string) ([]models.Knock, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, contact_id, status, lat, lon, operator, created_at
		FROM knocks WHERE contact_id = $1 ORDER BY created_at ASC
	`, contactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Knock
	for rows.Next() {
		var k models.Knock
		if err := rows.Scan(&k.ID, &k.ContactID, &k.Status, &k.Lat, &k.Lon, &k.Operator, &k.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// notes

func (s *Store) InsertNote(ctx context.Context, n models.Note) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO notes (id, contact_id, content, created_at)
		VALUES ($1,$2,$3,$4)
	`, n.ID, n.ContactID, n.Content, n.CreatedAt)
	return err
}

func (s *Store) listNotes(ctx context.Context, contactID string) ([]models.Note, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, contact_id, content, created_at
		FROM notes WHERE contact_id = $1 ORDER BY created_at ASC
	`, contactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Note
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.ContactID, &n.Content, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// appointments

func (s *Store) InsertAppointment(ctx context.Context, a models.Appointment) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO appointments (id, contact_id, title, location, client_name, type, notes, scheduled_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, a.ID, a.ContactID, a.Title, a.Location, a.ClientName, a.Type, a.Notes, a.ScheduledAt, a.CreatedAt)
	return err
}

func (s *Store) ListAppointments(ctx context.Context, limit, offset int) ([]models.Appointment, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT id, contact_id, title, location, client_name, type, notes, scheduled_at, created_at
		FROM appointments ORDER BY scheduled_at ASC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Appointment
	for rows.Next() {
		var a models.Appointment
		if err := rows.Scan(&a.ID, &a.ContactID, &a.Title, &a.Location, &a.ClientName, &a.Type, &a.Notes, &a.ScheduledAt, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) listAppointmentsFor(ctx context.Context, contactID string) ([]models.Appointment, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, contact_id, title, location, client_name, type, notes, scheduled_at, created_at
		FROM appointments WHERE contact_id = $1 ORDER BY scheduled_at ASC
	`, contactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Appointment
	for rows.Next() {
		var a models.Appointment
		if err := rows.Scan(&a.ID, &a.ContactID, &a.Title, &a.Location, &a.ClientName, &a.Type, &a.Notes, &a.ScheduledAt, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// objections

func (s *Store) InsertObjection(ctx context.Context, o models.Objection) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO objections (id, text, response, times_heard, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, o.ID, o.Text, o.Response, o.TimesHeard, o.CreatedAt)
	return err
}

func (s *Store) ListObjections(ctx context.Context) ([]models.Objection, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, text, response, times_heard, created_at
		FROM objections ORDER BY times_heard DESC, created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Objection
	for rows.Next() {
		var o models.Objection
		if err := rows.Scan(&o.ID, &o.Text, &o.Response, &o.TimesHeard, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// IncrementObjectionHeard bumps the counter in the database so concurrent
// selections of the same objection do not lose updates.
func (s *Store) IncrementObjectionHeard(ctx context.Context, objectionID string) error {
	tag, err := s.Pool.Exec(ctx, `UPDATE objections SET times_heard = times_heard + 1 WHERE id = $1`, objectionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// trips

func (s *Store) InsertTrip(ctx context.Context, t models.Trip) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO trips (id, start_address, end_address, distance_km, date, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, t.ID, t.StartAddress, t.EndAddress, t.DistanceKm, t.Date, t.CreatedAt)
	return err
}

func (s *Store) ListTrips(ctx context.Context, limit, offset int) ([]models.Trip, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT id, start_address, end_address, distance_km, date, created_at
		FROM trips ORDER BY date DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Trip
	for rows.Next() {
		var t models.Trip
		if err := rows.Scan(&t.ID, &t.StartAddress, &t.EndAddress, &t.DistanceKm, &t.Date, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ReassignOwned re-points every owned row from one contact to another. The
// updates run sequentially without a transaction: conversion is best-effort
// by contract, and a failure part-way leaves earlier moves in place.
func (s *Store) ReassignOwned(ctx context.Context, fromContactID, toContactID string) error {
	for _, table := range []string{"knocks", "notes", "appointments"} {
		_, err := s.Pool.Exec(ctx,
			fmt.Sprintf(`UPDATE %s SET contact_id = $1 WHERE contact_id = $2`, table),
			toContactID, fromContactID)
		if err != nil {
			return fmt.Errorf("reassign %s: %w", table, err)
		}
	}
	return nil
}

// UpdateContactCoordinate updates a contact's coordinate after a late geocode.
func (s *Store) UpdateContactCoordinate(ctx context.Context, id string, lat, lon float64) error {
	_, err := s.Pool.Exec(ctx, `UPDATE contacts SET lat = $1, lon = $2 WHERE id = $3`, lat, lon, id)
	return err
}
