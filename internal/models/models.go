package models

import "time"

const (
	ListProspects = "PROSPECTS"
	ListCustomers = "CUSTOMERS"
)

type Contact struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Lat       *float64  `json:"lat"`
	Lon       *float64  `json:"lon"`
	List      string    `json:"list"`
	CreatedAt time.Time `json:"created_at"`
}

func (c Contact) IsCustomer() bool {
	return c.List == ListCustomers
}

// Knock is immutable once written; changing one's mind means a new Knock.
type Knock struct {
	ID        string    `json:"id"`
	ContactID string    `json:"contact_id"`
	Status    string    `json:"status"`
	Lat       *float64  `json:"lat"`
	Lon       *float64  `json:"lon"`
	Operator  string    `json:"operator,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Note struct {
	ID        string    `json:"id"`
	ContactID *string   `json:"contact_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Appointment snapshots client name and notes at creation time; they are not
// live-linked to the contact.
type Appointment struct {
	ID          string    `json:"id"`
	ContactID   *string   `json:"contact_id"`
	Title       string    `json:"title"`
	Location    string    `json:"location"`
	ClientName  string    `json:"client_name"`
	Type        string    `json:"type"`
	Notes       string    `json:"notes"`
	ScheduledAt time.Time `json:"scheduled_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// Objection is a shared taxonomy entry, not owned by any contact.
type Objection struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	Response   string    `json:"response"`
	TimesHeard int       `json:"times_heard"`
	CreatedAt  time.Time `json:"created_at"`
}

type Trip struct {
	ID           string    `json:"id"`
	StartAddress string    `json:"start_address"`
	EndAddress   string    `json:"end_address"`
	DistanceKm   float64   `json:"distance_km"`
	Date         time.Time `json:"date"`
	CreatedAt    time.Time `json:"created_at"`
}
