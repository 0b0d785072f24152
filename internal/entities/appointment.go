package entities

import (
	"time"

	"github.com/google/uuid"
)

type AddonLine struct {
	ServiceID   uuid.UUID `json:"service_id"`
	ServiceName string    `json:"service_name"`
	Price       int       `json:"price"`
	Duration    int       `json:"duration"`
}

// AppointmentDetail is an appointment joined with its service, stylist,
// client (or walk-in contact fields) and add-on lines.
type AppointmentDetail struct {
	ID          uuid.UUID `json:"id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Status      string    `json:"status"`
	QuotedPrice int       `json:"quoted_price"`
	Notes       string    `json:"notes,omitempty"`

	ServiceID       uuid.UUID `json:"service_id"`
	ServiceName     string    `json:"service_name"`
	ServiceDuration int       `json:"service_duration"`

	StylistID    uuid.UUID `json:"stylist_id"`
	StylistName  string    `json:"stylist_name"`
	StylistEmail string    `json:"stylist_email,omitempty"`
	StylistPhone string    `json:"stylist_phone,omitempty"`

	ClientID    *uuid.UUID `json:"client_id,omitempty"`
	ClientName  string     `json:"client_name"`
	ClientEmail string     `json:"client_email,omitempty"`
	ClientPhone string     `json:"client_phone,omitempty"`
	IsWalkIn    bool       `json:"is_walk_in"`

	Addons []AddonLine `json:"addons,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TotalDuration is the service duration plus all add-on durations, in minutes.
func (a *AppointmentDetail) TotalDuration() int {
	total := a.ServiceDuration
	for _, addon := range a.Addons {
		total += addon.Duration
	}
	return total
}

// AppointmentSummary is the admin list row: joined names plus how much of
// the deposit has actually been paid.
type AppointmentSummary struct {
	ID          uuid.UUID `json:"id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Status      string    `json:"status"`
	QuotedPrice int       `json:"quoted_price"`
	ServiceName string    `json:"service_name"`
	StylistName string    `json:"stylist_name"`
	ClientName  string    `json:"client_name"`
	ClientPhone string    `json:"client_phone,omitempty"`
	DepositPaid int       `json:"deposit_paid"`
}
