package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Appointment statuses. Appointments are never deleted, only transitioned.
const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
	StatusNoShow     = "no_show"
)

// Payment statuses.
const (
	PaymentPending   = "pending"
	PaymentSucceeded = "succeeded"
	PaymentRefunded  = "refunded"
	PaymentFailed    = "failed"
)

// Profile roles. Clients and stylists share the profiles table.
const (
	RoleClient  = "client"
	RoleStylist = "stylist"
	RoleAdmin   = "admin"
)

type Profile struct {
	ID        uuid.UUID
	Email     string
	FirstName string
	LastName  string
	Phone     sql.NullString
	Role      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Service struct {
	ID              uuid.UUID
	Name            string
	Category        string
	BasePrice       int
	Duration        int // minutes
	BufferTime      int
	DepositRequired bool
	DepositAmount   int
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// StylistSchedule is one weekly working block. A stylist may have several
// blocks on the same day; inactive blocks are ignored by availability checks.
type StylistSchedule struct {
	ID        uuid.UUID
	StylistID uuid.UUID
	DayOfWeek int    // 0-6, Sunday = 0
	StartTime string // "HH:MM"
	EndTime   string // "HH:MM"
	IsActive  bool
}

// StylistTimeOff is an explicit exclusion window. It always takes
// precedence over the weekly schedule.
type StylistTimeOff struct {
	ID            uuid.UUID
	StylistID     uuid.UUID
	StartDatetime time.Time
	EndDatetime   time.Time
	Reason        sql.NullString
}

type Appointment struct {
	ID                 uuid.UUID
	ClientID           uuid.NullUUID
	StylistID          uuid.UUID
	ServiceID          uuid.UUID
	StartTime          time.Time
	EndTime            time.Time
	Status             string
	QuotedPrice        int
	ClientNotes        sql.NullString
	InternalNotes      sql.NullString
	IsWalkIn           bool
	WalkInName         sql.NullString
	WalkInEmail        sql.NullString
	WalkInPhone        sql.NullString
	CancelledAt        sql.NullTime
	CancelledBy        sql.NullString
	CancellationReason sql.NullString
	ReminderSent24h    bool
	ReminderSent2h     bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type AppointmentAddon struct {
	ID            uuid.UUID
	AppointmentID uuid.UUID
	ServiceID     uuid.UUID
	Price         int
	Duration      int
}

type Payment struct {
	ID                    uuid.UUID
	AppointmentID         uuid.UUID
	ClientID              uuid.NullUUID
	Amount                int
	TipAmount             int
	TotalAmount           int
	Status                string
	Method                string
	StripePaymentIntentID sql.NullString
	IsDeposit             bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Occupies reports whether an appointment in this status blocks its time
// slot for new bookings.
func Occupies(status string) bool {
	return status != StatusCancelled && status != StatusNoShow
}
