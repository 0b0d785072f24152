package entities

import (
	"time"

	"github.com/google/uuid"
)

type TimeSlot struct {
	Time        string    `json:"time"` // "HH:MM" in salon time
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	StylistID   uuid.UUID `json:"stylist_id"`
	StylistName string    `json:"stylist_name"`
	Available   bool      `json:"available"`
}

type AvailabilityResponse struct {
	Date  string     `json:"date"`
	Slots []TimeSlot `json:"slots"`
}
