package entities

import (
	"time"

	"github.com/google/uuid"
)

type ScheduleBlock struct {
	DayOfWeek int    `json:"day_of_week"` // 0-6, Sunday = 0
	StartTime string `json:"start_time"`  // "HH:MM"
	EndTime   string `json:"end_time"`
	IsActive  bool   `json:"is_active"`
}

type WeeklyScheduleRequest struct {
	Blocks []ScheduleBlock `json:"blocks"`
}

type TimeOffRequest struct {
	StartDatetime string `json:"start_datetime"`
	EndDatetime   string `json:"end_datetime"`
	Reason        string `json:"reason,omitempty"`
}

type TimeOffResponse struct {
	ID            uuid.UUID `json:"id"`
	StartDatetime time.Time `json:"start_datetime"`
	EndDatetime   time.Time `json:"end_datetime"`
	Reason        string    `json:"reason,omitempty"`
}
