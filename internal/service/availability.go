package service

import (
	"time"

	"github.com/google/uuid"

	"kelatic/internal/db"
	"kelatic/internal/entities"
	"kelatic/internal/utils"
)

const (
	ReasonNoScheduleDay = "stylist is not available on this day"
	ReasonOutsideHours  = "stylist is not available at this time"
	ReasonTimeOff       = "stylist has time off scheduled"
	ReasonSlotTaken     = "slot is no longer available"
)

type SlotVerdict struct {
	Available bool
	Reason    string
}

func unavailable(reason string) SlotVerdict {
	return SlotVerdict{Available: false, Reason: reason}
}

// CheckSlot decides whether an appointment of durationMin minutes starting at
// start fits the stylist's weekly schedule, avoids time off, and does not
// overlap another occupying appointment. start must already be in salon time;
// checks run in order and the first failure wins. exclude skips one
// appointment from the conflict scan, used when rescheduling.
func CheckSlot(
	weekly []db.StylistSchedule,
	timeOff []db.StylistTimeOff,
	existing []db.Appointment,
	start time.Time,
	durationMin int,
	exclude uuid.UUID,
) SlotVerdict {
	end := start.Add(time.Duration(durationMin) * time.Minute)

	day := int(start.Weekday())
	startOfDayMin := start.Hour()*60 + start.Minute()

	var dayBlocks []db.StylistSchedule
	for _, block := range weekly {
		if block.IsActive && block.DayOfWeek == day {
			dayBlocks = append(dayBlocks, block)
		}
	}
	if len(dayBlocks) == 0 {
		return unavailable(ReasonNoScheduleDay)
	}

	withinBlock := false
	for _, block := range dayBlocks {
		blockStart, err := utils.ParseClock(block.StartTime)
		if err != nil {
			continue
		}
		blockEnd, err := utils.ParseClock(block.EndTime)
		if err != nil {
			continue
		}
		// Half-open window: a slot starting exactly at closing time is out.
		if startOfDayMin >= blockStart && startOfDayMin < blockEnd {
			withinBlock = true
			break
		}
	}
	if !withinBlock {
		return unavailable(ReasonOutsideHours)
	}

	for _, off := range timeOff {
		if !start.Before(off.StartDatetime) && !start.After(off.EndDatetime) {
			return unavailable(ReasonTimeOff)
		}
	}

	for _, appt := range existing {
		if appt.ID == exclude {
			continue
		}
		if !db.Occupies(appt.Status) {
			continue
		}
		if appt.StartTime.Before(end) && appt.EndTime.After(start) {
			return unavailable(ReasonSlotTaken)
		}
	}

	return SlotVerdict{Available: true}
}

// slotStep is the booking grid increment offered to clients.
const slotStep = 30

// GenerateDaySlots expands a stylist's schedule blocks for one day into
// bookable slots on the 30-minute grid, marking each slot available or not
// against existing appointments and time off. day must be midnight of the
// requested date in salon time.
func GenerateDaySlots(
	stylist *db.Profile,
	weekly []db.StylistSchedule,
	timeOff []db.StylistTimeOff,
	existing []db.Appointment,
	day time.Time,
	durationMin int,
	exclude uuid.UUID,
) []entities.TimeSlot {
	var slots []entities.TimeSlot
	weekday := int(day.Weekday())

	for _, block := range weekly {
		if !block.IsActive || block.DayOfWeek != weekday {
			continue
		}
		blockStart, err := utils.ParseClock(block.StartTime)
		if err != nil {
			continue
		}
		blockEnd, err := utils.ParseClock(block.EndTime)
		if err != nil {
			continue
		}

		for minute := blockStart; minute+durationMin <= blockEnd; minute += slotStep {
			slotStart := day.Add(time.Duration(minute) * time.Minute)
			slotEnd := slotStart.Add(time.Duration(durationMin) * time.Minute)

			available := !slotConflicts(slotStart, slotEnd, timeOff, existing, exclude)
			slots = append(slots, entities.TimeSlot{
				Time:        utils.FormatClock(minute),
				StartTime:   slotStart,
				EndTime:     slotEnd,
				StylistID:   stylist.ID,
				StylistName: stylist.FirstName + " " + stylist.LastName,
				Available:   available,
			})
		}
	}
	return slots
}

func slotConflicts(start, end time.Time, timeOff []db.StylistTimeOff, existing []db.Appointment, exclude uuid.UUID) bool {
	for _, off := range timeOff {
		if off.StartDatetime.Before(end) && off.EndDatetime.After(start) {
			return true
		}
	}
	for _, appt := range existing {
		if appt.ID == exclude || !db.Occupies(appt.Status) {
			continue
		}
		if appt.StartTime.Before(end) && appt.EndTime.After(start) {
			return true
		}
	}
	return false
}
