package service

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"kelatic/internal/db"
)

// How long a pending appointment may wait for its deposit before the slot
// is released.
const depositHoldMinutes = 30

// JobStore is the batch-query surface the maintenance jobs need.
// *repository.JobRepository implements it.
type JobStore interface {
	AppointmentsNeedingReminder(flagColumn string, windowStart, windowEnd time.Time) ([]uuid.UUID, error)
	MarkReminderSent(flagColumn string, ids []uuid.UUID) error
	InProgressPastEnd() ([]uuid.UUID, error)
	UpdateStatuses(ids []uuid.UUID, newStatus string) error
	ExpireStalePendingDeposits(before time.Time) (int64, error)
}

type JobService struct {
	repo     JobStore
	store    BookingStore
	notifier Notifier
}

func NewJobService(repo JobStore, store BookingStore, notifier Notifier) *JobService {
	return &JobService{repo: repo, store: store, notifier: notifier}
}

// SendUpcomingReminders runs both reminder passes. Each appointment gets at
// most one reminder per flag; marking happens before notifying so a crashed
// send never double-fires.
func (s *JobService) SendUpcomingReminders() error {
	now := time.Now()
	if err := s.remind("reminder_sent_24h", NotifyReminder24h, now, now.Add(24*time.Hour)); err != nil {
		return err
	}
	return s.remind("reminder_sent_2h", NotifyReminder2h, now, now.Add(2*time.Hour))
}

func (s *JobService) remind(flagColumn, kind string, windowStart, windowEnd time.Time) error {
	ids, err := s.repo.AppointmentsNeedingReminder(flagColumn, windowStart, windowEnd)
	if err != nil {
		return fmt.Errorf("cron job: failed to find appointments needing %s: %w", kind, err)
	}
	if len(ids) == 0 {
		return nil
	}

	log.Printf("Cron Job: sending %s for %d appointments", kind, len(ids))
	if err := s.repo.MarkReminderSent(flagColumn, ids); err != nil {
		return fmt.Errorf("cron job: failed to mark %s sent: %w", kind, err)
	}

	for _, id := range ids {
		detail, err := s.store.GetAppointmentDetail(id)
		if err != nil || detail == nil {
			log.Printf("Cron Job: could not load appointment %s for %s: %v", id, kind, err)
			continue
		}
		s.notifier.AppointmentEvent(detail, kind)
	}
	return nil
}

// CompleteFinishedAppointments closes out in-progress appointments whose
// end time has passed.
func (s *JobService) CompleteFinishedAppointments() error {
	log.Println("Cron Job: checking for appointments to mark as completed...")

	ids, err := s.repo.InProgressPastEnd()
	if err != nil {
		return fmt.Errorf("cron job: failed to find in-progress appointments past end time: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	if err := s.repo.UpdateStatuses(ids, db.StatusCompleted); err != nil {
		return fmt.Errorf("cron job: failed to complete appointments: %w", err)
	}
	return nil
}

// ExpireUnpaidDeposits cancels pending bookings whose deposit window has
// lapsed, releasing the slots.
func (s *JobService) ExpireUnpaidDeposits() error {
	cutoff := time.Now().Add(-depositHoldMinutes * time.Minute)
	cancelled, err := s.repo.ExpireStalePendingDeposits(cutoff)
	if err != nil {
		return fmt.Errorf("cron job: failed to expire unpaid deposits: %w", err)
	}
	if cancelled > 0 {
		log.Printf("Cron Job: released %d slots with unpaid deposits", cancelled)
	}
	return nil
}
