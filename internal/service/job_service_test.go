package service

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"kelatic/internal/db"
	"kelatic/internal/entities"
)

// opLog records the order of store mutations and notifications so tests
// can assert sequencing.
type opLog struct {
	ops []string
}

type fakeJobStore struct {
	log       *opLog
	reminders map[string][]uuid.UUID
	windows   map[string]time.Duration
	marked    map[string][]uuid.UUID

	inProgress    []uuid.UUID
	statusUpdates map[string][]uuid.UUID
	expireCutoff  time.Time
	expired       int64
}

func newFakeJobStore(log *opLog) *fakeJobStore {
	return &fakeJobStore{
		log:           log,
		reminders:     map[string][]uuid.UUID{},
		windows:       map[string]time.Duration{},
		marked:        map[string][]uuid.UUID{},
		statusUpdates: map[string][]uuid.UUID{},
	}
}

func (f *fakeJobStore) AppointmentsNeedingReminder(flagColumn string, windowStart, windowEnd time.Time) ([]uuid.UUID, error) {
	f.windows[flagColumn] = windowEnd.Sub(windowStart)
	return f.reminders[flagColumn], nil
}

func (f *fakeJobStore) MarkReminderSent(flagColumn string, ids []uuid.UUID) error {
	f.log.ops = append(f.log.ops, "mark:"+flagColumn)
	f.marked[flagColumn] = ids
	return nil
}

func (f *fakeJobStore) InProgressPastEnd() ([]uuid.UUID, error) {
	return f.inProgress, nil
}

func (f *fakeJobStore) UpdateStatuses(ids []uuid.UUID, newStatus string) error {
	f.statusUpdates[newStatus] = ids
	return nil
}

func (f *fakeJobStore) ExpireStalePendingDeposits(before time.Time) (int64, error) {
	f.expireCutoff = before
	return f.expired, nil
}

type logNotifier struct {
	log *opLog
}

func (n *logNotifier) AppointmentEvent(_ *entities.AppointmentDetail, kind string) {
	n.log.ops = append(n.log.ops, "notify:"+kind)
}

func TestSendUpcomingReminders(t *testing.T) {
	log := &opLog{}
	jobStore := newFakeJobStore(log)
	store := newFakeStore()

	tomorrow := uuid.New()
	soon := uuid.New()
	start := time.Now().Add(20 * time.Hour)
	store.existing = []db.Appointment{
		{ID: tomorrow, Status: db.StatusConfirmed, StartTime: start, EndTime: start.Add(time.Hour)},
		{ID: soon, Status: db.StatusConfirmed, StartTime: start, EndTime: start.Add(time.Hour)},
	}
	jobStore.reminders["reminder_sent_24h"] = []uuid.UUID{tomorrow}
	jobStore.reminders["reminder_sent_2h"] = []uuid.UUID{soon}

	svc := NewJobService(jobStore, store, &logNotifier{log: log})
	if err := svc.SendUpcomingReminders(); err != nil {
		t.Fatalf("SendUpcomingReminders: %v", err)
	}

	if got := jobStore.windows["reminder_sent_24h"]; got != 24*time.Hour {
		t.Errorf("24h window = %v", got)
	}
	if got := jobStore.windows["reminder_sent_2h"]; got != 2*time.Hour {
		t.Errorf("2h window = %v", got)
	}
	if len(jobStore.marked["reminder_sent_24h"]) != 1 || len(jobStore.marked["reminder_sent_2h"]) != 1 {
		t.Errorf("marked = %v", jobStore.marked)
	}

	// Flags are set before any notification goes out, so a crashed send
	// never produces a second reminder on the next run.
	want := []string{
		"mark:reminder_sent_24h", "notify:" + NotifyReminder24h,
		"mark:reminder_sent_2h", "notify:" + NotifyReminder2h,
	}
	if len(log.ops) != len(want) {
		t.Fatalf("ops = %v, want %v", log.ops, want)
	}
	for i := range want {
		if log.ops[i] != want[i] {
			t.Fatalf("ops = %v, want %v", log.ops, want)
		}
	}
}

func TestSendUpcomingReminders_NothingDue(t *testing.T) {
	log := &opLog{}
	jobStore := newFakeJobStore(log)

	svc := NewJobService(jobStore, newFakeStore(), &logNotifier{log: log})
	if err := svc.SendUpcomingReminders(); err != nil {
		t.Fatalf("SendUpcomingReminders: %v", err)
	}
	if len(log.ops) != 0 {
		t.Errorf("expected no marks or notifications, got %v", log.ops)
	}
}

func TestCompleteFinishedAppointments(t *testing.T) {
	log := &opLog{}
	jobStore := newFakeJobStore(log)
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	jobStore.inProgress = ids

	svc := NewJobService(jobStore, newFakeStore(), &logNotifier{log: log})
	if err := svc.CompleteFinishedAppointments(); err != nil {
		t.Fatalf("CompleteFinishedAppointments: %v", err)
	}
	if got := jobStore.statusUpdates[db.StatusCompleted]; len(got) != 2 {
		t.Errorf("completed ids = %v, want %v", got, ids)
	}
}

func TestExpireUnpaidDeposits_CutoffIsHoldWindow(t *testing.T) {
	log := &opLog{}
	jobStore := newFakeJobStore(log)
	jobStore.expired = 3

	svc := NewJobService(jobStore, newFakeStore(), &logNotifier{log: log})
	if err := svc.ExpireUnpaidDeposits(); err != nil {
		t.Fatalf("ExpireUnpaidDeposits: %v", err)
	}

	age := time.Since(jobStore.expireCutoff)
	if age < depositHoldMinutes*time.Minute || age > depositHoldMinutes*time.Minute+time.Minute {
		t.Errorf("cutoff age = %v, want ~%dm", age, depositHoldMinutes)
	}
}
