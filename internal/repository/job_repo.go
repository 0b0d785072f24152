package repository

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type JobRepository struct {
	DB *sql.DB
}

func NewJobRepository(database *sql.DB) *JobRepository {
	return &JobRepository{DB: database}
}

// ReminderWindow selects confirmed appointments starting within the window
// that have not had the given reminder flag set yet. flagColumn must be one
// of the two known reminder columns; it is interpolated, never user input.
func (r *JobRepository) AppointmentsNeedingReminder(flagColumn string, windowStart, windowEnd time.Time) ([]uuid.UUID, error) {
	if flagColumn != "reminder_sent_24h" && flagColumn != "reminder_sent_2h" {
		return nil, fmt.Errorf("unknown reminder column %q", flagColumn)
	}
	query := fmt.Sprintf(`
		SELECT id FROM appointments
		WHERE status = 'confirmed'
		  AND NOT %s
		  AND start_time >= $1 AND start_time < $2`, flagColumn)
	return r.queryIDs(query, windowStart, windowEnd)
}

func (r *JobRepository) MarkReminderSent(flagColumn string, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if flagColumn != "reminder_sent_24h" && flagColumn != "reminder_sent_2h" {
		return fmt.Errorf("unknown reminder column %q", flagColumn)
	}
	query := fmt.Sprintf(`UPDATE appointments SET %s = TRUE, updated_at = NOW() WHERE id = ANY($1)`, flagColumn)
	_, err := r.DB.Exec(query, pq.Array(uuidStrings(ids)))
	return err
}

// InProgressPastEnd finds appointments the stylist never closed out.
func (r *JobRepository) InProgressPastEnd() ([]uuid.UUID, error) {
	return r.queryIDs(`SELECT id FROM appointments WHERE status = 'in_progress' AND end_time < NOW()`)
}

func (r *JobRepository) UpdateStatuses(ids []uuid.UUID, newStatus string) error {
	if len(ids) == 0 {
		return nil
	}
	result, err := r.DB.Exec(`UPDATE appointments SET status = $1, updated_at = NOW() WHERE id = ANY($2)`,
		newStatus, pq.Array(uuidStrings(ids)))
	if err != nil {
		return fmt.Errorf("error updating appointment statuses: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		log.Printf("Could not get rows affected: %v", err)
	} else {
		log.Printf("Updated status for %d appointments to '%s'", affected, newStatus)
	}
	return nil
}

// ExpireStalePendingDeposits cancels pending appointments whose deposit was
// never paid. Returns how many rows were cancelled.
func (r *JobRepository) ExpireStalePendingDeposits(before time.Time) (int64, error) {
	result, err := r.DB.Exec(`
		UPDATE appointments
		SET status = 'cancelled', cancelled_at = NOW(), cancelled_by = 'system',
		    cancellation_reason = 'deposit not paid', updated_at = NOW()
		WHERE status = 'pending' AND created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("error expiring pending appointments: %w", err)
	}
	return result.RowsAffected()
}

func (r *JobRepository) queryIDs(query string, args ...interface{}) ([]uuid.UUID, error) {
	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying appointment ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning appointment id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
