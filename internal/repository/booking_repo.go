package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"kelatic/internal/db"
	"kelatic/internal/entities"
)

// ErrSlotTaken is returned when the conflict re-check inside the booking
// transaction finds an overlapping appointment.
var ErrSlotTaken = errors.New("slot no longer available")

type BookingRepository struct {
	DB  *sql.DB
	Loc *time.Location
}

func NewBookingRepository(database *sql.DB, loc *time.Location) *BookingRepository {
	return &BookingRepository{DB: database, Loc: loc}
}

func (r *BookingRepository) GetService(id uuid.UUID) (*db.Service, error) {
	var svc db.Service
	query := `
		SELECT id, name, category, base_price, duration, buffer_time,
		       deposit_required, COALESCE(deposit_amount, 0), is_active, created_at, updated_at
		FROM services WHERE id = $1`
	err := r.DB.QueryRow(query, id).Scan(
		&svc.ID, &svc.Name, &svc.Category, &svc.BasePrice, &svc.Duration, &svc.BufferTime,
		&svc.DepositRequired, &svc.DepositAmount, &svc.IsActive, &svc.CreatedAt, &svc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying service %s: %w", id, err)
	}
	return &svc, nil
}

func (r *BookingRepository) GetServicesByIDs(ids []uuid.UUID) ([]db.Service, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	query := `
		SELECT id, name, category, base_price, duration, buffer_time,
		       deposit_required, COALESCE(deposit_amount, 0), is_active, created_at, updated_at
		FROM services WHERE id = ANY($1)`
	rows, err := r.DB.Query(query, pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("error querying services: %w", err)
	}
	defer rows.Close()

	var services []db.Service
	for rows.Next() {
		var svc db.Service
		if err := rows.Scan(
			&svc.ID, &svc.Name, &svc.Category, &svc.BasePrice, &svc.Duration, &svc.BufferTime,
			&svc.DepositRequired, &svc.DepositAmount, &svc.IsActive, &svc.CreatedAt, &svc.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning service: %w", err)
		}
		services = append(services, svc)
	}
	return services, rows.Err()
}

func (r *BookingRepository) GetStylist(id uuid.UUID) (*db.Profile, error) {
	var p db.Profile
	query := `
		SELECT id, email, first_name, last_name, phone, role, is_active, created_at, updated_at
		FROM profiles WHERE id = $1 AND role = 'stylist'`
	err := r.DB.QueryRow(query, id).Scan(
		&p.ID, &p.Email, &p.FirstName, &p.LastName, &p.Phone, &p.Role, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying stylist %s: %w", id, err)
	}
	return &p, nil
}

// WeeklySchedule returns every schedule block for the stylist, active or
// not; the availability checker filters by day and activity itself.
func (r *BookingRepository) WeeklySchedule(stylistID uuid.UUID) ([]db.StylistSchedule, error) {
	query := `
		SELECT id, stylist_id, day_of_week, start_time, end_time, is_active
		FROM stylist_schedules WHERE stylist_id = $1
		ORDER BY day_of_week, start_time`
	rows, err := r.DB.Query(query, stylistID)
	if err != nil {
		return nil, fmt.Errorf("error querying schedule: %w", err)
	}
	defer rows.Close()

	var blocks []db.StylistSchedule
	for rows.Next() {
		var block db.StylistSchedule
		if err := rows.Scan(&block.ID, &block.StylistID, &block.DayOfWeek, &block.StartTime, &block.EndTime, &block.IsActive); err != nil {
			return nil, fmt.Errorf("error scanning schedule block: %w", err)
		}
		blocks = append(blocks, block)
	}
	return blocks, rows.Err()
}

func (r *BookingRepository) TimeOffBetween(stylistID uuid.UUID, from, to time.Time) ([]db.StylistTimeOff, error) {
	query := `
		SELECT id, stylist_id, start_datetime, end_datetime, reason
		FROM stylist_time_off
		WHERE stylist_id = $1 AND start_datetime <= $3 AND end_datetime >= $2
		ORDER BY start_datetime`
	rows, err := r.DB.Query(query, stylistID, from, to)
	if err != nil {
		return nil, fmt.Errorf("error querying time off: %w", err)
	}
	defer rows.Close()

	var out []db.StylistTimeOff
	for rows.Next() {
		var off db.StylistTimeOff
		if err := rows.Scan(&off.ID, &off.StylistID, &off.StartDatetime, &off.EndDatetime, &off.Reason); err != nil {
			return nil, fmt.Errorf("error scanning time off: %w", err)
		}
		out = append(out, off)
	}
	return out, rows.Err()
}

// AppointmentsBetween returns the stylist's occupying appointments that
// overlap [from, to). Cancelled and no-show rows never occupy time.
func (r *BookingRepository) AppointmentsBetween(stylistID uuid.UUID, from, to time.Time) ([]db.Appointment, error) {
	return r.queryAppointments(`
		SELECT id, client_id, stylist_id, service_id, start_time, end_time, status, quoted_price
		FROM appointments
		WHERE stylist_id = $1
		  AND status NOT IN ('cancelled', 'no_show')
		  AND start_time < $3 AND end_time > $2
		ORDER BY start_time`, stylistID, from, to)
}

func (r *BookingRepository) queryAppointments(query string, args ...interface{}) ([]db.Appointment, error) {
	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying appointments: %w", err)
	}
	defer rows.Close()

	var appts []db.Appointment
	for rows.Next() {
		var a db.Appointment
		if err := rows.Scan(&a.ID, &a.ClientID, &a.StylistID, &a.ServiceID, &a.StartTime, &a.EndTime, &a.Status, &a.QuotedPrice); err != nil {
			return nil, fmt.Errorf("error scanning appointment: %w", err)
		}
		appts = append(appts, a)
	}
	return appts, rows.Err()
}

func (r *BookingRepository) FindClientByEmail(email string) (*db.Profile, error) {
	var p db.Profile
	query := `
		SELECT id, email, first_name, last_name, phone, role, is_active, created_at, updated_at
		FROM profiles WHERE lower(email) = lower($1) AND role = 'client'`
	err := r.DB.QueryRow(query, email).Scan(
		&p.ID, &p.Email, &p.FirstName, &p.LastName, &p.Phone, &p.Role, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying client by email: %w", err)
	}
	return &p, nil
}

func (r *BookingRepository) CreateClient(p *db.Profile) error {
	query := `
		INSERT INTO profiles (id, email, first_name, last_name, phone, role, is_active, created_at, updated_at)
		VALUES ($1, lower($2), $3, $4, $5, 'client', TRUE, NOW(), NOW())
		RETURNING created_at, updated_at`
	return r.DB.QueryRow(query, p.ID, p.Email, p.FirstName, p.LastName, p.Phone).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *BookingRepository) UpdateClientPhone(id uuid.UUID, phone string) error {
	_, err := r.DB.Exec(`UPDATE profiles SET phone = $1, updated_at = NOW() WHERE id = $2`, phone, id)
	return err
}

// lockKey serializes bookings per stylist per salon-local day. The
// availability check and the insert are not atomic on their own; the
// advisory lock plus an in-transaction re-check closes the race between
// two requests for the same slot. The date must be taken in salon time:
// evening bookings straddle UTC midnight, and two overlapping slots must
// never hash to different keys.
func lockKey(stylistID uuid.UUID, start time.Time, loc *time.Location) string {
	return stylistID.String() + ":" + start.In(loc).Format("2006-01-02")
}

func (r *BookingRepository) conflictExists(tx *sql.Tx, stylistID uuid.UUID, start, end time.Time, exclude uuid.UUID) (bool, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM appointments
		WHERE stylist_id = $1
		  AND status NOT IN ('cancelled', 'no_show')
		  AND start_time < $2 AND end_time > $3
		  AND id <> $4`
	if err := tx.QueryRow(query, stylistID, end, start, exclude).Scan(&count); err != nil {
		return false, fmt.Errorf("error re-checking conflicts: %w", err)
	}
	return count > 0, nil
}

// CreateAppointment inserts the appointment under the per-stylist-day
// advisory lock, re-running the conflict scan first. Returns ErrSlotTaken
// when a concurrent booking won the slot.
func (r *BookingRepository) CreateAppointment(appt *db.Appointment) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("error starting booking transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey(appt.StylistID, appt.StartTime, r.Loc)); err != nil {
		return fmt.Errorf("error acquiring booking lock: %w", err)
	}

	conflict, err := r.conflictExists(tx, appt.StylistID, appt.StartTime, appt.EndTime, uuid.Nil)
	if err != nil {
		return err
	}
	if conflict {
		return ErrSlotTaken
	}

	query := `
		INSERT INTO appointments
		(id, client_id, stylist_id, service_id, start_time, end_time, status, quoted_price,
		 client_notes, is_walk_in, walk_in_name, walk_in_email, walk_in_phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
		RETURNING created_at, updated_at`
	err = tx.QueryRow(query,
		appt.ID, appt.ClientID, appt.StylistID, appt.ServiceID,
		appt.StartTime, appt.EndTime, appt.Status, appt.QuotedPrice,
		appt.ClientNotes, appt.IsWalkIn, appt.WalkInName, appt.WalkInEmail, appt.WalkInPhone,
	).Scan(&appt.CreatedAt, &appt.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error inserting appointment: %w", err)
	}

	return tx.Commit()
}

// RescheduleAppointment moves the appointment under the same advisory lock
// discipline as CreateAppointment, excluding the appointment itself from
// the conflict re-check.
func (r *BookingRepository) RescheduleAppointment(id, stylistID uuid.UUID, start, end time.Time) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("error starting reschedule transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey(stylistID, start, r.Loc)); err != nil {
		return fmt.Errorf("error acquiring booking lock: %w", err)
	}

	conflict, err := r.conflictExists(tx, stylistID, start, end, id)
	if err != nil {
		return err
	}
	if conflict {
		return ErrSlotTaken
	}

	_, err = tx.Exec(`UPDATE appointments SET start_time = $1, end_time = $2, updated_at = NOW() WHERE id = $3`,
		start, end, id)
	if err != nil {
		return fmt.Errorf("error updating appointment times: %w", err)
	}

	return tx.Commit()
}

func (r *BookingRepository) InsertAddons(appointmentID uuid.UUID, addons []db.Service) error {
	for _, addon := range addons {
		_, err := r.DB.Exec(`
			INSERT INTO appointment_addons (id, appointment_id, service_id, price, duration)
			VALUES ($1, $2, $3, $4, $5)`,
			uuid.New(), appointmentID, addon.ID, addon.BasePrice, addon.Duration)
		if err != nil {
			return fmt.Errorf("error inserting add-on %s: %w", addon.ID, err)
		}
	}
	return nil
}

func (r *BookingRepository) CreatePayment(p *db.Payment) error {
	query := `
		INSERT INTO payments
		(id, appointment_id, client_id, amount, tip_amount, total_amount, status, method,
		 stripe_payment_intent_id, is_deposit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING created_at, updated_at`
	return r.DB.QueryRow(query,
		p.ID, p.AppointmentID, p.ClientID, p.Amount, p.TipAmount, p.TotalAmount,
		p.Status, p.Method, p.StripePaymentIntentID, p.IsDeposit,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *BookingRepository) GetAppointment(id uuid.UUID) (*db.Appointment, error) {
	var a db.Appointment
	query := `
		SELECT id, client_id, stylist_id, service_id, start_time, end_time, status, quoted_price,
		       client_notes, internal_notes, is_walk_in, walk_in_name, walk_in_email, walk_in_phone,
		       cancelled_at, cancelled_by, cancellation_reason,
		       reminder_sent_24h, reminder_sent_2h, created_at, updated_at
		FROM appointments WHERE id = $1`
	err := r.DB.QueryRow(query, id).Scan(
		&a.ID, &a.ClientID, &a.StylistID, &a.ServiceID, &a.StartTime, &a.EndTime, &a.Status, &a.QuotedPrice,
		&a.ClientNotes, &a.InternalNotes, &a.IsWalkIn, &a.WalkInName, &a.WalkInEmail, &a.WalkInPhone,
		&a.CancelledAt, &a.CancelledBy, &a.CancellationReason,
		&a.ReminderSent24h, &a.ReminderSent2h, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying appointment %s: %w", id, err)
	}
	return &a, nil
}

// GetAppointmentDetail joins the appointment with its service, stylist,
// client profile (or walk-in fields) and add-on lines.
func (r *BookingRepository) GetAppointmentDetail(id uuid.UUID) (*entities.AppointmentDetail, error) {
	var (
		detail      entities.AppointmentDetail
		clientID    uuid.NullUUID
		clientFirst sql.NullString
		clientLast  sql.NullString
		clientEmail sql.NullString
		clientPhone sql.NullString
		walkInName  sql.NullString
		walkInEmail sql.NullString
		walkInPhone sql.NullString
		notes       sql.NullString
		styPhone    sql.NullString
	)
	query := `
		SELECT a.id, a.start_time, a.end_time, a.status, a.quoted_price, a.client_notes,
		       a.is_walk_in, a.walk_in_name, a.walk_in_email, a.walk_in_phone,
		       sv.id, sv.name, sv.duration,
		       s.id, s.first_name || ' ' || s.last_name, s.email, s.phone,
		       a.client_id, c.first_name, c.last_name, c.email, c.phone,
		       a.created_at, a.updated_at
		FROM appointments a
		JOIN services sv ON sv.id = a.service_id
		JOIN profiles s ON s.id = a.stylist_id
		LEFT JOIN profiles c ON c.id = a.client_id
		WHERE a.id = $1`
	err := r.DB.QueryRow(query, id).Scan(
		&detail.ID, &detail.StartTime, &detail.EndTime, &detail.Status, &detail.QuotedPrice, &notes,
		&detail.IsWalkIn, &walkInName, &walkInEmail, &walkInPhone,
		&detail.ServiceID, &detail.ServiceName, &detail.ServiceDuration,
		&detail.StylistID, &detail.StylistName, &detail.StylistEmail, &styPhone,
		&clientID, &clientFirst, &clientLast, &clientEmail, &clientPhone,
		&detail.CreatedAt, &detail.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying appointment detail %s: %w", id, err)
	}

	detail.Notes = notes.String
	detail.StylistPhone = styPhone.String
	if clientID.Valid {
		cid := clientID.UUID
		detail.ClientID = &cid
		detail.ClientName = clientFirst.String + " " + clientLast.String
		detail.ClientEmail = clientEmail.String
		detail.ClientPhone = clientPhone.String
	} else {
		detail.ClientName = walkInName.String
		detail.ClientEmail = walkInEmail.String
		detail.ClientPhone = walkInPhone.String
	}
	if detail.ClientName == "" {
		detail.ClientName = "Guest"
	}

	addons, err := r.listAddons(id)
	if err != nil {
		return nil, err
	}
	detail.Addons = addons
	return &detail, nil
}

func (r *BookingRepository) listAddons(appointmentID uuid.UUID) ([]entities.AddonLine, error) {
	query := `
		SELECT aa.service_id, sv.name, aa.price, aa.duration
		FROM appointment_addons aa
		JOIN services sv ON sv.id = aa.service_id
		WHERE aa.appointment_id = $1`
	rows, err := r.DB.Query(query, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("error querying add-ons: %w", err)
	}
	defer rows.Close()

	var addons []entities.AddonLine
	for rows.Next() {
		var line entities.AddonLine
		if err := rows.Scan(&line.ServiceID, &line.ServiceName, &line.Price, &line.Duration); err != nil {
			return nil, fmt.Errorf("error scanning add-on: %w", err)
		}
		addons = append(addons, line)
	}
	return addons, rows.Err()
}

func (r *BookingRepository) UpdateStatus(id uuid.UUID, status string) error {
	_, err := r.DB.Exec(`UPDATE appointments SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	return err
}

func (r *BookingRepository) CancelAppointment(id uuid.UUID, cancelledBy, reason string) error {
	_, err := r.DB.Exec(`
		UPDATE appointments
		SET status = 'cancelled', cancelled_at = NOW(), cancelled_by = $1,
		    cancellation_reason = NULLIF($2, ''), updated_at = NOW()
		WHERE id = $3`, cancelledBy, reason, id)
	return err
}

func (r *BookingRepository) InsertNotificationLog(appointmentID uuid.UUID, notificationType string, emailSent, smsSent bool, recipientEmail, recipientPhone string) error {
	_, err := r.DB.Exec(`
		INSERT INTO notification_logs
		(id, appointment_id, notification_type, email_sent, sms_sent, recipient_email, recipient_phone, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), NOW())`,
		uuid.New(), appointmentID, notificationType, emailSent, smsSent, recipientEmail, recipientPhone)
	return err
}
