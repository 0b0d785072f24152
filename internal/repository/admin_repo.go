package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"kelatic/internal/db"
	"kelatic/internal/entities"
)

type AdminRepository struct {
	DB *sql.DB
}

func NewAdminRepository(database *sql.DB) *AdminRepository {
	return &AdminRepository{DB: database}
}

// ListAppointments returns the back-office day view. All filters are
// optional; date is YYYY-MM-DD.
func (r *AdminRepository) ListAppointments(date, status, stylistID string) ([]entities.AppointmentSummary, error) {
	query := `
	SELECT
		a.id, a.start_time, a.end_time, a.status, a.quoted_price,
		sv.name,
		COALESCE(s.first_name || ' ' || s.last_name, 'Unassigned'),
		COALESCE(c.first_name || ' ' || c.last_name, a.walk_in_name, 'Guest'),
		COALESCE(c.phone, a.walk_in_phone, ''),
		COALESCE((
			SELECT SUM(p.total_amount) FROM payments p
			WHERE p.appointment_id = a.id AND p.is_deposit AND p.status = 'succeeded'
		), 0)
	FROM appointments a
	JOIN services sv ON sv.id = a.service_id
	LEFT JOIN profiles s ON s.id = a.stylist_id
	LEFT JOIN profiles c ON c.id = a.client_id
	WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if date != "" {
		query += " AND DATE(a.start_time) = $" + strconv.Itoa(idx)
		args = append(args, date)
		idx++
	}
	if status != "" && status != "all" {
		query += " AND a.status = $" + strconv.Itoa(idx)
		args = append(args, status)
		idx++
	}
	if stylistID != "" && stylistID != "all" {
		query += " AND a.stylist_id = $" + strconv.Itoa(idx)
		args = append(args, stylistID)
		idx++
	}
	query += " ORDER BY a.start_time"

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing appointments: %w", err)
	}
	defer rows.Close()

	var summaries []entities.AppointmentSummary
	for rows.Next() {
		var s entities.AppointmentSummary
		err := rows.Scan(
			&s.ID, &s.StartTime, &s.EndTime, &s.Status, &s.QuotedPrice,
			&s.ServiceName, &s.StylistName, &s.ClientName, &s.ClientPhone, &s.DepositPaid,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning appointment summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func (r *AdminRepository) UpdateAppointmentNotes(id uuid.UUID, clientNotes, internalNotes *string) error {
	_, err := r.DB.Exec(`
		UPDATE appointments
		SET client_notes = COALESCE($1, client_notes),
		    internal_notes = COALESCE($2, internal_notes),
		    updated_at = NOW()
		WHERE id = $3`, clientNotes, internalNotes, id)
	return err
}

func (r *AdminRepository) ReassignStylist(id, stylistID uuid.UUID) error {
	_, err := r.DB.Exec(`UPDATE appointments SET stylist_id = $1, updated_at = NOW() WHERE id = $2`, stylistID, id)
	return err
}

func (r *AdminRepository) ListServices(activeOnly bool) ([]db.Service, error) {
	query := `
		SELECT id, name, category, base_price, duration, buffer_time,
		       deposit_required, COALESCE(deposit_amount, 0), is_active, created_at, updated_at
		FROM services`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY name`

	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("error listing services: %w", err)
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

func (r *AdminRepository) CreateService(svc *db.Service) error {
	query := `
		INSERT INTO services
		(id, name, category, base_price, duration, buffer_time, deposit_required, deposit_amount, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, 0), TRUE, NOW(), NOW())
		RETURNING created_at, updated_at`
	return r.DB.QueryRow(query,
		svc.ID, svc.Name, svc.Category, svc.BasePrice, svc.Duration, svc.BufferTime,
		svc.DepositRequired, svc.DepositAmount,
	).Scan(&svc.CreatedAt, &svc.UpdatedAt)
}

func (r *AdminRepository) UpdateService(svc *db.Service) error {
	result, err := r.DB.Exec(`
		UPDATE services
		SET name = $1, category = $2, base_price = $3, duration = $4, buffer_time = $5,
		    deposit_required = $6, deposit_amount = NULLIF($7, 0), is_active = $8, updated_at = NOW()
		WHERE id = $9`,
		svc.Name, svc.Category, svc.BasePrice, svc.Duration, svc.BufferTime,
		svc.DepositRequired, svc.DepositAmount, svc.IsActive, svc.ID)
	if err != nil {
		return fmt.Errorf("error updating service: %w", err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *AdminRepository) DeactivateService(id uuid.UUID) error {
	_, err := r.DB.Exec(`UPDATE services SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	return err
}

func (r *AdminRepository) ListStylists() ([]db.Profile, error) {
	query := `
		SELECT id, email, first_name, last_name, phone, role, is_active, created_at, updated_at
		FROM profiles WHERE role = 'stylist' AND is_active
		ORDER BY first_name, last_name`
	return r.queryProfiles(query)
}

func (r *AdminRepository) ListClients(search string) ([]db.Profile, error) {
	query := `
		SELECT id, email, first_name, last_name, phone, role, is_active, created_at, updated_at
		FROM profiles WHERE role = 'client'`
	args := []interface{}{}
	if search != "" {
		query += ` AND (first_name ILIKE '%' || $1 || '%' OR last_name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%')`
		args = append(args, search)
	}
	query += ` ORDER BY first_name, last_name LIMIT 200`
	return r.queryProfiles(query, args...)
}

func (r *AdminRepository) queryProfiles(query string, args ...interface{}) ([]db.Profile, error) {
	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying profiles: %w", err)
	}
	defer rows.Close()

	var profiles []db.Profile
	for rows.Next() {
		var p db.Profile
		if err := rows.Scan(&p.ID, &p.Email, &p.FirstName, &p.LastName, &p.Phone, &p.Role, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// ReplaceWeeklySchedule swaps the stylist's weekly blocks in one
// transaction so the booking path never sees a half-written week.
func (r *AdminRepository) ReplaceWeeklySchedule(stylistID uuid.UUID, blocks []db.StylistSchedule) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("error starting schedule transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM stylist_schedules WHERE stylist_id = $1`, stylistID); err != nil {
		return fmt.Errorf("error clearing schedule: %w", err)
	}
	for _, block := range blocks {
		_, err := tx.Exec(`
			INSERT INTO stylist_schedules (id, stylist_id, day_of_week, start_time, end_time, is_active)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.New(), stylistID, block.DayOfWeek, block.StartTime, block.EndTime, block.IsActive)
		if err != nil {
			return fmt.Errorf("error inserting schedule block: %w", err)
		}
	}
	return tx.Commit()
}

func (r *AdminRepository) CreateTimeOff(off *db.StylistTimeOff) error {
	query := `
		INSERT INTO stylist_time_off (id, stylist_id, start_datetime, end_datetime, reason)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.DB.Exec(query, off.ID, off.StylistID, off.StartDatetime, off.EndDatetime, off.Reason)
	return err
}

func (r *AdminRepository) DeleteTimeOff(stylistID, timeOffID uuid.UUID) error {
	result, err := r.DB.Exec(`DELETE FROM stylist_time_off WHERE id = $1 AND stylist_id = $2`, timeOffID, stylistID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *AdminRepository) ListUpcomingTimeOff(stylistID uuid.UUID) ([]db.StylistTimeOff, error) {
	query := `
		SELECT id, stylist_id, start_datetime, end_datetime, reason
		FROM stylist_time_off
		WHERE stylist_id = $1 AND end_datetime >= $2
		ORDER BY start_datetime`
	rows, err := r.DB.Query(query, stylistID, time.Now().UTC())
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

func (r *AdminRepository) GetStylist(id uuid.UUID) (*db.Profile, error) {
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
