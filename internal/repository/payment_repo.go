package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"kelatic/internal/db"
)

type PaymentRepository struct {
	DB *sql.DB
}

func NewPaymentRepository(database *sql.DB) *PaymentRepository {
	return &PaymentRepository{DB: database}
}

func (r *PaymentRepository) GetByPaymentIntentID(intentID string) (*db.Payment, error) {
	var p db.Payment
	query := `
		SELECT id, appointment_id, client_id, amount, tip_amount, total_amount, status, method,
		       stripe_payment_intent_id, is_deposit, created_at, updated_at
		FROM payments WHERE stripe_payment_intent_id = $1`
	err := r.DB.QueryRow(query, intentID).Scan(
		&p.ID, &p.AppointmentID, &p.ClientID, &p.Amount, &p.TipAmount, &p.TotalAmount, &p.Status, &p.Method,
		&p.StripePaymentIntentID, &p.IsDeposit, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying payment for intent %s: %w", intentID, err)
	}
	return &p, nil
}

func (r *PaymentRepository) UpdateStatusByIntentID(intentID, status string) error {
	result, err := r.DB.Exec(`
		UPDATE payments SET status = $1, updated_at = NOW()
		WHERE stripe_payment_intent_id = $2`, status, intentID)
	if err != nil {
		return fmt.Errorf("error updating payment status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *PaymentRepository) ListByAppointment(appointmentID uuid.UUID) ([]db.Payment, error) {
	query := `
		SELECT id, appointment_id, client_id, amount, tip_amount, total_amount, status, method,
		       stripe_payment_intent_id, is_deposit, created_at, updated_at
		FROM payments WHERE appointment_id = $1 ORDER BY created_at`
	rows, err := r.DB.Query(query, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("error querying payments: %w", err)
	}
	defer rows.Close()

	var payments []db.Payment
	for rows.Next() {
		var p db.Payment
		if err := rows.Scan(
			&p.ID, &p.AppointmentID, &p.ClientID, &p.Amount, &p.TipAmount, &p.TotalAmount, &p.Status, &p.Method,
			&p.StripePaymentIntentID, &p.IsDeposit, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
