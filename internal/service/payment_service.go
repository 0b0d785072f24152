package service

import (
	"log"

	"kelatic/internal/db"
)

// PaymentStore is the payment-row surface the webhook path needs.
// *repository.PaymentRepository implements it.
type PaymentStore interface {
	GetByPaymentIntentID(intentID string) (*db.Payment, error)
	UpdateStatusByIntentID(intentID, status string) error
}

// PaymentService applies Stripe webhook outcomes to payments and their
// appointments.
type PaymentService struct {
	payments PaymentStore
	store    BookingStore
	notifier Notifier
}

func NewPaymentService(payments PaymentStore, store BookingStore, notifier Notifier) *PaymentService {
	return &PaymentService{payments: payments, store: store, notifier: notifier}
}

// ConfirmDeposit marks the payment succeeded and promotes its pending
// appointment to confirmed, then sends the confirmation.
func (s *PaymentService) ConfirmDeposit(paymentIntentID string) error {
	payment, err := s.payments.GetByPaymentIntentID(paymentIntentID)
	if err != nil {
		return err
	}
	if payment == nil {
		log.Printf("No payment found for intent %s, ignoring", paymentIntentID)
		return nil
	}

	if err := s.payments.UpdateStatusByIntentID(paymentIntentID, db.PaymentSucceeded); err != nil {
		return err
	}

	appt, err := s.store.GetAppointment(payment.AppointmentID)
	if err != nil {
		return err
	}
	if appt == nil || appt.Status != db.StatusPending {
		return nil
	}
	if err := s.store.UpdateStatus(appt.ID, db.StatusConfirmed); err != nil {
		return err
	}

	if detail, err := s.store.GetAppointmentDetail(appt.ID); err == nil && detail != nil {
		s.notifier.AppointmentEvent(detail, NotifyConfirmation)
	}
	return nil
}

// FailDeposit records a failed deposit attempt. The appointment stays
// pending until the hold expires or the client retries.
func (s *PaymentService) FailDeposit(paymentIntentID string) error {
	return s.payments.UpdateStatusByIntentID(paymentIntentID, db.PaymentFailed)
}

// RecordRefund marks the payment refunded after Stripe confirms the refund.
func (s *PaymentService) RecordRefund(paymentIntentID string) error {
	return s.payments.UpdateStatusByIntentID(paymentIntentID, db.PaymentRefunded)
}
