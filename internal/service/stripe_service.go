package service

import (
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/refund"

	"github.com/google/uuid"

	"kelatic/internal/entities"
)

type StripeService struct{}

func NewStripeService() *StripeService {
	return &StripeService{}
}

// CreateDepositIntent creates the PaymentIntent the booking wizard confirms
// client-side. The appointment id travels in the metadata so the webhook can
// find the row to confirm.
func (s *StripeService) CreateDepositIntent(amountCents int64, appointmentID uuid.UUID, clientName, clientEmail string) (*entities.PaymentIntentInfo, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(amountCents),
		Currency:    stripe.String("usd"),
		Description: stripe.String(fmt.Sprintf("KeLatic booking deposit - appointment %s", appointmentID)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		ReceiptEmail: stripe.String(clientEmail),
	}
	params.AddMetadata("appointment_id", appointmentID.String())
	params.AddMetadata("client_name", clientName)

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("error creating PaymentIntent: %w", err)
	}
	return &entities.PaymentIntentInfo{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// RefundDeposit refunds the full deposit behind a payment intent.
func (s *StripeService) RefundDeposit(paymentIntentID string) error {
	if paymentIntentID == "" {
		return fmt.Errorf("no payment intent to refund")
	}
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	_, err := refund.New(params)
	return err
}
