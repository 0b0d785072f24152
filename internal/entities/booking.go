package entities

type ClientInfo struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type BookingRequest struct {
	ServiceID string     `json:"service_id"`
	StylistID string     `json:"stylist_id"`
	StartTime string     `json:"start_time"` // RFC3339, or naive local salon time
	AddonIDs  []string   `json:"addon_ids,omitempty"`
	Client    ClientInfo `json:"client"`
	Notes     string     `json:"notes,omitempty"`
}

type PaymentIntentInfo struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

type BookingResponse struct {
	Appointment   *AppointmentDetail `json:"appointment"`
	PaymentIntent *PaymentIntentInfo `json:"payment_intent,omitempty"`
}

type RescheduleRequest struct {
	NewStartTime string `json:"new_start_time"`
}

type CancelRequest struct {
	CancelledBy string `json:"cancelled_by,omitempty"`
	Reason      string `json:"reason,omitempty"`
}
