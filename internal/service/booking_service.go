package service

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	apperrors "kelatic/internal/errors"

	"kelatic/internal/db"
	"kelatic/internal/entities"
	"kelatic/internal/repository"
)

// BookingStore is the persistence surface the booking and reschedule
// orchestrators need. *repository.BookingRepository implements it.
type BookingStore interface {
	GetService(id uuid.UUID) (*db.Service, error)
	GetServicesByIDs(ids []uuid.UUID) ([]db.Service, error)
	GetStylist(id uuid.UUID) (*db.Profile, error)
	WeeklySchedule(stylistID uuid.UUID) ([]db.StylistSchedule, error)
	TimeOffBetween(stylistID uuid.UUID, from, to time.Time) ([]db.StylistTimeOff, error)
	AppointmentsBetween(stylistID uuid.UUID, from, to time.Time) ([]db.Appointment, error)
	FindClientByEmail(email string) (*db.Profile, error)
	CreateClient(p *db.Profile) error
	UpdateClientPhone(id uuid.UUID, phone string) error
	CreateAppointment(appt *db.Appointment) error
	RescheduleAppointment(id, stylistID uuid.UUID, start, end time.Time) error
	InsertAddons(appointmentID uuid.UUID, addons []db.Service) error
	CreatePayment(p *db.Payment) error
	GetAppointment(id uuid.UUID) (*db.Appointment, error)
	GetAppointmentDetail(id uuid.UUID) (*entities.AppointmentDetail, error)
	UpdateStatus(id uuid.UUID, status string) error
	CancelAppointment(id uuid.UUID, cancelledBy, reason string) error
}

// PaymentProvider creates deposit payment intents. *StripeService
// implements it.
type PaymentProvider interface {
	CreateDepositIntent(amountCents int64, appointmentID uuid.UUID, clientName, clientEmail string) (*entities.PaymentIntentInfo, error)
}

// Notifier dispatches appointment notifications. Implementations must be
// best-effort and non-blocking; a failed send never fails the booking.
type Notifier interface {
	AppointmentEvent(detail *entities.AppointmentDetail, kind string)
}

type BookingService struct {
	store    BookingStore
	payments PaymentProvider
	notifier Notifier
	loc      *time.Location
}

func NewBookingService(store BookingStore, payments PaymentProvider, notifier Notifier, loc *time.Location) *BookingService {
	return &BookingService{
		store:    store,
		payments: payments,
		notifier: notifier,
		loc:      loc,
	}
}

// parseStartTime accepts RFC3339 or a naive datetime, which is interpreted
// as salon-local time, the way the booking wizard submits it.
func (s *BookingService) parseStartTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.In(s.loc), nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, raw, s.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid start time %q", raw)
}

// checkAvailability runs the three-stage check (schedule, time off,
// conflicts) for the candidate slot. The same check guards both booking
// and reschedule.
func (s *BookingService) checkAvailability(stylistID uuid.UUID, start time.Time, durationMin int, exclude uuid.UUID) error {
	// Callers may hand in DB-scanned times in another zone; the weekday and
	// time-of-day checks only make sense in salon time.
	start = start.In(s.loc)
	dayStart := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, s.loc)
	dayEnd := dayStart.Add(24 * time.Hour)

	weekly, err := s.store.WeeklySchedule(stylistID)
	if err != nil {
		return err
	}
	timeOff, err := s.store.TimeOffBetween(stylistID, dayStart, dayEnd)
	if err != nil {
		return err
	}
	existing, err := s.store.AppointmentsBetween(stylistID, dayStart, dayEnd)
	if err != nil {
		return err
	}

	verdict := CheckSlot(weekly, timeOff, existing, start, durationMin, exclude)
	if verdict.Available {
		return nil
	}
	if verdict.Reason == ReasonSlotTaken {
		return apperrors.ErrConflict(verdict.Reason)
	}
	return apperrors.ErrValidation(verdict.Reason)
}

func (s *BookingService) CreateBooking(req *entities.BookingRequest) (*entities.BookingResponse, error) {
	if req.ServiceID == "" || req.StylistID == "" || req.StartTime == "" {
		return nil, apperrors.ErrValidation("service_id, stylist_id and start_time are required")
	}
	if req.Client.Email == "" || req.Client.FirstName == "" {
		return nil, apperrors.ErrValidation("client first name and email are required")
	}

	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		return nil, apperrors.ErrValidation("invalid service_id")
	}
	stylistID, err := uuid.Parse(req.StylistID)
	if err != nil {
		return nil, apperrors.ErrValidation("invalid stylist_id")
	}
	addonIDs := make([]uuid.UUID, 0, len(req.AddonIDs))
	for _, raw := range req.AddonIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, apperrors.ErrValidation("invalid addon id")
		}
		addonIDs = append(addonIDs, id)
	}

	svc, err := s.store.GetService(serviceID)
	if err != nil {
		return nil, err
	}
	if svc == nil || !svc.IsActive {
		return nil, apperrors.ErrNotFound("service not found")
	}
	stylist, err := s.store.GetStylist(stylistID)
	if err != nil {
		return nil, err
	}
	if stylist == nil || !stylist.IsActive {
		return nil, apperrors.ErrNotFound("stylist not found")
	}

	addons, err := s.store.GetServicesByIDs(addonIDs)
	if err != nil {
		return nil, err
	}

	start, err := s.parseStartTime(req.StartTime)
	if err != nil {
		return nil, apperrors.ErrValidation("invalid start_time")
	}
	if start.Before(time.Now()) {
		return nil, apperrors.ErrValidation("cannot book a time in the past")
	}

	durationMin, price := Quote(svc, addons)
	end := start.Add(time.Duration(durationMin) * time.Minute)

	if err := s.checkAvailability(stylistID, start, durationMin, uuid.Nil); err != nil {
		return nil, err
	}

	appt := &db.Appointment{
		ID:          uuid.New(),
		StylistID:   stylistID,
		ServiceID:   serviceID,
		StartTime:   start,
		EndTime:     end,
		QuotedPrice: price,
		Status:      db.StatusConfirmed,
	}
	if req.Notes != "" {
		appt.ClientNotes = sql.NullString{String: req.Notes, Valid: true}
	}

	needsDeposit := NeedsDeposit(svc)
	if needsDeposit {
		appt.Status = db.StatusPending
	}

	clientID := s.resolveClient(&req.Client, appt)

	if err := s.store.CreateAppointment(appt); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, apperrors.ErrConflict(ReasonSlotTaken)
		}
		return nil, err
	}

	if len(addons) > 0 {
		if err := s.store.InsertAddons(appt.ID, addons); err != nil {
			// The appointment exists; add-on lines are bookkeeping.
			log.Printf("Error inserting add-ons for appointment %s: %v", appt.ID, err)
		}
	}

	var intent *entities.PaymentIntentInfo
	if needsDeposit {
		deposit := DepositAmount(svc, stylist)
		intent, err = s.payments.CreateDepositIntent(ToCents(deposit), appt.ID,
			req.Client.FirstName+" "+req.Client.LastName, req.Client.Email)
		if err != nil {
			return nil, fmt.Errorf("error creating deposit payment intent: %w", err)
		}
		payment := &db.Payment{
			ID:                    uuid.New(),
			AppointmentID:         appt.ID,
			ClientID:              clientID,
			Amount:                deposit,
			TotalAmount:           deposit,
			Status:                db.PaymentPending,
			Method:                "card_online",
			StripePaymentIntentID: sql.NullString{String: intent.ID, Valid: true},
			IsDeposit:             true,
		}
		if err := s.store.CreatePayment(payment); err != nil {
			log.Printf("Error recording pending deposit for appointment %s: %v", appt.ID, err)
		}
	}

	detail, err := s.store.GetAppointmentDetail(appt.ID)
	if err != nil || detail == nil {
		log.Printf("Error loading appointment detail %s: %v", appt.ID, err)
		detail = &entities.AppointmentDetail{
			ID:        appt.ID,
			StartTime: appt.StartTime,
			EndTime:   appt.EndTime,
			Status:    appt.Status,
		}
	} else {
		s.notifier.AppointmentEvent(detail, NotifyConfirmation)
	}

	return &entities.BookingResponse{Appointment: detail, PaymentIntent: intent}, nil
}

// resolveClient finds or creates the client profile by email. On profile
// creation failure the appointment falls back to walk-in contact fields so
// the booking still lands.
func (s *BookingService) resolveClient(client *entities.ClientInfo, appt *db.Appointment) uuid.NullUUID {
	existing, err := s.store.FindClientByEmail(client.Email)
	if err != nil {
		log.Printf("Error looking up client by email: %v", err)
	}
	if existing != nil {
		if client.Phone != "" && client.Phone != existing.Phone.String {
			if err := s.store.UpdateClientPhone(existing.ID, client.Phone); err != nil {
				log.Printf("Error updating client phone: %v", err)
			}
		}
		appt.ClientID = uuid.NullUUID{UUID: existing.ID, Valid: true}
		return appt.ClientID
	}

	profile := &db.Profile{
		ID:        uuid.New(),
		Email:     client.Email,
		FirstName: client.FirstName,
		LastName:  client.LastName,
		Role:      db.RoleClient,
	}
	if client.Phone != "" {
		profile.Phone = sql.NullString{String: client.Phone, Valid: true}
	}
	if err := s.store.CreateClient(profile); err != nil {
		log.Printf("Error creating client profile, storing booking as walk-in: %v", err)
		appt.IsWalkIn = true
		appt.WalkInName = sql.NullString{String: client.FirstName + " " + client.LastName, Valid: true}
		appt.WalkInEmail = sql.NullString{String: client.Email, Valid: true}
		if client.Phone != "" {
			appt.WalkInPhone = sql.NullString{String: client.Phone, Valid: true}
		}
		return uuid.NullUUID{}
	}
	appt.ClientID = uuid.NullUUID{UUID: profile.ID, Valid: true}
	return appt.ClientID
}

func (s *BookingService) Reschedule(appointmentID uuid.UUID, req *entities.RescheduleRequest) (*entities.AppointmentDetail, error) {
	if req.NewStartTime == "" {
		return nil, apperrors.ErrValidation("new_start_time is required")
	}

	appt, err := s.store.GetAppointment(appointmentID)
	if err != nil {
		return nil, err
	}
	if appt == nil {
		return nil, apperrors.ErrNotFound("appointment not found")
	}
	if appt.Status == db.StatusCancelled || appt.Status == db.StatusCompleted {
		return nil, apperrors.ErrValidation("this appointment cannot be rescheduled")
	}
	if appt.StartTime.Before(time.Now()) {
		return nil, apperrors.ErrValidation("cannot reschedule past appointments")
	}

	newStart, err := s.parseStartTime(req.NewStartTime)
	if err != nil {
		return nil, apperrors.ErrValidation("invalid new_start_time")
	}
	if newStart.Before(time.Now()) {
		return nil, apperrors.ErrValidation("cannot reschedule to a past time")
	}

	detail, err := s.store.GetAppointmentDetail(appointmentID)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, apperrors.ErrNotFound("appointment not found")
	}

	durationMin := detail.TotalDuration()
	newEnd := newStart.Add(time.Duration(durationMin) * time.Minute)

	if err := s.checkAvailability(appt.StylistID, newStart, durationMin, appointmentID); err != nil {
		return nil, err
	}

	if err := s.store.RescheduleAppointment(appointmentID, appt.StylistID, newStart, newEnd); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, apperrors.ErrConflict(ReasonSlotTaken)
		}
		return nil, err
	}

	updated, err := s.store.GetAppointmentDetail(appointmentID)
	if err != nil || updated == nil {
		log.Printf("Error reloading appointment %s after reschedule: %v", appointmentID, err)
		detail.StartTime = newStart
		detail.EndTime = newEnd
		return detail, nil
	}
	s.notifier.AppointmentEvent(updated, NotifyReschedule)
	return updated, nil
}

func (s *BookingService) Cancel(appointmentID uuid.UUID, req *entities.CancelRequest) error {
	appt, err := s.store.GetAppointment(appointmentID)
	if err != nil {
		return err
	}
	if appt == nil {
		return apperrors.ErrNotFound("appointment not found")
	}
	if appt.Status == db.StatusCancelled {
		return apperrors.ErrValidation("appointment is already cancelled")
	}
	if appt.Status == db.StatusCompleted {
		return apperrors.ErrValidation("cannot cancel a completed appointment")
	}
	if appt.StartTime.Before(time.Now()) {
		return apperrors.ErrValidation("cannot cancel past appointments")
	}

	cancelledBy := req.CancelledBy
	if cancelledBy == "" {
		cancelledBy = "client"
	}
	if err := s.store.CancelAppointment(appointmentID, cancelledBy, req.Reason); err != nil {
		return err
	}

	if detail, err := s.store.GetAppointmentDetail(appointmentID); err == nil && detail != nil {
		s.notifier.AppointmentEvent(detail, NotifyCancellation)
	}
	return nil
}

// ChangeStatus applies a lifecycle transition from the back office.
func (s *BookingService) ChangeStatus(appointmentID uuid.UUID, newStatus string) (*entities.AppointmentDetail, error) {
	if !IsValidStatus(newStatus) {
		return nil, apperrors.ErrValidation("unknown status")
	}
	appt, err := s.store.GetAppointment(appointmentID)
	if err != nil {
		return nil, err
	}
	if appt == nil {
		return nil, apperrors.ErrNotFound("appointment not found")
	}
	if !CanTransition(appt.Status, newStatus) {
		return nil, apperrors.ErrValidation(fmt.Sprintf("cannot change status from %s to %s", appt.Status, newStatus))
	}

	if newStatus == db.StatusCancelled {
		if err := s.store.CancelAppointment(appointmentID, "admin", ""); err != nil {
			return nil, err
		}
	} else if err := s.store.UpdateStatus(appointmentID, newStatus); err != nil {
		return nil, err
	}

	detail, err := s.store.GetAppointmentDetail(appointmentID)
	if err != nil {
		return nil, err
	}
	if newStatus == db.StatusCancelled && detail != nil {
		s.notifier.AppointmentEvent(detail, NotifyCancellation)
	}
	return detail, nil
}

func (s *BookingService) GetDetail(appointmentID uuid.UUID) (*entities.AppointmentDetail, error) {
	detail, err := s.store.GetAppointmentDetail(appointmentID)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, apperrors.ErrNotFound("appointment not found")
	}
	return detail, nil
}

// DayAvailability builds the bookable slot grid for one stylist and date.
// Duration comes from the service (plus buffer) or, when rescheduling, is
// passed explicitly along with the appointment to exclude.
func (s *BookingService) DayAvailability(stylistID uuid.UUID, serviceID uuid.UUID, durationMin int, date string, exclude uuid.UUID) (*entities.AvailabilityResponse, error) {
	day, err := time.ParseInLocation("2006-01-02", date, s.loc)
	if err != nil {
		return nil, apperrors.ErrValidation("invalid date format, use YYYY-MM-DD")
	}

	if durationMin <= 0 {
		if serviceID == uuid.Nil {
			return nil, apperrors.ErrValidation("service_id or duration is required")
		}
		svc, err := s.store.GetService(serviceID)
		if err != nil {
			return nil, err
		}
		if svc == nil {
			return nil, apperrors.ErrNotFound("service not found")
		}
		durationMin = svc.Duration + svc.BufferTime
	}

	stylist, err := s.store.GetStylist(stylistID)
	if err != nil {
		return nil, err
	}
	if stylist == nil || !stylist.IsActive {
		return nil, apperrors.ErrNotFound("stylist not found")
	}

	dayEnd := day.Add(24 * time.Hour)
	weekly, err := s.store.WeeklySchedule(stylistID)
	if err != nil {
		return nil, err
	}
	timeOff, err := s.store.TimeOffBetween(stylistID, day, dayEnd)
	if err != nil {
		return nil, err
	}
	existing, err := s.store.AppointmentsBetween(stylistID, day, dayEnd)
	if err != nil {
		return nil, err
	}

	slots := GenerateDaySlots(stylist, weekly, timeOff, existing, day, durationMin, exclude)
	return &entities.AvailabilityResponse{Date: date, Slots: slots}, nil
}
