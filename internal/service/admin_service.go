package service

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	apperrors "kelatic/internal/errors"

	"kelatic/internal/db"
	"kelatic/internal/entities"
	"kelatic/internal/repository"
	"kelatic/internal/utils"
)

type AdminService struct {
	adminRepo   *repository.AdminRepository
	paymentRepo *repository.PaymentRepository
	booking     *BookingService
	stripe      *StripeService
	loc         *time.Location
}

func NewAdminService(adminRepo *repository.AdminRepository, paymentRepo *repository.PaymentRepository, booking *BookingService, stripe *StripeService, loc *time.Location) *AdminService {
	return &AdminService{
		adminRepo:   adminRepo,
		paymentRepo: paymentRepo,
		booking:     booking,
		stripe:      stripe,
		loc:         loc,
	}
}

func (s *AdminService) ListAppointments(date, status, stylistID string) ([]entities.AppointmentSummary, error) {
	if status != "" && !IsValidStatus(status) {
		return nil, apperrors.ErrValidation("unknown status filter")
	}
	return s.adminRepo.ListAppointments(date, status, stylistID)
}

func (s *AdminService) UpdateNotes(id uuid.UUID, clientNotes, internalNotes *string) error {
	if err := s.adminRepo.UpdateAppointmentNotes(id, clientNotes, internalNotes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.ErrNotFound("appointment not found")
		}
		return err
	}
	return nil
}

// ReassignStylist moves an appointment to another stylist, after the new
// stylist passes the same availability check a fresh booking would.
func (s *AdminService) ReassignStylist(appointmentID, newStylistID uuid.UUID) (*entities.AppointmentDetail, error) {
	appt, err := s.booking.store.GetAppointment(appointmentID)
	if err != nil {
		return nil, err
	}
	if appt == nil {
		return nil, apperrors.ErrNotFound("appointment not found")
	}
	if appt.Status == db.StatusCancelled || appt.Status == db.StatusCompleted {
		return nil, apperrors.ErrValidation("this appointment cannot be reassigned")
	}

	stylist, err := s.adminRepo.GetStylist(newStylistID)
	if err != nil {
		return nil, err
	}
	if stylist == nil || !stylist.IsActive {
		return nil, apperrors.ErrNotFound("stylist not found")
	}

	detail, err := s.booking.GetDetail(appointmentID)
	if err != nil {
		return nil, err
	}
	durationMin := detail.TotalDuration()
	if err := s.booking.checkAvailability(newStylistID, appt.StartTime, durationMin, appointmentID); err != nil {
		return nil, err
	}

	if err := s.adminRepo.ReassignStylist(appointmentID, newStylistID); err != nil {
		return nil, err
	}
	return s.booking.GetDetail(appointmentID)
}

func (s *AdminService) ListServices(activeOnly bool) ([]db.Service, error) {
	return s.adminRepo.ListServices(activeOnly)
}

func validateService(svc *db.Service) error {
	if svc.Name == "" {
		return apperrors.ErrValidation("service name is required")
	}
	if svc.Duration <= 0 {
		return apperrors.ErrValidation("service duration must be positive")
	}
	if svc.BasePrice < 0 || svc.DepositAmount < 0 || svc.BufferTime < 0 {
		return apperrors.ErrValidation("prices and buffer time cannot be negative")
	}
	return nil
}

func (s *AdminService) CreateService(svc *db.Service) error {
	if err := validateService(svc); err != nil {
		return err
	}
	svc.ID = uuid.New()
	svc.IsActive = true
	return s.adminRepo.CreateService(svc)
}

func (s *AdminService) UpdateService(svc *db.Service) error {
	if err := validateService(svc); err != nil {
		return err
	}
	if err := s.adminRepo.UpdateService(svc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.ErrNotFound("service not found")
		}
		return err
	}
	return nil
}

func (s *AdminService) DeactivateService(id uuid.UUID) error {
	return s.adminRepo.DeactivateService(id)
}

func (s *AdminService) ListStylists() ([]db.Profile, error) {
	return s.adminRepo.ListStylists()
}

func (s *AdminService) ListClients(search string) ([]db.Profile, error) {
	return s.adminRepo.ListClients(search)
}

func (s *AdminService) GetWeeklySchedule(stylistID uuid.UUID) ([]db.StylistSchedule, error) {
	stylist, err := s.adminRepo.GetStylist(stylistID)
	if err != nil {
		return nil, err
	}
	if stylist == nil {
		return nil, apperrors.ErrNotFound("stylist not found")
	}
	return s.booking.store.WeeklySchedule(stylistID)
}

// ReplaceWeeklySchedule swaps a stylist's whole weekly grid in one shot,
// the way the settings screen submits it.
func (s *AdminService) ReplaceWeeklySchedule(stylistID uuid.UUID, req *entities.WeeklyScheduleRequest) error {
	stylist, err := s.adminRepo.GetStylist(stylistID)
	if err != nil {
		return err
	}
	if stylist == nil {
		return apperrors.ErrNotFound("stylist not found")
	}

	blocks := make([]db.StylistSchedule, 0, len(req.Blocks))
	for _, b := range req.Blocks {
		if b.DayOfWeek < 0 || b.DayOfWeek > 6 {
			return apperrors.ErrValidation("day_of_week must be between 0 and 6")
		}
		startMin, err := utils.ParseClock(b.StartTime)
		if err != nil {
			return apperrors.ErrValidation("invalid start_time, use HH:MM")
		}
		endMin, err := utils.ParseClock(b.EndTime)
		if err != nil {
			return apperrors.ErrValidation("invalid end_time, use HH:MM")
		}
		if startMin >= endMin {
			return apperrors.ErrValidation("start_time must be before end_time")
		}
		blocks = append(blocks, db.StylistSchedule{
			ID:        uuid.New(),
			StylistID: stylistID,
			DayOfWeek: b.DayOfWeek,
			StartTime: b.StartTime,
			EndTime:   b.EndTime,
			IsActive:  true,
		})
	}
	return s.adminRepo.ReplaceWeeklySchedule(stylistID, blocks)
}

func (s *AdminService) CreateTimeOff(stylistID uuid.UUID, req *entities.TimeOffRequest) (*db.StylistTimeOff, error) {
	stylist, err := s.adminRepo.GetStylist(stylistID)
	if err != nil {
		return nil, err
	}
	if stylist == nil {
		return nil, apperrors.ErrNotFound("stylist not found")
	}

	start, err := time.ParseInLocation("2006-01-02T15:04", req.StartDatetime, s.loc)
	if err != nil {
		start, err = time.Parse(time.RFC3339, req.StartDatetime)
		if err != nil {
			return nil, apperrors.ErrValidation("invalid start_datetime")
		}
	}
	end, err := time.ParseInLocation("2006-01-02T15:04", req.EndDatetime, s.loc)
	if err != nil {
		end, err = time.Parse(time.RFC3339, req.EndDatetime)
		if err != nil {
			return nil, apperrors.ErrValidation("invalid end_datetime")
		}
	}
	if !start.Before(end) {
		return nil, apperrors.ErrValidation("start_datetime must be before end_datetime")
	}

	off := &db.StylistTimeOff{
		ID:            uuid.New(),
		StylistID:     stylistID,
		StartDatetime: start,
		EndDatetime:   end,
	}
	if req.Reason != "" {
		off.Reason = sql.NullString{String: req.Reason, Valid: true}
	}
	if err := s.adminRepo.CreateTimeOff(off); err != nil {
		return nil, err
	}
	return off, nil
}

func (s *AdminService) DeleteTimeOff(stylistID, timeOffID uuid.UUID) error {
	if err := s.adminRepo.DeleteTimeOff(stylistID, timeOffID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.ErrNotFound("time off not found")
		}
		return err
	}
	return nil
}

func (s *AdminService) ListUpcomingTimeOff(stylistID uuid.UUID) ([]db.StylistTimeOff, error) {
	return s.adminRepo.ListUpcomingTimeOff(stylistID)
}

// RefundDeposit refunds a paid deposit through Stripe. The payment row is
// not touched here; the charge.refunded webhook records the final state.
func (s *AdminService) RefundDeposit(appointmentID uuid.UUID) error {
	payments, err := s.paymentRepo.ListByAppointment(appointmentID)
	if err != nil {
		return err
	}
	for _, p := range payments {
		if p.IsDeposit && p.Status == db.PaymentSucceeded && p.StripePaymentIntentID.Valid {
			return s.stripe.RefundDeposit(p.StripePaymentIntentID.String)
		}
	}
	return apperrors.ErrNotFound("no refundable deposit for this appointment")
}
