package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	apperrors "kelatic/internal/errors"

	"kelatic/internal/entities"
	"kelatic/internal/service"
)

type BookingHandler struct {
	Service *service.BookingService
}

func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	return &BookingHandler{Service: svc}
}

// GetAvailability returns the slot grid for one stylist and date.
// GET /api/availability?stylist_id=...&date=YYYY-MM-DD&service_id=...
// Either service_id or duration must be given; exclude_appointment lets the
// reschedule screen ignore the appointment being moved.
func (h *BookingHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	stylistID, err := uuid.Parse(q.Get("stylist_id"))
	if err != nil {
		writeError(w, apperrors.ErrValidation("stylist_id is required"))
		return
	}
	date := q.Get("date")
	if date == "" {
		writeError(w, apperrors.ErrValidation("date is required"))
		return
	}

	var serviceID uuid.UUID
	if raw := q.Get("service_id"); raw != "" {
		serviceID, err = uuid.Parse(raw)
		if err != nil {
			writeError(w, apperrors.ErrValidation("invalid service_id"))
			return
		}
	}
	duration := 0
	if raw := q.Get("duration"); raw != "" {
		duration, err = strconv.Atoi(raw)
		if err != nil || duration <= 0 {
			writeError(w, apperrors.ErrValidation("invalid duration"))
			return
		}
	}
	exclude := uuid.Nil
	if raw := q.Get("exclude_appointment"); raw != "" {
		exclude, err = uuid.Parse(raw)
		if err != nil {
			writeError(w, apperrors.ErrValidation("invalid exclude_appointment"))
			return
		}
	}

	resp, err := h.Service.DayAvailability(stylistID, serviceID, duration, date, exclude)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateBooking handles POST /api/bookings.
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req entities.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ErrValidation("invalid request body"))
		return
	}

	resp, err := h.Service.CreateBooking(&req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *BookingHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, apperrors.ErrValidation("invalid appointment id"))
		return
	}

	detail, err := h.Service.GetDetail(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// RescheduleAppointment handles POST /api/appointments/{id}/reschedule.
func (h *BookingHandler) RescheduleAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, apperrors.ErrValidation("invalid appointment id"))
		return
	}
	var req entities.RescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ErrValidation("invalid request body"))
		return
	}

	detail, err := h.Service.Reschedule(id, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// CancelAppointment handles POST /api/appointments/{id}/cancel. The body is
// optional; it may carry who cancelled and why.
func (h *BookingHandler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, apperrors.ErrValidation("invalid appointment id"))
		return
	}
	var req entities.CancelRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	if err := h.Service.Cancel(id, &req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Appointment cancelled"})
}
