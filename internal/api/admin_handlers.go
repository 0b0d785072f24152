package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	apperrors "kelatic/internal/errors"

	"kelatic/internal/db"
	"kelatic/internal/entities"
	"kelatic/internal/service"
)

type AdminHandler struct {
	Admin   *service.AdminService
	Booking *service.BookingService
}

func NewAdminHandler(admin *service.AdminService, booking *service.BookingService) *AdminHandler {
	return &AdminHandler{Admin: admin, Booking: booking}
}

// ListAppointments handles GET /admin/appointments with optional date,
// status and stylist_id filters.
func (h *AdminHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	appointments, err := h.Admin.ListAppointments(q.Get("date"), q.Get("status"), q.Get("stylist_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appointments)
}

// UpdateAppointment handles PATCH /admin/appointments/{id}: status
// transitions, note edits and stylist reassignment, each optional.
func (h *AdminHandler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, apperrors.ErrValidation("invalid appointment id"))
		return
	}
	var req struct {
		Status        string  `json:"status,omitempty"`
		ClientNotes   *string `json:"client_notes,omitempty"`
		InternalNotes *string `json:"internal_notes,omitempty"`
		StylistID     string  `json:"stylist_id,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ErrValidation("invalid request body"))
		return
	}

	if req.ClientNotes != nil || req.InternalNotes != nil {
		if err := h.Admin.UpdateNotes(id, req.ClientNotes, req.InternalNotes); err != nil {
			writeError(w, err)
			return
		}
	}
	if req.StylistID != "" {
		newStylistID, err := uuid.Parse(req.StylistID)
		if err != nil {
			writeError(w, apperrors.ErrValidation("invalid stylist_id"))
			return
		}
		if _, err := h.Admin.ReassignStylist(id, newStylistID); err != nil {
			writeError(w, err)
			return
		}
	}
	if req.Status != "" {
		if _, err := h.Booking.ChangeStatus(id, req.Status); err != nil {
			writeError(w, err)
			return
		}
	}

	detail, err := h.Booking.GetDetail(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// RefundDeposit handles POST /admin/appointments/{id}/refund.
func (h *AdminHandler) RefundDeposit(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, apperrors.ErrValidation("invalid appointment id"))
		return
	}
	if err := h.Admin.RefundDeposit(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Refund initiated"})
}

func (h *AdminHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("include_inactive") != "true"
	services, err := h.Admin.ListServices(activeOnly)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, services)
}

func (h *AdminHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	var svc db.Service
	if err := json.NewDecoder(r.Body).Decode(&svc); err != nil {
		writeError(w, apperrors.ErrValidation("invalid request body"))
		return
	}
	if err := h.Admin.CreateService(&svc); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, svc)
}

func (h *AdminHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, apperrors.ErrValidation("invalid service id"))
		return
	}
	var svc db.Service
	if err := json.NewDecoder(r.Body).Decode(&svc); err != nil {
		writeError(w, apperrors.ErrValidation("invalid request body"))
		return
	}
	svc.ID = id
	if err := h.Admin.UpdateService(&svc); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

func (h *AdminHandler) DeactivateService(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, apperrors.ErrValidation("invalid service id"))
		return
	}
	if err := h.Admin.DeactivateService(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Service deactivated"})
}

func (h *AdminHandler) ListStylists(w http.ResponseWriter, r *http.Request) {
	stylists, err := h.Admin.ListStylists()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profilesToJSON(stylists))
}

func (h *AdminHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Admin.ListClients(r.URL.Query().Get("search"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profilesToJSON(clients))
}

type profileJSON struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
}

func profilesToJSON(profiles []db.Profile) []profileJSON {
	out := make([]profileJSON, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, profileJSON{
			ID:        p.ID,
			Email:     p.Email,
			FirstName: p.FirstName,
			LastName:  p.LastName,
			Phone:     p.Phone.String,
			Role:      p.Role,
			IsActive:  p.IsActive,
		})
	}
	return out
}

// GetSchedule handles GET /admin/stylists/{id}/schedule.
func (h *AdminHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	stylistID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, apperrors.ErrValidation("invalid stylist id"))
		return
	}
	blocks, err := h.Admin.GetWeeklySchedule(stylistID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]entities.ScheduleBlock, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, entities.ScheduleBlock{
			DayOfWeek: b.DayOfWeek,
			StartTime: b.StartTime,
			EndTime:   b.EndTime,
			IsActive:  b.IsActive,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// ReplaceSchedule handles PUT /admin/stylists/{id}/schedule.
func (h *AdminHandler) ReplaceSchedule(w http.ResponseWriter, r *http.Request) {
	stylistID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, apperrors.ErrValidation("invalid stylist id"))
		return
	}
	var req entities.WeeklyScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ErrValidation("invalid request body"))
		return
	}
	if err := h.Admin.ReplaceWeeklySchedule(stylistID, &req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Schedule updated"})
}

func (h *AdminHandler) CreateTimeOff(w http.ResponseWriter, r *http.Request) {
	stylistID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, apperrors.ErrValidation("invalid stylist id"))
		return
	}
	var req entities.TimeOffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ErrValidation("invalid request body"))
		return
	}
	off, err := h.Admin.CreateTimeOff(stylistID, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entities.TimeOffResponse{
		ID:            off.ID,
		StartDatetime: off.StartDatetime,
		EndDatetime:   off.EndDatetime,
		Reason:        off.Reason.String,
	})
}

func (h *AdminHandler) ListTimeOff(w http.ResponseWriter, r *http.Request) {
	stylistID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, apperrors.ErrValidation("invalid stylist id"))
		return
	}
	offs, err := h.Admin.ListUpcomingTimeOff(stylistID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]entities.TimeOffResponse, 0, len(offs))
	for _, off := range offs {
		out = append(out, entities.TimeOffResponse{
			ID:            off.ID,
			StartDatetime: off.StartDatetime,
			EndDatetime:   off.EndDatetime,
			Reason:        off.Reason.String,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *AdminHandler) DeleteTimeOff(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	stylistID, err := uuid.Parse(vars["id"])
	if err != nil {
		writeError(w, apperrors.ErrValidation("invalid stylist id"))
		return
	}
	timeOffID, err := uuid.Parse(vars["timeOffId"])
	if err != nil {
		writeError(w, apperrors.ErrValidation("invalid time off id"))
		return
	}
	if err := h.Admin.DeleteTimeOff(stylistID, timeOffID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Time off removed"})
}
