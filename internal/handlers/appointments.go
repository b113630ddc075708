package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mwestra/autoplein/internal/model"
	"github.com/mwestra/autoplein/internal/schedule"
	"github.com/mwestra/autoplein/internal/storage"
)

// AppointmentStore is the persistence surface the handlers need. The pg
// implementation lives in internal/storage; tests plug in a fake.
type AppointmentStore interface {
	Create(ctx context.Context, appt *model.Appointment) error
	TakenSlots(ctx context.Context, day time.Time) ([]string, error)
	List(ctx context.Context, from, to time.Time) ([]model.Appointment, error)
	UpdateStatus(ctx context.Context, id string, target model.Status) (model.Appointment, error)
}

type AppointmentHandler struct {
	store    AppointmentStore
	schedule *schedule.Schedule
	logger   *slog.Logger
	now      func() time.Time
}

func NewAppointmentHandler(store AppointmentStore, sched *schedule.Schedule, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		store:    store,
		schedule: sched,
		logger:   logger,
		now:      time.Now,
	}
}

type createAppointmentRequest struct {
	Date        string `json:"date"`
	TimeSlot    string `json:"time_slot"`
	Service     string `json:"service"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	VehicleInfo string `json:"vehicle_info"`
	Notes       string `json:"notes"`
}

type appointmentItem struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	TimeSlot    string `json:"time_slot"`
	Service     string `json:"service"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	VehicleInfo string `json:"vehicle_info,omitempty"`
	Notes       string `json:"notes,omitempty"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

type availabilityResponse struct {
	Date      string   `json:"date"`
	Available []string `json:"available"`
	Taken     []string `json:"taken"`
}

type listAppointmentsResponse struct {
	Appointments []appointmentItem `json:"appointments"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// Availability answers GET ?date=YYYY-MM-DD with the free and taken slots of
// that day. Past dates and closed days still get an answer; only dates that
// do not parse are rejected. Creation enforces the stricter rules.
func (h *AppointmentHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" {
		http.Error(w, "date is required", http.StatusBadRequest)
		return
	}
	day, err := h.schedule.ParseDate(raw)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	taken, err := h.store.TakenSlots(r.Context(), day)
	if err != nil {
		h.logger.Error("taken slots query failed", "err", err)
		http.Error(w, "failed to load availability", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, availabilityResponse{
		Date:      day.Format(model.DateLayout),
		Available: h.schedule.Available(taken),
		Taken:     h.schedule.SortTaken(taken),
	})
}

// Create books a slot. Validation runs in a fixed order and the first
// violated rule is returned; a well-formed request whose slot is held by a
// non-cancelled appointment gets a conflict instead.
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	req.Date = strings.TrimSpace(req.Date)
	req.TimeSlot = strings.TrimSpace(req.TimeSlot)
	req.Service = strings.TrimSpace(req.Service)
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)

	if req.Date == "" || req.TimeSlot == "" || req.Service == "" ||
		req.Name == "" || req.Email == "" || req.Phone == "" {
		http.Error(w, "missing required fields", http.StatusBadRequest)
		return
	}

	day, err := h.schedule.ParseDate(req.Date)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	if err := h.schedule.ValidateBookingDate(day, h.now()); err != nil {
		switch {
		case errors.Is(err, schedule.ErrPastDate):
			http.Error(w, "date must be in the future", http.StatusBadRequest)
		case errors.Is(err, schedule.ErrClosedDay):
			http.Error(w, fmt.Sprintf("closed on %s", day.Weekday()), http.StatusBadRequest)
		default:
			http.Error(w, "invalid date", http.StatusBadRequest)
		}
		return
	}
	if err := h.schedule.ValidateSlot(req.TimeSlot); err != nil {
		http.Error(w, "invalid time slot", http.StatusBadRequest)
		return
	}

	appt := &model.Appointment{
		Date:        day,
		TimeSlot:    req.TimeSlot,
		Service:     req.Service,
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		VehicleInfo: strings.TrimSpace(req.VehicleInfo),
		Notes:       strings.TrimSpace(req.Notes),
		Status:      model.StatusConfirmed,
	}

	if err := h.store.Create(r.Context(), appt); err != nil {
		if errors.Is(err, storage.ErrSlotTaken) {
			http.Error(w, "time slot already booked", http.StatusConflict)
			return
		}
		h.logger.Error("appointment insert failed", "err", err)
		http.Error(w, "failed to create appointment", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, toItem(*appt))
}

// List is the operator view: all appointments within the optional
// [from, to] day bounds, chronological.
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var from, to time.Time
	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		day, err := h.schedule.ParseDate(raw)
		if err != nil {
			http.Error(w, "invalid from date", http.StatusBadRequest)
			return
		}
		from = day
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
		day, err := h.schedule.ParseDate(raw)
		if err != nil {
			http.Error(w, "invalid to date", http.StatusBadRequest)
			return
		}
		to = day
	}

	appts, err := h.store.List(r.Context(), from, to)
	if err != nil {
		h.logger.Error("appointment list failed", "err", err)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}

	items := make([]appointmentItem, 0, len(appts))
	for _, appt := range appts {
		items = append(items, toItem(appt))
	}
	writeJSON(w, http.StatusOK, listAppointmentsResponse{Appointments: items})
}

// UpdateStatus handles PATCH /api/appointments/{id}. Cancelling frees the
// (date, slot) pair; completed and cancelled are terminal.
func (h *AppointmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/appointments/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "appointment not found", http.StatusNotFound)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	target, err := model.ParseTargetStatus(strings.TrimSpace(req.Status))
	if err != nil {
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}

	appt, err := h.store.UpdateStatus(r.Context(), id, target)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			http.Error(w, "appointment not found", http.StatusNotFound)
		case errors.Is(err, storage.ErrInvalidTransition):
			http.Error(w, "appointment cannot be updated", http.StatusConflict)
		default:
			h.logger.Error("status update failed", "err", err, "appointment_id", id)
			http.Error(w, "failed to update appointment", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, toItem(appt))
}

func toItem(appt model.Appointment) appointmentItem {
	return appointmentItem{
		ID:          appt.ID,
		Date:        appt.DateString(),
		TimeSlot:    appt.TimeSlot,
		Service:     appt.Service,
		Name:        appt.Name,
		Email:       appt.Email,
		Phone:       appt.Phone,
		VehicleInfo: appt.VehicleInfo,
		Notes:       appt.Notes,
		Status:      string(appt.Status),
		CreatedAt:   appt.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
