package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mwestra/autoplein/internal/model"
	"github.com/mwestra/autoplein/internal/outbox"
	"github.com/mwestra/autoplein/libs/db"
)

var (
	// ErrSlotTaken means a non-cancelled appointment already holds the
	// (date, slot) pair. Raised by the partial unique index
	// appointments_slot_active_uniq, so concurrent creates cannot both win.
	ErrSlotTaken = errors.New("time slot already booked")

	ErrNotFound = errors.New("appointment not found")

	// ErrInvalidTransition means the appointment is already in a terminal
	// state (cancelled or completed).
	ErrInvalidTransition = errors.New("appointment cannot be updated")
)

type AppointmentRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewAppointmentRepository(pool *db.Pool, outboxRepo *outbox.Repository) *AppointmentRepository {
	return &AppointmentRepository{pool: pool, outbox: outboxRepo}
}

const appointmentColumns = `id, appointment_date, time_slot, service, customer_name, customer_email,
	customer_phone, vehicle_info, notes, status, created_at`

// Create inserts the appointment and its confirmation event in one
// transaction. The slot-exclusivity check is the insert itself: the partial
// unique index rejects a second active row for the same (date, slot), which
// surfaces here as ErrSlotTaken.
func (r *AppointmentRepository) Create(ctx context.Context, appt *model.Appointment) error {
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO appointments
			(id, appointment_date, time_slot, service, customer_name, customer_email,
			customer_phone, vehicle_info, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`, appt.ID, appt.Date, appt.TimeSlot, appt.Service, appt.Name, appt.Email,
		appt.Phone, appt.VehicleInfo, appt.Notes, appt.Status).Scan(&appt.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("insert appointment: %w", err)
	}

	if err := r.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID,
		EventType:     outbox.EventAppointmentConfirmed,
		Payload:       eventPayload(*appt),
	}); err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}

	return tx.Commit(ctx)
}

// TakenSlots returns the slot labels held by non-cancelled appointments on
// the given day.
func (r *AppointmentRepository) TakenSlots(ctx context.Context, day time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT time_slot
		FROM appointments
		WHERE appointment_date = $1
			AND status <> 'cancelled'
		ORDER BY time_slot ASC
	`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []string
	for rows.Next() {
		var slot string
		if err := rows.Scan(&slot); err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

// List returns appointments with appointment_date within [from, to],
// chronological. A zero bound leaves that side open. As HH:MM 24-hour labels,
// lexical time_slot order matches the slot grid's chronological order.
func (r *AppointmentRepository) List(ctx context.Context, from, to time.Time) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE ($1::date IS NULL OR appointment_date >= $1)
			AND ($2::date IS NULL OR appointment_date <= $2)
		ORDER BY appointment_date ASC, time_slot ASC
	`, dateArg(from), dateArg(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	return appts, rows.Err()
}

// UpdateStatus moves an appointment into a terminal state and writes the
// matching event in the same transaction. Only the status column changes.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id string, target model.Status) (model.Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Appointment{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := scanAppointment(tx.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
		FOR UPDATE
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Appointment{}, ErrNotFound
		}
		return model.Appointment{}, fmt.Errorf("load appointment: %w", err)
	}

	if !appt.Status.CanTransitionTo(target) {
		return model.Appointment{}, ErrInvalidTransition
	}

	if _, err := tx.Exec(ctx, `
		UPDATE appointments
		SET status = $2
		WHERE id = $1
	`, id, target); err != nil {
		return model.Appointment{}, fmt.Errorf("update status: %w", err)
	}
	appt.Status = target

	eventType := outbox.EventAppointmentCancelled
	if target == model.StatusCompleted {
		eventType = outbox.EventAppointmentCompleted
	}
	if err := r.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID,
		EventType:     eventType,
		Payload:       eventPayload(appt),
	}); err != nil {
		return model.Appointment{}, fmt.Errorf("insert outbox event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Appointment{}, err
	}
	return appt, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (model.Appointment, error) {
	var appt model.Appointment
	err := row.Scan(
		&appt.ID,
		&appt.Date,
		&appt.TimeSlot,
		&appt.Service,
		&appt.Name,
		&appt.Email,
		&appt.Phone,
		&appt.VehicleInfo,
		&appt.Notes,
		&appt.Status,
		&appt.CreatedAt,
	)
	return appt, err
}

func dateArg(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func eventPayload(appt model.Appointment) []byte {
	payload, err := json.Marshal(map[string]any{
		"appointment_id":   appt.ID,
		"appointment_date": appt.DateString(),
		"time_slot":        appt.TimeSlot,
		"service":          appt.Service,
		"name":             appt.Name,
		"email":            appt.Email,
		"phone":            appt.Phone,
		"status":           string(appt.Status),
	})
	if err != nil {
		// Only string fields above; marshal cannot fail.
		return []byte("{}")
	}
	return payload
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	// 23505: unique_violation (partial unique index), 23P01: exclusion_violation.
	return pgErr.Code == "23505" || pgErr.Code == "23P01"
}
