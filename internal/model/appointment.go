package model

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of an appointment. Confirmed is the only
// non-terminal state; cancelled and completed accept no further transitions.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// ParseTargetStatus accepts only the statuses an operator may transition an
// appointment into. "confirmed" is not a settable target.
func ParseTargetStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusCancelled, StatusCompleted:
		return Status(raw), nil
	default:
		return "", fmt.Errorf("invalid status %q", raw)
	}
}

// CanTransitionTo reports whether the state machine allows moving from s to
// target. Only confirmed appointments can move, and only to a terminal state.
func (s Status) CanTransitionTo(target Status) bool {
	if s != StatusConfirmed {
		return false
	}
	return target == StatusCancelled || target == StatusCompleted
}

type Appointment struct {
	ID          string
	Date        time.Time // calendar day, time-of-day is always midnight
	TimeSlot    string
	Service     string
	Name        string
	Email       string
	Phone       string
	VehicleInfo string
	Notes       string
	Status      Status
	CreatedAt   time.Time
}

const DateLayout = "2006-01-02"

// DateString renders the appointment day in the wire format (YYYY-MM-DD).
func (a Appointment) DateString() string {
	return a.Date.Format(DateLayout)
}
