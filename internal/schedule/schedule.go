// Package schedule holds the workshop's bookable slot grid and the calendar
// rules applied to new bookings. The slot list is an ordered, immutable
// configuration value: alternate opening hours are a different Schedule, not
// a code change.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/mwestra/autoplein/internal/model"
)

var (
	ErrPastDate    = errors.New("date must be today or later")
	ErrClosedDay   = errors.New("closed on this day")
	ErrUnknownSlot = errors.New("invalid time slot")
)

type Schedule struct {
	slots  []string
	index  map[string]int
	closed map[time.Weekday]bool
	loc    *time.Location
}

// New builds a schedule from an ordered slot list and the weekdays the
// workshop is closed. Slot labels must be unique.
func New(slots []string, closedDays []time.Weekday, loc *time.Location) (*Schedule, error) {
	if len(slots) == 0 {
		return nil, errors.New("schedule needs at least one slot")
	}
	if loc == nil {
		loc = time.UTC
	}
	index := make(map[string]int, len(slots))
	for i, s := range slots {
		if _, dup := index[s]; dup {
			return nil, fmt.Errorf("duplicate slot %q", s)
		}
		index[s] = i
	}
	closed := make(map[time.Weekday]bool, len(closedDays))
	for _, d := range closedDays {
		closed[d] = true
	}
	ordered := make([]string, len(slots))
	copy(ordered, slots)
	return &Schedule{slots: ordered, index: index, closed: closed, loc: loc}, nil
}

// Default is the workshop grid: 16 half-hour slots from 09:00 through 16:30,
// open Monday to Saturday.
func Default(loc *time.Location) *Schedule {
	slots := []string{
		"09:00", "09:30", "10:00", "10:30",
		"11:00", "11:30", "12:00", "12:30",
		"13:00", "13:30", "14:00", "14:30",
		"15:00", "15:30", "16:00", "16:30",
	}
	s, err := New(slots, []time.Weekday{time.Sunday}, loc)
	if err != nil {
		panic(err) // static slot list, cannot fail
	}
	return s
}

func (s *Schedule) Location() *time.Location {
	return s.loc
}

// Slots returns the full enumeration in chronological order.
func (s *Schedule) Slots() []string {
	out := make([]string, len(s.slots))
	copy(out, s.slots)
	return out
}

func (s *Schedule) Contains(slot string) bool {
	_, ok := s.index[slot]
	return ok
}

// ValidateSlot reports ErrUnknownSlot for labels outside the enumeration.
func (s *Schedule) ValidateSlot(slot string) error {
	if !s.Contains(slot) {
		return ErrUnknownSlot
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD value in the schedule's location.
func (s *Schedule) ParseDate(raw string) (time.Time, error) {
	return time.ParseInLocation(model.DateLayout, raw, s.loc)
}

// ValidateBookingDate applies the creation-time calendar rules: the day must
// not be before today (time-of-day on now is ignored) and must not fall on a
// closed weekday. Availability lookups deliberately skip these rules.
func (s *Schedule) ValidateBookingDate(day, now time.Time) error {
	now = now.In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	if day.Before(today) {
		return ErrPastDate
	}
	if s.closed[day.Weekday()] {
		return ErrClosedDay
	}
	return nil
}

// Available returns the enumeration minus the taken labels, preserving
// chronological order. Unknown labels in taken are ignored.
func (s *Schedule) Available(taken []string) []string {
	busy := make(map[string]bool, len(taken))
	for _, t := range taken {
		busy[t] = true
	}
	out := make([]string, 0, len(s.slots))
	for _, slot := range s.slots {
		if !busy[slot] {
			out = append(out, slot)
		}
	}
	return out
}

// SortTaken orders slot labels by their position in the enumeration,
// dropping labels that are not part of it.
func (s *Schedule) SortTaken(taken []string) []string {
	busy := make(map[string]bool, len(taken))
	for _, t := range taken {
		busy[t] = true
	}
	out := make([]string, 0, len(taken))
	for _, slot := range s.slots {
		if busy[slot] {
			out = append(out, slot)
		}
	}
	return out
}
