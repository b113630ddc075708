package schedule

import (
	"errors"
	"testing"
	"time"
)

func TestDefault_SlotGrid(t *testing.T) {
	s := Default(time.UTC)
	slots := s.Slots()
	if len(slots) != 16 {
		t.Fatalf("expected 16 slots, got %d", len(slots))
	}
	if slots[0] != "09:00" || slots[len(slots)-1] != "16:30" {
		t.Fatalf("unexpected grid bounds: %s .. %s", slots[0], slots[len(slots)-1])
	}
	if !s.Contains("10:00") {
		t.Fatal("expected 10:00 to be a valid slot")
	}
	if s.Contains("10:15") {
		t.Fatal("10:15 is not on the half-hour grid")
	}
}

func TestAvailable_ComplementsTaken(t *testing.T) {
	s := Default(time.UTC)
	taken := []string{"10:00", "09:00", "16:30"}

	avail := s.Available(taken)
	if len(avail)+len(taken) != len(s.Slots()) {
		t.Fatalf("available (%d) + taken (%d) != grid (%d)", len(avail), len(taken), len(s.Slots()))
	}
	seen := map[string]bool{}
	for _, a := range avail {
		seen[a] = true
	}
	for _, tk := range taken {
		if seen[tk] {
			t.Fatalf("slot %s is both taken and available", tk)
		}
	}
	// Chronological order preserved.
	if avail[0] != "09:30" || avail[1] != "10:30" {
		t.Fatalf("unexpected order: %v", avail[:2])
	}
}

func TestAvailable_IgnoresUnknownTaken(t *testing.T) {
	s := Default(time.UTC)
	avail := s.Available([]string{"23:00"})
	if len(avail) != 16 {
		t.Fatalf("unknown taken label should not shrink availability, got %d", len(avail))
	}
}

func TestSortTaken(t *testing.T) {
	s := Default(time.UTC)
	got := s.SortTaken([]string{"16:00", "09:30", "12:00"})
	want := []string{"09:30", "12:00", "16:00"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestValidateBookingDate(t *testing.T) {
	s := Default(time.UTC)
	// A Wednesday, mid-afternoon.
	now := time.Date(2026, 9, 2, 15, 30, 0, 0, time.UTC)

	cases := []struct {
		name string
		date string
		want error
	}{
		{"today is allowed even late in the day", "2026-09-02", nil},
		{"tomorrow", "2026-09-03", nil},
		{"yesterday", "2026-09-01", ErrPastDate},
		{"far past", "2020-01-01", ErrPastDate},
		{"sunday", "2026-09-06", ErrClosedDay},
		{"saturday is open", "2026-09-05", nil},
	}
	for _, tc := range cases {
		day, err := s.ParseDate(tc.date)
		if err != nil {
			t.Fatalf("%s: parse: %v", tc.name, err)
		}
		err = s.ValidateBookingDate(day, now)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestValidateBookingDate_BusinessTimezoneDay(t *testing.T) {
	ams, err := time.LoadLocation("Europe/Amsterdam")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	s := Default(ams)

	// 23:30 UTC on Sep 2 is already 01:30 Sep 3 in Amsterdam, so Sep 2 is a
	// past day for the workshop even though the UTC clock hasn't rolled over.
	now := time.Date(2026, 9, 2, 23, 30, 0, 0, time.UTC)

	day, _ := s.ParseDate("2026-09-02")
	if err := s.ValidateBookingDate(day, now); !errors.Is(err, ErrPastDate) {
		t.Fatalf("got %v, want ErrPastDate for a day already over in the business timezone", err)
	}

	day, _ = s.ParseDate("2026-09-03")
	if err := s.ValidateBookingDate(day, now); err != nil {
		t.Fatalf("the current Amsterdam day must be bookable, got %v", err)
	}
}

func TestValidateBookingDate_PastSundayReportsPastFirst(t *testing.T) {
	s := Default(time.UTC)
	now := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)
	day, _ := s.ParseDate("2026-08-30") // a Sunday, and in the past
	if err := s.ValidateBookingDate(day, now); !errors.Is(err, ErrPastDate) {
		t.Fatalf("got %v, want ErrPastDate", err)
	}
}

func TestNew_RejectsDuplicateSlots(t *testing.T) {
	if _, err := New([]string{"09:00", "09:00"}, nil, time.UTC); err == nil {
		t.Fatal("expected error for duplicate slot")
	}
}
