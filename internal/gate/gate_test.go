package gate

import (
	"testing"
	"time"
)

func at(hour, min int) time.Time {
	return time.Date(2026, 8, 30, hour, min, 0, 0, time.UTC)
}

func TestWindowBoundaries(t *testing.T) {
	w := Window{Enabled: true, Start: "08:00", End: "22:00"}

	cases := []struct {
		hour, min int
		want      bool
	}{
		{7, 59, false},
		{8, 0, true},
		{12, 30, true},
		{22, 0, true},
		{22, 1, false},
		{0, 0, false},
		{23, 59, false},
	}
	for _, c := range cases {
		if got := Eligible(at(c.hour, c.min), w, false); got != c.want {
			t.Errorf("Eligible at %02d:%02d = %v, want %v", c.hour, c.min, got, c.want)
		}
	}
}

func TestUnpaddedConfigTimes(t *testing.T) {
	w := Window{Enabled: true, Start: "8:00", End: "9:5"}

	if !Eligible(at(8, 30), w, false) {
		t.Error("expected 08:30 inside 8:00-9:5")
	}
	if Eligible(at(9, 6), w, false) {
		t.Error("expected 09:06 outside 8:00-9:5")
	}
}

func TestWindowDisabled(t *testing.T) {
	w := Window{Enabled: false, OncePerDay: false}
	if !Eligible(at(3, 0), w, true) {
		t.Error("disabled window without once-per-day must always be eligible")
	}
}

func TestOncePerDay(t *testing.T) {
	w := Window{Enabled: true, Start: "08:00", End: "22:00", OncePerDay: true}

	if !Eligible(at(12, 0), w, false) {
		t.Error("expected eligible before the day's first push")
	}
	if Eligible(at(12, 0), w, true) {
		t.Error("expected ineligible after the day's push")
	}

	// Once-per-day applies even with the window disabled.
	w.Enabled = false
	if Eligible(at(12, 0), w, true) {
		t.Error("expected once-per-day to hold with window disabled")
	}
}
