package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestLockKey_SameSalonDayAcrossUTCMidnight(t *testing.T) {
	loc := time.FixedZone("EDT", -4*60*60)
	stylist := uuid.New()

	// Two overlapping evening slots. In UTC they fall on different dates.
	first := time.Date(2024, 6, 11, 19, 50, 0, 0, loc)
	second := time.Date(2024, 6, 11, 20, 10, 0, 0, loc)
	if first.UTC().Day() == second.UTC().Day() {
		t.Fatal("test times must straddle UTC midnight")
	}

	if got, want := lockKey(stylist, first, loc), lockKey(stylist, second, loc); got != want {
		t.Errorf("overlapping same-evening bookings must share a lock key: %q vs %q", got, want)
	}
}

func TestLockKey_DistinctPerStylistAndDay(t *testing.T) {
	loc := time.FixedZone("EDT", -4*60*60)
	start := time.Date(2024, 6, 11, 10, 0, 0, 0, loc)

	a, b := uuid.New(), uuid.New()
	if lockKey(a, start, loc) == lockKey(b, start, loc) {
		t.Error("different stylists must not share a lock key")
	}
	if lockKey(a, start, loc) == lockKey(a, start.AddDate(0, 0, 1), loc) {
		t.Error("different salon days must not share a lock key")
	}
}
