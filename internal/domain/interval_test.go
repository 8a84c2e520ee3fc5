package domain

import (
	"errors"
	"testing"
	"time"
)

var testDay = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) // a Monday

func mustInterval(t *testing.T, start, end int) Interval {
	t.Helper()
	iv, err := NewInterval(testDay, start, end)
	if err != nil {
		t.Fatalf("NewInterval(%d, %d): %v", start, end, err)
	}
	return iv
}

func TestNewInterval(t *testing.T) {
	t.Run("normalizes date to midnight utc", func(t *testing.T) {
		noon := time.Date(2026, 3, 2, 12, 34, 56, 0, time.UTC)
		iv, err := NewInterval(noon, 420, 570)
		if err != nil {
			t.Fatal(err)
		}
		if !iv.Date.Equal(testDay) {
			t.Fatalf("expected midnight, got %v", iv.Date)
		}
	})

	t.Run("rejects empty and inverted ranges", func(t *testing.T) {
		for _, tc := range [][2]int{{420, 420}, {570, 420}, {-10, 60}, {1380, 1500}} {
			if _, err := NewInterval(testDay, tc[0], tc[1]); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("NewInterval(%d, %d): expected ErrInvalidInput, got %v", tc[0], tc[1], err)
			}
		}
	})
}

func TestIntervalOverlaps(t *testing.T) {
	a := mustInterval(t, 420, 570)

	t.Run("back to back slots do not overlap", func(t *testing.T) {
		b := mustInterval(t, 570, 720)
		if a.Overlaps(b) || b.Overlaps(a) {
			t.Fatal("adjacent intervals must not overlap")
		}
	})

	t.Run("partial overlap is symmetric", func(t *testing.T) {
		b := mustInterval(t, 500, 650)
		if !a.Overlaps(b) || !b.Overlaps(a) {
			t.Fatal("expected overlap both ways")
		}
	})

	t.Run("containment overlaps", func(t *testing.T) {
		b := mustInterval(t, 450, 500)
		if !a.Overlaps(b) {
			t.Fatal("expected containment to overlap")
		}
	})

	t.Run("different dates never overlap", func(t *testing.T) {
		b, _ := NewInterval(testDay.AddDate(0, 0, 1), 420, 570)
		if a.Overlaps(b) {
			t.Fatal("intervals on different dates must not overlap")
		}
	})
}

func TestIntervalBucket(t *testing.T) {
	cases := []struct {
		minutes int
		want    DurationBucket
		wantErr bool
	}{
		{60, BucketShort, false},
		{75, BucketShort, false},
		{76, BucketLong, false},
		{150, BucketLong, false},
		{151, 0, true},
	}
	for _, tc := range cases {
		iv := Interval{Date: testDay, Start: 420, End: 420 + tc.minutes}
		got, err := iv.Bucket()
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("%d minutes: expected ErrInvalidInput, got %v", tc.minutes, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("%d minutes: got bucket %v err %v, want %v", tc.minutes, got, err, tc.want)
		}
	}
}

func TestParseClock(t *testing.T) {
	m, err := ParseClock("07:00")
	if err != nil || m != 420 {
		t.Fatalf("ParseClock(07:00) = %d, %v", m, err)
	}
	if _, err := ParseClock("25:00"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if got := FormatClock(1320); got != "22:00" {
		t.Fatalf("FormatClock(1320) = %q", got)
	}
}

func TestRecurringBlockShadows(t *testing.T) {
	block := RecurringBlock{Weekday: time.Monday, Start: 420, End: 570}

	if !block.Shadows(mustInterval(t, 500, 650)) {
		t.Fatal("expected block to shadow overlapping monday interval")
	}
	if block.Shadows(mustInterval(t, 570, 720)) {
		t.Fatal("adjacent interval must not be shadowed")
	}

	tuesday, _ := NewInterval(testDay.AddDate(0, 0, 1), 420, 570)
	if block.Shadows(tuesday) {
		t.Fatal("block must only apply on its weekday")
	}
}

func TestHoldActive(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	h := Hold{ExpiresAt: now.Add(5 * time.Minute)}

	if !h.Active(now) {
		t.Fatal("hold must be active before expiry")
	}
	if h.Active(now.Add(5 * time.Minute)) {
		t.Fatal("hold must be inactive at the expiry instant")
	}
	if h.Active(now.Add(6 * time.Minute)) {
		t.Fatal("hold must be inactive after expiry")
	}
}
