package domain

import (
	"time"

	"github.com/google/uuid"
)

type ResourceKind string

const (
	KindRoom      ResourceKind = "room"
	KindEquipment ResourceKind = "equipment"
	KindParking   ResourceKind = "parking"
)

// PricingRule carries the prices a resource charges per duration bucket.
// Rooms use the short/long slot prices; equipment pools and parking spots
// charge a flat daily rate.
type PricingRule struct {
	ShortSlot float64
	LongSlot  float64
	Daily     float64
}

// Resource is one bookable unit (or pool of interchangeable units) from the
// catalog. It is immutable for the duration of a booking transaction.
type Resource struct {
	ID              uuid.UUID
	Kind            ResourceKind
	Name            string
	CapacityUnits   int
	Pricing         PricingRule
	AllowShortSlots bool
	Active          bool
}

// Bookable day boundaries shared by every slot menu.
const (
	DayOpenMinutes  = 7 * 60
	DayCloseMinutes = 22 * 60
)

// ValidateInterval checks that an interval is something this resource can be
// booked for: inside opening hours, whole-day for pooled and parking
// resources, and a known duration bucket for rooms.
func (r Resource) ValidateInterval(iv Interval) error {
	if iv.End <= iv.Start || iv.Start < DayOpenMinutes || iv.End > DayCloseMinutes {
		return ErrInvalidInput
	}
	switch r.Kind {
	case KindEquipment, KindParking:
		if iv.Start != DayOpenMinutes || iv.End != DayCloseMinutes {
			return ErrInvalidInput
		}
		return nil
	default:
		bucket, err := iv.Bucket()
		if err != nil {
			return err
		}
		if bucket == BucketShort && !r.AllowShortSlots {
			return ErrInvalidInput
		}
		return nil
	}
}

// PriceFor computes the price of an interval. It is evaluated exactly once,
// at confirmation time, and never recomputed.
func (r Resource) PriceFor(iv Interval) (float64, error) {
	switch r.Kind {
	case KindEquipment, KindParking:
		return r.Pricing.Daily, nil
	default:
		bucket, err := iv.Bucket()
		if err != nil {
			return 0, err
		}
		if bucket == BucketShort {
			return r.Pricing.ShortSlot, nil
		}
		return r.Pricing.LongSlot, nil
	}
}

// SlotTemplates returns the fixed menu of candidate slots for a resource on a
// given date: six 2h30 windows for rooms, twelve additional 1h15 windows when
// the room allows them, and a single whole-day window for pooled equipment
// and parking spots.
func SlotTemplates(r Resource, date time.Time) []Interval {
	day := Midnight(date)
	if r.Kind == KindEquipment || r.Kind == KindParking {
		return []Interval{{Date: day, Start: DayOpenMinutes, End: DayCloseMinutes}}
	}
	var out []Interval
	for start := DayOpenMinutes; start+LongSlotMinutes <= DayCloseMinutes; start += LongSlotMinutes {
		out = append(out, Interval{Date: day, Start: start, End: start + LongSlotMinutes})
	}
	if r.AllowShortSlots {
		for start := DayOpenMinutes; start+ShortSlotMinutes <= DayCloseMinutes; start += ShortSlotMinutes {
			out = append(out, Interval{Date: day, Start: start, End: start + ShortSlotMinutes})
		}
	}
	return out
}
