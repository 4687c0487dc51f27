package booking

import (
	"fmt"
	"iter"
	"slices"
	"time"
)

const (
	bookingHorizonDays = 30
	firstHour          = 11
	lastHour           = 22
)

// AvailableDates yields tomorrow through today+30 at midnight in loc.
// The sequence is lazy and can be ranged over any number of times.
func AvailableDates(now time.Time, loc *time.Location) iter.Seq[time.Time] {
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return func(yield func(time.Time) bool) {
		for i := 1; i <= bookingHorizonDays; i++ {
			if !yield(today.AddDate(0, 0, i)) {
				return
			}
		}
	}
}

// TimeSlots returns the hourly grid 11:00 through 22:00.
func TimeSlots() []string {
	slots := make([]string, 0, lastHour-firstHour+1)
	for h := firstHour; h <= lastHour; h++ {
		slots = append(slots, fmt.Sprintf("%02d:00", h))
	}
	return slots
}

func validSlot(slot string) bool {
	return slices.Contains(TimeSlots(), slot)
}

// midnight truncates d to the start of its calendar day in loc, keeping the
// calendar date d carries.
func midnight(d time.Time, loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}
