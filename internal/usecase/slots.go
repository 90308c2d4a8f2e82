package usecase

import (
	"fmt"
	"time"
)

// Slots is the bookable half-hour enumeration. 12:00 and 12:30 are the
// lunch blackout.
var Slots = []string{
	"09:00", "09:30", "10:00", "10:30", "11:00", "11:30",
	"13:00", "13:30", "14:00", "14:30", "15:00", "15:30",
	"16:00", "16:30", "17:00",
}

const SlotDuration = 30 * time.Minute

var slotIndex = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Slots))
	for _, s := range Slots {
		m[s] = struct{}{}
	}
	return m
}()

func IsBookableSlot(slot string) bool {
	_, ok := slotIndex[slot]
	return ok
}

// SlotStart returns the wall-clock start of slot on date in loc. date is the
// midnight-UTC calendar day stored on the appointment.
func SlotStart(date time.Time, slot string, loc *time.Location) (time.Time, error) {
	clock, err := time.Parse("15:04", slot)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse slot %q: %w", slot, err)
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, loc), nil
}
