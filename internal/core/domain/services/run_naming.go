package services

import (
	"fmt"
	"time"
)

// WindowKey identifies the half-day window now falls into, e.g.
// "2026-10-18-AM". now must already be in the business time zone.
func WindowKey(now time.Time) string {
	half := "AM"
	if now.Hour() >= 12 {
		half = "PM"
	}
	return now.Format("2006-01-02") + "-" + half
}

// RunName names the next run of the window: "Morning Run k" before noon,
// "Afternoon Run k" after, where k = existing + 1. existing is the number of
// runs already created in the same window.
func RunName(now time.Time, existing int) string {
	if existing < 0 {
		existing = 0
	}
	prefix := "Morning"
	if now.Hour() >= 12 {
		prefix = "Afternoon"
	}
	return fmt.Sprintf("%s Run %d", prefix, existing+1)
}
