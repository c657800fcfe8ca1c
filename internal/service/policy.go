package service

import (
	"time"

	"github.com/hfiuc/uc-reservation-api/internal/models"
)

// weekdayIndex maps time.Weekday onto the policy convention where Monday is 0
// and Sunday is 6.
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// policyWindow materialises a recurring blackout window on the candidate
// start's own calendar day. Windows never span midnight: an end clock before
// the start clock yields an empty window.
func policyWindow(policy models.RoomPolicy, anchor time.Time) (time.Time, time.Time) {
	year, month, day := anchor.Date()
	start := time.Date(year, month, day, policy.StartHour, policy.StartMinute, 0, 0, anchor.Location())
	end := time.Date(year, month, day, policy.EndHour, policy.EndMinute, 0, 0, anchor.Location())
	return start, end
}

// violatedPolicy returns the first enabled policy whose materialised window
// intersects the half-open candidate slot [start, end), or nil.
func violatedPolicy(policies []models.RoomPolicy, start, end time.Time) *models.RoomPolicy {
	day := weekdayIndex(start)
	for i := range policies {
		policy := policies[i]
		if !policy.Enabled || !policy.AppliesOn(day) {
			continue
		}
		windowStart, windowEnd := policyWindow(policy, start)
		if windowStart.Before(end) && windowEnd.After(start) {
			return &policy
		}
	}
	return nil
}
