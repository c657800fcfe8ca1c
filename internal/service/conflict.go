package service

import (
	"time"

	"github.com/hfiuc/uc-reservation-api/internal/models"
)

// findConflicts returns the reservations whose half-open window intersects
// [start, end). Callers pass pre-filtered candidates (same room, not
// rejected); rejected rows never block a slot.
func findConflicts(candidates []models.Reservation, start, end time.Time) []models.Reservation {
	conflicts := []models.Reservation{}
	for _, candidate := range candidates {
		if candidate.Status == models.StatusRejected {
			continue
		}
		if candidate.Overlaps(start, end) {
			conflicts = append(conflicts, candidate)
		}
	}
	return conflicts
}
