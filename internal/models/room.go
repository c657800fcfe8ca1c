package models

import (
	"time"

	"github.com/lib/pq"
)

// Campus groups rooms and classes.
type Campus struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Room is a bookable facility. Disabled rooms reject all new standard
// bookings.
type Room struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CampusID  int64     `db:"campus_id" json:"campus"`
	Enabled   bool      `db:"enabled" json:"enabled"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Class is the requester's class reference.
type Class struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CampusID  int64     `db:"campus_id" json:"campus"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// RoomPolicy is a recurring weekly blackout window: standard bookings whose
// time intersects an enabled policy window on a matching weekday are refused.
// Days holds weekday indices 0-6 (Monday = 0), unique, at most 7 entries.
type RoomPolicy struct {
	ID          int64         `db:"id" json:"id"`
	RoomID      int64         `db:"room_id" json:"room"`
	Days        pq.Int64Array `db:"days" json:"days"`
	StartHour   int           `db:"start_hour" json:"startHour"`
	StartMinute int           `db:"start_minute" json:"startMinute"`
	EndHour     int           `db:"end_hour" json:"endHour"`
	EndMinute   int           `db:"end_minute" json:"endMinute"`
	Enabled     bool          `db:"enabled" json:"enabled"`
	CreatedAt   time.Time     `db:"created_at" json:"createdAt"`
}

// AppliesOn reports whether the policy covers the given weekday index.
func (p RoomPolicy) AppliesOn(weekday int) bool {
	for _, d := range p.Days {
		if int(d) == weekday {
			return true
		}
	}
	return false
}

// RoomApprover authorizes a staff identity to decide reservations for a room.
// NotifyEnabled toggles the per-approver request email.
type RoomApprover struct {
	ID            int64     `db:"id" json:"id"`
	RoomID        int64     `db:"room_id" json:"room"`
	AdminID       int64     `db:"admin_id" json:"admin"`
	NotifyEnabled bool      `db:"notify_enabled" json:"notifyEnabled"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}
