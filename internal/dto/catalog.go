package dto

// UpsertCampusRequest creates or renames a campus.
type UpsertCampusRequest struct {
	Name string `json:"name" binding:"required" validate:"required,max=120"`
}

// UpsertRoomRequest creates or updates a room.
type UpsertRoomRequest struct {
	Name     string `json:"name" binding:"required" validate:"required,max=120"`
	CampusID int64  `json:"campus" binding:"required" validate:"required,gt=0"`
	Enabled  *bool  `json:"enabled"`
}

// UpsertClassRequest creates or updates a class.
type UpsertClassRequest struct {
	Name     string `json:"name" binding:"required" validate:"required,max=120"`
	CampusID int64  `json:"campus" binding:"required" validate:"required,gt=0"`
}

// UpsertPolicyRequest creates or updates a recurring blackout window.
type UpsertPolicyRequest struct {
	Days        []int `json:"days" binding:"required"`
	StartHour   int   `json:"startHour"`
	StartMinute int   `json:"startMinute"`
	EndHour     int   `json:"endHour"`
	EndMinute   int   `json:"endMinute"`
	Enabled     *bool `json:"enabled"`
}

// AddApproverRequest grants an admin decision rights on a room.
type AddApproverRequest struct {
	AdminID       int64 `json:"admin" binding:"required"`
	NotifyEnabled *bool `json:"notifyEnabled"`
}
