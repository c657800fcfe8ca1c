package dto

// AnalyticsPoint is a single zero-filled bucket in a series.
type AnalyticsPoint struct {
	Date                 string `json:"date"`
	Reservations         int64  `json:"reservations"`
	ReservationCreations int64  `json:"reservationCreations"`
	Approvals            int64  `json:"approvals"`
	Rejections           int64  `json:"rejections"`
	Requests             int64  `json:"requests"`
}

// AnalyticsOverviewResponse is the dashboard payload: daily series for the
// trailing 30 and 7 days, a 12 month series, and today's counters.
type AnalyticsOverviewResponse struct {
	Daily30 []AnalyticsPoint `json:"daily30"`
	Daily7  []AnalyticsPoint `json:"daily7"`
	Monthly []AnalyticsPoint `json:"monthly"`
	Today   AnalyticsPoint   `json:"today"`
}

// RoomUsage summarizes one room inside a weekly report.
type RoomUsage struct {
	RoomID               int64  `json:"room"`
	RoomName             string `json:"roomName"`
	Reservations         int64  `json:"reservations"`
	ReservationCreations int64  `json:"reservationCreations"`
}

// KeywordCount is one ranked reason keyword.
type KeywordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// WeeklyReportResponse covers the most recently completed Monday-Sunday week.
type WeeklyReportResponse struct {
	WeekStart                 string         `json:"weekStart"`
	WeekEnd                   string         `json:"weekEnd"`
	Summary                   AnalyticsPoint `json:"summary"`
	Rooms                     []RoomUsage    `json:"rooms"`
	TopRooms                  []RoomUsage    `json:"topRooms"`
	DailyReservations         []int64        `json:"dailyReservations"`
	DailyReservationCreations []int64        `json:"dailyReservationCreations"`
	HourlyUsage               [24]int64      `json:"hourlyUsage"`
	TopKeywords               []KeywordCount `json:"topKeywords"`
}
