package health

// Response reports process liveness and store-wide counts
type Response struct {
	Status         string  `json:"status"`
	Timestamp      string  `json:"timestamp"`
	Uptime         float64 `json:"uptime"` // seconds
	ActiveSessions int     `json:"activeSessions"`
	TotalUsers     int     `json:"totalUsers"`
}
