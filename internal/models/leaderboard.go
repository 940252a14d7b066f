package models

// LeaderboardEntry is derived from Student x PointEntry and never
// persisted. It goes stale on any ledger or roster change.
type LeaderboardEntry struct {
	StudentID     string `json:"student_id"`
	Name          string `json:"name"`
	Section       string `json:"section"`
	TotalPoints   int    `json:"total_points"`
	Rank          int    `json:"rank"`
	IsCurrentUser bool   `json:"is_current_user"`
}
