package stats

type UserStats struct {
	TotalMinutes   int `json:"totalMinutes"`
	TotalSessions  int `json:"totalSessions"`
	CurrentStreak  int `json:"currentStreak"`
	LongestStreak  int `json:"longestStreak"`
	WeeklyMinutes  int `json:"weeklyMinutes"`
	WeeklySessions int `json:"weeklySessions"`
}
