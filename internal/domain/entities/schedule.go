package entities

import "time"

// Priority ranks a schedule recommendation.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// Rank orders priorities, lower first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityNormal:
		return 2
	default:
		return 3
	}
}

// DayBucket is the due load of one calendar day.
type DayBucket struct {
	Date      time.Time      `json:"date"`
	Total     int            `json:"total"`
	Overdue   int            `json:"overdue"`
	Due       int            `json:"due"`
	BySubject map[string]int `json:"by_subject"`
}

// DayCount pairs a day with a count.
type DayCount struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

// ScheduleSummary condenses a projection.
type ScheduleSummary struct {
	TotalCards       int       `json:"total_cards"`
	Overdue          int       `json:"overdue"`
	DueToday         int       `json:"due_today"`
	DueThisWeek      int       `json:"due_this_week"`
	DueNextWeek      int       `json:"due_next_week"`
	BusiestDay       *DayCount `json:"busiest_day,omitempty"`
	AverageDailyLoad float64   `json:"average_daily_load"`
}

// WeeklyLoad is the total due load of a week starting on Monday.
type WeeklyLoad struct {
	WeekStart time.Time `json:"week_start"`
	Total     int       `json:"total"`
}

// Workload groups a projection by weekday, subject and week.
type Workload struct {
	ByWeekday map[string]int `json:"by_weekday"`
	BySubject map[string]int `json:"by_subject"`
	Weekly    []WeeklyLoad   `json:"weekly"`
}

// Recommendation is a rule-based hint derived from a projection.
type Recommendation struct {
	Priority Priority `json:"priority"`
	Kind     string   `json:"kind"`
	Message  string   `json:"message"`
}

// Projection is a forward view of a learner's due load.
type Projection struct {
	Start           time.Time        `json:"start"`
	End             time.Time        `json:"end"`
	Days            []DayBucket      `json:"days"`
	Summary         ScheduleSummary  `json:"summary"`
	Workload        Workload         `json:"workload"`
	Recommendations []Recommendation `json:"recommendations"`
}
