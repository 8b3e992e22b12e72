package service

import "github.com/aliskhannn/examprep/internal/domain/entities"

// Trend describes how recent accuracy on a card is moving.
type Trend string

const (
	TrendImproving        Trend = "improving"
	TrendDeclining        Trend = "declining"
	TrendStable           Trend = "stable"
	TrendInsufficientData Trend = "insufficient_data"
)

const (
	minTrendRows = 4
	trendMargin  = 0.15
)

// ReviewAnalytics summarises the last few reviews of a card.
type ReviewAnalytics struct {
	RecentAccuracy float64 `json:"recent_accuracy"`
	Trend          Trend   `json:"trend"`
	Reviews        int     `json:"reviews"`
}

// summarizeRecent computes accuracy and trend from rows ordered newest first.
// The trend compares the newer half of the window with the older half.
func summarizeRecent(rows []*entities.ReviewHistory) ReviewAnalytics {
	out := ReviewAnalytics{
		RecentAccuracy: accuracyOf(rows),
		Trend:          TrendInsufficientData,
		Reviews:        len(rows),
	}
	if len(rows) < minTrendRows {
		return out
	}

	half := len(rows) / 2
	diff := accuracyOf(rows[:half]) - accuracyOf(rows[len(rows)-half:])
	switch {
	case diff > trendMargin:
		out.Trend = TrendImproving
	case diff < -trendMargin:
		out.Trend = TrendDeclining
	default:
		out.Trend = TrendStable
	}
	return out
}

func accuracyOf(rows []*entities.ReviewHistory) float64 {
	if len(rows) == 0 {
		return 0
	}
	correct := 0
	for _, r := range rows {
		if r.IsCorrect {
			correct++
		}
	}
	return float64(correct) / float64(len(rows))
}
