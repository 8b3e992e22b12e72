package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aliskhannn/examprep/internal/domain/entities"
)

// rows builds history newest first.
func rows(outcomes ...bool) []*entities.ReviewHistory {
	out := make([]*entities.ReviewHistory, 0, len(outcomes))
	for _, ok := range outcomes {
		out = append(out, &entities.ReviewHistory{IsCorrect: ok})
	}
	return out
}

func TestSummarizeRecent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		rows     []*entities.ReviewHistory
		accuracy float64
		trend    Trend
	}{
		{"no history", nil, 0, TrendInsufficientData},
		{"three rows", rows(true, true, false), 2.0 / 3, TrendInsufficientData},
		{"improving", rows(true, true, false, false), 0.5, TrendImproving},
		{"declining", rows(false, false, true, true, true), 0.6, TrendDeclining},
		{"stable", rows(true, false, true, false), 0.5, TrendStable},
		{"equal halves", rows(true, true, false, true, true, false), 4.0 / 6, TrendStable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := summarizeRecent(tt.rows)
			assert.InDelta(t, tt.accuracy, got.RecentAccuracy, 1e-9)
			assert.Equal(t, tt.trend, got.Trend)
			assert.Equal(t, len(tt.rows), got.Reviews)
		})
	}
}
