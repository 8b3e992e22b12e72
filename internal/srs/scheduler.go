package srs

import (
	"errors"
	"math"
	"time"

	"github.com/aliskhannn/examprep/internal/domain/entities"
)

// ErrInvalidQuality is returned when a quality outside 0..5 reaches the scheduler.
var ErrInvalidQuality = errors.New("quality must be between 0 and 5")

// Today truncates t to midnight UTC.
func Today(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(math.Round(Today(b).Sub(Today(a)).Hours() / 24))
}

// AddDays shifts a calendar date by n days.
func AddDays(t time.Time, n int) time.Time {
	return Today(t).AddDate(0, 0, n)
}

// NextEase applies the SM-2 ease adjustment for quality q, floored at MinEase.
func NextEase(ease float64, q Quality) float64 {
	miss := float64(maxQuality - q)
	next := ease + (0.1 - miss*(0.08+miss*0.02))
	return math.Max(entities.MinEase, next)
}

// Next returns the state of card after a review graded q at now.
// The input card is not modified.
func Next(card entities.Card, q Quality, now time.Time) (entities.Card, error) {
	if !q.Valid() {
		return card, ErrInvalidQuality
	}

	out := card
	out.EaseFactor = NextEase(card.EaseFactor, q)

	if q.Passed() {
		out.Repetitions = card.Repetitions + 1
		switch out.Repetitions {
		case 1:
			out.IntervalDays = 1
		case 2:
			out.IntervalDays = 6
		default:
			out.IntervalDays = max(1, int(math.Round(float64(card.IntervalDays)*out.EaseFactor)))
		}
		out.CorrectReviews = card.CorrectReviews + 1
	} else {
		out.Repetitions = 0
		out.IntervalDays = 1
	}

	reviewedAt := now.UTC()
	out.NextReviewDate = AddDays(reviewedAt, out.IntervalDays)
	out.LastReviewedAt = &reviewedAt
	out.TotalReviews = card.TotalReviews + 1
	if card.DifficultyRating != nil {
		d := *card.DifficultyRating
		out.DifficultyRating = &d
	}

	return out, nil
}
