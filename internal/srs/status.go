package srs

import (
	"time"

	"github.com/aliskhannn/examprep/internal/domain/entities"
)

// Status derives the learning state of a card relative to today.
func Status(card *entities.Card, today time.Time) entities.CardStatus {
	today = Today(today)
	next := Today(card.NextReviewDate)

	switch {
	case card.TotalReviews == 0:
		return entities.StatusNew
	case card.Repetitions < entities.MinRepetitionsForMature:
		return entities.StatusLearning
	case next.Before(today):
		return entities.StatusOverdue
	case next.Equal(today):
		return entities.StatusDue
	case card.IntervalDays > entities.MatureIntervalDays:
		return entities.StatusMature
	default:
		return entities.StatusReview
	}
}

// DaysOverdue returns how many days past due a card is, 0 if it is not overdue.
func DaysOverdue(card *entities.Card, today time.Time) int {
	return max(0, DaysBetween(card.NextReviewDate, today))
}
