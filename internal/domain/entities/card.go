package entities

import (
	"time"

	"github.com/google/uuid"
)

const (
	// InitialEase is the ease factor a card starts with.
	InitialEase = 2.5
	// MinEase is the floor applied to the ease factor after every update.
	MinEase = 1.3
	// MinRepetitionsForMature is the streak a card needs before it can mature.
	MinRepetitionsForMature = 3
	// MatureIntervalDays is the interval beyond which a card counts as mature.
	MatureIntervalDays = 21
)

// CardStatus is the derived learning state of a card. It is never stored.
type CardStatus string

const (
	StatusNew      CardStatus = "new"      // never reviewed
	StatusLearning CardStatus = "learning" // fewer than three consecutive successes
	StatusOverdue  CardStatus = "overdue"  // due date already passed
	StatusDue      CardStatus = "due"      // due today
	StatusMature   CardStatus = "mature"   // long interval, stable streak
	StatusReview   CardStatus = "review"   // scheduled in the future
)

// Card is the learning state of one question for one learner within a paper.
type Card struct {
	ID         uuid.UUID `json:"id"`
	OwnerID    string    `json:"owner_id"`
	QuestionID string    `json:"question_id"`
	Paper      string    `json:"paper"`   // subject group, e.g. "GS1"
	Subject    string    `json:"subject"` // topic within the paper

	// SRS fields.
	EaseFactor     float64    `json:"ease_factor"`                // multiplier for interval growth, never below MinEase
	IntervalDays   int        `json:"interval_days"`              // days until the next review
	Repetitions    int        `json:"repetitions"`                // consecutive successful reviews since the last failure
	NextReviewDate time.Time  `json:"next_review_date"`           // UTC midnight of the day the card becomes due
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"` // nil until the first review

	TotalReviews     int  `json:"total_reviews"`
	CorrectReviews   int  `json:"correct_reviews"`
	DifficultyRating *int `json:"difficulty_rating,omitempty"` // learner supplied hint, ignored by scheduling

	Version   int64     `json:"version"` // optimistic concurrency token
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCard creates a never-reviewed card due on today.
func NewCard(ownerID, questionID, paper, subject string, today time.Time) *Card {
	now := time.Now().UTC()
	return &Card{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		QuestionID:     questionID,
		Paper:          paper,
		Subject:        subject,
		EaseFactor:     InitialEase,
		IntervalDays:   0,
		Repetitions:    0,
		NextReviewDate: today,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Clone returns a deep copy of the card.
func (c *Card) Clone() *Card {
	if c == nil {
		return nil
	}
	out := *c
	if c.LastReviewedAt != nil {
		t := *c.LastReviewedAt
		out.LastReviewedAt = &t
	}
	if c.DifficultyRating != nil {
		d := *c.DifficultyRating
		out.DifficultyRating = &d
	}
	return &out
}

// Accuracy returns the share of correct reviews, 0 for a new card.
func (c *Card) Accuracy() float64 {
	if c.TotalReviews == 0 {
		return 0
	}
	return float64(c.CorrectReviews) / float64(c.TotalReviews)
}

// DueState narrows a card query by scheduling state.
type DueState string

const (
	DueAll      DueState = "all"
	DueNow      DueState = "due"     // next review on or before today
	DueOverdue  DueState = "overdue" // next review before today
	DueNew      DueState = "new"     // never reviewed
	DueLearning DueState = "learning"
)

// Valid reports whether s is a known due state. The empty state means all.
func (s DueState) Valid() bool {
	switch s {
	case "", DueAll, DueNow, DueOverdue, DueNew, DueLearning:
		return true
	}
	return false
}

// CardFilter narrows a card query. Zero values do not filter.
type CardFilter struct {
	Paper         string
	Subject       string
	DueState      DueState
	Today         time.Time  // reference day for DueNow and DueOverdue
	DueOnOrBefore *time.Time // upper bound on NextReviewDate
	IDs           []uuid.UUID
	Limit         int
}
