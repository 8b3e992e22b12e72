package entities

import (
	"time"

	"github.com/google/uuid"
)

// ReviewKind classifies a review by whether the card was already past due.
type ReviewKind string

const (
	ReviewNormal  ReviewKind = "normal"
	ReviewOverdue ReviewKind = "overdue"
)

// ReviewHistory is an immutable record of one review event.
type ReviewHistory struct {
	ID               uuid.UUID  `json:"id"`
	CardID           uuid.UUID  `json:"card_id"`
	OwnerID          string     `json:"owner_id"`
	SessionID        *uuid.UUID `json:"session_id,omitempty"`
	Response         string     `json:"response"`
	IsCorrect        bool       `json:"is_correct"`
	Quality          int        `json:"quality"`
	TimeTakenSeconds float64    `json:"time_taken_seconds"`
	EaseBefore       float64    `json:"ease_before"`
	EaseAfter        float64    `json:"ease_after"`
	IntervalBefore   int        `json:"interval_before"`
	IntervalAfter    int        `json:"interval_after"`
	Kind             ReviewKind `json:"kind"`
	ReviewedAt       time.Time  `json:"reviewed_at"`
}

// NewReviewHistory records the transition from before to after.
func NewReviewHistory(before, after *Card, sessionID *uuid.UUID, response string, isCorrect bool, quality int, timeTaken float64, kind ReviewKind, reviewedAt time.Time) *ReviewHistory {
	return &ReviewHistory{
		ID:               uuid.New(),
		CardID:           before.ID,
		OwnerID:          before.OwnerID,
		SessionID:        sessionID,
		Response:         response,
		IsCorrect:        isCorrect,
		Quality:          quality,
		TimeTakenSeconds: timeTaken,
		EaseBefore:       before.EaseFactor,
		EaseAfter:        after.EaseFactor,
		IntervalBefore:   before.IntervalDays,
		IntervalAfter:    after.IntervalDays,
		Kind:             kind,
		ReviewedAt:       reviewedAt,
	}
}
