package entities

import (
	"time"

	"github.com/google/uuid"
)

// SessionType tags what kind of activity a session grouped.
type SessionType string

const (
	SessionReview SessionType = "review"
	SessionQuiz   SessionType = "quiz"
	SessionTest   SessionType = "test"
	SessionMixed  SessionType = "mixed"
)

// Valid reports whether t is a known session type.
func (t SessionType) Valid() bool {
	switch t {
	case SessionReview, SessionQuiz, SessionTest, SessionMixed:
		return true
	}
	return false
}

// Session aggregates a bounded batch of reviews for reporting.
type Session struct {
	ID                uuid.UUID   `json:"id"`
	OwnerID           string      `json:"owner_id"`
	Type              SessionType `json:"type"`
	Paper             string      `json:"paper"`
	QuestionsReviewed int         `json:"questions_reviewed"`
	CorrectAnswers    int         `json:"correct_answers"`
	DurationSeconds   int         `json:"duration_seconds"`
	CardsGraduated    int         `json:"cards_graduated"` // reviews that increased repetitions
	CardsFailed       int         `json:"cards_failed"`
	CreatedAt         time.Time   `json:"created_at"`
	CompletedAt       *time.Time  `json:"completed_at,omitempty"` // set by the final update
}

// NewSession creates an empty, open session.
func NewSession(ownerID string, sessionType SessionType, paper string) *Session {
	return &Session{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Type:      sessionType,
		Paper:     paper,
		CreatedAt: time.Now().UTC(),
	}
}

// IsCompleted reports whether the session received its final totals.
func (s *Session) IsCompleted() bool {
	return s.CompletedAt != nil
}

// Accuracy returns correct answers as a percentage of questions reviewed.
func (s *Session) Accuracy() float64 {
	if s.QuestionsReviewed == 0 {
		return 0
	}
	return float64(s.CorrectAnswers) / float64(s.QuestionsReviewed) * 100
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		out.CompletedAt = &t
	}
	return &out
}

// SessionTotals are final running totals; applying them replaces the stored values.
type SessionTotals struct {
	QuestionsReviewed int `json:"questions_reviewed" validate:"gte=0"`
	CorrectAnswers    int `json:"correct_answers" validate:"gte=0,ltefield=QuestionsReviewed"`
	DurationSeconds   int `json:"duration_seconds" validate:"gte=0"`
	CardsGraduated    int `json:"cards_graduated" validate:"gte=0"`
	CardsFailed       int `json:"cards_failed" validate:"gte=0"`
}

// SessionDelta is added on top of the stored running totals.
type SessionDelta struct {
	QuestionsReviewed int
	CorrectAnswers    int
	DurationSeconds   int
	CardsGraduated    int
	CardsFailed       int
}

// IsZero reports whether applying d would change nothing.
func (d SessionDelta) IsZero() bool {
	return d == SessionDelta{}
}

// SessionFilter narrows a session query. Zero values do not filter.
type SessionFilter struct {
	Paper string
	Type  SessionType
	Limit int
}
