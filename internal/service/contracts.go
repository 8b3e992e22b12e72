package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/aliskhannn/examprep/internal/domain/entities"
)

// CardStore persists review cards. Get, Save and Delete only see cards of the
// given owner; Save fails with repository.ErrCardVersionConflict when the
// stored version differs from card.Version.
type CardStore interface {
	Get(ctx context.Context, ownerID string, id uuid.UUID) (*entities.Card, error)
	Query(ctx context.Context, ownerID string, filter entities.CardFilter) ([]*entities.Card, error)
	Insert(ctx context.Context, cards []*entities.Card) ([]*entities.Card, error)
	Save(ctx context.Context, card *entities.Card) error
	Delete(ctx context.Context, ownerID string, ids []uuid.UUID) (int, error)
}

// HistoryStore is the append-only review log.
type HistoryStore interface {
	Append(ctx context.Context, h *entities.ReviewHistory) error
	// Recent returns up to limit rows for the card, newest first.
	Recent(ctx context.Context, cardID uuid.UUID, limit int) ([]*entities.ReviewHistory, error)
}

type SessionStore interface {
	Create(ctx context.Context, s *entities.Session) error
	Get(ctx context.Context, ownerID string, id uuid.UUID) (*entities.Session, error)
	Update(ctx context.Context, s *entities.Session) error
	Accumulate(ctx context.Context, ownerID string, id uuid.UUID, delta entities.SessionDelta) (*entities.Session, error)
	Query(ctx context.Context, ownerID string, filter entities.SessionFilter) ([]*entities.Session, error)
	Delete(ctx context.Context, ownerID string, id uuid.UUID) error
}

// QuestionBank resolves question content.
type QuestionBank interface {
	Lookup(ctx context.Context, paper string, ids []string) ([]entities.Question, error)
	BySubjects(ctx context.Context, paper string, subjects []string, limit int) ([]entities.Question, error)
}

// ProgressStore keeps per-topic aggregates used for weak-area seeding.
type ProgressStore interface {
	RecordOutcome(ctx context.Context, ownerID, subject, paper string, isCorrect bool) error
	WeakAreas(ctx context.Context, ownerID, paper string, threshold float64, minAttempts int) ([]entities.TopicAccuracy, error)
}

// CardLocker serialises work on a single card.
type CardLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
