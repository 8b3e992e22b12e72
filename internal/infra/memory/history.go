package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/aliskhannn/examprep/internal/domain/entities"
	"github.com/aliskhannn/examprep/internal/repository"
)

// HistoryStore is an append-only in-memory review log.
type HistoryStore struct {
	db *DB
}

func (s *HistoryStore) Append(_ context.Context, h *entities.ReviewHistory) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.cards[h.CardID]; !ok {
		return repository.ErrCardNotFound
	}
	row := *h
	s.db.history[h.CardID] = append(s.db.history[h.CardID], &row)
	return nil
}

// Recent returns up to limit rows for the card, newest first.
func (s *HistoryStore) Recent(_ context.Context, cardID uuid.UUID, limit int) ([]*entities.ReviewHistory, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	rows := s.db.history[cardID]
	out := make([]*entities.ReviewHistory, 0, min(len(rows), max(limit, 0)))
	for i := len(rows) - 1; i >= 0 && len(out) < limit; i-- {
		row := *rows[i]
		out = append(out, &row)
	}
	return out, nil
}

// Count returns how many rows exist for the card.
func (s *HistoryStore) Count(_ context.Context, cardID uuid.UUID) (int, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return len(s.db.history[cardID]), nil
}
