package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/aliskhannn/examprep/internal/domain/entities"
	"github.com/aliskhannn/examprep/internal/repository"
	"github.com/aliskhannn/examprep/internal/srs"
)

// CardStore is an in-memory card store with optimistic versioning.
type CardStore struct {
	db *DB
}

func (s *CardStore) Get(_ context.Context, ownerID string, id uuid.UUID) (*entities.Card, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	c, ok := s.db.cards[id]
	if !ok || c.OwnerID != ownerID {
		return nil, repository.ErrCardNotFound
	}
	return c.Clone(), nil
}

// Query returns matching cards ordered by next review date, then creation.
func (s *CardStore) Query(_ context.Context, ownerID string, f entities.CardFilter) ([]*entities.Card, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	var ids map[uuid.UUID]struct{}
	if len(f.IDs) > 0 {
		ids = make(map[uuid.UUID]struct{}, len(f.IDs))
		for _, id := range f.IDs {
			ids[id] = struct{}{}
		}
	}

	out := make([]*entities.Card, 0)
	for _, c := range s.db.cards {
		if c.OwnerID != ownerID || !matches(c, f) {
			continue
		}
		if ids != nil {
			if _, ok := ids[c.ID]; !ok {
				continue
			}
		}
		out = append(out, c.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.NextReviewDate.Equal(b.NextReviewDate) {
			return a.NextReviewDate.Before(b.NextReviewDate)
		}
		return s.db.cardSeq[a.ID] < s.db.cardSeq[b.ID]
	})

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func matches(c *entities.Card, f entities.CardFilter) bool {
	if f.Paper != "" && c.Paper != f.Paper {
		return false
	}
	if f.Subject != "" && c.Subject != f.Subject {
		return false
	}
	next := srs.Today(c.NextReviewDate)
	if f.DueOnOrBefore != nil && next.After(srs.Today(*f.DueOnOrBefore)) {
		return false
	}

	today := srs.Today(f.Today)
	switch f.DueState {
	case entities.DueNow:
		return !next.After(today)
	case entities.DueOverdue:
		return next.Before(today)
	case entities.DueNew:
		return c.TotalReviews == 0
	case entities.DueLearning:
		return c.TotalReviews > 0 && c.Repetitions < entities.MinRepetitionsForMature
	}
	return true
}

// Insert adds cards that do not exist yet for their owner, question and
// paper, and returns the ones it added.
func (s *CardStore) Insert(_ context.Context, cards []*entities.Card) ([]*entities.Card, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	type key struct{ owner, question, paper string }
	existing := make(map[key]struct{}, len(s.db.cards))
	for _, c := range s.db.cards {
		existing[key{c.OwnerID, c.QuestionID, c.Paper}] = struct{}{}
	}

	created := make([]*entities.Card, 0, len(cards))
	for _, c := range cards {
		k := key{c.OwnerID, c.QuestionID, c.Paper}
		if _, ok := existing[k]; ok {
			continue
		}
		existing[k] = struct{}{}

		stored := c.Clone()
		if stored.ID == uuid.Nil {
			stored.ID = uuid.New()
		}
		stored.Version = 1
		s.db.seq++
		s.db.cards[stored.ID] = stored
		s.db.cardSeq[stored.ID] = s.db.seq
		created = append(created, stored.Clone())
	}
	return created, nil
}

// Save replaces the stored card when its version matches and bumps the
// version on both copies.
func (s *CardStore) Save(_ context.Context, card *entities.Card) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	stored, ok := s.db.cards[card.ID]
	if !ok || stored.OwnerID != card.OwnerID {
		return repository.ErrCardNotFound
	}
	if stored.Version != card.Version {
		return repository.ErrCardVersionConflict
	}

	card.Version++
	if card.UpdatedAt.IsZero() {
		card.UpdatedAt = time.Now().UTC()
	}
	s.db.cards[card.ID] = card.Clone()
	return nil
}

// Delete removes the owner's cards with the given ids and their history.
func (s *CardStore) Delete(_ context.Context, ownerID string, ids []uuid.UUID) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	n := 0
	for _, id := range ids {
		c, ok := s.db.cards[id]
		if !ok || c.OwnerID != ownerID {
			continue
		}
		delete(s.db.cards, id)
		delete(s.db.cardSeq, id)
		delete(s.db.history, id)
		n++
	}
	return n, nil
}
