package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/aliskhannn/examprep/internal/domain/entities"
	"github.com/aliskhannn/examprep/internal/repository"
)

// SessionStore keeps review sessions in memory.
type SessionStore struct {
	db *DB
}

func (s *SessionStore) Create(_ context.Context, session *entities.Session) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.sessions[session.ID] = session.Clone()
	return nil
}

func (s *SessionStore) Get(_ context.Context, ownerID string, id uuid.UUID) (*entities.Session, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	session, ok := s.db.sessions[id]
	if !ok || session.OwnerID != ownerID {
		return nil, repository.ErrSessionNotFound
	}
	return session.Clone(), nil
}

func (s *SessionStore) Update(_ context.Context, session *entities.Session) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	stored, ok := s.db.sessions[session.ID]
	if !ok || stored.OwnerID != session.OwnerID {
		return repository.ErrSessionNotFound
	}
	s.db.sessions[session.ID] = session.Clone()
	return nil
}

func (s *SessionStore) Accumulate(_ context.Context, ownerID string, id uuid.UUID, d entities.SessionDelta) (*entities.Session, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	session, ok := s.db.sessions[id]
	if !ok || session.OwnerID != ownerID {
		return nil, repository.ErrSessionNotFound
	}
	session.QuestionsReviewed += d.QuestionsReviewed
	session.CorrectAnswers += d.CorrectAnswers
	session.DurationSeconds += d.DurationSeconds
	session.CardsGraduated += d.CardsGraduated
	session.CardsFailed += d.CardsFailed
	return session.Clone(), nil
}

// Query returns the owner's sessions, newest first.
func (s *SessionStore) Query(_ context.Context, ownerID string, f entities.SessionFilter) ([]*entities.Session, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	out := make([]*entities.Session, 0)
	for _, session := range s.db.sessions {
		if session.OwnerID != ownerID {
			continue
		}
		if f.Paper != "" && session.Paper != f.Paper {
			continue
		}
		if f.Type != "" && session.Type != f.Type {
			continue
		}
		out = append(out, session.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *SessionStore) Delete(_ context.Context, ownerID string, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	session, ok := s.db.sessions[id]
	if !ok || session.OwnerID != ownerID {
		return repository.ErrSessionNotFound
	}
	delete(s.db.sessions, id)
	for _, rows := range s.db.history {
		for _, h := range rows {
			if h.SessionID != nil && *h.SessionID == id {
				h.SessionID = nil
			}
		}
	}
	return nil
}
