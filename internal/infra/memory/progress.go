package memory

import (
	"context"
	"sort"

	"github.com/aliskhannn/examprep/internal/domain/entities"
)

// ProgressStore aggregates review outcomes per topic in memory.
type ProgressStore struct {
	db *DB
}

func (s *ProgressStore) RecordOutcome(_ context.Context, ownerID, subject, paper string, isCorrect bool) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	k := topicKey{owner: ownerID, paper: paper, subject: subject}
	t, ok := s.db.topics[k]
	if !ok {
		t = &entities.TopicAccuracy{Paper: paper, Subject: subject}
		s.db.topics[k] = t
		s.db.topicSeen[ownerID] = append(s.db.topicSeen[ownerID], k)
	}
	t.Attempts++
	if isCorrect {
		t.Correct++
	}
	return nil
}

// WeakAreas returns topics with at least minAttempts attempts and accuracy
// below threshold, weakest first.
func (s *ProgressStore) WeakAreas(_ context.Context, ownerID, paper string, threshold float64, minAttempts int) ([]entities.TopicAccuracy, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	out := make([]entities.TopicAccuracy, 0)
	for _, k := range s.db.topicSeen[ownerID] {
		t := s.db.topics[k]
		if paper != "" && t.Paper != paper {
			continue
		}
		if t.Attempts < minAttempts || t.Accuracy() >= threshold {
			continue
		}
		out = append(out, *t)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Accuracy() < out[j].Accuracy()
	})
	return out, nil
}

// SetTopic overwrites the aggregate of one topic.
func (s *ProgressStore) SetTopic(ownerID string, t entities.TopicAccuracy) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	k := topicKey{owner: ownerID, paper: t.Paper, subject: t.Subject}
	if _, ok := s.db.topics[k]; !ok {
		s.db.topicSeen[ownerID] = append(s.db.topicSeen[ownerID], k)
	}
	row := t
	s.db.topics[k] = &row
}
