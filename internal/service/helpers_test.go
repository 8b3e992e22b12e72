package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aliskhannn/examprep/internal/domain/entities"
	"github.com/aliskhannn/examprep/internal/infra/memory"
	"github.com/aliskhannn/examprep/internal/infra/questionbank"
	"github.com/aliskhannn/examprep/internal/repository"
	"github.com/aliskhannn/examprep/internal/srs"
)

const owner = "owner-1"

// fixedNow is a Tuesday.
var fixedNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type fixture struct {
	db         *memory.DB
	bank       *questionbank.Bank
	dispatcher *Dispatcher
	reviews    *ReviewService
	cards      *CardService
	sessions   *SessionService
	schedule   *ScheduleService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := memory.NewDB()
	bank, err := questionbank.New([]entities.Question{
		{ID: "h1", Paper: "GS1", Subject: "History", Prompt: "p1", Answer: "a"},
		{ID: "h2", Paper: "GS1", Subject: "History", Prompt: "p2", Answer: "a"},
		{ID: "h3", Paper: "GS1", Subject: "History", Prompt: "p3", Answer: "a"},
		{ID: "g1", Paper: "GS1", Subject: "Geography", Prompt: "p4", Answer: "a"},
		{ID: "p1", Paper: "GS2", Subject: "Polity", Prompt: "p5", Answer: "a"},
	})
	require.NoError(t, err)

	log := zap.NewNop()
	dispatcher := NewDispatcher(4, time.Second, log)
	t.Cleanup(func() { _ = dispatcher.Close(context.Background()) })

	locker := NewKeyedLocker()
	f := &fixture{
		db:         db,
		bank:       bank,
		dispatcher: dispatcher,
		reviews:    NewReviewService(db.Cards(), db.History(), db.Sessions(), db.Progress(), locker, dispatcher, DefaultReviewOptions(), log),
		cards:      NewCardService(db.Cards(), bank, db.Progress(), locker, SeedOptions{}, log),
		sessions:   NewSessionService(db.Sessions(), log),
		schedule:   NewScheduleService(db.Cards(), DefaultScheduleOptions(), log),
	}
	f.reviews.now = clock
	f.cards.now = clock
	f.sessions.now = clock
	f.schedule.now = clock
	return f
}

// addCard inserts a card and lets mutate adjust it first.
func (f *fixture) addCard(t *testing.T, questionID, paper, subject string, mutate func(c *entities.Card)) *entities.Card {
	t.Helper()

	c := entities.NewCard(owner, questionID, paper, subject, srs.Today(fixedNow))
	if mutate != nil {
		mutate(c)
	}
	created, err := f.db.Cards().Insert(context.Background(), []*entities.Card{c})
	require.NoError(t, err)
	require.Len(t, created, 1)
	return created[0]
}

var errBoom = errors.New("boom")

// failingHistory fails every append.
type failingHistory struct {
	HistoryStore
}

func (failingHistory) Append(context.Context, *entities.ReviewHistory) error { return errBoom }

// conflictingCards reports a version conflict on the first n saves.
type conflictingCards struct {
	CardStore

	mu sync.Mutex
	n  int
}

func (c *conflictingCards) Save(ctx context.Context, card *entities.Card) error {
	c.mu.Lock()
	if c.n > 0 {
		c.n--
		c.mu.Unlock()
		return repository.ErrCardVersionConflict
	}
	c.mu.Unlock()
	return c.CardStore.Save(ctx, card)
}

// recordingProgress captures outcomes.
type recordingProgress struct {
	mu       sync.Mutex
	outcomes []bool
	err      error
}

func (p *recordingProgress) RecordOutcome(_ context.Context, _, _, _ string, isCorrect bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outcomes = append(p.outcomes, isCorrect)
	return p.err
}

func (p *recordingProgress) WeakAreas(context.Context, string, string, float64, int) ([]entities.TopicAccuracy, error) {
	return nil, nil
}

func (p *recordingProgress) recorded() []bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]bool(nil), p.outcomes...)
}

func ptr[T any](v T) *T { return &v }

func newID() uuid.UUID { return uuid.New() }
