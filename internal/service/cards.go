package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aliskhannn/examprep/internal/apperr"
	"github.com/aliskhannn/examprep/internal/domain/entities"
	"github.com/aliskhannn/examprep/internal/repository"
	"github.com/aliskhannn/examprep/internal/srs"
)

const (
	defaultListLimit = 20
	maxListLimit     = 200
	maxBulkCards     = 500
	resetRetries     = 3
)

// ListCardsInput narrows a review listing.
type ListCardsInput struct {
	Paper          string
	Subject        string
	DueState       entities.DueState
	Limit          int
	IncludeContent bool
}

// CardView is a card with its derived status and, optionally, its content.
type CardView struct {
	Card     *entities.Card      `json:"card"`
	Status   entities.CardStatus `json:"status"`
	Question *entities.Question  `json:"question,omitempty"`
}

// CreateResult reports the outcome of a bulk card creation.
type CreateResult struct {
	Created  []*entities.Card `json:"created"`
	Existing []string         `json:"existing"` // question ids that already had a card
	Skipped  []string         `json:"skipped"`  // question ids unknown to the question bank
}

// ResetResult reports the outcome of a bulk reset.
type ResetResult struct {
	Reset   int      `json:"reset"`
	Missing []string `json:"missing"`
}

// SeedOptions tunes weak-area seeding.
type SeedOptions struct {
	AccuracyThreshold float64 // topics below this accuracy are weak
	MinAttempts       int     // topics with fewer attempts are ignored
	MaxCards          int     // cards created per seeding run
}

// CardService manages the lifecycle of review cards outside of reviews.
type CardService struct {
	cards     CardStore
	questions QuestionBank
	progress  ProgressStore
	locker    CardLocker
	seed      SeedOptions
	logger    *zap.Logger

	now func() time.Time
}

// NewCardService creates a CardService.
func NewCardService(
	cards CardStore,
	questions QuestionBank,
	progress ProgressStore,
	locker CardLocker,
	seed SeedOptions,
	logger *zap.Logger,
) *CardService {
	if seed.AccuracyThreshold <= 0 {
		seed.AccuracyThreshold = 0.6
	}
	if seed.MinAttempts <= 0 {
		seed.MinAttempts = 3
	}
	if seed.MaxCards <= 0 {
		seed.MaxCards = 50
	}
	return &CardService{
		cards:     cards,
		questions: questions,
		progress:  progress,
		locker:    locker,
		seed:      seed,
		logger:    logger.Named("cards"),
		now:       time.Now,
	}
}

// ListForReview returns the cards to study next, in selection order.
func (s *CardService) ListForReview(ctx context.Context, ownerID string, in ListCardsInput) ([]CardView, error) {
	const op = "list cards"

	if ownerID == "" {
		return nil, apperr.Validation(op, "owner is required")
	}
	if in.Limit == 0 {
		in.Limit = defaultListLimit
	}
	if in.Limit < 1 || in.Limit > maxListLimit {
		return nil, apperr.Validation(op, fmt.Sprintf("limit must be between 1 and %d", maxListLimit))
	}
	if !in.DueState.Valid() {
		return nil, apperr.Validation(op, fmt.Sprintf("unknown due state %q", in.DueState))
	}

	today := srs.Today(s.now())
	cards, err := s.cards.Query(ctx, ownerID, entities.CardFilter{
		Paper:    in.Paper,
		Subject:  in.Subject,
		DueState: in.DueState,
		Today:    today,
	})
	if err != nil {
		return nil, apperr.Store(op, err)
	}

	selected := srs.Select(cards, in.Limit, today)
	views := make([]CardView, 0, len(selected))
	for _, c := range selected {
		views = append(views, CardView{Card: c, Status: srs.Status(c, today)})
	}

	if in.IncludeContent && len(views) > 0 {
		s.attachContent(ctx, views)
	}
	return views, nil
}

// attachContent looks up question content per paper in parallel. Missing
// content leaves Question nil.
func (s *CardService) attachContent(ctx context.Context, views []CardView) {
	byPaper := make(map[string][]string)
	for _, v := range views {
		byPaper[v.Card.Paper] = append(byPaper[v.Card.Paper], v.Card.QuestionID)
	}

	var mu sync.Mutex
	content := make(map[string]map[string]entities.Question, len(byPaper))

	g, gctx := errgroup.WithContext(ctx)
	for paper, ids := range byPaper {
		g.Go(func() error {
			questions, err := s.questions.Lookup(gctx, paper, ids)
			if err != nil {
				return fmt.Errorf("lookup %s: %w", paper, err)
			}
			m := make(map[string]entities.Question, len(questions))
			for _, q := range questions {
				m[q.ID] = q
			}
			mu.Lock()
			content[paper] = m
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Warn("failed to attach question content", zap.Error(err))
	}

	for i := range views {
		if q, ok := content[views[i].Card.Paper][views[i].Card.QuestionID]; ok {
			views[i].Question = &q
		}
	}
}

// Get returns one card with its status and content.
func (s *CardService) Get(ctx context.Context, ownerID string, id uuid.UUID) (*CardView, error) {
	const op = "get card"

	card, err := s.cards.Get(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrCardNotFound) {
			return nil, apperr.NotFound(op, "card not found")
		}
		return nil, apperr.Store(op, err)
	}

	views := []CardView{{Card: card, Status: srs.Status(card, srs.Today(s.now()))}}
	s.attachContent(ctx, views)
	return &views[0], nil
}

// CreateFromQuestions creates a card for every known question id that does
// not have one yet. Existing cards are left untouched.
func (s *CardService) CreateFromQuestions(ctx context.Context, ownerID, paper string, questionIDs []string) (*CreateResult, error) {
	const op = "create cards"

	if ownerID == "" {
		return nil, apperr.Validation(op, "owner is required")
	}
	if paper == "" {
		return nil, apperr.Validation(op, "paper is required")
	}
	questionIDs = uniqueStrings(questionIDs)
	if len(questionIDs) == 0 || len(questionIDs) > maxBulkCards {
		return nil, apperr.Validation(op, fmt.Sprintf("between 1 and %d question ids are required", maxBulkCards))
	}

	questions, err := s.questions.Lookup(ctx, paper, questionIDs)
	if err != nil {
		return nil, apperr.Store(op, fmt.Errorf("lookup questions: %w", err))
	}

	known := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		known[q.ID] = struct{}{}
	}
	res := &CreateResult{Created: []*entities.Card{}, Existing: []string{}, Skipped: []string{}}
	for _, id := range questionIDs {
		if _, ok := known[id]; !ok {
			res.Skipped = append(res.Skipped, id)
		}
	}

	if err := s.insert(ctx, ownerID, questions, res); err != nil {
		return nil, apperr.Store(op, err)
	}
	return res, nil
}

// SeedFromWeakAreas creates cards for questions on the learner's weakest
// topics of a paper.
func (s *CardService) SeedFromWeakAreas(ctx context.Context, ownerID, paper string) (*CreateResult, error) {
	const op = "seed cards"

	if ownerID == "" {
		return nil, apperr.Validation(op, "owner is required")
	}
	if paper == "" {
		return nil, apperr.Validation(op, "paper is required")
	}
	res := &CreateResult{Created: []*entities.Card{}, Existing: []string{}, Skipped: []string{}}
	if s.progress == nil {
		return res, nil
	}

	weak, err := s.progress.WeakAreas(ctx, ownerID, paper, s.seed.AccuracyThreshold, s.seed.MinAttempts)
	if err != nil {
		return nil, apperr.Store(op, fmt.Errorf("weak areas: %w", err))
	}
	if len(weak) == 0 {
		return res, nil
	}

	subjects := make([]string, 0, len(weak))
	for _, w := range weak {
		subjects = append(subjects, w.Subject)
	}
	questions, err := s.questions.BySubjects(ctx, paper, subjects, s.seed.MaxCards)
	if err != nil {
		return nil, apperr.Store(op, fmt.Errorf("questions by subjects: %w", err))
	}

	if err := s.insert(ctx, ownerID, questions, res); err != nil {
		return nil, apperr.Store(op, err)
	}
	s.logger.Info("seeded cards from weak areas",
		zap.String("owner_id", ownerID),
		zap.String("paper", paper),
		zap.Int("weak_topics", len(weak)),
		zap.Int("created", len(res.Created)),
	)
	return res, nil
}

func (s *CardService) insert(ctx context.Context, ownerID string, questions []entities.Question, res *CreateResult) error {
	if len(questions) == 0 {
		return nil
	}

	today := srs.Today(s.now())
	cards := make([]*entities.Card, 0, len(questions))
	for _, q := range questions {
		cards = append(cards, entities.NewCard(ownerID, q.ID, q.Paper, q.Subject, today))
	}

	created, err := s.cards.Insert(ctx, cards)
	if err != nil {
		return fmt.Errorf("insert cards: %w", err)
	}

	inserted := make(map[string]struct{}, len(created))
	for _, c := range created {
		inserted[c.QuestionID] = struct{}{}
	}
	for _, q := range questions {
		if _, ok := inserted[q.ID]; !ok {
			res.Existing = append(res.Existing, q.ID)
		}
	}
	res.Created = append(res.Created, created...)
	return nil
}

// Reset puts cards back to their initial schedule. Review counters and
// history are kept.
func (s *CardService) Reset(ctx context.Context, ownerID string, ids []uuid.UUID) (*ResetResult, error) {
	const op = "reset cards"

	if err := validateIDs(op, ownerID, ids); err != nil {
		return nil, err
	}

	res := &ResetResult{Missing: []string{}}
	for _, id := range uniqueIDs(ids) {
		err := s.resetOne(ctx, ownerID, id)
		switch {
		case err == nil:
			res.Reset++
		case errors.Is(err, repository.ErrCardNotFound):
			res.Missing = append(res.Missing, id.String())
		case errors.Is(err, repository.ErrCardVersionConflict), errors.Is(err, repository.ErrLockNotAcquired):
			return nil, apperr.Conflict(op, err)
		default:
			return nil, apperr.Store(op, err)
		}
	}
	return res, nil
}

func (s *CardService) resetOne(ctx context.Context, ownerID string, id uuid.UUID) error {
	unlock, err := s.locker.Lock(ctx, "card:"+id.String())
	if err != nil {
		return fmt.Errorf("lock card: %w", err)
	}
	defer unlock()

	for attempt := 0; attempt < resetRetries; attempt++ {
		card, err := s.cards.Get(ctx, ownerID, id)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		card.EaseFactor = entities.InitialEase
		card.IntervalDays = 0
		card.Repetitions = 0
		card.NextReviewDate = srs.Today(now)
		card.UpdatedAt = now

		err = s.cards.Save(ctx, card)
		if !errors.Is(err, repository.ErrCardVersionConflict) {
			return err
		}
	}
	return repository.ErrCardVersionConflict
}

// Delete removes cards and their history.
func (s *CardService) Delete(ctx context.Context, ownerID string, ids []uuid.UUID) (int, error) {
	const op = "delete cards"

	if err := validateIDs(op, ownerID, ids); err != nil {
		return 0, err
	}

	n, err := s.cards.Delete(ctx, ownerID, uniqueIDs(ids))
	if err != nil {
		return 0, apperr.Store(op, err)
	}
	s.logger.Info("cards deleted", zap.String("owner_id", ownerID), zap.Int("count", n))
	return n, nil
}

func validateIDs(op, ownerID string, ids []uuid.UUID) error {
	if ownerID == "" {
		return apperr.Validation(op, "owner is required")
	}
	if len(ids) == 0 || len(ids) > maxBulkCards {
		return apperr.Validation(op, fmt.Sprintf("between 1 and %d ids are required", maxBulkCards))
	}
	for _, id := range ids {
		if id == uuid.Nil {
			return apperr.Validation(op, "ids must not contain the nil uuid")
		}
	}
	return nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
