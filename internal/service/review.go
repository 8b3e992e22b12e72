package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/aliskhannn/examprep/internal/apperr"
	"github.com/aliskhannn/examprep/internal/domain/entities"
	"github.com/aliskhannn/examprep/internal/repository"
	"github.com/aliskhannn/examprep/internal/srs"
	"github.com/aliskhannn/examprep/pkg/validator"
)

var tracer = otel.Tracer("github.com/aliskhannn/examprep/internal/service")

// ReviewInput is one validated review submission.
type ReviewInput struct {
	CardID           uuid.UUID  `json:"card_id" validate:"required"`
	IsCorrect        bool       `json:"is_correct"`
	Response         string     `json:"response" validate:"max=4000"`
	TimeTakenSeconds float64    `json:"time_taken" validate:"gte=0,lte=86400"`
	SessionID        *uuid.UUID `json:"session_id,omitempty"`
}

// ReviewResult describes the outcome of one processed review.
type ReviewResult struct {
	CardID          uuid.UUID           `json:"card_id"`
	Card            *entities.Card      `json:"card"`
	Quality         srs.Quality         `json:"quality"`
	IsCorrect       bool                `json:"is_correct"`
	Status          entities.CardStatus `json:"status"`
	DaysUntilNext   int                 `json:"days_until_next"`
	Graduated       bool                `json:"graduated"`
	Kind            entities.ReviewKind `json:"kind"`
	HistoryRecorded bool                `json:"history_recorded"`
	Analytics       ReviewAnalytics     `json:"analytics"`
	TimeTaken       float64             `json:"-"`
}

// ReviewOptions tunes the Review Processor.
type ReviewOptions struct {
	Policy          srs.QualityPolicy
	AnalyticsWindow int // history rows used for recent accuracy
	BatchMax        int // largest accepted batch
	CASRetries      int // reload-and-retry attempts after a version conflict
}

// DefaultReviewOptions returns the stock tuning.
func DefaultReviewOptions() ReviewOptions {
	return ReviewOptions{
		Policy:          srs.DefaultQualityPolicy(),
		AnalyticsWindow: 10,
		BatchMax:        100,
		CASRetries:      3,
	}
}

// ReviewService applies reviews to cards and records their side effects.
type ReviewService struct {
	cards      CardStore
	history    HistoryStore
	sessions   SessionStore
	progress   ProgressStore
	locker     CardLocker
	dispatcher *Dispatcher
	opts       ReviewOptions
	logger     *zap.Logger

	now func() time.Time
}

// NewReviewService creates a ReviewService. progress may be nil.
func NewReviewService(
	cards CardStore,
	history HistoryStore,
	sessions SessionStore,
	progress ProgressStore,
	locker CardLocker,
	dispatcher *Dispatcher,
	opts ReviewOptions,
	logger *zap.Logger,
) *ReviewService {
	def := DefaultReviewOptions()
	if opts.Policy == (srs.QualityPolicy{}) {
		opts.Policy = def.Policy
	}
	if opts.AnalyticsWindow <= 0 {
		opts.AnalyticsWindow = def.AnalyticsWindow
	}
	if opts.BatchMax <= 0 {
		opts.BatchMax = def.BatchMax
	}
	if opts.CASRetries < 0 {
		opts.CASRetries = 0
	}
	return &ReviewService{
		cards:      cards,
		history:    history,
		sessions:   sessions,
		progress:   progress,
		locker:     locker,
		dispatcher: dispatcher,
		opts:       opts,
		logger:     logger.Named("review"),
		now:        time.Now,
	}
}

// ProcessReview grades one answer, moves the card to its next state and
// records history, progress and analytics around it.
func (s *ReviewService) ProcessReview(ctx context.Context, ownerID string, in ReviewInput) (*ReviewResult, error) {
	ctx, span := tracer.Start(ctx, "ReviewService.ProcessReview", trace.WithAttributes(
		attribute.String("card.id", in.CardID.String()),
		attribute.Bool("review.correct", in.IsCorrect),
	))
	defer span.End()

	res, err := s.processReview(ctx, ownerID, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperr.CodeOf(err)))
		return nil, err
	}
	span.SetAttributes(attribute.Int("review.quality", int(res.Quality)))
	return res, nil
}

func (s *ReviewService) processReview(ctx context.Context, ownerID string, in ReviewInput) (*ReviewResult, error) {
	const op = "process review"

	if ownerID == "" {
		return nil, apperr.Validation(op, "owner is required")
	}
	if err := validator.ValidateStruct(in); err != nil {
		return nil, apperr.Validationf(op, err)
	}

	if in.SessionID != nil {
		if _, err := s.sessions.Get(ctx, ownerID, *in.SessionID); err != nil {
			if errors.Is(err, repository.ErrSessionNotFound) {
				return nil, apperr.NotFound(op, "session not found")
			}
			return nil, apperr.Store(op, err)
		}
	}

	unlock, err := s.locker.Lock(ctx, "card:"+in.CardID.String())
	if err != nil {
		if errors.Is(err, repository.ErrLockNotAcquired) {
			return nil, apperr.Conflict(op, err)
		}
		return nil, apperr.Store(op, err)
	}
	defer unlock()

	before, after, quality, err := s.applyReview(ctx, ownerID, in)
	if err != nil {
		return nil, err
	}

	now := *after.LastReviewedAt
	today := srs.Today(now)
	kind := entities.ReviewNormal
	if srs.Today(before.NextReviewDate).Before(today) {
		kind = entities.ReviewOverdue
	}

	res := &ReviewResult{
		CardID:          after.ID,
		Card:            after,
		Quality:         quality,
		IsCorrect:       in.IsCorrect,
		Status:          srs.Status(after, today),
		DaysUntilNext:   srs.DaysBetween(today, after.NextReviewDate),
		Graduated:       after.Repetitions > before.Repetitions,
		Kind:            kind,
		HistoryRecorded: true,
		TimeTaken:       in.TimeTakenSeconds,
	}

	// 1. History is best-effort: the card state is already committed.
	h := entities.NewReviewHistory(before, after, in.SessionID, in.Response, in.IsCorrect, int(quality), in.TimeTakenSeconds, kind, now)
	if err := s.history.Append(ctx, h); err != nil {
		res.HistoryRecorded = false
		s.logger.Warn("failed to append review history",
			zap.String("owner_id", ownerID),
			zap.String("card_id", after.ID.String()),
			zap.Error(err),
		)
	}

	// 2. Topic progress is updated in the background.
	if s.progress != nil && s.dispatcher != nil {
		subject, paper, correct := before.Subject, before.Paper, in.IsCorrect
		s.dispatcher.Go(ctx, "record_outcome", func(ctx context.Context) error {
			return s.progress.RecordOutcome(ctx, ownerID, subject, paper, correct)
		})
	}

	// 3. Short-window analytics.
	rows, err := s.history.Recent(ctx, after.ID, s.opts.AnalyticsWindow)
	if err != nil {
		s.logger.Warn("failed to load recent history", zap.String("card_id", after.ID.String()), zap.Error(err))
		rows = nil
	}
	res.Analytics = summarizeRecent(rows)

	return res, nil
}

// applyReview loads the card, computes its next state and saves it, retrying
// on optimistic version conflicts.
func (s *ReviewService) applyReview(ctx context.Context, ownerID string, in ReviewInput) (*entities.Card, *entities.Card, srs.Quality, error) {
	const op = "process review"

	quality := s.opts.Policy.Derive(in.IsCorrect, in.Response, in.TimeTakenSeconds)

	for attempt := 0; attempt <= s.opts.CASRetries; attempt++ {
		card, err := s.cards.Get(ctx, ownerID, in.CardID)
		if err != nil {
			if errors.Is(err, repository.ErrCardNotFound) {
				return nil, nil, 0, apperr.NotFound(op, "card not found")
			}
			return nil, nil, 0, apperr.Store(op, err)
		}

		now := s.now().UTC()
		next, err := srs.Next(*card, quality, now)
		if err != nil {
			return nil, nil, 0, &apperr.Error{Code: apperr.CodeInternal, Op: op, Err: err}
		}
		next.UpdatedAt = now

		err = s.cards.Save(ctx, &next)
		if err == nil {
			return card, &next, quality, nil
		}
		if !errors.Is(err, repository.ErrCardVersionConflict) {
			return nil, nil, 0, apperr.Store(op, err)
		}
		s.logger.Debug("card version conflict, retrying",
			zap.String("card_id", in.CardID.String()),
			zap.Int("attempt", attempt+1),
		)
	}

	return nil, nil, 0, apperr.Conflict(op, repository.ErrCardVersionConflict)
}
