package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aliskhannn/examprep/internal/apperr"
	"github.com/aliskhannn/examprep/internal/domain/entities"
	"github.com/aliskhannn/examprep/internal/srs"
)

func TestProcessReview_NewCardCorrectFast(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	card := f.addCard(t, "h1", "GS1", "History", nil)

	res, err := f.reviews.ProcessReview(ctx, owner, ReviewInput{
		CardID:           card.ID,
		IsCorrect:        true,
		Response:         "a",
		TimeTakenSeconds: 12,
	})
	require.NoError(t, err)

	assert.Equal(t, srs.QualityPerfect, res.Quality)
	assert.Equal(t, 1, res.Card.Repetitions)
	assert.Equal(t, 1, res.Card.IntervalDays)
	assert.Equal(t, 1, res.DaysUntilNext)
	assert.InDelta(t, 2.6, res.Card.EaseFactor, 1e-9)
	assert.True(t, res.Graduated)
	assert.True(t, res.HistoryRecorded)
	assert.Equal(t, entities.ReviewNormal, res.Kind)
	assert.Equal(t, entities.StatusLearning, res.Status)
	assert.Equal(t, 1, res.Analytics.Reviews)
	assert.Equal(t, TrendInsufficientData, res.Analytics.Trend)

	stored, err := f.db.Cards().Get(ctx, owner, card.ID)
	require.NoError(t, err)
	assert.Equal(t, srs.AddDays(fixedNow, 1), stored.NextReviewDate)
	assert.Equal(t, card.Version+1, stored.Version)

	n, err := f.db.History().Count(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.TotalReviews, n)
}

func TestProcessReview_TwoCorrectReviews(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	card := f.addCard(t, "h1", "GS1", "History", nil)
	in := ReviewInput{CardID: card.ID, IsCorrect: true, Response: "a", TimeTakenSeconds: 5}

	_, err := f.reviews.ProcessReview(ctx, owner, in)
	require.NoError(t, err)
	res, err := f.reviews.ProcessReview(ctx, owner, in)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Card.Repetitions)
	assert.Equal(t, 6, res.Card.IntervalDays)
	assert.Equal(t, srs.AddDays(fixedNow, 6), res.Card.NextReviewDate)
	assert.Equal(t, 2, res.Card.TotalReviews)
	assert.Equal(t, 2, res.Card.CorrectReviews)
}

func TestProcessReview_OverdueClassification(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	card := f.addCard(t, "h1", "GS1", "History", func(c *entities.Card) {
		c.NextReviewDate = srs.AddDays(fixedNow, -4)
		c.TotalReviews = 5
		c.CorrectReviews = 5
		c.Repetitions = 5
		c.IntervalDays = 30
		c.EaseFactor = 2.3
	})

	res, err := f.reviews.ProcessReview(context.Background(), owner, ReviewInput{
		CardID:           card.ID,
		IsCorrect:        false,
		Response:         "wrong",
		TimeTakenSeconds: 200,
	})
	require.NoError(t, err)

	assert.Equal(t, entities.ReviewOverdue, res.Kind)
	assert.Equal(t, srs.QualityWrong, res.Quality)
	assert.Equal(t, 0, res.Card.Repetitions)
	assert.Equal(t, 1, res.Card.IntervalDays)
	assert.InDelta(t, 1.76, res.Card.EaseFactor, 1e-9)
	assert.False(t, res.Graduated)
}

func TestProcessReview_Errors(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	card := f.addCard(t, "h1", "GS1", "History", nil)

	tests := []struct {
		name  string
		owner string
		in    ReviewInput
		want  apperr.Code
	}{
		{"missing card id", owner, ReviewInput{IsCorrect: true}, apperr.CodeValidation},
		{"negative time", owner, ReviewInput{CardID: card.ID, TimeTakenSeconds: -1}, apperr.CodeValidation},
		{"missing owner", "", ReviewInput{CardID: card.ID}, apperr.CodeValidation},
		{"unknown card", owner, ReviewInput{CardID: uuid.New(), IsCorrect: true}, apperr.CodeNotFound},
		{"foreign card", "owner-2", ReviewInput{CardID: card.ID, IsCorrect: true}, apperr.CodeNotFound},
		{"unknown session", owner, ReviewInput{CardID: card.ID, SessionID: ptr(uuid.New())}, apperr.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.reviews.ProcessReview(context.Background(), tt.owner, tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.want, apperr.CodeOf(err))
		})
	}

	stored, err := f.db.Cards().Get(context.Background(), owner, card.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.TotalReviews)
}

func TestProcessReview_HistoryFailureIsSwallowed(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	svc := NewReviewService(f.db.Cards(), failingHistory{f.db.History()}, f.db.Sessions(), nil,
		NewKeyedLocker(), nil, DefaultReviewOptions(), zap.NewNop())
	svc.now = clock

	card := f.addCard(t, "h1", "GS1", "History", nil)
	res, err := svc.ProcessReview(context.Background(), owner, ReviewInput{CardID: card.ID, IsCorrect: true, Response: "a"})
	require.NoError(t, err)
	assert.False(t, res.HistoryRecorded)

	stored, err := f.db.Cards().Get(context.Background(), owner, card.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TotalReviews)
}

func TestProcessReview_RetriesVersionConflicts(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	card := f.addCard(t, "h1", "GS1", "History", nil)

	opts := DefaultReviewOptions()
	opts.CASRetries = 2

	store := &conflictingCards{CardStore: f.db.Cards(), n: 2}
	svc := NewReviewService(store, f.db.History(), f.db.Sessions(), nil, NewKeyedLocker(), nil, opts, zap.NewNop())
	svc.now = clock

	res, err := svc.ProcessReview(context.Background(), owner, ReviewInput{CardID: card.ID, IsCorrect: true})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Card.TotalReviews)

	store.n = 3
	_, err = svc.ProcessReview(context.Background(), owner, ReviewInput{CardID: card.ID, IsCorrect: true})
	assert.Equal(t, apperr.CodeConflict, apperr.CodeOf(err))
}

func TestProcessReview_RecordsProgressInBackground(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	card := f.addCard(t, "h1", "GS1", "History", nil)

	progress := &recordingProgress{err: errBoom}
	dispatcher := NewDispatcher(2, time.Second, zap.NewNop())
	svc := NewReviewService(f.db.Cards(), f.db.History(), f.db.Sessions(), progress,
		NewKeyedLocker(), dispatcher, DefaultReviewOptions(), zap.NewNop())
	svc.now = clock

	_, err := svc.ProcessReview(context.Background(), owner, ReviewInput{CardID: card.ID, IsCorrect: true})
	require.NoError(t, err)
	_, err = svc.ProcessReview(context.Background(), owner, ReviewInput{CardID: card.ID, IsCorrect: false, Response: "x"})
	require.NoError(t, err)

	require.NoError(t, dispatcher.Close(context.Background()))
	assert.ElementsMatch(t, []bool{true, false}, progress.recorded())
}

func TestProcessReview_ConcurrentReviewsOfOneCard(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	card := f.addCard(t, "h1", "GS1", "History", nil)

	const workers = 16
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			_, err := f.reviews.ProcessReview(context.Background(), owner, ReviewInput{CardID: card.ID, IsCorrect: true})
			errs <- err
		}()
	}
	for i := 0; i < workers; i++ {
		require.NoError(t, <-errs)
	}

	stored, err := f.db.Cards().Get(context.Background(), owner, card.ID)
	require.NoError(t, err)
	assert.Equal(t, workers, stored.TotalReviews)

	n, err := f.db.History().Count(context.Background(), card.ID)
	require.NoError(t, err)
	assert.Equal(t, workers, n)
}

func TestProcessReview_Analytics(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	card := f.addCard(t, "h1", "GS1", "History", nil)

	outcomes := []bool{false, false, false, true, true, true}
	var res *ReviewResult
	for _, ok := range outcomes {
		var err error
		res, err = f.reviews.ProcessReview(context.Background(), owner, ReviewInput{CardID: card.ID, IsCorrect: ok, Response: "x"})
		require.NoError(t, err)
	}

	assert.Equal(t, 6, res.Analytics.Reviews)
	assert.InDelta(t, 0.5, res.Analytics.RecentAccuracy, 1e-9)
	assert.Equal(t, TrendImproving, res.Analytics.Trend)
}

func TestProcessBatch_PartialFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	first := f.addCard(t, "h1", "GS1", "History", nil)
	third := f.addCard(t, "h2", "GS1", "History", nil)
	missing := uuid.New()

	session, err := f.sessions.Create(ctx, owner, CreateSessionInput{Paper: "GS1"})
	require.NoError(t, err)

	res, err := f.reviews.ProcessBatch(ctx, owner, []ReviewInput{
		{CardID: first.ID, IsCorrect: true, Response: "a", TimeTakenSeconds: 10},
		{CardID: missing, IsCorrect: true, Response: "a", TimeTakenSeconds: 10},
		{CardID: third.ID, IsCorrect: false, Response: "b", TimeTakenSeconds: 20.4},
	}, &session.ID)
	require.NoError(t, err)

	require.Len(t, res.Results, 2)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, first.ID, res.Results[0].CardID)
	assert.Equal(t, third.ID, res.Results[1].CardID)
	assert.Equal(t, 1, res.Errors[0].Index)
	assert.Equal(t, missing.String(), res.Errors[0].CardID)
	assert.Equal(t, apperr.CodeNotFound, res.Errors[0].Code)
	assert.True(t, res.SessionUpdated)
	assert.Equal(t, apperr.CodePartialBatch, apperr.CodeOf(res.Err()))

	stored, err := f.sessions.Get(ctx, owner, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.QuestionsReviewed)
	assert.Equal(t, 1, stored.CorrectAnswers)
	assert.Equal(t, 1, stored.CardsGraduated)
	assert.Equal(t, 1, stored.CardsFailed)
	assert.Equal(t, 30, stored.DurationSeconds)
	assert.False(t, stored.IsCompleted())

	n, err := f.db.History().Count(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestProcessBatch_Outcomes(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	card := f.addCard(t, "h1", "GS1", "History", nil)

	res, err := f.reviews.ProcessBatch(ctx, owner, []ReviewInput{{CardID: card.ID, IsCorrect: true}}, nil)
	require.NoError(t, err)
	assert.NoError(t, res.Err())
	assert.False(t, res.SessionUpdated)

	res, err = f.reviews.ProcessBatch(ctx, owner, []ReviewInput{{CardID: uuid.New()}, {}}, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Results)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, apperr.CodeNotFound, res.Errors[0].Code)
	assert.Equal(t, apperr.CodeValidation, res.Errors[1].Code)
	assert.Equal(t, apperr.CodeBatchFailed, apperr.CodeOf(res.Err()))

	res, err = f.reviews.ProcessBatch(ctx, owner, []ReviewInput{{CardID: uuid.New()}, {CardID: uuid.New()}}, nil)
	require.NoError(t, err)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(res.Err()))

	_, err = f.reviews.ProcessBatch(ctx, owner, nil, nil)
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))

	tooMany := make([]ReviewInput, DefaultReviewOptions().BatchMax+1)
	_, err = f.reviews.ProcessBatch(ctx, owner, tooMany, nil)
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))

	_, err = f.reviews.ProcessBatch(ctx, owner, []ReviewInput{{CardID: card.ID}}, ptr(uuid.New()))
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestProcessBatchItems_RejectedItemsDoNotStopBatch(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	first := f.addCard(t, "h1", "GS1", "History", nil)
	third := f.addCard(t, "h2", "GS1", "History", nil)

	res, err := f.reviews.ProcessBatchItems(ctx, owner, []BatchItem{
		{Review: ReviewInput{CardID: first.ID, IsCorrect: true, TimeTakenSeconds: 10}},
		{Rejected: errors.New("reviews[1]: card_id: invalid UUID length: 5")},
		{Review: ReviewInput{CardID: third.ID, IsCorrect: true, TimeTakenSeconds: 10}},
	}, nil)
	require.NoError(t, err)

	require.Len(t, res.Results, 2)
	assert.Equal(t, first.ID, res.Results[0].CardID)
	assert.Equal(t, third.ID, res.Results[1].CardID)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, BatchError{
		Index:   1,
		Code:    apperr.CodeValidation,
		Message: "reviews[1]: card_id: invalid UUID length: 5",
	}, res.Errors[0])
	assert.Equal(t, apperr.CodePartialBatch, apperr.CodeOf(res.Err()))

	res, err = f.reviews.ProcessBatchItems(ctx, owner, []BatchItem{
		{Rejected: errors.New("bad")},
		{Rejected: errors.New("worse")},
	}, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Results)
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(res.Err()))
}

func TestProcessBatch_ItemSessions(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	first := f.addCard(t, "h1", "GS1", "History", nil)
	second := f.addCard(t, "h2", "GS1", "History", nil)

	own, err := f.sessions.Create(ctx, owner, CreateSessionInput{Paper: "GS1"})
	require.NoError(t, err)
	batch, err := f.sessions.Create(ctx, owner, CreateSessionInput{Paper: "GS1"})
	require.NoError(t, err)

	res, err := f.reviews.ProcessBatch(ctx, owner, []ReviewInput{
		{CardID: first.ID, IsCorrect: true, TimeTakenSeconds: 10, SessionID: &own.ID},
	}, nil)
	require.NoError(t, err)
	assert.NoError(t, res.Err())
	assert.True(t, res.SessionUpdated)

	stored, err := f.sessions.Get(ctx, owner, own.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.QuestionsReviewed)
	assert.Equal(t, 1, stored.CorrectAnswers)

	rows, err := f.db.History().Recent(ctx, first.ID, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].SessionID)
	assert.Equal(t, own.ID, *rows[0].SessionID)

	// The batch session wins over the item's own.
	res, err = f.reviews.ProcessBatch(ctx, owner, []ReviewInput{
		{CardID: second.ID, IsCorrect: false, TimeTakenSeconds: 10, SessionID: &own.ID},
	}, &batch.ID)
	require.NoError(t, err)
	assert.True(t, res.SessionUpdated)

	stored, err = f.sessions.Get(ctx, owner, own.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.QuestionsReviewed)

	stored, err = f.sessions.Get(ctx, owner, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.QuestionsReviewed)
	assert.Equal(t, 0, stored.CorrectAnswers)
}
