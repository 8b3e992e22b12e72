package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/aliskhannn/examprep/internal/apperr"
	"github.com/aliskhannn/examprep/internal/domain/entities"
	"github.com/aliskhannn/examprep/internal/repository"
)

// BatchError is the failure of one batch item.
type BatchError struct {
	Index   int         `json:"index"`
	CardID  string      `json:"card_id,omitempty"`
	Code    apperr.Code `json:"code"`
	Message string      `json:"message"`
}

// BatchItem is one submitted batch entry. Rejected is set when the entry
// could not be decoded; it is then reported as a validation failure without
// being processed.
type BatchItem struct {
	Review   ReviewInput
	Rejected error
}

// BatchResult carries both the successful results and the per-item errors.
type BatchResult struct {
	Results        []*ReviewResult `json:"results"`
	Errors         []BatchError    `json:"errors"`
	Total          int             `json:"total"`
	SessionUpdated bool            `json:"session_updated"`
}

// Err summarises the batch: nil when every item succeeded, a partial batch
// failure when some did, and apperr.BatchFailed when none did.
func (r *BatchResult) Err() error {
	const op = "process batch"

	failed := len(r.Errors)
	switch {
	case failed == 0:
		return nil
	case failed < r.Total:
		return apperr.PartialBatch(op, failed, r.Total)
	default:
		codes := make([]apperr.Code, 0, failed)
		for _, e := range r.Errors {
			codes = append(codes, e.Code)
		}
		return apperr.BatchFailed(op, codes)
	}
}

// ProcessBatch processes already decoded reviews. See ProcessBatchItems.
func (s *ReviewService) ProcessBatch(ctx context.Context, ownerID string, reviews []ReviewInput, sessionID *uuid.UUID) (*BatchResult, error) {
	items := make([]BatchItem, len(reviews))
	for i, r := range reviews {
		items[i] = BatchItem{Review: r}
	}
	return s.ProcessBatchItems(ctx, ownerID, items, sessionID)
}

// ProcessBatchItems processes items one by one in submission order. A
// failing or rejected item never stops the rest. An item is attributed to
// sessionID when it is set and to its own session otherwise; each session
// referenced by successful items has its totals increased by them.
func (s *ReviewService) ProcessBatchItems(ctx context.Context, ownerID string, items []BatchItem, sessionID *uuid.UUID) (*BatchResult, error) {
	const op = "process batch"

	ctx, span := tracer.Start(ctx, "ReviewService.ProcessBatch")
	defer span.End()
	span.SetAttributes(attribute.Int("batch.size", len(items)))

	if ownerID == "" {
		return nil, apperr.Validation(op, "owner is required")
	}
	if len(items) == 0 {
		return nil, apperr.Validation(op, "reviews must not be empty")
	}
	if len(items) > s.opts.BatchMax {
		return nil, apperr.Validation(op, fmt.Sprintf("at most %d reviews per batch", s.opts.BatchMax))
	}
	if sessionID != nil {
		if _, err := s.sessions.Get(ctx, ownerID, *sessionID); err != nil {
			if errors.Is(err, repository.ErrSessionNotFound) {
				return nil, apperr.NotFound(op, "session not found")
			}
			return nil, apperr.Store(op, err)
		}
	}

	out := &BatchResult{
		Results: make([]*ReviewResult, 0, len(items)),
		Errors:  []BatchError{},
		Total:   len(items),
	}

	var order []uuid.UUID
	bySession := make(map[uuid.UUID][]*ReviewResult)

	for i, item := range items {
		if item.Rejected != nil {
			out.Errors = append(out.Errors, BatchError{
				Index:   i,
				Code:    apperr.CodeValidation,
				Message: item.Rejected.Error(),
			})
			continue
		}

		in := item.Review
		if sessionID != nil {
			in.SessionID = sessionID
		}

		res, err := s.processReview(ctx, ownerID, in)
		if err != nil {
			out.Errors = append(out.Errors, BatchError{
				Index:   i,
				CardID:  in.CardID.String(),
				Code:    apperr.CodeOf(err),
				Message: err.Error(),
			})
			continue
		}
		out.Results = append(out.Results, res)

		if in.SessionID != nil {
			sid := *in.SessionID
			if _, seen := bySession[sid]; !seen {
				order = append(order, sid)
			}
			bySession[sid] = append(bySession[sid], res)
		}
	}

	span.SetAttributes(attribute.Int("batch.failed", len(out.Errors)))

	for _, sid := range order {
		if _, err := s.sessions.Accumulate(ctx, ownerID, sid, batchDelta(bySession[sid])); err != nil {
			s.logger.Warn("failed to accumulate session totals",
				zap.String("owner_id", ownerID),
				zap.String("session_id", sid.String()),
				zap.Error(err),
			)
			continue
		}
		out.SessionUpdated = true
	}

	return out, nil
}

func batchDelta(results []*ReviewResult) entities.SessionDelta {
	var d entities.SessionDelta
	var seconds float64
	for _, r := range results {
		d.QuestionsReviewed++
		if r.IsCorrect {
			d.CorrectAnswers++
		}
		if r.Graduated {
			d.CardsGraduated++
		}
		if !r.Quality.Passed() {
			d.CardsFailed++
		}
		seconds += r.TimeTaken
	}
	d.DurationSeconds = int(math.Round(seconds))
	return d
}
