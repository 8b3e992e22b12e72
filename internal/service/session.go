package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aliskhannn/examprep/internal/apperr"
	"github.com/aliskhannn/examprep/internal/domain/entities"
	"github.com/aliskhannn/examprep/internal/repository"
	"github.com/aliskhannn/examprep/pkg/validator"
)

const (
	defaultSessionLimit = 50
	maxSessionLimit     = 200
	activityWindow      = 7 * 24 * time.Hour
)

// CreateSessionInput opens a session.
type CreateSessionInput struct {
	Type  entities.SessionType `json:"type"`
	Paper string               `json:"paper" validate:"max=64"`
}

// SessionSummary is computed over the sessions of one query.
type SessionSummary struct {
	Total                 int     `json:"total"`
	AverageScore          float64 `json:"average_score"`
	BestAccuracy          float64 `json:"best_accuracy"`
	LongestSessionSeconds int     `json:"longest_session_seconds"`
	ActiveLast7Days       int     `json:"active_last_7_days"`
}

// SessionList is a session query result.
type SessionList struct {
	Sessions []*entities.Session `json:"sessions"`
	Summary  SessionSummary      `json:"summary"`
}

// SessionService manages review sessions.
type SessionService struct {
	sessions SessionStore
	logger   *zap.Logger

	now func() time.Time
}

// NewSessionService creates a SessionService.
func NewSessionService(sessions SessionStore, logger *zap.Logger) *SessionService {
	return &SessionService{
		sessions: sessions,
		logger:   logger.Named("sessions"),
		now:      time.Now,
	}
}

// Create opens a new session. The type defaults to review.
func (s *SessionService) Create(ctx context.Context, ownerID string, in CreateSessionInput) (*entities.Session, error) {
	const op = "create session"

	if ownerID == "" {
		return nil, apperr.Validation(op, "owner is required")
	}
	if in.Type == "" {
		in.Type = entities.SessionReview
	}
	if !in.Type.Valid() {
		return nil, apperr.Validation(op, fmt.Sprintf("unknown session type %q", in.Type))
	}
	if err := validator.ValidateStruct(in); err != nil {
		return nil, apperr.Validationf(op, err)
	}

	session := entities.NewSession(ownerID, in.Type, in.Paper)
	session.CreatedAt = s.now().UTC()
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, apperr.Store(op, err)
	}
	return session, nil
}

// Update replaces the running totals with the final totals and marks the
// session completed. Repeated calls keep the last totals.
func (s *SessionService) Update(ctx context.Context, ownerID string, id uuid.UUID, totals entities.SessionTotals) (*entities.Session, error) {
	const op = "update session"

	if err := validator.ValidateStruct(totals); err != nil {
		return nil, apperr.Validationf(op, err)
	}

	session, err := s.sessions.Get(ctx, ownerID, id)
	if err != nil {
		return nil, sessionErr(op, err)
	}

	now := s.now().UTC()
	session.QuestionsReviewed = totals.QuestionsReviewed
	session.CorrectAnswers = totals.CorrectAnswers
	session.DurationSeconds = totals.DurationSeconds
	session.CardsGraduated = totals.CardsGraduated
	session.CardsFailed = totals.CardsFailed
	session.CompletedAt = &now

	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, sessionErr(op, err)
	}
	return session, nil
}

// Accumulate adds delta to the running totals without completing the session.
func (s *SessionService) Accumulate(ctx context.Context, ownerID string, id uuid.UUID, delta entities.SessionDelta) (*entities.Session, error) {
	const op = "accumulate session"

	session, err := s.sessions.Accumulate(ctx, ownerID, id, delta)
	if err != nil {
		return nil, sessionErr(op, err)
	}
	return session, nil
}

func (s *SessionService) Get(ctx context.Context, ownerID string, id uuid.UUID) (*entities.Session, error) {
	session, err := s.sessions.Get(ctx, ownerID, id)
	if err != nil {
		return nil, sessionErr("get session", err)
	}
	return session, nil
}

// Query lists the owner's sessions, newest first, with summary statistics.
func (s *SessionService) Query(ctx context.Context, ownerID string, filter entities.SessionFilter) (*SessionList, error) {
	const op = "query sessions"

	if ownerID == "" {
		return nil, apperr.Validation(op, "owner is required")
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, apperr.Validation(op, fmt.Sprintf("unknown session type %q", filter.Type))
	}
	if filter.Limit == 0 {
		filter.Limit = defaultSessionLimit
	}
	if filter.Limit < 1 || filter.Limit > maxSessionLimit {
		return nil, apperr.Validation(op, fmt.Sprintf("limit must be between 1 and %d", maxSessionLimit))
	}

	sessions, err := s.sessions.Query(ctx, ownerID, filter)
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	if sessions == nil {
		sessions = []*entities.Session{}
	}

	return &SessionList{
		Sessions: sessions,
		Summary:  summarizeSessions(sessions, s.now()),
	}, nil
}

func (s *SessionService) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	if err := s.sessions.Delete(ctx, ownerID, id); err != nil {
		return sessionErr("delete session", err)
	}
	return nil
}

// summarizeSessions averages accuracy over sessions that reviewed anything.
func summarizeSessions(sessions []*entities.Session, now time.Time) SessionSummary {
	sum := SessionSummary{Total: len(sessions)}
	cutoff := now.Add(-activityWindow)

	var scored int
	var total float64
	for _, s := range sessions {
		if s.QuestionsReviewed > 0 {
			acc := s.Accuracy()
			total += acc
			scored++
			sum.BestAccuracy = math.Max(sum.BestAccuracy, acc)
		}
		sum.LongestSessionSeconds = max(sum.LongestSessionSeconds, s.DurationSeconds)
		if s.CreatedAt.After(cutoff) {
			sum.ActiveLast7Days++
		}
	}
	if scored > 0 {
		sum.AverageScore = math.Round(total/float64(scored)*100) / 100
	}
	return sum
}

func sessionErr(op string, err error) error {
	if errors.Is(err, repository.ErrSessionNotFound) {
		return apperr.NotFound(op, "session not found")
	}
	return apperr.Store(op, err)
}
