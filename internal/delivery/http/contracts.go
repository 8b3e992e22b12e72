package http

import (
	"context"

	"github.com/google/uuid"

	"github.com/aliskhannn/examprep/internal/domain/entities"
	"github.com/aliskhannn/examprep/internal/service"
)

type CardService interface {
	ListForReview(ctx context.Context, ownerID string, in service.ListCardsInput) ([]service.CardView, error)
	Get(ctx context.Context, ownerID string, id uuid.UUID) (*service.CardView, error)
	CreateFromQuestions(ctx context.Context, ownerID, paper string, questionIDs []string) (*service.CreateResult, error)
	SeedFromWeakAreas(ctx context.Context, ownerID, paper string) (*service.CreateResult, error)
	Reset(ctx context.Context, ownerID string, ids []uuid.UUID) (*service.ResetResult, error)
	Delete(ctx context.Context, ownerID string, ids []uuid.UUID) (int, error)
}

type ReviewService interface {
	ProcessReview(ctx context.Context, ownerID string, in service.ReviewInput) (*service.ReviewResult, error)
	ProcessBatchItems(ctx context.Context, ownerID string, items []service.BatchItem, sessionID *uuid.UUID) (*service.BatchResult, error)
}

type SessionService interface {
	Create(ctx context.Context, ownerID string, in service.CreateSessionInput) (*entities.Session, error)
	Update(ctx context.Context, ownerID string, id uuid.UUID, totals entities.SessionTotals) (*entities.Session, error)
	Get(ctx context.Context, ownerID string, id uuid.UUID) (*entities.Session, error)
	Query(ctx context.Context, ownerID string, filter entities.SessionFilter) (*service.SessionList, error)
	Delete(ctx context.Context, ownerID string, id uuid.UUID) error
}

type ScheduleService interface {
	Project(ctx context.Context, ownerID string, in service.ProjectInput) (*entities.Projection, error)
}
