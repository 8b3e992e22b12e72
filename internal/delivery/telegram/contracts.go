package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/examprep/internal/domain/entities"
	"github.com/aliskhannn/examprep/internal/service"
)

type CardService interface {
	ListForReview(ctx context.Context, ownerID string, in service.ListCardsInput) ([]service.CardView, error)
}

type ReviewService interface {
	ProcessReview(ctx context.Context, ownerID string, in service.ReviewInput) (*service.ReviewResult, error)
}

type ScheduleService interface {
	Project(ctx context.Context, ownerID string, in service.ProjectInput) (*entities.Projection, error)
}

type SessionService interface {
	Query(ctx context.Context, ownerID string, filter entities.SessionFilter) (*service.SessionList, error)
}

// BotAPI is the part of *tgbotapi.BotAPI the handler uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
}
