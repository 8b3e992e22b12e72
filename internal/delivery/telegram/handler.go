package telegram

import (
	"context"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type Handler struct {
	bot             BotAPI
	logger          *zap.Logger
	cardService     CardService
	reviewService   ReviewService
	scheduleService ScheduleService
	sessionService  SessionService
	pollTimeout     int
	now             func() time.Time
}

func NewHandler(
	bot BotAPI,
	logger *zap.Logger,
	cardService CardService,
	reviewService ReviewService,
	scheduleService ScheduleService,
	sessionService SessionService,
	pollTimeout int,
) *Handler {
	if pollTimeout <= 0 {
		pollTimeout = 60
	}
	return &Handler{
		bot:             bot,
		logger:          logger.Named("telegram"),
		cardService:     cardService,
		reviewService:   reviewService,
		scheduleService: scheduleService,
		sessionService:  sessionService,
		pollTimeout:     pollTimeout,
		now:             time.Now,
	}
}

func (h *Handler) Run(ctx context.Context) error {
	h.logger.Info("telegram handler started")
	defer h.logger.Info("telegram handler stopped")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = h.pollTimeout

	updates := h.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			h.handleUpdate(ctx, update)
		}
	}
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		h.logger.Debug("callback received",
			zap.Int64("user_id", update.CallbackQuery.From.ID),
			zap.String("data", update.CallbackQuery.Data),
		)
		h.handleCallback(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil || update.Message.From == nil {
		h.logger.Debug("update without message and callback")
		return
	}

	h.logger.Debug("update received",
		zap.Int64("chat_id", update.Message.Chat.ID),
		zap.String("text", update.Message.Text),
	)

	chatID := update.Message.Chat.ID
	owner := ownerID(update.Message.From.ID)

	if !update.Message.IsCommand() {
		_ = h.send(newMessage(chatID, md(msgUnknownCommand)))
		return
	}

	switch update.Message.Command() {
	case "start", "help":
		_ = h.send(newMessage(chatID, welcomeMessage()))

	case "due":
		_ = h.withErrorHandling(h.dueHandler(owner, update.Message.CommandArguments()))(ctx, chatID)

	case "schedule":
		_ = h.withErrorHandling(h.scheduleHandler(owner))(ctx, chatID)

	case "sessions":
		_ = h.withErrorHandling(h.sessionsHandler(owner))(ctx, chatID)

	default:
		_ = h.send(newMessage(chatID, md(msgUnknownCommand)))
	}
}

// ownerID namespaces Telegram users so they never collide with API owners.
func ownerID(userID int64) string {
	return "tg:" + strconv.FormatInt(userID, 10)
}

func (h *Handler) sendError(chatID int64, text string) {
	_ = h.send(newMessage(chatID, md(text)))
}

func (h *Handler) send(c tgbotapi.Chattable) error {
	if _, err := h.bot.Send(c); err != nil {
		h.logger.Error("failed to send telegram message",
			zap.Error(err),
		)
		return err
	}
	return nil
}
