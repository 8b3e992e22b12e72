package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/examprep/internal/service"
)

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	// Remove the user's "clock" whatever happens next.
	notice := ""
	defer func() {
		if _, err := h.bot.Request(tgbotapi.NewCallback(cb.ID, notice)); err != nil {
			h.logger.Warn("callback answer error", zap.Error(err))
		}
	}()

	if cb.Message == nil || cb.From == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	owner := ownerID(cb.From.ID)

	cd := decodeCallback(cb.Data)
	switch cd.Action {
	case actionReview:
		notice = h.handleReviewCallback(ctx, cb, cd)
	case actionDue:
		_ = h.withErrorHandling(h.dueHandler(owner, ""))(ctx, chatID)
	case actionSchedule:
		_ = h.withErrorHandling(h.scheduleHandler(owner))(ctx, chatID)
	default:
		h.logger.Debug("unknown callback", zap.String("data", cb.Data))
	}
}

// handleReviewCallback submits the answer, replaces the card message with
// the outcome and returns the short notice for the callback answer.
func (h *Handler) handleReviewCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, cd callbackData) string {
	cardID, correct, err := parseReviewCallback(cd)
	if err != nil {
		h.logger.Warn("invalid review callback", zap.String("data", cb.Data))
		return msgStaleButton
	}

	// The card message was sent when the card was shown.
	taken := h.now().Sub(cb.Message.Time()).Seconds()
	if taken < 0 {
		taken = 0
	}
	if taken > maxTimeTakenSeconds {
		taken = maxTimeTakenSeconds
	}

	res, err := h.reviewService.ProcessReview(ctx, ownerID(cb.From.ID), service.ReviewInput{
		CardID:           cardID,
		IsCorrect:        correct,
		TimeTakenSeconds: taken,
	})
	if err != nil {
		h.logger.Error("failed to process review",
			zap.String("card_id", cardID.String()),
			zap.Error(err),
		)
		return errorText(err)
	}

	edit := newEdit(cb.Message.Chat.ID, cb.Message.MessageID, formatReviewFeedback(res))
	kb := buildNextKeyboard()
	edit.ReplyMarkup = &kb
	_ = h.send(edit)

	if correct {
		return msgCorrectNotice
	}
	return msgWrongNotice
}
