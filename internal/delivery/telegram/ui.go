package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
)

// buildAnswerKeyboard builds the self-grading keyboard under a card.
func buildAnswerKeyboard(cardID uuid.UUID) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Knew it", buildReviewCallback(cardID, true)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Missed it", buildReviewCallback(cardID, false)),
		),
	)
}

// buildNextKeyboard builds the keyboard shown after an answer.
func buildNextKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("▶️ Next card", buildDueCallback()),
			tgbotapi.NewInlineKeyboardButtonData("📅 Schedule", buildScheduleCallback()),
		),
	)
}
