package telegram

import (
	"context"
	"strings"

	"github.com/aliskhannn/examprep/internal/domain/entities"
	"github.com/aliskhannn/examprep/internal/service"
)

const sessionsShown = 10

// dueHandler sends the next card to study, optionally limited to a paper.
func (h *Handler) dueHandler(owner, args string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		views, err := h.cardService.ListForReview(ctx, owner, service.ListCardsInput{
			Paper:          strings.ToUpper(strings.TrimSpace(args)),
			Limit:          1,
			IncludeContent: true,
		})
		if err != nil {
			return err
		}
		if len(views) == 0 {
			return h.send(newMessage(chatID, md(msgNoDueCards)))
		}

		msg := newMessage(chatID, formatCardPrompt(views[0]))
		msg.ReplyMarkup = buildAnswerKeyboard(views[0].Card.ID)
		return h.send(msg)
	}
}

// scheduleHandler sends the seven day projection digest.
func (h *Handler) scheduleHandler(owner string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		p, err := h.scheduleService.Project(ctx, owner, service.ProjectInput{})
		if err != nil {
			return err
		}
		return h.send(newMessage(chatID, formatSchedule(p)))
	}
}

// sessionsHandler sends the summary of the latest sessions.
func (h *Handler) sessionsHandler(owner string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		list, err := h.sessionService.Query(ctx, owner, entities.SessionFilter{Limit: sessionsShown})
		if err != nil {
			return err
		}
		return h.send(newMessage(chatID, formatSessions(list)))
	}
}
