// messages.go contains message templates and formatting functions for Telegram.

package telegram

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/examprep/internal/apperr"
	"github.com/aliskhannn/examprep/internal/domain/entities"
	"github.com/aliskhannn/examprep/internal/service"
)

const (
	msgNoDueCards     = "Nothing to review right now. Come back later or add cards through the API."
	msgInternalError  = "Something went wrong. Please try again later."
	msgCardGone       = "This card no longer exists."
	msgBusyCard       = "This card is being reviewed elsewhere. Try again in a moment."
	msgStaleButton    = "This button has expired."
	msgCorrectNotice  = "Nice!"
	msgWrongNotice    = "It will come back soon."
	msgUnknownCommand = "Unknown command. Available commands:\n\n/due [paper] - next card to review\n/schedule - reviews for the next 7 days\n/sessions - recent study sessions"
)

const (
	maxTimeTakenSeconds = 86400
	dayLayout           = "Mon 02 Jan"
	barLength           = 10
)

// md escapes plain text for MarkdownV2.
func md(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, s)
}

func bold(s string) string {
	return "*" + md(s) + "*"
}

func italic(s string) string {
	return "_" + md(s) + "_"
}

// newMessage creates a message with MarkdownV2 parse mode.
func newMessage(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	return msg
}

// newEdit creates an edit with MarkdownV2 parse mode.
func newEdit(chatID int64, msgID int, text string) tgbotapi.EditMessageTextConfig {
	edit := tgbotapi.NewEditMessageText(chatID, msgID, text)
	edit.ParseMode = tgbotapi.ModeMarkdownV2
	return edit
}

// welcomeMessage builds welcome message safely for MarkdownV2.
func welcomeMessage() string {
	var sb strings.Builder

	sb.WriteString(bold("Exam Prep"))
	sb.WriteString(md(" schedules your revision with spaced repetition: cards you know come back rarely, cards you miss come back tomorrow."))
	sb.WriteString("\n\n")
	sb.WriteString(md("1. /due shows the next card. Add a paper to focus, e.g. /due GS1."))
	sb.WriteString("\n")
	sb.WriteString(md("2. Answer honestly with ✅ or ❌. Fast answers count as easier."))
	sb.WriteString("\n")
	sb.WriteString(md("3. /schedule shows what is due over the next week."))
	sb.WriteString("\n")
	sb.WriteString(md("4. /sessions shows your recent study sessions."))

	return sb.String()
}

// formatCardPrompt renders a card with its question when content is known.
func formatCardPrompt(v service.CardView) string {
	var sb strings.Builder

	sb.WriteString(bold(fmt.Sprintf("%s · %s", v.Card.Paper, v.Card.Subject)))
	sb.WriteString(" ")
	sb.WriteString(italic(string(v.Status)))
	sb.WriteString("\n\n")

	if v.Question == nil {
		sb.WriteString(md(fmt.Sprintf("Question %s", v.Card.QuestionID)))
		return sb.String()
	}

	sb.WriteString(md(v.Question.Prompt))
	for i, opt := range v.Question.Options {
		sb.WriteString("\n")
		sb.WriteString(md(fmt.Sprintf("%c) %s", 'A'+i, opt)))
	}
	if v.Question.Answer != "" {
		sb.WriteString("\n\n")
		sb.WriteString(md("Answer: "))
		sb.WriteString("||" + md(v.Question.Answer) + "||")
	}
	return sb.String()
}

// formatReviewFeedback renders the outcome of a review.
func formatReviewFeedback(res *service.ReviewResult) string {
	var sb strings.Builder

	if res.IsCorrect {
		sb.WriteString(md("✅ Correct"))
	} else {
		sb.WriteString(md("❌ Missed"))
	}
	sb.WriteString("\n\n")

	switch res.DaysUntilNext {
	case 1:
		sb.WriteString(md("Next review: tomorrow"))
	default:
		sb.WriteString(md(fmt.Sprintf("Next review: in %d days", res.DaysUntilNext)))
	}
	sb.WriteString("\n")
	sb.WriteString(md(fmt.Sprintf("Ease: %.2f · Streak: %d · Status: %s", res.Card.EaseFactor, res.Card.Repetitions, res.Status)))

	if res.Analytics.Reviews > 0 {
		sb.WriteString("\n")
		sb.WriteString(md(fmt.Sprintf("Recent accuracy: %.0f%% (%s)", res.Analytics.RecentAccuracy*100, trendLabel(res.Analytics.Trend))))
	}
	return sb.String()
}

func trendLabel(t service.Trend) string {
	switch t {
	case service.TrendImproving:
		return "improving"
	case service.TrendDeclining:
		return "declining"
	case service.TrendStable:
		return "stable"
	default:
		return "not enough reviews yet"
	}
}

// formatSchedule renders a projection as a per-day digest.
func formatSchedule(p *entities.Projection) string {
	var sb strings.Builder

	sb.WriteString(bold("📅 Upcoming reviews"))
	sb.WriteString("\n\n")

	peak := 0
	for _, d := range p.Days {
		if d.Total > peak {
			peak = d.Total
		}
	}
	for _, d := range p.Days {
		line := fmt.Sprintf("%s %s %d", d.Date.Format(dayLayout), buildLoadBar(d.Total, peak, barLength), d.Total)
		if d.Overdue > 0 {
			line += fmt.Sprintf(" (%d overdue)", d.Overdue)
		}
		sb.WriteString(md(line))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(md(fmt.Sprintf("Total: %d · Today: %d · Overdue: %d", p.Summary.TotalCards, p.Summary.DueToday, p.Summary.Overdue)))

	if subjects := topSubjects(p.Workload.BySubject, 3); subjects != "" {
		sb.WriteString("\n")
		sb.WriteString(md("Heaviest subjects: " + subjects))
	}

	for _, r := range p.Recommendations {
		sb.WriteString("\n\n")
		sb.WriteString(md("💡 " + r.Message))
	}
	return sb.String()
}

func topSubjects(bySubject map[string]int, n int) string {
	type kv struct {
		subject string
		count   int
	}
	rows := make([]kv, 0, len(bySubject))
	for s, c := range bySubject {
		if c > 0 {
			rows = append(rows, kv{s, c})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].subject < rows[j].subject
	})
	if len(rows) > n {
		rows = rows[:n]
	}

	parts := make([]string, 0, len(rows))
	for _, r := range rows {
		parts = append(parts, fmt.Sprintf("%s (%d)", r.subject, r.count))
	}
	return strings.Join(parts, ", ")
}

// formatSessions renders the session summary and the latest sessions.
func formatSessions(list *service.SessionList) string {
	var sb strings.Builder

	sb.WriteString(bold("📊 Study sessions"))
	sb.WriteString("\n\n")

	if len(list.Sessions) == 0 {
		sb.WriteString(md("No sessions yet."))
		return sb.String()
	}

	s := list.Summary
	sb.WriteString(md(fmt.Sprintf("Average score: %.1f%% · Best: %.1f%%", s.AverageScore, s.BestAccuracy)))
	sb.WriteString("\n")
	sb.WriteString(md(fmt.Sprintf("Active in the last 7 days: %d · Longest: %s", s.ActiveLast7Days, formatDuration(s.LongestSessionSeconds))))
	sb.WriteString("\n")

	for _, session := range list.Sessions {
		sb.WriteString("\n")
		line := fmt.Sprintf("%s %s: %d/%d",
			session.CreatedAt.Format(dayLayout),
			session.Type,
			session.CorrectAnswers,
			session.QuestionsReviewed,
		)
		if !session.IsCompleted() {
			line += " (open)"
		}
		sb.WriteString(md(line))
	}
	return sb.String()
}

func formatDuration(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	return fmt.Sprintf("%dm", int(math.Round(float64(seconds)/60)))
}

// buildLoadBar creates a bar scaled to the busiest day.
func buildLoadBar(current, peak, length int) string {
	if peak == 0 {
		return strings.Repeat("░", length)
	}

	filled := int(math.Ceil(float64(current) / float64(peak) * float64(length)))
	if filled > length {
		filled = length
	}

	return strings.Repeat("█", filled) + strings.Repeat("░", length-filled)
}

// errorText turns a service error into a plain message for the user.
func errorText(err error) string {
	switch apperr.CodeOf(err) {
	case apperr.CodeNotFound:
		return msgCardGone
	case apperr.CodeConflict:
		return msgBusyCard
	case apperr.CodeValidation:
		var ae *apperr.Error
		if errors.As(err, &ae) && ae.Message != "" {
			return ae.Message
		}
		return msgInternalError
	default:
		return msgInternalError
	}
}
