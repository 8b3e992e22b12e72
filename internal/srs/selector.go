package srs

import (
	"sort"
	"time"

	"github.com/aliskhannn/examprep/internal/domain/entities"
	"github.com/google/uuid"
)

type tier int

const (
	tierOverdue tier = iota
	tierDueToday
	tierLearning
	tierNew
	tierRest
	tierCount
)

// classify puts a card into exactly one selection tier.
func classify(card *entities.Card, today time.Time) tier {
	next := Today(card.NextReviewDate)
	switch {
	case card.TotalReviews == 0:
		return tierNew
	case next.Before(today):
		return tierOverdue
	case next.Equal(today):
		return tierDueToday
	case card.Repetitions < entities.MinRepetitionsForMature:
		return tierLearning
	default:
		return tierRest
	}
}

// Select picks up to limit cards for a review session in priority order:
// overdue (most days overdue first, then lowest ease), due today, learning,
// new, and finally mature or review cards. Input order is kept inside a tier.
func Select(cards []*entities.Card, limit int, today time.Time) []*entities.Card {
	if limit <= 0 || len(cards) == 0 {
		return []*entities.Card{}
	}
	today = Today(today)

	var tiers [tierCount][]*entities.Card
	for _, c := range uniqueKeepOrder(cards) {
		t := classify(c, today)
		tiers[t] = append(tiers[t], c)
	}

	overdue := tiers[tierOverdue]
	sort.SliceStable(overdue, func(i, j int) bool {
		di, dj := DaysOverdue(overdue[i], today), DaysOverdue(overdue[j], today)
		if di != dj {
			return di > dj
		}
		return overdue[i].EaseFactor < overdue[j].EaseFactor
	})

	out := make([]*entities.Card, 0, min(limit, len(cards)))
	for _, bucket := range tiers {
		var remaining int
		out, remaining = appendAndRemaining(out, bucket, limit)
		if remaining == 0 {
			break
		}
	}
	return out
}

// uniqueKeepOrder drops cards whose ID was already seen, keeping the first.
func uniqueKeepOrder(cards []*entities.Card) []*entities.Card {
	seen := make(map[uuid.UUID]struct{}, len(cards))
	out := make([]*entities.Card, 0, len(cards))
	for _, c := range cards {
		if c == nil {
			continue
		}
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}

// appendAndRemaining appends as much of add as fits under total and returns
// the remaining capacity.
func appendAndRemaining(out, add []*entities.Card, total int) ([]*entities.Card, int) {
	room := total - len(out)
	if room <= 0 {
		return out, 0
	}
	if len(add) > room {
		add = add[:room]
	}
	out = append(out, add...)
	return out, total - len(out)
}
