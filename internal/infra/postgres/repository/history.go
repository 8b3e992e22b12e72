package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/aliskhannn/examprep/internal/domain/entities"
	"github.com/aliskhannn/examprep/internal/infra/postgres"
)

// HistoryRepository appends and reads review history rows.
type HistoryRepository struct {
	db postgres.DBTX
}

func NewHistoryRepository(db postgres.DBTX) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Append(ctx context.Context, h *entities.ReviewHistory) error {
	query := `
		INSERT INTO review_history (
			id, card_id, owner_id, session_id, response, is_correct, quality, time_taken_seconds,
			ease_before, ease_after, interval_before, interval_after, kind, reviewed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.Exec(
		ctx,
		query,
		h.ID,
		h.CardID,
		h.OwnerID,
		h.SessionID,
		h.Response,
		h.IsCorrect,
		h.Quality,
		h.TimeTakenSeconds,
		h.EaseBefore,
		h.EaseAfter,
		h.IntervalBefore,
		h.IntervalAfter,
		string(h.Kind),
		h.ReviewedAt,
	)
	if err != nil {
		return fmt.Errorf("append review history: %w", err)
	}
	return nil
}

// Recent returns up to limit rows for the card, newest first.
func (r *HistoryRepository) Recent(ctx context.Context, cardID uuid.UUID, limit int) ([]*entities.ReviewHistory, error) {
	query := `
		SELECT id, card_id, owner_id, session_id, response, is_correct, quality, time_taken_seconds,
		       ease_before, ease_after, interval_before, interval_after, kind, reviewed_at
		FROM review_history
		WHERE card_id = $1
		ORDER BY reviewed_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, cardID, limit)
	if err != nil {
		return nil, fmt.Errorf("query review history: %w", err)
	}
	defer rows.Close()

	out := make([]*entities.ReviewHistory, 0, limit)
	for rows.Next() {
		var (
			h    entities.ReviewHistory
			kind string
		)
		if err := rows.Scan(
			&h.ID,
			&h.CardID,
			&h.OwnerID,
			&h.SessionID,
			&h.Response,
			&h.IsCorrect,
			&h.Quality,
			&h.TimeTakenSeconds,
			&h.EaseBefore,
			&h.EaseAfter,
			&h.IntervalBefore,
			&h.IntervalAfter,
			&kind,
			&h.ReviewedAt,
		); err != nil {
			return nil, fmt.Errorf("scan review history: %w", err)
		}
		h.Kind = entities.ReviewKind(kind)
		out = append(out, &h)
	}
	return out, rows.Err()
}
