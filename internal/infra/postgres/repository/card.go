package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/examprep/internal/domain/entities"
	"github.com/aliskhannn/examprep/internal/infra/postgres"
	repoerr "github.com/aliskhannn/examprep/internal/repository"
)

const cardColumns = `
	id, owner_id, question_id, paper, subject,
	ease_factor, interval_days, repetitions, next_review_date, last_reviewed_at,
	total_reviews, correct_reviews, difficulty_rating, version, created_at, updated_at`

// CardRepository provides access to review cards in the database.
type CardRepository struct {
	db postgres.DBTX
	tx *postgres.Transactor
}

// NewCardRepository creates a CardRepository. Bulk inserts run inside tx.
func NewCardRepository(db postgres.DBTX, tx *postgres.Transactor) *CardRepository {
	return &CardRepository{db: db, tx: tx}
}

func (r *CardRepository) Get(ctx context.Context, ownerID string, id uuid.UUID) (*entities.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM review_cards WHERE id = $1 AND owner_id = $2`

	card, err := scanCard(r.db.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repoerr.ErrCardNotFound
		}
		return nil, fmt.Errorf("get card: %w", err)
	}
	return card, nil
}

// Query returns the owner's cards matching f, ordered by next review date.
func (r *CardRepository) Query(ctx context.Context, ownerID string, f entities.CardFilter) ([]*entities.Card, error) {
	query, args := cardQuery(ownerID, f)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	defer rows.Close()

	cards := make([]*entities.Card, 0)
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}
	return cards, nil
}

// cardQuery builds the SELECT for f with positional arguments.
func cardQuery(ownerID string, f entities.CardFilter) (string, []any) {
	where := []string{"owner_id = $1"}
	args := []any{ownerID}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Paper != "" {
		where = append(where, "paper = "+arg(f.Paper))
	}
	if f.Subject != "" {
		where = append(where, "subject = "+arg(f.Subject))
	}
	if len(f.IDs) > 0 {
		where = append(where, "id = ANY("+arg(f.IDs)+")")
	}
	if f.DueOnOrBefore != nil {
		where = append(where, "next_review_date <= "+arg(*f.DueOnOrBefore))
	}
	switch f.DueState {
	case entities.DueNow:
		where = append(where, "next_review_date <= "+arg(f.Today))
	case entities.DueOverdue:
		where = append(where, "next_review_date < "+arg(f.Today))
	case entities.DueNew:
		where = append(where, "total_reviews = 0")
	case entities.DueLearning:
		where = append(where, "total_reviews > 0", "repetitions < "+arg(entities.MinRepetitionsForMature))
	}

	query := `SELECT ` + cardColumns + ` FROM review_cards WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY next_review_date, created_at, id`
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}
	return query, args
}

// Insert adds the cards that do not exist yet and returns them.
func (r *CardRepository) Insert(ctx context.Context, cards []*entities.Card) ([]*entities.Card, error) {
	query := `
		INSERT INTO review_cards (
			id, owner_id, question_id, paper, subject,
			ease_factor, interval_days, repetitions, next_review_date,
			total_reviews, correct_reviews, difficulty_rating, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 1, $13, $13)
		ON CONFLICT (owner_id, question_id, paper) DO NOTHING
		RETURNING version, created_at
	`

	created := make([]*entities.Card, 0, len(cards))
	err := r.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		for _, c := range cards {
			out := c.Clone()
			if out.ID == uuid.Nil {
				out.ID = uuid.New()
			}

			err := tx.QueryRow(
				ctx,
				query,
				out.ID,
				out.OwnerID,
				out.QuestionID,
				out.Paper,
				out.Subject,
				out.EaseFactor,
				out.IntervalDays,
				out.Repetitions,
				out.NextReviewDate,
				out.TotalReviews,
				out.CorrectReviews,
				out.DifficultyRating,
				out.CreatedAt,
			).Scan(&out.Version, &out.CreatedAt)
			if errors.Is(err, pgx.ErrNoRows) {
				continue // already exists
			}
			if err != nil {
				return fmt.Errorf("insert card %s: %w", out.QuestionID, err)
			}
			out.UpdatedAt = out.CreatedAt
			created = append(created, out)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Save writes the card when the stored version still equals card.Version.
func (r *CardRepository) Save(ctx context.Context, card *entities.Card) error {
	query := `
		UPDATE review_cards
		SET ease_factor = $4,
		    interval_days = $5,
		    repetitions = $6,
		    next_review_date = $7,
		    last_reviewed_at = $8,
		    total_reviews = $9,
		    correct_reviews = $10,
		    difficulty_rating = $11,
		    updated_at = $12,
		    version = version + 1
		WHERE id = $1 AND owner_id = $2 AND version = $3
	`

	tag, err := r.db.Exec(
		ctx,
		query,
		card.ID,
		card.OwnerID,
		card.Version,
		card.EaseFactor,
		card.IntervalDays,
		card.Repetitions,
		card.NextReviewDate,
		card.LastReviewedAt,
		card.TotalReviews,
		card.CorrectReviews,
		card.DifficultyRating,
		card.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save card: %w", err)
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		err := r.db.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM review_cards WHERE id = $1 AND owner_id = $2)`,
			card.ID, card.OwnerID,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check card: %w", err)
		}
		if !exists {
			return repoerr.ErrCardNotFound
		}
		return repoerr.ErrCardVersionConflict
	}

	card.Version++
	return nil
}

// Delete removes the owner's cards; their history goes with them.
func (r *CardRepository) Delete(ctx context.Context, ownerID string, ids []uuid.UUID) (int, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM review_cards WHERE owner_id = $1 AND id = ANY($2)`, ownerID, ids)
	if err != nil {
		return 0, fmt.Errorf("delete cards: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanCard(row pgx.Row) (*entities.Card, error) {
	var (
		c          entities.Card
		difficulty *int16
	)
	err := row.Scan(
		&c.ID,
		&c.OwnerID,
		&c.QuestionID,
		&c.Paper,
		&c.Subject,
		&c.EaseFactor,
		&c.IntervalDays,
		&c.Repetitions,
		&c.NextReviewDate,
		&c.LastReviewedAt,
		&c.TotalReviews,
		&c.CorrectReviews,
		&difficulty,
		&c.Version,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if difficulty != nil {
		d := int(*difficulty)
		c.DifficultyRating = &d
	}
	c.NextReviewDate = c.NextReviewDate.UTC()
	return &c, nil
}
