package repository

import (
	"context"
	"fmt"

	"github.com/aliskhannn/examprep/internal/domain/entities"
	"github.com/aliskhannn/examprep/internal/infra/postgres"
)

// TopicProgressRepository aggregates review outcomes per owner, paper and subject.
type TopicProgressRepository struct {
	db postgres.DBTX
}

func NewTopicProgressRepository(db postgres.DBTX) *TopicProgressRepository {
	return &TopicProgressRepository{db: db}
}

// RecordOutcome counts one attempt on a topic.
func (r *TopicProgressRepository) RecordOutcome(ctx context.Context, ownerID, subject, paper string, isCorrect bool) error {
	query := `
		INSERT INTO topic_progress (owner_id, paper, subject, attempts, correct, updated_at)
		VALUES ($1, $2, $3, 1, $4, now())
		ON CONFLICT (owner_id, paper, subject)
		DO UPDATE SET
			attempts = topic_progress.attempts + 1,
			correct = topic_progress.correct + EXCLUDED.correct,
			updated_at = now()
	`

	correct := 0
	if isCorrect {
		correct = 1
	}
	if _, err := r.db.Exec(ctx, query, ownerID, paper, subject, correct); err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return nil
}

// WeakAreas returns topics with enough attempts and accuracy below
// threshold, weakest first. An empty paper matches every paper.
func (r *TopicProgressRepository) WeakAreas(ctx context.Context, ownerID, paper string, threshold float64, minAttempts int) ([]entities.TopicAccuracy, error) {
	query := `
		SELECT paper, subject, attempts, correct
		FROM topic_progress
		WHERE owner_id = $1
		  AND ($2 = '' OR paper = $2)
		  AND attempts >= $3
		  AND correct::float8 / attempts < $4
		ORDER BY correct::float8 / attempts, subject
	`

	rows, err := r.db.Query(ctx, query, ownerID, paper, minAttempts, threshold)
	if err != nil {
		return nil, fmt.Errorf("query weak areas: %w", err)
	}
	defer rows.Close()

	out := make([]entities.TopicAccuracy, 0)
	for rows.Next() {
		var t entities.TopicAccuracy
		if err := rows.Scan(&t.Paper, &t.Subject, &t.Attempts, &t.Correct); err != nil {
			return nil, fmt.Errorf("scan weak area: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
