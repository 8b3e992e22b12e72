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

const sessionColumns = `
	id, owner_id, session_type, paper, questions_reviewed, correct_answers,
	duration_seconds, cards_graduated, cards_failed, created_at, completed_at`

// SessionRepository provides access to review sessions in the database.
type SessionRepository struct {
	db postgres.DBTX
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db postgres.DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, s *entities.Session) error {
	query := `INSERT INTO review_sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.Exec(
		ctx,
		query,
		s.ID,
		s.OwnerID,
		string(s.Type),
		s.Paper,
		s.QuestionsReviewed,
		s.CorrectAnswers,
		s.DurationSeconds,
		s.CardsGraduated,
		s.CardsFailed,
		s.CreatedAt,
		s.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, ownerID string, id uuid.UUID) (*entities.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM review_sessions WHERE id = $1 AND owner_id = $2`

	s, err := scanSession(r.db.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repoerr.ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return s, nil
}

// Update overwrites the running totals and the completion time.
func (r *SessionRepository) Update(ctx context.Context, s *entities.Session) error {
	query := `
		UPDATE review_sessions
		SET questions_reviewed = $3,
		    correct_answers = $4,
		    duration_seconds = $5,
		    cards_graduated = $6,
		    cards_failed = $7,
		    completed_at = $8
		WHERE id = $1 AND owner_id = $2
	`

	tag, err := r.db.Exec(
		ctx,
		query,
		s.ID,
		s.OwnerID,
		s.QuestionsReviewed,
		s.CorrectAnswers,
		s.DurationSeconds,
		s.CardsGraduated,
		s.CardsFailed,
		s.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repoerr.ErrSessionNotFound
	}
	return nil
}

// Accumulate adds d to the running totals in a single statement.
func (r *SessionRepository) Accumulate(ctx context.Context, ownerID string, id uuid.UUID, d entities.SessionDelta) (*entities.Session, error) {
	query := `
		UPDATE review_sessions
		SET questions_reviewed = questions_reviewed + $3,
		    correct_answers = correct_answers + $4,
		    duration_seconds = duration_seconds + $5,
		    cards_graduated = cards_graduated + $6,
		    cards_failed = cards_failed + $7
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + sessionColumns

	s, err := scanSession(r.db.QueryRow(
		ctx,
		query,
		id,
		ownerID,
		d.QuestionsReviewed,
		d.CorrectAnswers,
		d.DurationSeconds,
		d.CardsGraduated,
		d.CardsFailed,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repoerr.ErrSessionNotFound
		}
		return nil, fmt.Errorf("accumulate session: %w", err)
	}
	return s, nil
}

// Query returns the owner's sessions, newest first.
func (r *SessionRepository) Query(ctx context.Context, ownerID string, f entities.SessionFilter) ([]*entities.Session, error) {
	query, args := sessionQuery(ownerID, f)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	out := make([]*entities.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

func (r *SessionRepository) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM review_sessions WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repoerr.ErrSessionNotFound
	}
	return nil
}

func scanSession(row pgx.Row) (*entities.Session, error) {
	var (
		s           entities.Session
		sessionType string
	)
	err := row.Scan(
		&s.ID,
		&s.OwnerID,
		&sessionType,
		&s.Paper,
		&s.QuestionsReviewed,
		&s.CorrectAnswers,
		&s.DurationSeconds,
		&s.CardsGraduated,
		&s.CardsFailed,
		&s.CreatedAt,
		&s.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Type = entities.SessionType(sessionType)
	return &s, nil
}

func sessionQuery(ownerID string, f entities.SessionFilter) (string, []any) {
	where := []string{"owner_id = $1"}
	args := []any{ownerID}

	if f.Paper != "" {
		args = append(args, f.Paper)
		where = append(where, fmt.Sprintf("paper = $%d", len(args)))
	}
	if f.Type != "" {
		args = append(args, string(f.Type))
		where = append(where, fmt.Sprintf("session_type = $%d", len(args)))
	}

	query := `SELECT ` + sessionColumns + ` FROM review_sessions WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at DESC, id`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return query, args
}
