package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aliskhannn/examprep/internal/domain/entities"
	repoerr "github.com/aliskhannn/examprep/internal/repository"
)

// fakeDB records the statements it receives. QueryRow answers the
// existence check with exists.
type fakeDB struct {
	tag     pgconn.CommandTag
	execErr error
	exists  bool

	sql  []string
	args [][]any
}

func (f *fakeDB) record(sql string, args []any) {
	f.sql = append(f.sql, sql)
	f.args = append(f.args, args)
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.record(sql, args)
	return f.tag, f.execErr
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.record(sql, args)
	return nil, errors.New("connection refused")
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.record(sql, args)
	return boolRow(f.exists)
}

type boolRow bool

func (r boolRow) Scan(dest ...any) error {
	*dest[0].(*bool) = bool(r)
	return nil
}

func whereOf(t *testing.T, query string) string {
	t.Helper()

	_, rest, ok := strings.Cut(query, " WHERE ")
	require.True(t, ok, query)
	where, _, ok := strings.Cut(rest, " ORDER BY ")
	require.True(t, ok, query)
	return where
}

func TestCardQuery(t *testing.T) {
	t.Parallel()

	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	end := today.AddDate(0, 0, 6)
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	tests := []struct {
		name      string
		filter    entities.CardFilter
		wantWhere string
		wantArgs  []any
		wantLimit string
	}{
		{
			name:      "owner only",
			wantWhere: "owner_id = $1",
			wantArgs:  []any{"o"},
		},
		{
			name:      "paper and subject",
			filter:    entities.CardFilter{Paper: "GS1", Subject: "History"},
			wantWhere: "owner_id = $1 AND paper = $2 AND subject = $3",
			wantArgs:  []any{"o", "GS1", "History"},
		},
		{
			name:      "ids and due bound",
			filter:    entities.CardFilter{IDs: ids, DueOnOrBefore: &end},
			wantWhere: "owner_id = $1 AND id = ANY($2) AND next_review_date <= $3",
			wantArgs:  []any{"o", ids, end},
		},
		{
			name:      "overdue with limit",
			filter:    entities.CardFilter{Subject: "Polity", DueState: entities.DueOverdue, Today: today, Limit: 5},
			wantWhere: "owner_id = $1 AND subject = $2 AND next_review_date < $3",
			wantArgs:  []any{"o", "Polity", today, 5},
			wantLimit: " LIMIT $4",
		},
		{
			name:      "due now",
			filter:    entities.CardFilter{DueState: entities.DueNow, Today: today},
			wantWhere: "owner_id = $1 AND next_review_date <= $2",
			wantArgs:  []any{"o", today},
		},
		{
			name:      "new cards take no argument",
			filter:    entities.CardFilter{Paper: "GS2", DueState: entities.DueNew, Limit: 10},
			wantWhere: "owner_id = $1 AND paper = $2 AND total_reviews = 0",
			wantArgs:  []any{"o", "GS2", 10},
			wantLimit: " LIMIT $3",
		},
		{
			name:      "learning",
			filter:    entities.CardFilter{DueState: entities.DueLearning},
			wantWhere: "owner_id = $1 AND total_reviews > 0 AND repetitions < $2",
			wantArgs:  []any{"o", entities.MinRepetitionsForMature},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			query, args := cardQuery("o", tt.filter)
			assert.Equal(t, tt.wantWhere, whereOf(t, query))
			assert.Equal(t, tt.wantArgs, args)
			assert.True(t, strings.HasSuffix(query, "ORDER BY next_review_date, created_at, id"+tt.wantLimit), query)
		})
	}
}

func TestSessionQuery(t *testing.T) {
	t.Parallel()

	query, args := sessionQuery("o", entities.SessionFilter{Type: entities.SessionQuiz, Limit: 10})
	assert.Equal(t, "owner_id = $1 AND session_type = $2", whereOf(t, query))
	assert.Equal(t, []any{"o", "quiz", 10}, args)
	assert.True(t, strings.HasSuffix(query, " LIMIT $3"), query)

	query, args = sessionQuery("o", entities.SessionFilter{Paper: "GS1"})
	assert.Equal(t, "owner_id = $1 AND paper = $2", whereOf(t, query))
	assert.Equal(t, []any{"o", "GS1"}, args)
	assert.NotContains(t, query, "LIMIT")
}

func TestCardRepository_QueryPassesBuiltStatement(t *testing.T) {
	t.Parallel()

	db := &fakeDB{}
	repo := NewCardRepository(db, nil)

	_, err := repo.Query(context.Background(), "o", entities.CardFilter{Paper: "GS1", Limit: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query cards")

	wantSQL, wantArgs := cardQuery("o", entities.CardFilter{Paper: "GS1", Limit: 3})
	require.Len(t, db.sql, 1)
	assert.Equal(t, wantSQL, db.sql[0])
	assert.Equal(t, wantArgs, db.args[0])
}

func TestCardRepository_Save(t *testing.T) {
	t.Parallel()

	newCard := func() *entities.Card {
		c := entities.NewCard("o", "h1", "GS1", "History", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
		c.Version = 4
		return c
	}

	t.Run("saved", func(t *testing.T) {
		t.Parallel()

		db := &fakeDB{tag: pgconn.NewCommandTag("UPDATE 1")}
		card := newCard()

		require.NoError(t, NewCardRepository(db, nil).Save(context.Background(), card))
		assert.Equal(t, int64(5), card.Version)
		require.Len(t, db.sql, 1)
		assert.Contains(t, db.sql[0], "AND version = $3")
		assert.Equal(t, int64(4), db.args[0][2])
	})

	t.Run("stale version", func(t *testing.T) {
		t.Parallel()

		db := &fakeDB{tag: pgconn.NewCommandTag("UPDATE 0"), exists: true}
		card := newCard()

		err := NewCardRepository(db, nil).Save(context.Background(), card)
		assert.ErrorIs(t, err, repoerr.ErrCardVersionConflict)
		assert.Equal(t, int64(4), card.Version)
		require.Len(t, db.sql, 2)
		assert.Contains(t, db.sql[1], "SELECT EXISTS")
	})

	t.Run("missing card", func(t *testing.T) {
		t.Parallel()

		db := &fakeDB{tag: pgconn.NewCommandTag("UPDATE 0")}
		err := NewCardRepository(db, nil).Save(context.Background(), newCard())
		assert.ErrorIs(t, err, repoerr.ErrCardNotFound)
	})

	t.Run("exec failure", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("connection reset")
		db := &fakeDB{execErr: cause}
		err := NewCardRepository(db, nil).Save(context.Background(), newCard())
		assert.ErrorIs(t, err, cause)
		assert.NotErrorIs(t, err, repoerr.ErrCardVersionConflict)
		require.Len(t, db.sql, 1)
	})
}
