// Package questionbank serves exam questions from a JSON file loaded at startup.
package questionbank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/aliskhannn/examprep/internal/domain/entities"
)

var ErrDuplicateQuestion = errors.New("duplicate question id")

// Bank is a read-only question bank indexed by paper and question id.
type Bank struct {
	byPaper map[string][]entities.Question
	index   map[string]map[string]int
}

// Load reads the question file at path. An empty path gives an empty bank.
func Load(path string) (*Bank, error) {
	if path == "" {
		return New(nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}

	var wrapper struct {
		Questions []entities.Question `json:"questions"`
	}
	if err = json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to unmarshal questions JSON: %w", err)
	}

	return New(wrapper.Questions)
}

// New builds a bank from questions. Questions without an id or paper are rejected.
func New(questions []entities.Question) (*Bank, error) {
	b := &Bank{
		byPaper: make(map[string][]entities.Question),
		index:   make(map[string]map[string]int),
	}
	for i, q := range questions {
		if q.ID == "" || q.Paper == "" {
			return nil, fmt.Errorf("question %d: id and paper are required", i)
		}
		if b.index[q.Paper] == nil {
			b.index[q.Paper] = make(map[string]int)
		}
		if _, ok := b.index[q.Paper][q.ID]; ok {
			return nil, fmt.Errorf("%w: %s/%s", ErrDuplicateQuestion, q.Paper, q.ID)
		}
		b.index[q.Paper][q.ID] = len(b.byPaper[q.Paper])
		b.byPaper[q.Paper] = append(b.byPaper[q.Paper], q)
	}
	return b, nil
}

// Lookup returns the known questions among ids, in the order requested.
func (b *Bank) Lookup(_ context.Context, paper string, ids []string) ([]entities.Question, error) {
	idx := b.index[paper]
	out := make([]entities.Question, 0, len(ids))
	for _, id := range ids {
		if i, ok := idx[id]; ok {
			out = append(out, b.byPaper[paper][i])
		}
	}
	return out, nil
}

// BySubjects returns up to limit questions of the paper on the given
// subjects, in file order.
func (b *Bank) BySubjects(_ context.Context, paper string, subjects []string, limit int) ([]entities.Question, error) {
	want := make(map[string]struct{}, len(subjects))
	for _, s := range subjects {
		want[s] = struct{}{}
	}

	out := make([]entities.Question, 0)
	for _, q := range b.byPaper[paper] {
		if limit > 0 && len(out) >= limit {
			break
		}
		if _, ok := want[q.Subject]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

// Len returns the number of questions in the bank.
func (b *Bank) Len() int {
	n := 0
	for _, qs := range b.byPaper {
		n += len(qs)
	}
	return n
}
