package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")

	tests := []struct {
		name string
		err  error
		want Code
	}{
		{name: "nil", err: nil, want: ""},
		{name: "plain error", err: cause, want: CodeInternal},
		{name: "validation", err: Validation("review", "card_id is required"), want: CodeValidation},
		{name: "wrapped not found", err: fmt.Errorf("load: %w", NotFound("review", "card not found")), want: CodeNotFound},
		{name: "store", err: Store("save card", cause), want: CodeStore},
		{name: "partial batch", err: PartialBatch("batch", 1, 3), want: CodePartialBatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	err := Store("save card", cause)

	assert.Equal(t, "save card: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "batch: 2 of 5 items failed", PartialBatch("batch", 2, 5).Error())
	assert.True(t, Is(fmt.Errorf("wrap: %w", Conflict("review", cause)), CodeConflict))
}

func TestBatchFailed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		codes []Code
		want  Code
	}{
		{name: "all not found", codes: []Code{CodeNotFound, CodeNotFound}, want: CodeNotFound},
		{name: "all store", codes: []Code{CodeStore}, want: CodeStore},
		{name: "mixed", codes: []Code{CodeValidation, CodeNotFound, CodeValidation}, want: CodeBatchFailed},
		{name: "empty", codes: nil, want: CodeBatchFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := BatchFailed("batch", tt.codes)
			assert.Equal(t, tt.want, err.Code)
			assert.Equal(t, fmt.Sprintf("batch: all %d items failed", len(tt.codes)), err.Error())
		})
	}
}
