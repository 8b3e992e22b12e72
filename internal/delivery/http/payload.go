package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/aliskhannn/examprep/internal/service"
)

// reviewPayload is the loosely typed review body accepted from clients.
// toInput turns it into a service.ReviewInput or reports what is wrong.
type reviewPayload struct {
	CardID       string          `json:"card_id"`
	CardIDAlt    string          `json:"cardId"`
	IsCorrect    json.RawMessage `json:"is_correct"`
	IsCorrectAlt json.RawMessage `json:"isCorrect"`
	Response     json.RawMessage `json:"response"`
	TimeTaken    json.RawMessage `json:"time_taken"`
	TimeTakenMS  json.RawMessage `json:"time_taken_ms"`
	SessionID    string          `json:"session_id"`
}

type batchPayload struct {
	SessionID string            `json:"session_id"`
	Reviews   []json.RawMessage `json:"reviews"`
}

func (p reviewPayload) toInput() (service.ReviewInput, error) {
	var in service.ReviewInput

	rawID := firstNonEmpty(p.CardID, p.CardIDAlt)
	if rawID == "" {
		return in, errors.New("card_id is required")
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return in, fmt.Errorf("card_id: %w", err)
	}
	in.CardID = id

	rawCorrect := p.IsCorrect
	if isAbsent(rawCorrect) {
		rawCorrect = p.IsCorrectAlt
	}
	if in.IsCorrect, err = coerceBool(rawCorrect); err != nil {
		return in, fmt.Errorf("is_correct: %w", err)
	}

	if in.Response, err = coerceText(p.Response); err != nil {
		return in, fmt.Errorf("response: %w", err)
	}

	switch {
	case !isAbsent(p.TimeTaken):
		if in.TimeTakenSeconds, err = coerceNumber(p.TimeTaken); err != nil {
			return in, fmt.Errorf("time_taken: %w", err)
		}
	case !isAbsent(p.TimeTakenMS):
		ms, err := coerceNumber(p.TimeTakenMS)
		if err != nil {
			return in, fmt.Errorf("time_taken_ms: %w", err)
		}
		in.TimeTakenSeconds = ms / 1000
	}

	if p.SessionID != "" {
		sid, err := uuid.Parse(p.SessionID)
		if err != nil {
			return in, fmt.Errorf("session_id: %w", err)
		}
		in.SessionID = &sid
	}

	return in, nil
}

func decodeReview(raw []byte) (service.ReviewInput, error) {
	var p reviewPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return service.ReviewInput{}, fmt.Errorf("malformed review: %w", err)
	}
	return p.toInput()
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// coerceBool accepts true/false, "true"/"false" (any case, also "1"/"0")
// and the numbers 0 and 1.
func coerceBool(raw json.RawMessage) (bool, error) {
	if isAbsent(raw) {
		return false, errors.New("is required")
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false, err
	}
	switch t := v.(type) {
	case bool:
		return t, nil
	case float64:
		switch t {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err == nil {
			return b, nil
		}
	}
	return false, fmt.Errorf("cannot interpret %s as a boolean", string(raw))
}

// coerceNumber accepts a JSON number or a numeric string.
func coerceNumber(raw json.RawMessage) (float64, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, err
	}
	switch t := v.(type) {
	case float64:
		return t, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err == nil {
			return f, nil
		}
	}
	return 0, fmt.Errorf("cannot interpret %s as a number", string(raw))
}

// coerceText accepts a string, a number or a boolean, the last two
// rendered as they were sent.
func coerceText(raw json.RawMessage) (string, error) {
	if isAbsent(raw) {
		return "", nil
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case float64, bool:
		return string(bytes.TrimSpace(raw)), nil
	}
	return "", errors.New("must be text")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
