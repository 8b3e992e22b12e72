package telegram

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Callback action constants.
const (
	actionReview   = "review"
	actionDue      = "due"
	actionSchedule = "schedule"
)

// Review answers.
const (
	answerCorrect = "1"
	answerWrong   = "0"
)

var errBadCallback = errors.New("malformed callback data")

// callbackData represents structured callback data.
type callbackData struct {
	Action string
	Params []string
	Raw    string
}

// encode creates callback string.
func (cd callbackData) encode() string {
	if len(cd.Params) == 0 {
		return cd.Action
	}
	return cd.Action + ":" + strings.Join(cd.Params, ":")
}

// decodeCallback parses callback data string.
func decodeCallback(data string) callbackData {
	parts := strings.Split(data, ":")
	return callbackData{
		Action: parts[0],
		Params: parts[1:],
		Raw:    data,
	}
}

// buildReviewCallback builds callback data for answering a card.
func buildReviewCallback(cardID uuid.UUID, correct bool) string {
	answer := answerWrong
	if correct {
		answer = answerCorrect
	}
	return callbackData{
		Action: actionReview,
		Params: []string{cardID.String(), answer},
	}.encode()
}

// parseReviewCallback extracts the card and the answer of a review callback.
func parseReviewCallback(cd callbackData) (uuid.UUID, bool, error) {
	if cd.Action != actionReview || len(cd.Params) != 2 {
		return uuid.Nil, false, errBadCallback
	}
	id, err := uuid.Parse(cd.Params[0])
	if err != nil {
		return uuid.Nil, false, errBadCallback
	}
	switch cd.Params[1] {
	case answerCorrect:
		return id, true, nil
	case answerWrong:
		return id, false, nil
	default:
		return uuid.Nil, false, errBadCallback
	}
}

func buildDueCallback() string {
	return actionDue
}

func buildScheduleCallback() string {
	return actionSchedule
}
