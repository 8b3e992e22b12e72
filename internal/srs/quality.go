package srs

import "strings"

// Quality is the 0..5 recall grade fed into the scheduler.
type Quality int

const (
	QualityBlackout  Quality = 0 // no answer given
	QualityWrong     Quality = 1 // wrong after a long think
	QualityNearMiss  Quality = 2 // wrong but answered quickly
	QualityHard      Quality = 3 // correct, slow
	QualityHesitant  Quality = 4 // correct, within the slow threshold
	QualityPerfect   Quality = 5 // correct, fast
	passingQuality           = QualityHard
	maxQuality               = QualityPerfect
	minQuality               = QualityBlackout
)

// Valid reports whether q is inside the 0..5 range.
func (q Quality) Valid() bool {
	return q >= minQuality && q <= maxQuality
}

// Passed reports whether q counts as a successful recall.
func (q Quality) Passed() bool {
	return q >= passingQuality
}

// QualityPolicy maps an answer outcome and its latency to a Quality.
type QualityPolicy struct {
	FastSeconds float64 // at or below: a correct answer is perfect
	SlowSeconds float64 // at or below: a correct answer is hesitant, a wrong one a near miss
}

// DefaultQualityPolicy returns the stock 30s / 90s thresholds.
func DefaultQualityPolicy() QualityPolicy {
	return QualityPolicy{FastSeconds: 30, SlowSeconds: 90}
}

// Derive grades an answer. A correct answer never grades below 3 and an
// incorrect one never reaches it.
func (p QualityPolicy) Derive(isCorrect bool, response string, timeTakenSeconds float64) Quality {
	if !isCorrect {
		switch {
		case strings.TrimSpace(response) == "":
			return QualityBlackout
		case timeTakenSeconds <= p.SlowSeconds:
			return QualityNearMiss
		default:
			return QualityWrong
		}
	}

	switch {
	case timeTakenSeconds <= p.FastSeconds:
		return QualityPerfect
	case timeTakenSeconds <= p.SlowSeconds:
		return QualityHesitant
	default:
		return QualityHard
	}
}
