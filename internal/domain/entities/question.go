package entities

// Question is exam content a card points at. It is owned by the question bank.
type Question struct {
	ID          string   `json:"id"`
	Paper       string   `json:"paper"`
	Subject     string   `json:"subject"`
	Prompt      string   `json:"prompt"`
	Options     []string `json:"options,omitempty"` // multiple choice, may be empty
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation,omitempty"`
}

// TopicAccuracy is a learner's aggregate outcome on one subject of a paper.
type TopicAccuracy struct {
	Paper    string
	Subject  string
	Attempts int
	Correct  int
}

// Accuracy returns correct attempts as a share of all attempts.
func (t TopicAccuracy) Accuracy() float64 {
	if t.Attempts == 0 {
		return 0
	}
	return float64(t.Correct) / float64(t.Attempts)
}
