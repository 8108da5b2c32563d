package scoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// TestType identifies a supported questionnaire.
type TestType string

const (
	TypePhillips TestType = "PHILLIPS"
	TypeOlweus   TestType = "OLWEUS"
)

// ErrUnsupportedType is returned when no scheme exists for the requested type.
var ErrUnsupportedType = errors.New("test type not supported")

// Result is the outcome of scoring one submission. Breakdown carries the
// Olweus sub-scale means and is nil for Phillips.
type Result struct {
	Score     float64            `json:"score"`
	Category  string             `json:"category"`
	Breakdown map[string]float64 `json:"breakdown,omitempty"`
}

// scheme couples the fixed question count with the scorer for one test type.
// Scorers assume a fully populated answer slice of the right length; shape
// checks happen in Validate before any scorer runs.
type scheme struct {
	questions int
	score     func(answers []json.RawMessage) (*Result, error)
}

var schemes = map[TestType]scheme{
	TypePhillips: {questions: phillipsQuestionCount, score: scorePhillips},
	TypeOlweus:   {questions: olweusQuestionCount, score: scoreOlweus},
}

// Supported reports whether a scoring scheme exists for the type.
func Supported(t TestType) bool {
	_, ok := schemes[t]
	return ok
}

// QuestionCount returns the fixed number of questions for the type.
func QuestionCount(t TestType) (int, bool) {
	s, ok := schemes[t]
	return s.questions, ok
}

// Validate checks the answer slice shape for the given type: presence, exact
// length and no null entries. Per-question encoding is checked by the scorer
// when it decodes each answer.
func Validate(t TestType, answers []json.RawMessage) error {
	s, ok := schemes[t]
	if !ok {
		return ErrUnsupportedType
	}
	if answers == nil {
		return fmt.Errorf("answers are required")
	}
	if len(answers) != s.questions {
		return fmt.Errorf("expected %d answers, got %d", s.questions, len(answers))
	}
	for i, raw := range answers {
		if isNull(raw) {
			return fmt.Errorf("answer %d is missing", i+1)
		}
	}
	return nil
}

// Evaluate validates and scores a submission in one step. It is the only
// entry point callers should use; it guarantees scorers never see a
// malformed answer slice.
func Evaluate(t TestType, answers []json.RawMessage) (*Result, error) {
	s, ok := schemes[t]
	if !ok {
		return nil, ErrUnsupportedType
	}
	if err := Validate(t, answers); err != nil {
		return nil, err
	}
	return s.score(answers)
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
