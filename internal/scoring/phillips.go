package scoring

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Phillips School Anxiety Scale: 58 yes/no questions scored against two
// disjoint key sets. Answering "да" on a keysYes question or "нет" on any
// other question adds one point to the raw total.

const phillipsQuestionCount = 58

const (
	AnswerYes = "да"
	AnswerNo  = "нет"
)

// Category labels are a fixed contract; clients match on their content.
const (
	CategoryHighAnxiety     = "высокая тревожность"
	CategoryModerateAnxiety = "умеренная тревожность"
	CategoryNormal          = "норма"
)

// phillipsKeysYes holds the 1-based question numbers where "да" scores a
// point. All remaining questions score on "нет".
var phillipsKeysYes = map[int]struct{}{
	11: {}, 20: {}, 22: {}, 24: {}, 25: {}, 30: {},
	35: {}, 36: {}, 38: {}, 39: {}, 41: {}, 43: {}, 44: {},
}

func scorePhillips(raw []json.RawMessage) (*Result, error) {
	answers, err := parsePhillipsAnswers(raw)
	if err != nil {
		return nil, err
	}

	total := 0
	for n := 1; n <= phillipsQuestionCount; n++ {
		answer := answers[n-1]
		if _, yesKey := phillipsKeysYes[n]; yesKey {
			if answer == AnswerYes {
				total++
			}
		} else if answer == AnswerNo {
			total++
		}
	}

	score := round2(float64(total) / phillipsQuestionCount * 100)

	return &Result{Score: score, Category: phillipsCategory(score)}, nil
}

// phillipsCategory maps the percentage score to its label. Both bounds are
// strictly greater-than: exactly 50.00 is норма and exactly 75.00 is
// умеренная тревожность.
func phillipsCategory(score float64) string {
	switch {
	case score > 75:
		return CategoryHighAnxiety
	case score > 50:
		return CategoryModerateAnxiety
	default:
		return CategoryNormal
	}
}

func parsePhillipsAnswers(raw []json.RawMessage) ([]string, error) {
	answers := make([]string, len(raw))
	for i, r := range raw {
		var s string
		if err := json.Unmarshal(r, &s); err != nil {
			return nil, fmt.Errorf("answer %d: expected a string", i+1)
		}
		s = strings.ToLower(strings.TrimSpace(s))
		if s != AnswerYes && s != AnswerNo {
			return nil, fmt.Errorf("answer %d: expected %q or %q", i+1, AnswerYes, AnswerNo)
		}
		answers[i] = s
	}
	return answers, nil
}
