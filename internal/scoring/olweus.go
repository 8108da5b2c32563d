package scoring

import (
	"encoding/json"
	"fmt"
	"math"
)

// Olweus Bullying Inventory: 13 questions rated 0-4, grouped into four
// sub-scales. The dominant (maximum) sub-scale mean drives the category;
// the full breakdown is kept for detail views.

const olweusQuestionCount = 13

const (
	CategoryStrong   = "ярко выражен"
	CategoryModerate = "умеренно выражен"
	CategoryWeak     = "слабо выражен"
)

const (
	ScaleDirectBullying   = "directBullying"
	ScaleIndirectBullying = "indirectBullying"
	ScaleDirectVictim     = "directVictim"
	ScaleIndirectVictim   = "indirectVictim"
)

// olweusScales lists the 1-based question numbers per sub-scale.
var olweusScales = map[string][]int{
	ScaleDirectBullying:   {1, 3, 5, 6},
	ScaleIndirectBullying: {2, 4},
	ScaleDirectVictim:     {7, 10, 11, 13},
	ScaleIndirectVictim:   {8, 9, 12},
}

func scoreOlweus(raw []json.RawMessage) (*Result, error) {
	answers, err := parseOlweusAnswers(raw)
	if err != nil {
		return nil, err
	}

	breakdown := make(map[string]float64, len(olweusScales))
	maxScore := math.Inf(-1)
	for name, indices := range olweusScales {
		sum := 0
		for _, n := range indices {
			sum += answers[n-1]
		}
		mean := round2(float64(sum) / float64(len(indices)))
		breakdown[name] = mean
		if mean > maxScore {
			maxScore = mean
		}
	}

	return &Result{Score: maxScore, Category: olweusCategory(maxScore), Breakdown: breakdown}, nil
}

func olweusCategory(score float64) string {
	switch {
	case score >= 3:
		return CategoryStrong
	case score >= 1:
		return CategoryModerate
	default:
		return CategoryWeak
	}
}

func parseOlweusAnswers(raw []json.RawMessage) ([]int, error) {
	answers := make([]int, len(raw))
	for i, r := range raw {
		var v int
		if err := json.Unmarshal(r, &v); err != nil {
			return nil, fmt.Errorf("answer %d: expected an integer", i+1)
		}
		answers[i] = v
	}
	return answers, nil
}
