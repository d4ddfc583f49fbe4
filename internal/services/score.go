package services

import (
	"math"

	"github.com/soaringjerry/mindbridge/internal/models"
)

// Likert bounds for a single answer.
const (
	MinResponse = 1
	MaxResponse = 5
)

// typeThreshold splits each letter pair; a score must exceed it to take the high letter.
const typeThreshold = 3.0

// Score turns a session's answers into trait scores and an optional type code.
// It is pure: the same responses always yield the same output.
func Score(responses []*models.Response, testType string) (map[string]float64, string) {
	scores := TraitScores(responses, testType)
	return scores, TypeCode(scores, testType)
}

// TraitScores averages answers per Big Five trait, rounded to two decimals.
// Empty buckets score 0. Test types other than big-five have no scoring
// rules yet and produce an empty map.
func TraitScores(responses []*models.Response, testType string) map[string]float64 {
	scores := map[string]float64{}
	if testType != models.TestTypeBigFive {
		return scores
	}
	sums := make(map[string]int, len(models.BigFiveTraits))
	counts := make(map[string]int, len(models.BigFiveTraits))
	for _, r := range responses {
		if r == nil {
			continue
		}
		sums[r.Trait] += r.Response
		counts[r.Trait]++
	}
	for _, trait := range models.BigFiveTraits {
		if counts[trait] == 0 {
			scores[trait] = 0
			continue
		}
		scores[trait] = round2(float64(sums[trait]) / float64(counts[trait]))
	}
	return scores
}

// TypeCode derives a four-letter code for mbti tests from Big Five shaped
// scores. A score of exactly 3 takes the low letter (I, S, T, P).
func TypeCode(scores map[string]float64, testType string) string {
	if testType != models.TestTypeMBTI || len(scores) < 4 {
		return ""
	}
	return pick(scores[models.TraitExtraversion], 'E', 'I') +
		pick(scores[models.TraitOpenness], 'N', 'S') +
		pick(scores[models.TraitAgreeableness], 'F', 'T') +
		pick(scores[models.TraitConscientiousness], 'J', 'P')
}

func pick(score float64, high, low byte) string {
	if score > typeThreshold {
		return string(high)
	}
	return string(low)
}

// round2 rounds half away from zero at two decimals; scores are never negative.
func round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
