package services

import (
	"reflect"
	"testing"

	"github.com/soaringjerry/mindbridge/internal/models"
)

func answers(trait string, values ...int) []*models.Response {
	out := make([]*models.Response, 0, len(values))
	for i, v := range values {
		out = append(out, &models.Response{QuestionIndex: i, Trait: trait, Response: v})
	}
	return out
}

func TestTraitScoresBigFive(t *testing.T) {
	cases := []struct {
		name      string
		responses []*models.Response
		want      map[string]float64
	}{
		{
			name:      "mean of two",
			responses: answers(models.TraitExtraversion, 4, 2),
			want: map[string]float64{
				models.TraitOpenness: 0, models.TraitConscientiousness: 0,
				models.TraitExtraversion: 3, models.TraitAgreeableness: 0, models.TraitNeuroticism: 0,
			},
		},
		{
			name:      "rounded to two decimals",
			responses: answers(models.TraitExtraversion, 5, 4, 4),
			want: map[string]float64{
				models.TraitOpenness: 0, models.TraitConscientiousness: 0,
				models.TraitExtraversion: 4.33, models.TraitAgreeableness: 0, models.TraitNeuroticism: 0,
			},
		},
		{
			name:      "round half up",
			responses: answers(models.TraitOpenness, 5, 4, 4, 4, 4, 4, 4, 4),
			want: map[string]float64{
				models.TraitOpenness: 4.13, models.TraitConscientiousness: 0,
				models.TraitExtraversion: 0, models.TraitAgreeableness: 0, models.TraitNeuroticism: 0,
			},
		},
		{
			name: "unknown traits ignored",
			responses: append(answers("curiosity", 5, 5),
				answers(models.TraitNeuroticism, 1, 2, 2)...),
			want: map[string]float64{
				models.TraitOpenness: 0, models.TraitConscientiousness: 0,
				models.TraitExtraversion: 0, models.TraitAgreeableness: 0, models.TraitNeuroticism: 1.67,
			},
		},
		{
			name:      "no responses",
			responses: nil,
			want: map[string]float64{
				models.TraitOpenness: 0, models.TraitConscientiousness: 0,
				models.TraitExtraversion: 0, models.TraitAgreeableness: 0, models.TraitNeuroticism: 0,
			},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := TraitScores(c.responses, models.TestTypeBigFive)
			if !reflect.DeepEqual(got, c.want) {
				t.Fatalf("TraitScores = %v, want %v", got, c.want)
			}
		})
	}
}

func TestScoreUnknownTypeIsEmpty(t *testing.T) {
	for _, typ := range []string{"unknown-type", models.TestTypeMBTI, models.TestTypeEmotionalIntelligence, ""} {
		scores, code := Score(answers(models.TraitExtraversion, 5, 5, 5), typ)
		if len(scores) != 0 || code != "" {
			t.Fatalf("Score(%q) = (%v,%q), want empty", typ, scores, code)
		}
	}
}

func TestScoreBigFiveHasNoTypeCode(t *testing.T) {
	_, code := Score(answers(models.TraitExtraversion, 5), models.TestTypeBigFive)
	if code != "" {
		t.Fatalf("type code = %q, want empty", code)
	}
}

func TestScoreDeterministic(t *testing.T) {
	rs := append(answers(models.TraitAgreeableness, 3, 4, 5), answers(models.TraitOpenness, 2, 2)...)
	first, _ := Score(rs, models.TestTypeBigFive)
	for i := 0; i < 10; i++ {
		again, _ := Score(rs, models.TestTypeBigFive)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d: %v != %v", i, again, first)
		}
	}
}

func TestTypeCode(t *testing.T) {
	cases := []struct {
		name   string
		scores map[string]float64
		want   string
	}{
		{
			name: "extraversion above threshold",
			scores: map[string]float64{
				models.TraitExtraversion: 4, models.TraitOpenness: 2,
				models.TraitAgreeableness: 4, models.TraitConscientiousness: 2,
			},
			want: "ESFP",
		},
		{
			name: "introvert feeler",
			scores: map[string]float64{
				models.TraitExtraversion: 2, models.TraitOpenness: 2,
				models.TraitAgreeableness: 4, models.TraitConscientiousness: 2,
			},
			want: "ISFP",
		},
		{
			name: "all high",
			scores: map[string]float64{
				models.TraitExtraversion: 4.5, models.TraitOpenness: 3.01,
				models.TraitAgreeableness: 5, models.TraitConscientiousness: 3.5,
			},
			want: "ENFJ",
		},
		{
			name: "exactly three is low",
			scores: map[string]float64{
				models.TraitExtraversion: 3, models.TraitOpenness: 3,
				models.TraitAgreeableness: 3, models.TraitConscientiousness: 3,
			},
			want: "ISTP",
		},
		{
			name: "too few scores",
			scores: map[string]float64{
				models.TraitExtraversion: 5, models.TraitOpenness: 5, models.TraitAgreeableness: 5,
			},
			want: "",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := TypeCode(c.scores, models.TestTypeMBTI); got != c.want {
				t.Fatalf("TypeCode = %q, want %q", got, c.want)
			}
		})
	}
}

func TestTypeCodeOnlyForMBTI(t *testing.T) {
	scores := map[string]float64{
		models.TraitExtraversion: 5, models.TraitOpenness: 5,
		models.TraitAgreeableness: 5, models.TraitConscientiousness: 5,
	}
	if got := TypeCode(scores, models.TestTypeBigFive); got != "" {
		t.Fatalf("TypeCode(big-five) = %q, want empty", got)
	}
}
