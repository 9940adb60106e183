// Package scorer provides similarity scorers mapping a submitted guess and
// the true prompt to an integer score in [0, 100].
package scorer

import (
	"context"
	"strings"
)

// Lexical scores by word overlap (Sørensen–Dice over the two word sets).
// It needs no external service and backs deployments without an OpenAI key.
type Lexical struct{}

func NewLexical() *Lexical {
	return &Lexical{}
}

func (l *Lexical) Score(_ context.Context, submitted, truth string) (int, error) {
	a := tokenize(submitted)
	b := tokenize(truth)
	if len(a) == 0 || len(b) == 0 {
		return 0, nil
	}
	if normalize(submitted) == normalize(truth) {
		return 100, nil
	}
	setA := toSet(a)
	setB := toSet(b)
	shared := 0
	for word := range setA {
		if _, ok := setB[word]; ok {
			shared++
		}
	}
	dice := 2 * float64(shared) / float64(len(setA)+len(setB))
	score := int(dice*100 + 0.5)
	// A non-identical guess never earns the winning score.
	if score >= 100 {
		score = 99
	}
	return score, nil
}

func normalize(text string) string {
	return strings.Join(tokenize(text), " ")
}

func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(strings.TrimSpace(text)))
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
