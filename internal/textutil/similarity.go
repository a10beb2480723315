package textutil

import (
	"math"
	"strings"
)

// termVector counts folded tokens. Short names such as "U2" or "AC DC"
// matter, so no minimum token length applies.
type termVector map[string]float64

func newTermVector(text string) termVector {
	tokens := strings.Fields(Fold(text))
	if len(tokens) == 0 {
		return nil
	}
	vec := make(termVector, len(tokens))
	for _, token := range tokens {
		vec[token]++
	}
	return vec
}

func (v termVector) norm() float64 {
	var sum float64
	for _, n := range v {
		sum += n * n
	}
	return math.Sqrt(sum)
}

// cosine returns the cosine of the angle between a and b, or 0 when either
// is empty.
func cosine(a, b termVector) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for token, n := range a {
		dot += n * b[token]
	}
	if dot == 0 {
		return 0
	}
	return dot / (a.norm() * b.norm())
}

// Similarity scores two names in [0, 1] by the cosine of their folded
// token counts. Case, accents and punctuation do not affect the score.
func Similarity(a, b string) float64 {
	return cosine(newTermVector(a), newTermVector(b))
}
