// Package embedding turns patent text into dense vectors.
package embedding

import (
	"math"
	"unicode/utf8"
)

// MaxTextLength is the maximum number of characters sent to a model per patent.
// Longer texts are truncated; MiniLM only attends to the first 256 tokens anyway.
const MaxTextLength = 2000

// Embedding represents a vector embedding of text.
type Embedding struct {
	Vector []float32 // 384 dimensions for all-minilm
}

// Dimensions returns the dimensionality of the embedding.
func (e Embedding) Dimensions() int {
	return len(e.Vector)
}

// Normalize scales v to unit L2 norm in place and returns it.
// A zero vector is returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	for i, x := range v {
		v[i] = float32(float64(x) / norm)
	}
	return v
}

// Truncate cuts text to at most MaxTextLength characters without splitting a rune.
func Truncate(text string) string {
	if utf8.RuneCountInString(text) <= MaxTextLength {
		return text
	}
	n := 0
	for i := range text {
		if n == MaxTextLength {
			return text[:i]
		}
		n++
	}
	return text
}
