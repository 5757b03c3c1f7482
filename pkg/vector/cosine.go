package vector

import "math"

// Cosine returns the cosine similarity dot(a,b) / (|a| * |b|).
// It returns 0 when either vector has zero magnitude or the two vectors
// differ in dimensionality; it never panics on malformed input.
func Cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// ClampScore clips a similarity score to [0,1]. Backends that report cosine
// similarity can return values slightly outside the range (or negative for
// opposed vectors); callers always see a score in [0,1].
func ClampScore(score float32) float32 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
