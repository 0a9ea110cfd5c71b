// Package vector provides the small embedding-vector operations the semantic
// detectors need. Embeddings arrive pre-computed from the NLP service; this
// package only compares and averages them.
package vector

import "math"

// Cosine returns the cosine similarity of a and b in [-1,1]. Mismatched
// dimensions, empty vectors, or a zero-magnitude vector yield 0 rather than an
// error: a degenerate embedding means "no semantic evidence", not a fault.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
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
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Centroid returns the element-wise mean of the given vectors. Vectors whose
// dimension disagrees with the first one are skipped. Returns nil when no
// usable vector exists.
func Centroid(vecs [][]float32) []float32 {
	var dim int
	for _, v := range vecs {
		if len(v) > 0 {
			dim = len(v)
			break
		}
	}
	if dim == 0 {
		return nil
	}

	sum := make([]float64, dim)
	count := 0
	for _, v := range vecs {
		if len(v) != dim {
			continue
		}
		for i, x := range v {
			sum[i] += float64(x)
		}
		count++
	}
	if count == 0 {
		return nil
	}

	out := make([]float32, dim)
	for i := range sum {
		out[i] = float32(sum[i] / float64(count))
	}
	return out
}
