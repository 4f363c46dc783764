// Package vecmath ranks embedding vectors by cosine similarity.
package vecmath

import (
	"math"
	"sort"
)

// Cosine returns the cosine similarity of a and b.
// Vectors of different length or zero magnitude have similarity 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Scored is the similarity of the vector at Index.
type Scored struct {
	Index      int
	Similarity float64
}

// TopK returns the indices of the k vectors most similar to query,
// most similar first. Ties keep the order of vectors.
func TopK(query []float32, vectors [][]float32, k int) []Scored {
	if k <= 0 || len(vectors) == 0 {
		return nil
	}
	scored := make([]Scored, len(vectors))
	for i, v := range vectors {
		scored[i] = Scored{Index: i, Similarity: Cosine(query, v)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	if k < len(scored) {
		scored = scored[:k]
	}
	return scored
}
