// Package vector implements safe cosine similarity over feature vectors.
package vector

import (
	"math"

	"github.com/reclaimhq/reclaim/internal/domain"
)

// Outcome classifies a similarity computation so callers can log data-quality
// signals without the comparison itself producing side effects.
type Outcome int

const (
	// Compared means both vectors were present and comparable.
	Compared Outcome = iota
	// Absent means at least one vector was missing or empty. Expected during
	// ingestion lag; scored as zero.
	Absent
	// DimMismatch means both vectors were present but of different lengths.
	// A data-quality signal from extractor versioning, not an error.
	DimMismatch
)

// String returns the outcome name for log fields.
func (o Outcome) String() string {
	switch o {
	case Compared:
		return "compared"
	case Absent:
		return "absent"
	case DimMismatch:
		return "dim_mismatch"
	default:
		return "unknown"
	}
}

// Similarity computes cosine similarity between two feature vectors,
// clamped into [0,1]. Absent input or a dimension mismatch scores 0.0
// with the corresponding outcome; neither is an error.
//
// Cosine can be negative for arbitrary vectors. The aggregate confidence
// is documented as a value in [0,1] and both threshold policies assume it,
// so negative similarity clamps to zero instead of dragging the weighted
// sum down.
func Similarity(a, b domain.FeatureVector) (float64, Outcome) {
	if !a.Present() || !b.Present() {
		return 0, Absent
	}
	if len(a) != len(b) {
		return 0, DimMismatch
	}

	var dot, normA, normB float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, Compared
	}

	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return clamp01(score), Compared
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
