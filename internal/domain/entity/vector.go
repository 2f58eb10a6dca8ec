package entity

import (
	"math"
	"time"
)

// SparseVector is a TF-IDF document vector stored as a sparse mapping from
// vocabulary index to weight. Stored weights are raw tf-idf values; L2
// normalization happens on demand so that re-normalization after vocabulary
// growth never requires re-deriving term frequencies.
type SparseVector map[int64]float64

// Norm returns the Euclidean (L2) norm of the vector.
func (v SparseVector) Norm() float64 {
	var sum float64
	for _, w := range v {
		sum += w * w
	}
	return math.Sqrt(sum)
}

// Dot returns the dot product with another sparse vector. Iterating the
// smaller operand keeps the cost proportional to the sparser vector.
func (v SparseVector) Dot(o SparseVector) float64 {
	if len(o) < len(v) {
		v, o = o, v
	}
	var sum float64
	for idx, w := range v {
		if ow, ok := o[idx]; ok {
			sum += w * ow
		}
	}
	return sum
}

// Cosine returns the cosine similarity with another vector, in [0, 1] for
// nonnegative weights. Either vector being empty or zero yields 0.
func (v SparseVector) Cosine(o SparseVector) float64 {
	nv, no := v.Norm(), o.Norm()
	if nv == 0 || no == 0 {
		return 0
	}
	return v.Dot(o) / (nv * no)
}

// Clone returns an independent copy of the vector.
func (v SparseVector) Clone() SparseVector {
	out := make(SparseVector, len(v))
	for idx, w := range v {
		out[idx] = w
	}
	return out
}

// ArticleVector is the encoded TF-IDF representation of an article, pinned to
// the vocabulary snapshot it was computed against. Vectors from different
// snapshot versions are never compared: their coordinates are not mutually
// meaningful.
type ArticleVector struct {
	ID              ArticleID
	Weights         SparseVector
	SnapshotVersion int64 // vocabulary snapshot the weights were computed against
	Stale           bool  // set when content is re-ingested after encoding
	EncodedAt       time.Time
}

// Validate checks the invariants of an encoded vector.
func (av *ArticleVector) Validate() error {
	if err := av.ID.Validate(); err != nil {
		return err
	}
	if av.SnapshotVersion <= 0 {
		return &ValidationError{Field: "snapshotVersion", Message: "must be positive"}
	}
	for idx, w := range av.Weights {
		if idx < 0 {
			return &ValidationError{Field: "weights", Message: "vocabulary index cannot be negative"}
		}
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return &ValidationError{Field: "weights", Message: "weights must be finite and nonnegative"}
		}
	}
	return nil
}

// Current reports whether the vector can be used for similarity against the
// given snapshot version.
func (av *ArticleVector) Current(version int64) bool {
	return !av.Stale && av.SnapshotVersion == version
}
