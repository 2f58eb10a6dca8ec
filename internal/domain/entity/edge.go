package entity

// SimilarityEdge records that two articles are content-similar, with their
// cosine score. Edges are undirected and stored once per unordered pair with
// A < B; they are derived data, fully reconstructable from encoded vectors.
type SimilarityEdge struct {
	A     ArticleID
	B     ArticleID
	Score float64
}

// NewSimilarityEdge builds an edge with the canonical A < B ordering.
// Self-edges are rejected: an article is trivially similar to itself and
// storing that would only pollute neighbor lists.
func NewSimilarityEdge(a, b ArticleID, score float64) (SimilarityEdge, error) {
	if a == b {
		return SimilarityEdge{}, &ValidationError{Field: "edge", Message: "self-edges are not allowed"}
	}
	if score < 0 || score > 1 {
		return SimilarityEdge{}, &ValidationError{Field: "score", Message: "must be within [0, 1]"}
	}
	if b < a {
		a, b = b, a
	}
	return SimilarityEdge{A: a, B: b, Score: score}, nil
}

// Other returns the edge endpoint that is not the given identity.
// Returns an empty ID if the identity is not part of the edge.
func (e SimilarityEdge) Other(id ArticleID) ArticleID {
	switch id {
	case e.A:
		return e.B
	case e.B:
		return e.A
	}
	return ""
}
