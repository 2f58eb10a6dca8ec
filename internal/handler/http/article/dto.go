// Package article provides HTTP handlers for article query endpoints.
// It serves stored similarity neighbors and per-article processing state.
package article

// NeighborDTO represents one scored neighbor in a similarity response.
type NeighborDTO struct {
	ArticleID string  `json:"article_id" example:"0a1b2c3d4e5f60718293a4b5c6d7e8f9"`
	Score     float64 `json:"score" example:"0.83"`
}

// SimilarDTO represents the JSON structure for a similarity query result.
// Neighbors are ordered best first.
type SimilarDTO struct {
	ArticleID string        `json:"article_id"`
	Neighbors []NeighborDTO `json:"neighbors"`
}

// StateDTO represents how far through the pipeline an article has progressed.
type StateDTO struct {
	ArticleID       string `json:"article_id"`
	HasMetadata     bool   `json:"has_metadata"`
	HasContent      bool   `json:"has_content"`
	HasPreprocessed bool   `json:"has_preprocessed"`
	HasVector       bool   `json:"has_vector"`
	VectorIsStale   bool   `json:"vector_is_stale"`
}
