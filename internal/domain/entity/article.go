// Package entity defines the core domain entities of the article similarity
// pipeline: article identities, the staged article records (metadata, content,
// preprocessed content), encoded vectors, similarity edges, and the vocabulary
// terms they are encoded against, along with validation rules and domain errors.
package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// IDLength is the fixed length of an ArticleID in hex characters.
const IDLength = 32

// ArticleID is a fixed-length, content-addressable identifier for an article.
// It is derived deterministically from the article's natural key, so the same
// URL or publication path always maps to the same row regardless of how many
// times the article is re-ingested.
type ArticleID string

// NewArticleID derives the identity for an article from its natural key.
// The natural key is hashed with SHA-256 and truncated to 128 bits, encoded
// as 32 lowercase hex characters. The function is pure: empty or malformed
// keys are hashed as-is, upstream callers validate non-emptiness.
func NewArticleID(naturalKey string) ArticleID {
	sum := sha256.Sum256([]byte(naturalKey))
	return ArticleID(hex.EncodeToString(sum[:IDLength/2]))
}

// Validate checks that the ID has the expected fixed length and hex alphabet.
func (id ArticleID) Validate() error {
	if len(id) != IDLength {
		return &ValidationError{Field: "id", Message: "must be 32 hex characters"}
	}
	for _, c := range id {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return &ValidationError{Field: "id", Message: "must be lowercase hex"}
		}
	}
	return nil
}

// ArticleMetadata is the first-stage record for an article. It is created on
// first ingestion from a source adapter and superseded (upserted, never
// appended) on re-ingestion of the same identity.
type ArticleMetadata struct {
	ID          ArticleID
	Source      string // publication the article came from, e.g. "the_guardian"
	NaturalKey  string // source-stable key the identity was derived from
	Section     string
	Title       string
	PublishedAt time.Time
	WebURL      string // human-facing URL
	APIURL      string // machine-facing URL, may be empty
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the invariants of a metadata record, including that the
// stored identity actually corresponds to the natural key. A mismatch here is
// the bug that identity collision detection exists to catch.
func (m *ArticleMetadata) Validate() error {
	if err := m.ID.Validate(); err != nil {
		return err
	}
	if m.Source == "" {
		return &ValidationError{Field: "source", Message: "is required"}
	}
	if m.NaturalKey == "" {
		return &ValidationError{Field: "naturalKey", Message: "is required"}
	}
	if m.Title == "" {
		return &ValidationError{Field: "title", Message: "is required"}
	}
	if NewArticleID(m.NaturalKey) != m.ID {
		return &ValidationError{Field: "id", Message: "does not match natural key"}
	}
	return nil
}

// ArticleContent is the second-stage record: the raw text body of an article.
// It may legitimately be absent while metadata exists; partial ingestion is a
// valid, queryable state rather than an error.
type ArticleContent struct {
	ID          ArticleID
	Body        string
	RetrievedAt time.Time
}

// Validate checks the invariants of a content record. An empty body is
// allowed: some articles genuinely have no extractable text, and downstream
// stages handle empty token streams.
func (c *ArticleContent) Validate() error {
	return c.ID.Validate()
}

// PreprocessedContent is the third-stage record: the normalized token
// sequence produced from the raw body. It may lag behind content.
type PreprocessedContent struct {
	ID     ArticleID
	Tokens []string
}

// Validate checks the invariants of a preprocessed record.
func (p *PreprocessedContent) Validate() error {
	return p.ID.Validate()
}

// ProcessingState describes how far through the pipeline an article has
// progressed. Every combination with earlier stages present is valid.
type ProcessingState struct {
	HasMetadata     bool
	HasContent      bool
	HasPreprocessed bool
	HasVector       bool
	VectorIsStale   bool
}
