package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for the pipeline's domain layer.
var (
	// ErrNotFound indicates that a requested entity was not found.
	ErrNotFound = errors.New("entity not found")

	// ErrIdentityCollision indicates that two distinct natural keys mapped to
	// the same identity. This signals a hash collision or a key-derivation
	// bug; ingestion of the record halts and the error is surfaced rather
	// than silently merging the rows.
	ErrIdentityCollision = errors.New("identity collision: same identity, different natural key")

	// ErrOrphanContent indicates an attempt to write article content before
	// the article's metadata exists. The caller must ingest the metadata
	// stage first.
	ErrOrphanContent = errors.New("orphan content: metadata does not exist for identity")

	// ErrOrphanPreprocessed indicates an attempt to write preprocessed tokens
	// before the article's raw content exists.
	ErrOrphanPreprocessed = errors.New("orphan preprocessed content: content does not exist for identity")

	// ErrStaleVector indicates that an encoded vector no longer reflects
	// current vocabulary statistics and must be re-encoded before it can be
	// used for similarity. Recoverable; not surfaced to end users.
	ErrStaleVector = errors.New("stale vector: re-encode required before similarity use")

	// ErrEmptyVocabulary indicates that similarity was requested before any
	// encoding pass established a vocabulary snapshot. It signals "not
	// ready", not a bug.
	ErrEmptyVocabulary = errors.New("vocabulary is empty: no encoding pass has run yet")
)

// ValidationError reports which field of an entity failed validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}
