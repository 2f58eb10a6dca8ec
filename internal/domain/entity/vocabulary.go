package entity

// VocabularyTerm is one entry of the corpus-wide term-to-index mapping.
//
// Index assignment is monotonically increasing and never reused or
// renumbered. That stability is what keeps previously encoded vectors valid
// as the vocabulary grows: a nonzero coordinate keeps referring to the same
// term forever.
//
// Two document frequencies are carried: the live count, updated as documents
// arrive, and the frozen count captured at the last snapshot freeze. Encoding
// always reads the frozen side so that every stored vector is computed
// against the same statistics.
type VocabularyTerm struct {
	Term       string
	Index      int64
	DFLive     int64 // documents containing the term, current
	DFSnapshot int64 // documents containing the term at the last freeze; 0 = not in snapshot
}

// Validate checks the invariants of a vocabulary term.
func (t *VocabularyTerm) Validate() error {
	if t.Term == "" {
		return &ValidationError{Field: "term", Message: "is required"}
	}
	if t.Index < 0 {
		return &ValidationError{Field: "index", Message: "cannot be negative"}
	}
	if t.DFLive < t.DFSnapshot {
		return &ValidationError{Field: "dfLive", Message: "cannot be below snapshot document frequency"}
	}
	return nil
}
