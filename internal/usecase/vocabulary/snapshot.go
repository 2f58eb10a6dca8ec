package vocabulary

// Snapshot is an immutable, consistent view of the vocabulary frozen at a
// point in time: term-to-index mapping, per-term document frequency, and the
// total document count, all as of the freeze.
//
// Every vector encoded against the same snapshot version is mutually
// comparable; this is the invariant the vocabulary manager exists to
// protect. Snapshots are handed out by value reference and never mutated
// after construction, so encoders may read them concurrently.
type Snapshot struct {
	version  int64
	docCount int64
	index    map[string]int64 // term -> vocabulary index
	df       map[int64]int64  // vocabulary index -> document frequency at freeze
}

// Version returns the snapshot's version number.
func (s *Snapshot) Version() int64 { return s.version }

// DocCount returns the total number of documents at the freeze.
func (s *Snapshot) DocCount() int64 { return s.docCount }

// Size returns the number of terms in the snapshot.
func (s *Snapshot) Size() int { return len(s.index) }

// Lookup returns the vocabulary index and frozen document frequency for a
// term. Terms added to the live vocabulary after the freeze are not in the
// snapshot and report ok == false; encoders skip them.
func (s *Snapshot) Lookup(term string) (index int64, df int64, ok bool) {
	index, ok = s.index[term]
	if !ok {
		return 0, 0, false
	}
	return index, s.df[index], true
}
