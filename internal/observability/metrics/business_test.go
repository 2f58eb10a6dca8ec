package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordArticleStaged(t *testing.T) {
	tests := []struct {
		name   string
		source string
		stage  string
	}{
		{"metadata stage", "guardian", "metadata"},
		{"content stage", "guardian", "content"},
		{"empty source", "", "metadata"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				RecordArticleStaged(tt.source, tt.stage)
			})
		})
	}
}

func TestRecordVectorsEncoded(t *testing.T) {
	tests := []struct {
		name    string
		count   int
		version int64
	}{
		{"first snapshot", 10, 1},
		{"later snapshot", 250, 7},
		{"zero batch", 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				RecordVectorsEncoded(tt.count, tt.version)
			})
		})
	}
}

func TestRecordSourceFetchError(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordSourceFetchError("guardian")
	})
}

func TestRecordSimilarityRecomputed(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordSimilarityRecomputed(42)
	})
}

func TestObservePipelineStage(t *testing.T) {
	tests := []struct {
		name     string
		stage    string
		duration time.Duration
	}{
		{"fast stage", "preprocess", 120 * time.Millisecond},
		{"slow stage", "ingest_guardian", 40 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				ObservePipelineStage(tt.stage, tt.duration)
			})
		})
	}
}

func TestGauges(t *testing.T) {
	assert.NotPanics(t, func() {
		SetVocabularySize(5400)
		SetSnapshotVersion(3)
		SetStaleVectors(12)
	})
}

func TestRecordHTTPRequest(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordHTTPRequest("GET", "/articles/{id}/similar", "200", 5*time.Millisecond)
	})
}
