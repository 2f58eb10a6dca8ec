package metrics

import (
	"strconv"
	"time"
)

// RecordArticleStaged records one staged write for an article.
// Stage is the pipeline stage that completed: "metadata" or "content".
func RecordArticleStaged(source, stage string) {
	ArticlesStagedTotal.WithLabelValues(source, stage).Inc()
}

// RecordSourceFetchError records a failed ingestion attempt for a source.
func RecordSourceFetchError(source string) {
	SourceFetchErrorsTotal.WithLabelValues(source).Inc()
}

// RecordVectorsEncoded records a batch of encoded vectors against the
// snapshot version they were computed with.
func RecordVectorsEncoded(count int, version int64) {
	VectorsEncodedTotal.WithLabelValues(strconv.FormatInt(version, 10)).
		Add(float64(count))
}

// RecordSimilarityRecomputed records how many articles had their neighbor
// sets rebuilt in one pass.
func RecordSimilarityRecomputed(count int) {
	SimilarityArticlesRecomputedTotal.Add(float64(count))
}

// ObservePipelineStage records the wall time of one pipeline stage.
func ObservePipelineStage(stage string, duration time.Duration) {
	PipelineStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// SetVocabularySize updates the live vocabulary term count gauge.
func SetVocabularySize(size int) {
	VocabularySize.Set(float64(size))
}

// SetSnapshotVersion updates the current snapshot version gauge.
func SetSnapshotVersion(version int64) {
	VocabularySnapshotVersion.Set(float64(version))
}

// SetStaleVectors updates the gauge of vectors awaiting re-encoding.
func SetStaleVectors(count int64) {
	StaleVectors.Set(float64(count))
}
