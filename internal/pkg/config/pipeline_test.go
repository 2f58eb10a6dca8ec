package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPipelineConfig_Defaults(t *testing.T) {
	cfg, warnings := LoadPipelineConfig(nil)

	assert.Empty(t, warnings)
	assert.Equal(t, DefaultCronSchedule, cfg.CronSchedule)
	assert.Equal(t, DefaultTimezone, cfg.Timezone)
	assert.Equal(t, DefaultRunTimeout, cfg.RunTimeout)
	assert.Equal(t, DefaultDriftThreshold, cfg.DriftThreshold)
	assert.Equal(t, DefaultTopK, cfg.TopK)
	assert.Equal(t, DefaultMinScore, cfg.MinScore)
	assert.True(t, cfg.ExcludeSameSource)
	assert.Equal(t, DefaultSourceParallelism, cfg.SourceParallelism)
	assert.Equal(t, "bow-en", cfg.NormalizerRules.Name)
}

func TestLoadPipelineConfig_Overrides(t *testing.T) {
	t.Setenv("CRON_SCHEDULE", "0 */6 * * *")
	t.Setenv("PIPELINE_TIMEOUT", "1h")
	t.Setenv("DRIFT_THRESHOLD", "0.5")
	t.Setenv("SIMILARITY_TOP_K", "25")
	t.Setenv("SIMILARITY_MIN_SCORE", "0.1")
	t.Setenv("SIMILARITY_EXCLUDE_SAME_SOURCE", "false")
	t.Setenv("SOURCE_PARALLELISM", "8")

	cfg, warnings := LoadPipelineConfig(nil)

	assert.Empty(t, warnings)
	assert.Equal(t, "0 */6 * * *", cfg.CronSchedule)
	assert.Equal(t, time.Hour, cfg.RunTimeout)
	assert.Equal(t, 0.5, cfg.DriftThreshold)
	assert.Equal(t, 25, cfg.TopK)
	assert.Equal(t, 0.1, cfg.MinScore)
	assert.False(t, cfg.ExcludeSameSource)
	assert.Equal(t, 8, cfg.SourceParallelism)
}

func TestLoadPipelineConfig_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("CRON_SCHEDULE", "not a schedule")
	t.Setenv("DRIFT_THRESHOLD", "-1")
	t.Setenv("SIMILARITY_TOP_K", "0")

	cfg, warnings := LoadPipelineConfig(nil)

	assert.Len(t, warnings, 3)
	assert.Equal(t, DefaultCronSchedule, cfg.CronSchedule)
	assert.Equal(t, DefaultDriftThreshold, cfg.DriftThreshold)
	assert.Equal(t, DefaultTopK, cfg.TopK)
}

func TestLoadPipelineConfig_RulesFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	rules := `
name: news-en
version: "2"
fold_case: true
stopwords: ["the", "a"]
strip_suffixes: ["'s"]
min_token_len: 2
`
	require.NoError(t, os.WriteFile(path, []byte(rules), 0o600))
	t.Setenv("NORMALIZER_RULES_PATH", path)

	cfg, warnings := LoadPipelineConfig(nil)

	assert.Empty(t, warnings)
	assert.Equal(t, "news-en", cfg.NormalizerRules.Name)
	assert.Equal(t, []string{"the", "a"}, cfg.NormalizerRules.Stopwords)
	assert.Equal(t, 2, cfg.NormalizerRules.MinTokenLen)
}

func TestLoadPipelineConfig_MissingRulesFileFallsBack(t *testing.T) {
	t.Setenv("NORMALIZER_RULES_PATH", "/nonexistent/rules.yaml")

	cfg, warnings := LoadPipelineConfig(nil)

	assert.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "NORMALIZER_RULES_PATH")
	assert.Equal(t, "bow-en", cfg.NormalizerRules.Name)
}

func TestLoadPipelineConfig_MalformedRulesFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml::"), 0o600))
	t.Setenv("NORMALIZER_RULES_PATH", path)

	cfg, warnings := LoadPipelineConfig(nil)

	assert.Len(t, warnings, 1)
	assert.Equal(t, "bow-en", cfg.NormalizerRules.Name)
}
