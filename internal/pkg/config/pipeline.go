package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"interlocutor/internal/normalizer"
)

// PipelineConfig holds the worker's runtime configuration. Every field has a
// default; invalid values fall back with a warning rather than aborting
// startup.
type PipelineConfig struct {
	// CronSchedule controls when pipeline runs start.
	CronSchedule string

	// Timezone the cron schedule is evaluated in.
	Timezone string

	// RunTimeout bounds one full pipeline run.
	RunTimeout time.Duration

	// DriftThreshold is the vocabulary drift fraction that triggers a
	// snapshot refreeze.
	DriftThreshold float64

	// TopK is the number of neighbors retained per article.
	TopK int

	// MinScore is the similarity floor below which no edge is stored.
	MinScore float64

	// ExcludeSameSource drops neighbors from the same publication, keeping
	// recommendations cross-publication.
	ExcludeSameSource bool

	// SourceParallelism caps concurrent source ingestion.
	SourceParallelism int

	// NormalizerRules is the token normalization rule set, loaded from the
	// YAML file at NORMALIZER_RULES_PATH when set.
	NormalizerRules normalizer.RuleSet
}

// Defaults for the pipeline configuration.
const (
	DefaultCronSchedule      = "30 5 * * *"
	DefaultTimezone          = "UTC"
	DefaultRunTimeout        = 30 * time.Minute
	DefaultDriftThreshold    = 0.2
	DefaultTopK              = 10
	DefaultMinScore          = 0.05
	DefaultSourceParallelism = 4
)

// LoadPipelineConfig loads the worker configuration from the environment.
// It returns the configuration and any warnings generated by fallbacks.
// Warnings are also recorded against the given metrics, when non-nil.
func LoadPipelineConfig(metrics *ConfigMetrics) (PipelineConfig, []string) {
	var warnings []string

	collect := func(field string, result ConfigLoadResult) ConfigLoadResult {
		if result.FallbackApplied {
			warnings = append(warnings, result.Warnings...)
			if metrics != nil {
				metrics.RecordValidationError(field)
				metrics.RecordFallback(field, "default")
			}
		}
		return result
	}

	cfg := PipelineConfig{}

	cfg.CronSchedule = collect("cron_schedule", LoadEnvWithFallback(
		"CRON_SCHEDULE", DefaultCronSchedule, ValidateCronSchedule,
	)).Value.(string)

	cfg.Timezone = collect("timezone", LoadEnvWithFallback(
		"TZ_SCHEDULE", DefaultTimezone, ValidateTimezone,
	)).Value.(string)

	cfg.RunTimeout = collect("run_timeout", LoadEnvDuration(
		"PIPELINE_TIMEOUT", DefaultRunTimeout, ValidatePositiveDuration,
	)).Value.(time.Duration)

	cfg.DriftThreshold = collect("drift_threshold", LoadEnvFloat(
		"DRIFT_THRESHOLD", DefaultDriftThreshold,
		func(v float64) error { return ValidateFloatRange(v, 0.01, 10.0) },
	)).Value.(float64)

	cfg.TopK = collect("top_k", LoadEnvInt(
		"SIMILARITY_TOP_K", DefaultTopK,
		func(v int) error { return ValidateIntRange(v, 1, 100) },
	)).Value.(int)

	cfg.MinScore = collect("min_score", LoadEnvFloat(
		"SIMILARITY_MIN_SCORE", DefaultMinScore,
		func(v float64) error { return ValidateFloatRange(v, 0.0, 1.0) },
	)).Value.(float64)

	cfg.ExcludeSameSource = collect("exclude_same_source", LoadEnvBool(
		"SIMILARITY_EXCLUDE_SAME_SOURCE", true,
	)).Value.(bool)

	cfg.SourceParallelism = collect("source_parallelism", LoadEnvInt(
		"SOURCE_PARALLELISM", DefaultSourceParallelism,
		func(v int) error { return ValidateIntRange(v, 1, 50) },
	)).Value.(int)

	rules, ruleWarnings := loadNormalizerRules()
	cfg.NormalizerRules = rules
	if len(ruleWarnings) > 0 {
		warnings = append(warnings, ruleWarnings...)
		if metrics != nil {
			metrics.RecordValidationError("normalizer_rules")
			metrics.RecordFallback("normalizer_rules", "default")
		}
	}

	if metrics != nil {
		metrics.RecordLoadTimestamp()
		metrics.SetFallbackActive("any", len(warnings) > 0)
	}

	return cfg, warnings
}

// loadNormalizerRules reads the YAML rule set named by NORMALIZER_RULES_PATH.
// An unset variable means the built-in default rule set; a set but unreadable
// or malformed file falls back to the default with a warning so a bad deploy
// never silently changes tokenization to nothing.
func loadNormalizerRules() (normalizer.RuleSet, []string) {
	path := os.Getenv("NORMALIZER_RULES_PATH")
	if path == "" {
		return normalizer.DefaultRuleSet(), nil
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from deployment config
	if err != nil {
		return normalizer.DefaultRuleSet(), []string{
			fmt.Sprintf("cannot read NORMALIZER_RULES_PATH='%s': %v, falling back to default rule set", path, err),
		}
	}

	var rules normalizer.RuleSet
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return normalizer.DefaultRuleSet(), []string{
			fmt.Sprintf("cannot parse NORMALIZER_RULES_PATH='%s': %v, falling back to default rule set", path, err),
		}
	}
	if rules.Name == "" {
		return normalizer.DefaultRuleSet(), []string{
			fmt.Sprintf("rule set at '%s' has no name, falling back to default rule set", path),
		}
	}
	return rules, nil
}
