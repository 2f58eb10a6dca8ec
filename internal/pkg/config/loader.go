package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ConfigLoadResult is the outcome of loading one environment setting. Value
// holds the effective setting, which is the default whenever FallbackApplied
// is set; Warnings carries one message per fallback.
//
// Loading is fail-open: a bad value degrades to the default with a warning
// instead of aborting startup. A worker running one pipeline cycle on
// default settings costs less than a worker that never starts.
type ConfigLoadResult struct {
	Value           interface{}
	Warnings        []string
	FallbackApplied bool
}

// fellBack builds the result for a value that failed parsing or validation.
func fellBack(envKey, raw string, cause error, def interface{}) ConfigLoadResult {
	return ConfigLoadResult{
		Value:           def,
		Warnings:        []string{fmt.Sprintf("Invalid %s='%s': %v, falling back to default '%v'", envKey, raw, cause, def)},
		FallbackApplied: true,
	}
}

// LoadEnvWithFallback reads a string setting such as CRON_SCHEDULE. An unset
// or empty variable silently yields the default; a set value that fails the
// validator falls back with a warning. A nil validator accepts anything.
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) ConfigLoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return ConfigLoadResult{Value: defaultValue}
	}
	if validator != nil {
		if err := validator(raw); err != nil {
			return fellBack(envKey, raw, err, defaultValue)
		}
	}
	return ConfigLoadResult{Value: raw}
}

// LoadEnvDuration reads a Go duration string, e.g. PIPELINE_TIMEOUT="45m".
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) ConfigLoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return ConfigLoadResult{Value: defaultValue}
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fellBack(envKey, raw, err, defaultValue)
	}
	if validator != nil {
		if err := validator(parsed); err != nil {
			return fellBack(envKey, raw, err, defaultValue)
		}
	}
	return ConfigLoadResult{Value: parsed}
}

// LoadEnvInt reads an integer setting, e.g. SIMILARITY_TOP_K="10". The whole
// value must be a decimal integer; trailing garbage is rejected.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) ConfigLoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return ConfigLoadResult{Value: defaultValue}
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fellBack(envKey, raw, fmt.Errorf("invalid integer format"), defaultValue)
	}
	if validator != nil {
		if err := validator(parsed); err != nil {
			return fellBack(envKey, raw, err, defaultValue)
		}
	}
	return ConfigLoadResult{Value: parsed}
}

// LoadEnvBool reads a flag such as SIMILARITY_EXCLUDE_SAME_SOURCE. Accepted
// spellings are the strconv.ParseBool set: 1/0, t/f, true/false in any of
// their casings.
func LoadEnvBool(envKey string, defaultValue bool) ConfigLoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return ConfigLoadResult{Value: defaultValue}
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fellBack(envKey, raw, fmt.Errorf("invalid boolean format, expected 'true' or 'false'"), defaultValue)
	}
	return ConfigLoadResult{Value: parsed}
}
