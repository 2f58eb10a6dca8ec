package config

import (
	"fmt"
	"os"
	"strconv"
)

// LoadEnvFloat loads a float value from an environment variable
// with parsing, validation, and automatic fallback to default on failure.
//
// Loading behavior mirrors LoadEnvInt:
//  1. Read environment variable
//  2. If not set or empty: Use default value (no warning)
//  3. If set: Parse using strconv.ParseFloat
//  4. If parsing fails: Use default value and generate warning
//  5. If parsing succeeds: Validate using provided validator
//  6. If validation fails: Use default value and generate warning
//
// This function never returns an error. Parsing and validation failures
// result in warnings, not errors.
//
// Example:
//
//	result := LoadEnvFloat(
//	    "DRIFT_THRESHOLD",
//	    0.2,
//	    func(v float64) error { return ValidateFloatRange(v, 0.0, 1.0) },
//	)
//	threshold := result.Value.(float64)
//
// Use cases:
//   - Drift threshold configuration (0.0 to 1.0)
//   - Similarity score floor configuration (0.0 to 1.0)
func LoadEnvFloat(envKey string, defaultValue float64, validator func(float64) error) ConfigLoadResult {
	valueStr := os.Getenv(envKey)

	// If environment variable is not set or empty, use default (no warning)
	if valueStr == "" {
		return ConfigLoadResult{
			Value:           defaultValue,
			Warnings:        nil,
			FallbackApplied: false,
		}
	}

	parsedFloat, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		warning := fmt.Sprintf(
			"Invalid %s='%s': invalid float format, falling back to default '%g'",
			envKey,
			valueStr,
			defaultValue,
		)
		return ConfigLoadResult{
			Value:           defaultValue,
			Warnings:        []string{warning},
			FallbackApplied: true,
		}
	}

	if validator != nil {
		if err := validator(parsedFloat); err != nil {
			warning := fmt.Sprintf(
				"Invalid %s='%s': %v, falling back to default '%g'",
				envKey,
				valueStr,
				err,
				defaultValue,
			)
			return ConfigLoadResult{
				Value:           defaultValue,
				Warnings:        []string{warning},
				FallbackApplied: true,
			}
		}
	}

	return ConfigLoadResult{
		Value:           parsedFloat,
		Warnings:        nil,
		FallbackApplied: false,
	}
}

// ValidateFloatRange validates that a float value is within a specified range.
//
// Validation rules:
//   - value must be >= min (inclusive)
//   - value must be <= max (inclusive)
//   - min must be <= max (checked internally)
//
// Example:
//
//	err := ValidateFloatRange(0.2, 0.0, 1.0)
//	if err != nil {
//	    log.Error("Invalid threshold: %v", err)
//	}
func ValidateFloatRange(value, min, max float64) error {
	if min > max {
		return fmt.Errorf("invalid range: min (%g) cannot be greater than max (%g)", min, max)
	}

	if value < min {
		return fmt.Errorf("value %g is below minimum %g", value, min)
	}

	if value > max {
		return fmt.Errorf("value %g exceeds maximum %g", value, max)
	}

	return nil
}
