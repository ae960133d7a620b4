package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// AssessmentThresholds are the minimum quality ratios an import run must hit
// for a go decision. Each is a fraction in [0, 1]; a metric passes when its
// observed rate is at or above the threshold, so raising a rate can never
// flip a go into a no-go.
type AssessmentThresholds struct {
	MinResolutionRate float64 `yaml:"resolution"`
	MinValidationRate float64 `yaml:"validation"`
	MinCreationRate   float64 `yaml:"creation"`
}

// DefaultAssessmentThresholds returns the shipped defaults.
func DefaultAssessmentThresholds() AssessmentThresholds {
	return AssessmentThresholds{
		MinResolutionRate: 0.80,
		MinValidationRate: 0.90,
		MinCreationRate:   0.95,
	}
}

// Validate checks every threshold is a sane fraction.
func (t AssessmentThresholds) Validate() error {
	for name, v := range map[string]float64{
		"resolution": t.MinResolutionRate,
		"validation": t.MinValidationRate,
		"creation":   t.MinCreationRate,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("threshold %s must be within [0, 1], got %v", name, v)
		}
	}
	return nil
}

// loadAssessmentThresholds layers a YAML file (THRESHOLDS_FILE) over the
// defaults, then environment variables over both.
func loadAssessmentThresholds(base AssessmentThresholds) (AssessmentThresholds, error) {
	out := base

	if path := os.Getenv("THRESHOLDS_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return out, fmt.Errorf("read THRESHOLDS_FILE: %w", err)
		}
		if err := yaml.Unmarshal(data, &out); err != nil {
			return out, fmt.Errorf("parse THRESHOLDS_FILE: %w", err)
		}
	}

	for env, dst := range map[string]*float64{
		"IMPORT_MIN_RESOLUTION_RATE": &out.MinResolutionRate,
		"IMPORT_MIN_VALIDATION_RATE": &out.MinValidationRate,
		"IMPORT_MIN_CREATION_RATE":   &out.MinCreationRate,
	} {
		if v := os.Getenv(env); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return out, fmt.Errorf("invalid %s: %w", env, err)
			}
			*dst = f
		}
	}

	if err := out.Validate(); err != nil {
		return out, err
	}

	return out, nil
}
