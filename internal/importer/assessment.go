package importer

import (
	"github.com/tempocal/tempocal/internal/config"
	"github.com/tempocal/tempocal/internal/models"
)

// Metric names used in assessment results.
const (
	MetricResolution = "resolution"
	MetricValidation = "validation"
	MetricCreation   = "creation"
)

// PerformGoNoGoAssessment judges an import's statistics against the
// configured quality thresholds. A metric passes when its rate meets or
// exceeds the threshold; the overall verdict is go only when every metric
// passes. The assessment is derived from the snapshot alone and holds no
// state of its own.
func PerformGoNoGoAssessment(stats models.ImportStats, thresholds config.AssessmentThresholds) models.Assessment {
	metrics := map[string]models.AssessmentMetric{
		MetricResolution: assessMetric(stats.ResolutionRate(), thresholds.MinResolutionRate),
		MetricValidation: assessMetric(stats.ValidationRate(), thresholds.MinValidationRate),
		MetricCreation:   assessMetric(stats.CreationRate(), thresholds.MinCreationRate),
	}

	verdict := true
	for _, m := range metrics {
		if !m.Pass {
			verdict = false
			break
		}
	}

	return models.Assessment{Go: verdict, Metrics: metrics}
}

func assessMetric(value, threshold float64) models.AssessmentMetric {
	return models.AssessmentMetric{
		Value:     value,
		Threshold: threshold,
		Pass:      value >= threshold,
	}
}
