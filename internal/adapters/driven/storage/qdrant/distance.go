package qdrant

import (
	"fmt"

	"github.com/custodia-labs/docsearch/internal/core/domain"
)

// Qdrant distance names.
const (
	distanceEuclid = "Euclid"
	distanceDot    = "Dot"
	distanceCosine = "Cosine"
)

func toDistance(m domain.Metric) (string, error) {
	switch m {
	case domain.MetricL2:
		return distanceEuclid, nil
	case domain.MetricIP:
		return distanceDot, nil
	case domain.MetricCosine:
		return distanceCosine, nil
	default:
		return "", fmt.Errorf("%w: unsupported metric %q", domain.ErrSchema, m)
	}
}

func fromDistance(d string) (domain.Metric, error) {
	switch d {
	case distanceEuclid:
		return domain.MetricL2, nil
	case distanceDot:
		return domain.MetricIP, nil
	case distanceCosine:
		return domain.MetricCosine, nil
	default:
		return "", fmt.Errorf("%w: unsupported qdrant distance %q", domain.ErrSchema, d)
	}
}

// toDistanceValue converts a Qdrant score into the metric's distance.
// Euclid scores are plain distances, Dot and Cosine scores are similarities.
func toDistanceValue(m domain.Metric, score float64) float64 {
	switch m {
	case domain.MetricL2:
		return score * score
	case domain.MetricIP:
		return -score
	case domain.MetricCosine:
		return 1 - score
	default:
		return score
	}
}
