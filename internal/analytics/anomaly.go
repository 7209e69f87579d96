package analytics

import (
	"context"
)

// Anomalies flags readings in the last 30 days whose weight strictly
// exceeds mean + sensitivity*stddev. An empty window yields an empty
// slice, not an error.
func (a *Analyzer) Anomalies(ctx context.Context, sensitivity float64) ([]Anomaly, error) {
	if sensitivity <= 0 {
		sensitivity = DefaultSensitivity
	}
	readings, err := a.window(ctx, AnomalyWindow, "", false)
	if err != nil {
		return nil, err
	}
	if len(readings) == 0 {
		return []Anomaly{}, nil
	}

	stats := computeStats(weights(readings))
	threshold := stats.MeanKg + sensitivity*stats.StdDev

	anomalies := []Anomaly{}
	for _, r := range readings {
		if r.WeightKg <= threshold {
			continue
		}
		deviations := 0.0
		if stats.StdDev > 0 {
			deviations = (r.WeightKg - stats.MeanKg) / stats.StdDev
		}
		severity := SeverityHigh
		if r.WeightKg > threshold*1.5 {
			severity = SeverityCritical
		}
		anomalies = append(anomalies, Anomaly{
			Timestamp:  r.Timestamp,
			WeightKg:   r.WeightKg,
			SensorID:   r.SensorID,
			Deviations: deviations,
			Severity:   severity,
		})
	}
	return anomalies, nil
}
