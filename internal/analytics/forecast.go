package analytics

import (
	"context"
	"sort"
)

// Forecast fits an OLS linear regression over daily totals from the last
// 90 days and projects the next daysAhead days. Predictions are clamped
// to >= 0. Fails with ErrInsufficientData below ForecastMinReadings raw
// readings.
func (a *Analyzer) Forecast(ctx context.Context, daysAhead int) (*Forecast, error) {
	if daysAhead <= 0 {
		daysAhead = DefaultForecastDays
	}
	readings, err := a.window(ctx, ForecastTrainWindow, "", true)
	if err != nil {
		return nil, err
	}
	if len(readings) < ForecastMinReadings {
		return nil, ErrInsufficientData
	}

	// Daily totals indexed 0..K-1 in calendar order.
	dayTotals := map[string]float64{}
	for _, r := range readings {
		day := r.Timestamp.UTC().Format("2006-01-02")
		dayTotals[day] += r.WeightKg
	}
	days := make([]string, 0, len(dayTotals))
	for d := range dayTotals {
		days = append(days, d)
	}
	sort.Strings(days)

	y := make([]float64, len(days))
	for i, d := range days {
		y[i] = dayTotals[d]
	}

	slope, intercept, r2 := fitLine(y)

	now := a.now().UTC()
	k := float64(len(y))
	predictions := make([]Prediction, daysAhead)
	for i := 0; i < daysAhead; i++ {
		predicted := intercept + slope*(k+float64(i))
		if predicted < 0 {
			predicted = 0
		}
		predictions[i] = Prediction{
			Day:      i + 1,
			WeightKg: predicted,
			Date:     now.AddDate(0, 0, i+1),
		}
	}

	return &Forecast{
		Model:        "Linear Regression",
		TrainingDays: len(days),
		R2:           r2,
		Confidence:   confidence(r2),
		Predictions:  predictions,
	}, nil
}

func confidence(r2 float64) string {
	switch {
	case r2 > 0.7:
		return ConfidenceHigh
	case r2 > 0.4:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// fitLine runs simple OLS of y against x = 0..n-1 and reports the
// coefficient of determination. Degenerate inputs (a single point) yield
// a flat line through the mean with R² = 0; a constant series fits
// exactly and reports R² = 1.
func fitLine(y []float64) (slope, intercept, r2 float64) {
	n := float64(len(y))
	var sumX, sumY float64
	for i, v := range y {
		sumX += float64(i)
		sumY += v
	}
	meanX := sumX / n
	meanY := sumY / n

	var sxx, sxy float64
	for i, v := range y {
		dx := float64(i) - meanX
		sxx += dx * dx
		sxy += dx * (v - meanY)
	}
	if sxx == 0 {
		return 0, meanY, 0
	}
	slope = sxy / sxx
	intercept = meanY - slope*meanX

	var ssRes, ssTot float64
	for i, v := range y {
		pred := intercept + slope*float64(i)
		ssRes += (v - pred) * (v - pred)
		ssTot += (v - meanY) * (v - meanY)
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return slope, intercept, 1
		}
		return slope, intercept, 0
	}
	return slope, intercept, 1 - ssRes/ssTot
}
