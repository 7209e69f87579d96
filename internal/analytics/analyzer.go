// Package analytics derives summaries, forecasts, and anomaly reports
// from stored bin readings. All operations are pure computations over an
// injected reading store; empty windows yield ErrNoData.
package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/smartbin/smartbin-backend/internal/models"
)

// Default analysis windows, in days.
const (
	DefaultStatsWindow   = 30
	ForecastTrainWindow  = 90
	AnomalyWindow        = 30
	ForecastMinReadings  = 10
	DefaultSensitivity   = 2.0
	DefaultForecastDays  = 7
	DefaultCompareWindow = 7
)

// ReadingStore is the slice of the repository the analyzer needs.
// sensorID == "" means no sensor filter.
type ReadingStore interface {
	ListReadingsSince(ctx context.Context, since time.Time, sensorID string, ascending bool) ([]*models.Reading, error)
}

// Analyzer computes analytics over stored readings.
type Analyzer struct {
	readings ReadingStore
	now      func() time.Time
}

// NewAnalyzer creates an analyzer over the given reading store.
func NewAnalyzer(readings ReadingStore) *Analyzer {
	return &Analyzer{readings: readings, now: time.Now}
}

// Stats computes aggregate statistics over peso_kg for the last N days,
// optionally filtered to one sensor.
func (a *Analyzer) Stats(ctx context.Context, days int, sensorID string) (*Statistics, error) {
	readings, err := a.window(ctx, days, sensorID, true)
	if err != nil {
		return nil, err
	}
	if len(readings) == 0 {
		return nil, ErrNoData
	}
	s := computeStats(weights(readings))
	s.Days = days
	return &s, nil
}

// Patterns analyses generation by hour of day and day of week over the
// last N days.
func (a *Analyzer) Patterns(ctx context.Context, days int) (*Patterns, error) {
	readings, err := a.window(ctx, days, "", true)
	if err != nil {
		return nil, err
	}
	if len(readings) == 0 {
		return nil, ErrNoData
	}

	stats := computeStats(weights(readings))
	stats.Days = days

	hourTotal := map[int]float64{}
	hourCount := map[int]int{}
	weekdayTotal := map[time.Weekday]float64{}
	weekdayCount := map[time.Weekday]int{}
	var tempSum, humSum float64
	sensorSet := map[string]bool{}

	for _, r := range readings {
		ts := r.Timestamp.UTC()
		hourTotal[ts.Hour()] += r.WeightKg
		hourCount[ts.Hour()]++
		weekdayTotal[ts.Weekday()] += r.WeightKg
		weekdayCount[ts.Weekday()]++
		tempSum += r.Temperature
		humSum += r.Humidity
		sensorSet[r.SensorID] = true
	}

	byHour := make([]HourBucket, 0, len(hourTotal))
	peakHour, peakTotal := 0, math.Inf(-1)
	for h := 0; h < 24; h++ {
		count := hourCount[h]
		if count == 0 {
			continue
		}
		total := hourTotal[h]
		byHour = append(byHour, HourBucket{
			Hour:    h,
			TotalKg: total,
			MeanKg:  total / float64(count),
			Count:   count,
		})
		if total > peakTotal {
			peakTotal, peakHour = total, h
		}
	}

	byWeekday := make([]WeekdayBucket, 0, len(weekdayTotal))
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		count := weekdayCount[wd]
		if count == 0 {
			continue
		}
		total := weekdayTotal[wd]
		byWeekday = append(byWeekday, WeekdayBucket{
			Weekday: wd.String(),
			TotalKg: total,
			MeanKg:  total / float64(count),
			Count:   count,
		})
	}

	sensors := make([]string, 0, len(sensorSet))
	for s := range sensorSet {
		sensors = append(sensors, s)
	}
	sort.Strings(sensors)

	n := float64(len(readings))
	return &Patterns{
		Stats:          stats,
		ByHour:         byHour,
		ByWeekday:      byWeekday,
		PeakHour:       peakHour,
		AvgTemperature: tempSum / n,
		AvgHumidity:    humSum / n,
		Sensors:        sensors,
	}, nil
}

// window loads readings with timestamp >= now - days.
func (a *Analyzer) window(ctx context.Context, days int, sensorID string, ascending bool) ([]*models.Reading, error) {
	since := a.now().UTC().AddDate(0, 0, -days)
	readings, err := a.readings.ListReadingsSince(ctx, since, sensorID, ascending)
	if err != nil {
		return nil, fmt.Errorf("failed to load readings: %w", err)
	}
	return readings, nil
}

func weights(readings []*models.Reading) []float64 {
	w := make([]float64, len(readings))
	for i, r := range readings {
		w[i] = r.WeightKg
	}
	return w
}

// computeStats works over a non-empty value slice.
func computeStats(values []float64) Statistics {
	n := float64(len(values))
	var total float64
	maxV := math.Inf(-1)
	minV := math.Inf(1)
	for _, v := range values {
		total += v
		if v > maxV {
			maxV = v
		}
		if v < minV {
			minV = v
		}
	}
	mean := total / n

	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= n

	return Statistics{
		TotalKg:  total,
		MeanKg:   mean,
		MaxKg:    maxV,
		MinKg:    minV,
		StdDev:   math.Sqrt(variance),
		MedianKg: median(values),
		Count:    len(values),
	}
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
