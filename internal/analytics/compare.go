package analytics

import (
	"context"
)

// ComparePeriods contrasts the last period1Days against the period2Days
// immediately before them. Percent change against a zero baseline is
// reported as 0.
func (a *Analyzer) ComparePeriods(ctx context.Context, period1Days, period2Days int) (*Comparison, error) {
	if period1Days <= 0 {
		period1Days = DefaultCompareWindow
	}
	if period2Days <= 0 {
		period2Days = DefaultCompareWindow
	}
	readings, err := a.window(ctx, period1Days+period2Days, "", true)
	if err != nil {
		return nil, err
	}
	if len(readings) == 0 {
		return nil, ErrNoData
	}

	now := a.now().UTC()
	p1Start := now.AddDate(0, 0, -period1Days)
	p2Start := now.AddDate(0, 0, -(period1Days + period2Days))

	p1 := PeriodSummary{Days: period1Days}
	p2 := PeriodSummary{Days: period2Days}
	for _, r := range readings {
		ts := r.Timestamp.UTC()
		switch {
		case !ts.Before(p1Start):
			p1.TotalKg += r.WeightKg
			p1.Count++
		case !ts.Before(p2Start):
			p2.TotalKg += r.WeightKg
			p2.Count++
		}
	}
	if p1.Count > 0 {
		p1.MeanKg = p1.TotalKg / float64(p1.Count)
	}
	if p2.Count > 0 {
		p2.MeanKg = p2.TotalKg / float64(p2.Count)
	}

	v := Variation{
		TotalPct: percentChange(p1.TotalKg, p2.TotalKg),
		MeanPct:  percentChange(p1.MeanKg, p2.MeanKg),
	}
	if p1.TotalKg-p2.TotalKg > 0 {
		v.Tendency = TendencyIncrease
	} else {
		v.Tendency = TendencyDecrease
	}

	return &Comparison{Period1: p1, Period2: p2, Variation: v}, nil
}

// percentChange of current against baseline; 0 when the baseline is 0.
func percentChange(current, baseline float64) float64 {
	if baseline == 0 {
		return 0
	}
	return (current - baseline) / baseline * 100
}
