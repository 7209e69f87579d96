package analytics

import (
	"context"
	"fmt"
)

// Report assembles the executive report: monthly patterns, a 7-day
// forecast, current anomalies and a week-over-week comparison. Sections
// whose analysis fails for lack of data are omitted rather than failing
// the whole report.
func (a *Analyzer) Report(ctx context.Context) (*ExecutiveReport, error) {
	rep := &ExecutiveReport{
		GeneratedAt: a.now().UTC(),
		Title:       "Relatorio Executivo - Gestao de Residuos",
		Anomalies:   []Anomaly{},
	}

	patterns, err := a.Patterns(ctx, DefaultStatsWindow)
	if err == nil {
		rep.Patterns = patterns
	} else if err != ErrNoData {
		return nil, err
	}

	forecast, err := a.Forecast(ctx, DefaultForecastDays)
	if err == nil {
		rep.Forecast = forecast
	} else if err != ErrNoData && err != ErrInsufficientData {
		return nil, err
	}

	anomalies, err := a.Anomalies(ctx, DefaultSensitivity)
	if err != nil {
		return nil, err
	}
	rep.Anomalies = anomalies

	comparison, err := a.ComparePeriods(ctx, DefaultCompareWindow, DefaultCompareWindow)
	if err == nil {
		rep.Comparison = comparison
	} else if err != ErrNoData {
		return nil, err
	}

	rep.Recommendations = recommendations(rep)
	return rep, nil
}

func recommendations(rep *ExecutiveReport) []string {
	recs := []string{}
	if rep.Patterns != nil {
		recs = append(recs, fmt.Sprintf(
			"Programar coletas proximo das %02dh, horario de pico de geracao.", rep.Patterns.PeakHour))
	}
	if len(rep.Anomalies) > 0 {
		recs = append(recs, fmt.Sprintf(
			"Investigar %d leitura(s) anomala(s) detectada(s) no periodo.", len(rep.Anomalies)))
	}
	if rep.Comparison != nil && rep.Comparison.Variation.Tendency == TendencyIncrease {
		recs = append(recs,
			"Volume em crescimento na ultima semana. Avaliar aumento da frequencia de coleta.")
	}
	if rep.Forecast != nil && rep.Forecast.Confidence == ConfidenceLow {
		recs = append(recs,
			"Confianca baixa na previsao. Ampliar o historico de leituras para melhorar o modelo.")
	}
	if len(recs) == 0 {
		recs = append(recs, "Operacao dentro do padrao esperado. Manter rotina de coleta atual.")
	}
	return recs
}
