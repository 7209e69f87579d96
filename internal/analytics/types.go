package analytics

import "time"

// Statistics are aggregate stats over peso_kg for a trailing window.
// StdDev is the population deviation (divide by N).
type Statistics struct {
	TotalKg  float64 `json:"total_gerado"`
	MeanKg   float64 `json:"media_por_leitura"`
	MaxKg    float64 `json:"pico_maximo"`
	MinKg    float64 `json:"pico_minimo"`
	StdDev   float64 `json:"desvio_padrao"`
	MedianKg float64 `json:"mediana"`
	Count    int     `json:"total_leituras"`
	Days     int     `json:"dias_analise"`
}

// HourBucket aggregates readings sharing an hour of day (0-23).
type HourBucket struct {
	Hour    int     `json:"hora"`
	TotalKg float64 `json:"total"`
	MeanKg  float64 `json:"media"`
	Count   int     `json:"ocorrencias"`
}

// WeekdayBucket aggregates readings sharing a day of week.
type WeekdayBucket struct {
	Weekday string  `json:"dia_semana"`
	TotalKg float64 `json:"total"`
	MeanKg  float64 `json:"media"`
	Count   int     `json:"ocorrencias"`
}

// Patterns describes how waste generation distributes over time of day
// and day of week.
type Patterns struct {
	Stats          Statistics      `json:"estatisticas"`
	ByHour         []HourBucket    `json:"geracao_por_hora"`
	ByWeekday      []WeekdayBucket `json:"geracao_por_dia_semana"`
	PeakHour       int             `json:"hora_pico"`
	AvgTemperature float64         `json:"temperatura_media"`
	AvgHumidity    float64         `json:"umidade_media"`
	Sensors        []string        `json:"sensores"`
}

// Prediction is one forecast day.
type Prediction struct {
	Day      int       `json:"dia"`
	WeightKg float64   `json:"peso_previsto_kg"`
	Date     time.Time `json:"data_estimada"`
}

// Forecast confidence buckets, derived from the fit's R².
const (
	ConfidenceHigh   = "High"
	ConfidenceMedium = "Medium"
	ConfidenceLow    = "Low"
)

// Forecast is a linear-trend projection of daily waste totals.
type Forecast struct {
	Model        string       `json:"modelo"`
	TrainingDays int          `json:"treino_dias"`
	R2           float64      `json:"r2_score"`
	Confidence   string       `json:"confianca"`
	Predictions  []Prediction `json:"predicoes"`
}

// Anomaly severity labels.
const (
	SeverityCritical = "Critical"
	SeverityHigh     = "High"
)

// Anomaly is a reading whose weight exceeded the detection threshold.
type Anomaly struct {
	Timestamp  time.Time `json:"timestamp"`
	WeightKg   float64   `json:"peso_kg"`
	SensorID   string    `json:"sensor_id"`
	Deviations float64   `json:"desvios_padrao"`
	Severity   string    `json:"severidade"`
}

// PeriodSummary sums one comparison window.
type PeriodSummary struct {
	Days    int     `json:"dias"`
	TotalKg float64 `json:"total_kg"`
	MeanKg  float64 `json:"media_kg"`
	Count   int     `json:"ocorrencias"`
}

// Tendency labels for period comparison.
const (
	TendencyIncrease = "Increase"
	TendencyDecrease = "Decrease"
)

// Variation is the percent change between two periods. Percentages are 0
// when the baseline period is 0, never Inf or NaN.
type Variation struct {
	TotalPct float64 `json:"total_percentual"`
	MeanPct  float64 `json:"media_percentual"`
	Tendency string  `json:"tendencia"`
}

// Comparison contrasts a trailing period against the one before it.
type Comparison struct {
	Period1   PeriodSummary `json:"periodo1"`
	Period2   PeriodSummary `json:"periodo2"`
	Variation Variation     `json:"variacao"`
}

// ExecutiveReport aggregates every analysis into one document.
type ExecutiveReport struct {
	GeneratedAt     time.Time   `json:"timestamp_geracao"`
	Title           string      `json:"titulo"`
	Patterns        *Patterns   `json:"padroes,omitempty"`
	Forecast        *Forecast   `json:"predicoes,omitempty"`
	Anomalies       []Anomaly   `json:"anomalias"`
	Comparison      *Comparison `json:"comparacao,omitempty"`
	Recommendations []string    `json:"recomendacoes"`
}
