package models

import "time"

// Reading is a single waste-bin weight measurement pushed by a sensor or
// mirrored from the ThingSpeak feed. Immutable once stored.
type Reading struct {
	ID                  string    `json:"id,omitempty" db:"id"`
	Timestamp           time.Time `json:"timestamp" db:"timestamp"`
	WeightKg            float64   `json:"peso_kg" db:"peso_kg"`
	SensorID            string    `json:"sensor_id" db:"sensor_id"`
	Temperature         float64   `json:"temperatura" db:"temperatura"`
	Humidity            float64   `json:"umidade" db:"umidade"`
	Location            string    `json:"localizacao" db:"localizacao"`
	Source              string    `json:"fonte,omitempty" db:"fonte"`
	ThingSpeakTimestamp *string   `json:"timestamp_thingspeak,omitempty" db:"timestamp_thingspeak"`
}

// IngestRequest is the body for POST /api/dados. peso_kg and sensor_id are
// required; timestamp defaults to the current UTC time when absent.
type IngestRequest struct {
	WeightKg    *float64 `json:"peso_kg"`
	SensorID    string   `json:"sensor_id"`
	Temperature float64  `json:"temperatura"`
	Humidity    float64  `json:"umidade"`
	Location    string   `json:"localizacao"`
	Timestamp   string   `json:"timestamp"`
}
