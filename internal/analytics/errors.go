package analytics

import "errors"

var (
	// ErrNoData means the requested window contains no readings.
	ErrNoData = errors.New("no readings in window")
	// ErrInsufficientData means the training window holds fewer readings
	// than the forecast minimum.
	ErrInsufficientData = errors.New("insufficient data for prediction")
)
