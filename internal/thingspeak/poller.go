// Package thingspeak mirrors a ThingSpeak channel feed into local storage.
package thingspeak

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/smartbin/smartbin-backend/internal/models"
	"github.com/smartbin/smartbin-backend/internal/pkg/metrics"
)

const (
	baseURL = "https://api.thingspeak.com/channels"

	// DefaultInterval between channel polls.
	DefaultInterval = 60 * time.Second

	// Identity attached to mirrored readings.
	sensorID = "esp32-lixeira-001"
	location = "entrada"
	source   = "thingspeak"
)

// feedResponse is the shape of GET /channels/{id}/feeds.json.
type feedResponse struct {
	Feeds []feedEntry `json:"feeds"`
}

type feedEntry struct {
	CreatedAt string `json:"created_at"`
	Field1    string `json:"field1"`
}

// ReadingStore persists mirrored readings and answers duplicate checks.
type ReadingStore interface {
	CreateReading(ctx context.Context, r *models.Reading) error
	ThingSpeakTimestampExists(ctx context.Context, ts string) (bool, error)
}

// Poller fetches the latest channel entry on a fixed interval and stores
// it unless the entry's upstream timestamp was already mirrored.
type Poller struct {
	client    *resty.Client
	store     ReadingStore
	log       *zap.Logger
	channelID string
	interval  time.Duration
}

// New builds a poller for the given channel. readKey may be empty for
// public channels.
func New(store ReadingStore, log *zap.Logger, channelID, readKey string, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(2 * time.Second)
	if readKey != "" {
		client.SetQueryParam("api_key", readKey)
	}
	return &Poller{
		client:    client,
		store:     store,
		log:       log,
		channelID: channelID,
		interval:  interval,
	}
}

// Run polls until ctx is cancelled. A failed cycle is logged and the next
// tick proceeds normally.
func (p *Poller) Run(ctx context.Context) {
	p.log.Info("thingspeak poller started",
		zap.String("channel_id", p.channelID),
		zap.Duration("interval", p.interval))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		stored, err := p.PollOnce(ctx)
		switch {
		case err != nil:
			metrics.ThingSpeakSyncTotal.WithLabelValues("error").Inc()
			p.log.Warn("thingspeak poll failed", zap.Error(err))
		case stored:
			metrics.ThingSpeakSyncTotal.WithLabelValues("stored").Inc()
			metrics.ThingSpeakLastSyncTimestamp.SetToCurrentTime()
		default:
			metrics.ThingSpeakSyncTotal.WithLabelValues("duplicate").Inc()
			metrics.ThingSpeakLastSyncTimestamp.SetToCurrentTime()
		}

		select {
		case <-ctx.Done():
			p.log.Info("thingspeak poller stopped")
			return
		case <-ticker.C:
		}
	}
}

// PollOnce fetches the newest feed entry and stores it. Returns false when
// the channel is empty or the entry was already mirrored.
func (p *Poller) PollOnce(ctx context.Context) (bool, error) {
	var feed feedResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("results", "1").
		SetResult(&feed).
		Get(fmt.Sprintf("/%s/feeds.json", p.channelID))
	if err != nil {
		return false, err
	}
	if resp.IsError() {
		return false, fmt.Errorf("thingspeak returned status %d", resp.StatusCode())
	}
	if len(feed.Feeds) == 0 {
		return false, nil
	}

	entry := feed.Feeds[0]
	if entry.CreatedAt != "" {
		exists, err := p.store.ThingSpeakTimestampExists(ctx, entry.CreatedAt)
		if err != nil {
			return false, err
		}
		if exists {
			return false, nil
		}
	}

	weight, err := strconv.ParseFloat(entry.Field1, 64)
	if err != nil {
		return false, fmt.Errorf("invalid field1 %q: %w", entry.Field1, err)
	}

	reading := &models.Reading{
		Timestamp: time.Now().UTC(),
		WeightKg:  weight,
		SensorID:  sensorID,
		Location:  location,
		Source:    source,
	}
	if entry.CreatedAt != "" {
		ts := entry.CreatedAt
		reading.ThingSpeakTimestamp = &ts
	}
	if err := p.store.CreateReading(ctx, reading); err != nil {
		return false, err
	}

	metrics.ReadingsIngestedTotal.WithLabelValues(source).Inc()
	p.log.Info("thingspeak reading mirrored",
		zap.Float64("peso_kg", weight),
		zap.String("timestamp_thingspeak", entry.CreatedAt))
	return true, nil
}
