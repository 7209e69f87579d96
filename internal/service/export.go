package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/smartbin/smartbin-backend/internal/models"
)

// ExportLimit caps how many readings a single export carries.
const ExportLimit = 1000

var exportHeader = []string{"timestamp", "sensor_id", "peso_kg", "temperatura", "umidade"}

// ExportService renders stored readings to downloadable formats.
type ExportService interface {
	ExportToCSV(ctx context.Context) ([]byte, error)
	ExportToXLSX(ctx context.Context) ([]byte, error)
}

// ReadingLister supplies readings newest first.
type ReadingLister interface {
	ListReadings(ctx context.Context, limit int) ([]*models.Reading, error)
}

type exportService struct {
	readings ReadingLister
}

// NewExportService creates a new export service
func NewExportService(readings ReadingLister) ExportService {
	return &exportService{readings: readings}
}

// ExportToCSV exports the most recent readings as CSV, newest first.
func (s *exportService) ExportToCSV(ctx context.Context) ([]byte, error) {
	readings, err := s.readings.ListReadings(ctx, ExportLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list readings: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, r := range readings {
		record := []string{
			r.Timestamp.UTC().Format(time.RFC3339),
			r.SensorID,
			strconv.FormatFloat(r.WeightKg, 'f', -1, 64),
			strconv.FormatFloat(r.Temperature, 'f', -1, 64),
			strconv.FormatFloat(r.Humidity, 'f', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportToXLSX exports the most recent readings as a spreadsheet, newest
// first, with a styled header row.
func (s *exportService) ExportToXLSX(ctx context.Context) ([]byte, error) {
	readings, err := s.readings.ListReadings(ctx, ExportLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list readings: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Leituras"
	f.SetSheetName("Sheet1", sheet)

	for col, title := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return nil, err
		}
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err == nil {
		f.SetCellStyle(sheet, "A1", "E1", headerStyle)
	}

	for i, r := range readings {
		row := i + 2
		values := []interface{}{
			r.Timestamp.UTC().Format(time.RFC3339),
			r.SensorID,
			r.WeightKg,
			r.Temperature,
			r.Humidity,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write spreadsheet: %w", err)
	}
	return buf.Bytes(), nil
}
