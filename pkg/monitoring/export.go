package monitoring

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"p9e.in/fuelnet/models"
)

// exportPageCap bounds a single export; large fleets page through filters.
const exportPageCap = 10000

// ExportData is the materialized export payload: the filtered snapshot list
// and, when requested, the joined measurement history.
type ExportData struct {
	Snapshots []StockView              `json:"data"`
	History   []models.FuelMeasurement `json:"measurement_history,omitempty"`
}

func newExportHistoryParams() *models.ReportParams {
	return &models.ReportParams{
		Page:      1,
		Limit:     exportPageCap,
		SortOrder: "desc",
		Filters:   map[string]string{},
	}
}

// CollectExport gathers the in-scope snapshots (and optionally their full
// measurement history) for serialization.
func (s *Service) CollectExport(scope Scope, filters map[string]string, includeHistory bool) (*ExportData, error) {
	views, _, err := s.collectStockViews(scope, filters)
	if err != nil {
		return nil, err
	}
	if len(views) > exportPageCap {
		views = views[:exportPageCap]
	}
	data := &ExportData{Snapshots: views}
	if includeHistory {
		params := newExportHistoryParams()
		rows, _, err := s.store.ListMeasurements(scope, params)
		if err != nil {
			return nil, err
		}
		data.History = rows
	}
	return data, nil
}

// snapshotHeader is the CSV column set for snapshot rows.
var snapshotHeader = []string{
	"tank_id", "tank_name", "trading_point", "fuel_type",
	"capacity", "min_volume", "max_volume", "current_volume", "fill_level",
	"temperature", "density", "water_level",
	"status", "fill_status", "alerts",
	"last_measurement", "last_calibration_date",
}

var historyHeader = []string{
	"id", "tank_id", "volume", "temperature", "density", "water_level",
	"method", "recorded_by", "notes", "measured_at",
}

// SnapshotTable flattens the snapshot list into header + string rows for
// the tabular formats.
func SnapshotTable(data *ExportData) ([]string, [][]string) {
	rows := make([][]string, 0, len(data.Snapshots))
	for _, view := range data.Snapshots {
		rows = append(rows, snapshotRecord(view))
	}
	return snapshotHeader, rows
}

// HistoryTable flattens the measurement history the same way.
func HistoryTable(data *ExportData) ([]string, [][]string) {
	rows := make([][]string, 0, len(data.History))
	for _, row := range data.History {
		rows = append(rows, historyRecord(row))
	}
	return historyHeader, rows
}

// WriteCSV serializes the export to CSV. encoding/csv escapes embedded
// quotes by doubling them, which is the contract clients rely on.
func WriteCSV(data *ExportData) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header, rows := SnapshotTable(data)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	if data.History != nil {
		w.Write([]string{})
		w.Write([]string{"measurement_history"})
		histHeader, histRows := HistoryTable(data)
		w.Write(histHeader)
		for _, row := range histRows {
			w.Write(row)
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

func snapshotRecord(view StockView) []string {
	tradingPoint := view.TradingPointID.String()
	if view.TradingPoint != nil {
		tradingPoint = view.TradingPoint.Name
	}
	fuelType := view.FuelTypeID.String()
	if view.FuelType != nil {
		fuelType = view.FuelType.Code
	}
	return []string{
		view.ID.String(),
		view.Name,
		tradingPoint,
		fuelType,
		formatFloat(view.Capacity),
		formatFloat(view.MinVolume),
		formatFloat(view.MaxVolume),
		formatFloat(view.CurrentVolume),
		formatFloat(view.FillLevel),
		formatFloatPtr(view.Temperature),
		formatFloatPtr(view.Density),
		formatFloatPtr(view.WaterLevel),
		string(view.Status),
		string(view.FillStatus),
		strings.Join(view.Alerts, "; "),
		formatTimePtr(view.LastMeasurement),
		formatDatePtr(view.LastCalibrationDate),
	}
}

func historyRecord(row models.FuelMeasurement) []string {
	notes := ""
	if row.Notes != nil {
		notes = *row.Notes
	}
	return []string{
		fmt.Sprintf("%d", row.ID),
		row.TankID.String(),
		formatFloat(row.Volume),
		formatFloatPtr(row.Temperature),
		formatFloatPtr(row.Density),
		formatFloatPtr(row.WaterLevel),
		string(row.Method),
		row.RecordedBy,
		notes,
		row.MeasuredAt.Format(time.RFC3339),
	}
}

// WriteJSON serializes the export: the canonical snapshot list plus, when
// history was collected, the parallel measurement_history array.
func WriteJSON(data *ExportData) ([]byte, error) {
	return json.MarshalIndent(data, "", "  ")
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *v)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
