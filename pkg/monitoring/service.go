package monitoring

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"p9e.in/fuelnet/models"
)

const (
	defaultStockPageSize = 20
	maxStockPageSize     = 100
)

func normalizePageLimit(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultStockPageSize
	}
	if limit > maxStockPageSize {
		limit = maxStockPageSize
	}
	return page, limit
}

// Service is the monitoring core: measurement recording, calibration,
// alert queries and the event log. Every operation takes the caller's
// resolved scope and short-circuits before any mutation when the scope
// excludes the target tank.
type Service struct {
	store TankStore
	now   func() time.Time
}

// NewService builds a Service on the given store with the wall clock.
func NewService(store TankStore) *Service {
	return &Service{store: store, now: time.Now}
}

// NewServiceWithClock injects the clock, for calibration-age tests.
func NewServiceWithClock(store TankStore, now func() time.Time) *Service {
	return &Service{store: store, now: now}
}

// MeasurementInput carries one reading or calibration submission. Volume is
// a pointer so a missing field is distinguishable from zero.
type MeasurementInput struct {
	Volume      *float64                 `json:"volume"`
	Temperature *float64                 `json:"temperature,omitempty"`
	Density     *float64                 `json:"density,omitempty"`
	WaterLevel  *float64                 `json:"water_level,omitempty"`
	Method      models.MeasurementMethod `json:"measurement_method,omitempty"`
	Notes       *string                  `json:"notes,omitempty"`
	// MeasuredAt backfills a reading taken earlier (offline clients);
	// defaults to the server clock.
	MeasuredAt *models.JSONTime `json:"measured_at,omitempty"`
}

func (in *MeasurementInput) validate(capacity float64) error {
	if in.Volume == nil {
		return &ValidationError{Field: "volume", Message: "required"}
	}
	if *in.Volume < 0 {
		return &ValidationError{Field: "volume", Message: "must be >= 0"}
	}
	if *in.Volume > capacity {
		return &CapacityExceededError{Volume: *in.Volume, Capacity: capacity}
	}
	if in.Method == "" {
		in.Method = models.MethodManual
	} else if !validMethod(in.Method) {
		return &ValidationError{
			Field:   "measurement_method",
			Message: fmt.Sprintf("must be one of %v", models.ValidMeasurementMethods),
		}
	}
	return nil
}

func validMethod(m models.MeasurementMethod) bool {
	for _, v := range models.ValidMeasurementMethods {
		if v == m {
			return true
		}
	}
	return false
}

func (s *Service) findScopedTank(scope Scope, tankID uuid.UUID) (*models.Tank, error) {
	tank, err := s.store.FindTank(tankID)
	if err != nil {
		return nil, err
	}
	if !scope.AllowsTradingPoint(tank.TradingPointID) {
		return nil, &AccessDeniedError{Resource: "tank " + tankID.String()}
	}
	return tank, nil
}

// RecordMeasurement validates a reading, updates the tank snapshot through
// the threshold engine and appends the immutable history row, all in one
// store transaction. The updated snapshot with freshly derived status and
// alerts is returned.
func (s *Service) RecordMeasurement(scope Scope, tankID uuid.UUID, in MeasurementInput, operator string) (*models.Tank, error) {
	tank, err := s.findScopedTank(scope, tankID)
	if err != nil {
		return nil, err
	}
	if err := in.validate(tank.Capacity); err != nil {
		return nil, err
	}

	now := s.now()
	measuredAt := now
	if in.MeasuredAt != nil {
		measuredAt = in.MeasuredAt.Time()
		if measuredAt.After(now) {
			return nil, &ValidationError{Field: "measured_at", Message: "must not be in the future"}
		}
	}

	tank.CurrentVolume = *in.Volume
	if in.Temperature != nil {
		tank.Temperature = in.Temperature
	}
	if in.Density != nil {
		tank.Density = in.Density
	}
	if in.WaterLevel != nil {
		tank.WaterLevel = in.WaterLevel
	}
	tank.LastMeasurement = &measuredAt

	if tank.Metadata == nil {
		tank.Metadata = map[string]interface{}{}
	}
	tank.Metadata["last_measurement_method"] = string(in.Method)
	tank.Metadata["last_measurement_operator"] = operator

	status, alerts := DeriveStatus(tank, now)
	tank.FillStatus = status
	tank.Alerts = alerts

	rec := &models.FuelMeasurement{
		TankID:      tank.ID,
		FuelTypeID:  tank.FuelTypeID,
		Volume:      *in.Volume,
		Temperature: in.Temperature,
		Density:     in.Density,
		WaterLevel:  in.WaterLevel,
		Method:      in.Method,
		RecordedBy:  operator,
		Notes:       in.Notes,
		MeasuredAt:  measuredAt,
	}
	if err := s.store.SaveMeasurement(tank, rec); err != nil {
		return nil, err
	}
	return tank, nil
}

// Calibrate applies an authoritative volume correction. It overrides the
// last raw measurement, stamps the calibration date and appends a
// calibration event; calibrations deliberately leave the measurement
// history untouched.
func (s *Service) Calibrate(scope Scope, tankID uuid.UUID, in MeasurementInput, operator string) (*models.Tank, error) {
	tank, err := s.findScopedTank(scope, tankID)
	if err != nil {
		return nil, err
	}
	if err := in.validate(tank.Capacity); err != nil {
		return nil, err
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	tank.CurrentVolume = *in.Volume
	if in.Temperature != nil {
		tank.Temperature = in.Temperature
	}
	if in.Density != nil {
		tank.Density = in.Density
	}
	if in.WaterLevel != nil {
		tank.WaterLevel = in.WaterLevel
	}
	tank.LastCalibrationDate = &today

	if tank.Metadata == nil {
		tank.Metadata = map[string]interface{}{}
	}
	tank.Metadata["last_calibration_method"] = string(in.Method)
	tank.Metadata["last_calibration_operator"] = operator
	if in.Notes != nil {
		tank.Metadata["last_calibration_notes"] = *in.Notes
	}

	status, alerts := DeriveStatus(tank, now)
	tank.FillStatus = status
	tank.Alerts = alerts

	event := &models.TankEvent{
		TankID:      tank.ID,
		EventType:   models.EventCalibration,
		Title:       "Tank calibration",
		Description: fmt.Sprintf("calibrated to %.2f L (%s)", *in.Volume, in.Method),
		PerformedBy: operator,
		Severity:    models.SeverityInfo,
		Metadata: map[string]interface{}{
			"volume": *in.Volume,
			"method": string(in.Method),
		},
		OccurredAt: now,
	}
	if err := s.store.SaveCalibration(tank, event); err != nil {
		return nil, err
	}
	return tank, nil
}

// TankInput provisions a new tank snapshot.
type TankInput struct {
	TradingPointID uuid.UUID         `json:"trading_point_id"`
	FuelTypeID     uuid.UUID         `json:"fuel_type_id"`
	EquipmentID    *uuid.UUID        `json:"equipment_id,omitempty"`
	Name           string            `json:"name"`
	Capacity       float64           `json:"capacity"`
	MinVolume      *float64          `json:"min_volume,omitempty"`
	MaxVolume      *float64          `json:"max_volume,omitempty"`
	Status         models.TankStatus `json:"status,omitempty"`
}

// ProvisionTank creates a tank with volume zero and validated bounds.
// Capacity is fixed from here on.
func (s *Service) ProvisionTank(scope Scope, in TankInput) (*models.Tank, error) {
	if !scope.AllowsTradingPoint(in.TradingPointID) {
		return nil, &AccessDeniedError{Resource: "trading point " + in.TradingPointID.String()}
	}
	if in.Capacity <= 0 {
		return nil, &ValidationError{Field: "capacity", Message: "must be > 0"}
	}
	minVolume := 0.0
	if in.MinVolume != nil {
		minVolume = *in.MinVolume
	}
	maxVolume := in.Capacity
	if in.MaxVolume != nil {
		maxVolume = *in.MaxVolume
	}
	if minVolume < 0 {
		return nil, &ValidationError{Field: "min_volume", Message: "must be >= 0"}
	}
	if maxVolume < minVolume {
		return nil, &ValidationError{Field: "max_volume", Message: "must be >= min_volume"}
	}
	if maxVolume > in.Capacity {
		return nil, &ValidationError{Field: "max_volume", Message: "must be <= capacity"}
	}
	status := in.Status
	if status == "" {
		status = models.TankActive
	} else if !validTankStatus(status) {
		return nil, &ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("must be one of %v", models.ValidTankStatuses),
		}
	}

	tank := &models.Tank{
		TradingPointID: in.TradingPointID,
		FuelTypeID:     in.FuelTypeID,
		EquipmentID:    in.EquipmentID,
		Name:           in.Name,
		Capacity:       in.Capacity,
		MinVolume:      minVolume,
		MaxVolume:      maxVolume,
		CurrentVolume:  0,
		Status:         status,
	}
	fillStatus, alerts := DeriveStatus(tank, s.now())
	tank.FillStatus = fillStatus
	tank.Alerts = alerts

	if err := s.store.CreateTank(tank); err != nil {
		return nil, err
	}
	return tank, nil
}

func validTankStatus(st models.TankStatus) bool {
	for _, v := range models.ValidTankStatuses {
		if v == st {
			return true
		}
	}
	return false
}

// EventInput is a manually recorded tank event (drain, fill, maintenance,
// alarm). Calibration events come only from Calibrate.
type EventInput struct {
	EventType   models.TankEventType   `json:"event_type"`
	Title       string                 `json:"title"`
	Description string                 `json:"description,omitempty"`
	Severity    models.EventSeverity   `json:"severity,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// RecordEvent appends an immutable entry to a tank's event log.
func (s *Service) RecordEvent(scope Scope, tankID uuid.UUID, in EventInput, operator string) (*models.TankEvent, error) {
	tank, err := s.findScopedTank(scope, tankID)
	if err != nil {
		return nil, err
	}
	if !validEventType(in.EventType) {
		return nil, &ValidationError{
			Field:   "event_type",
			Message: fmt.Sprintf("must be one of %v", models.ValidTankEventTypes),
		}
	}
	if in.Title == "" {
		return nil, &ValidationError{Field: "title", Message: "required"}
	}
	severity := in.Severity
	if severity == "" {
		severity = models.SeverityInfo
	} else if !validSeverity(severity) {
		return nil, &ValidationError{
			Field:   "severity",
			Message: fmt.Sprintf("must be one of %v", models.ValidEventSeverities),
		}
	}

	event := &models.TankEvent{
		TankID:      tank.ID,
		EventType:   in.EventType,
		Title:       in.Title,
		Description: in.Description,
		PerformedBy: operator,
		Severity:    severity,
		Metadata:    in.Metadata,
		OccurredAt:  s.now(),
	}
	if err := s.store.AppendEvent(event); err != nil {
		return nil, err
	}
	return event, nil
}

func validEventType(et models.TankEventType) bool {
	for _, v := range models.ValidTankEventTypes {
		if v == et {
			return true
		}
	}
	return false
}

func validSeverity(sev models.EventSeverity) bool {
	for _, v := range models.ValidEventSeverities {
		if v == sev {
			return true
		}
	}
	return false
}

// ListEvents pages through a tank's event log, newest first.
func (s *Service) ListEvents(scope Scope, tankID uuid.UUID, params *models.ReportParams) (*models.PaginatedResponse, error) {
	if _, err := s.findScopedTank(scope, tankID); err != nil {
		return nil, err
	}
	if params.Filters == nil {
		params.Filters = map[string]string{}
	}
	params.Filters["tank_id"] = tankID.String()
	events, total, err := s.store.ListEvents(params)
	if err != nil {
		return nil, err
	}
	return &models.PaginatedResponse{
		Data:       events,
		Pagination: models.NewPagination(params.Page, params.Limit, total),
	}, nil
}

// AlertItem is one non-normal snapshot in an alert listing.
type AlertItem struct {
	TankID           uuid.UUID         `json:"tank_id"`
	TankName         string            `json:"tank_name"`
	TradingPointID   uuid.UUID         `json:"trading_point_id"`
	TradingPointName string            `json:"trading_point_name,omitempty"`
	FuelTypeCode     string            `json:"fuel_type,omitempty"`
	Status           models.FillStatus `json:"status"`
	Severity         string            `json:"severity"`
	Alerts           []string          `json:"alerts"`
	FillLevel        float64           `json:"fill_level"`
	CurrentVolume    float64           `json:"current_volume"`
	Capacity         float64           `json:"capacity"`
	LastMeasurement  *time.Time        `json:"last_measurement,omitempty"`
}

// AlertFilters narrows an alert listing.
type AlertFilters struct {
	Severity       string
	TradingPointID string
	NetworkID      string
}

// AlertList is one page of alerts plus grouped severity counts over the
// whole matching set.
type AlertList struct {
	Data       []AlertItem       `json:"data"`
	Counts     map[string]int    `json:"counts"`
	Pagination models.Pagination `json:"pagination"`
}

// ListAlerts scans the in-scope snapshots, keeps those whose derived state
// is not clean, and returns them ordered most severe first, most recent
// measurement first within a severity.
func (s *Service) ListAlerts(scope Scope, filters AlertFilters, page, limit int) (*AlertList, error) {
	storeFilters := map[string]string{}
	if filters.TradingPointID != "" {
		id, err := uuid.Parse(filters.TradingPointID)
		if err != nil {
			return nil, &ValidationError{Field: "trading_point_id", Message: "invalid uuid"}
		}
		if !scope.AllowsTradingPoint(id) {
			return nil, &AccessDeniedError{Resource: "trading point " + filters.TradingPointID}
		}
		storeFilters["trading_point_id"] = filters.TradingPointID
	}
	if filters.NetworkID != "" {
		storeFilters["network_id"] = filters.NetworkID
	}

	var admitted []models.FillStatus
	if filters.Severity != "" {
		var ok bool
		admitted, ok = severityStatuses[filters.Severity]
		if !ok {
			return nil, &ValidationError{
				Field:   "severity",
				Message: "must be one of [critical high medium low]",
			}
		}
	}

	tanks, err := s.store.ListTanks(scope, storeFilters)
	if err != nil {
		return nil, err
	}

	now := s.now()
	items := make([]AlertItem, 0)
	counts := map[string]int{}
	for i := range tanks {
		tank := &tanks[i]
		status, alerts := DeriveStatus(tank, now)
		if status == models.FillNormal && len(alerts) == 0 {
			continue
		}
		severity := AlertSeverity(status)
		// Counts cover the whole alerting set; the severity filter only
		// narrows the listed items.
		counts[severity]++
		if admitted != nil && !statusAdmitted(status, admitted) {
			continue
		}

		item := AlertItem{
			TankID:          tank.ID,
			TankName:        tank.Name,
			TradingPointID:  tank.TradingPointID,
			Status:          status,
			Severity:        severity,
			Alerts:          alerts,
			FillLevel:       clampPercent(tank.FillPercent()),
			CurrentVolume:   tank.CurrentVolume,
			Capacity:        tank.Capacity,
			LastMeasurement: tank.LastMeasurement,
		}
		if tank.TradingPoint != nil {
			item.TradingPointName = tank.TradingPoint.Name
		}
		if tank.FuelType != nil {
			item.FuelTypeCode = tank.FuelType.Code
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		ri, rj := statusRank(items[i].Status), statusRank(items[j].Status)
		if ri != rj {
			return ri > rj
		}
		ti, tj := items[i].LastMeasurement, items[j].LastMeasurement
		switch {
		case ti == nil:
			return false
		case tj == nil:
			return true
		default:
			return ti.After(*tj)
		}
	})

	total := int64(len(items))
	page, limit = normalizePageLimit(page, limit)
	start := (page - 1) * limit
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}

	return &AlertList{
		Data:       items[start:end],
		Counts:     counts,
		Pagination: models.NewPagination(page, limit, total),
	}, nil
}

func statusAdmitted(status models.FillStatus, admitted []models.FillStatus) bool {
	for _, a := range admitted {
		if a == status {
			return true
		}
	}
	return false
}

func clampPercent(pct float64) float64 {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// StockSummary aggregates the in-scope snapshot fleet for list displays.
type StockSummary struct {
	Total         int            `json:"total"`
	ByStatus      map[string]int `json:"by_status"`
	TotalVolume   float64        `json:"total_volume"`
	TotalCapacity float64        `json:"total_capacity"`
	AverageFill   float64        `json:"average_fill"`
}

// StockView is a snapshot enriched with freshly derived state for clients.
type StockView struct {
	models.Tank
	FillLevel float64 `json:"fillLevel"`
}

// collectStockViews derives status for every in-scope snapshot matching the
// filters and accumulates the fleet summary.
func (s *Service) collectStockViews(scope Scope, filters map[string]string) ([]StockView, *StockSummary, error) {
	fillFilter := filters["fill_status"]
	delete(filters, "fill_status")

	tanks, err := s.store.ListTanks(scope, filters)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	summary := &StockSummary{ByStatus: map[string]int{}}
	views := make([]StockView, 0, len(tanks))
	var fillSum float64
	for i := range tanks {
		tank := tanks[i]
		status, alerts := DeriveStatus(&tank, now)
		tank.FillStatus = status
		tank.Alerts = alerts
		if fillFilter != "" && string(status) != fillFilter {
			continue
		}
		pct := clampPercent(tank.FillPercent())
		summary.Total++
		summary.ByStatus[string(status)]++
		summary.TotalVolume += tank.CurrentVolume
		summary.TotalCapacity += tank.Capacity
		fillSum += pct
		views = append(views, StockView{Tank: tank, FillLevel: pct})
	}
	if summary.Total > 0 {
		summary.AverageFill = fillSum / float64(summary.Total)
	}
	return views, summary, nil
}

// ListStocks returns one page of in-scope snapshots with derived status,
// plus the fleet summary over the whole matching set.
func (s *Service) ListStocks(scope Scope, filters map[string]string, page, limit int) ([]StockView, *StockSummary, models.Pagination, error) {
	views, summary, err := s.collectStockViews(scope, filters)
	if err != nil {
		return nil, nil, models.Pagination{}, err
	}

	total := int64(len(views))
	page, limit = normalizePageLimit(page, limit)
	start := (page - 1) * limit
	if start > len(views) {
		start = len(views)
	}
	end := start + limit
	if end > len(views) {
		end = len(views)
	}
	return views[start:end], summary, models.NewPagination(page, limit, total), nil
}

// GetStock returns one snapshot with freshly derived status.
func (s *Service) GetStock(scope Scope, tankID uuid.UUID) (*StockView, error) {
	tank, err := s.findScopedTank(scope, tankID)
	if err != nil {
		return nil, err
	}
	status, alerts := DeriveStatus(tank, s.now())
	tank.FillStatus = status
	tank.Alerts = alerts
	return &StockView{Tank: *tank, FillLevel: clampPercent(tank.FillPercent())}, nil
}

// ListHistory pages through measurement history with date-range, tank and
// fuel-type filters. Non-elevated callers only see tanks in their scope.
func (s *Service) ListHistory(scope Scope, params *models.ReportParams) (*models.PaginatedResponse, error) {
	if tankID := params.Filters["tank_id"]; tankID != "" {
		id, err := uuid.Parse(tankID)
		if err != nil {
			return nil, &ValidationError{Field: "tank_id", Message: "invalid uuid"}
		}
		if _, err := s.findScopedTank(scope, id); err != nil {
			return nil, err
		}
	}
	rows, total, err := s.store.ListMeasurements(scope, params)
	if err != nil {
		return nil, err
	}
	return &models.PaginatedResponse{
		Data:       rows,
		Pagination: models.NewPagination(params.Page, params.Limit, total),
	}, nil
}
