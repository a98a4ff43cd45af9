package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"p9e.in/fuelnet/models"
)

// fakeStore is an in-memory TankStore for service tests.
type fakeStore struct {
	tanks        map[uuid.UUID]models.Tank
	measurements []models.FuelMeasurement
	events       []models.TankEvent
}

func newFakeStore() *fakeStore {
	return &fakeStore{tanks: map[uuid.UUID]models.Tank{}}
}

func (s *fakeStore) put(tank models.Tank) {
	s.tanks[tank.ID] = tank
}

func (s *fakeStore) FindTank(id uuid.UUID) (*models.Tank, error) {
	tank, ok := s.tanks[id]
	if !ok {
		return nil, &NotFoundError{Resource: "tank", ID: id.String()}
	}
	copied := tank
	return &copied, nil
}

func (s *fakeStore) CreateTank(tank *models.Tank) error {
	if tank.ID == uuid.Nil {
		tank.ID = uuid.New()
	}
	s.put(*tank)
	return nil
}

func (s *fakeStore) ListTanks(scope Scope, filters map[string]string) ([]models.Tank, error) {
	var out []models.Tank
	for _, tank := range s.tanks {
		if !scope.AllowsTradingPoint(tank.TradingPointID) {
			continue
		}
		if v := filters["trading_point_id"]; v != "" && tank.TradingPointID.String() != v {
			continue
		}
		out = append(out, tank)
	}
	return out, nil
}

func (s *fakeStore) SaveMeasurement(tank *models.Tank, rec *models.FuelMeasurement) error {
	s.put(*tank)
	rec.ID = uint(len(s.measurements) + 1)
	s.measurements = append(s.measurements, *rec)
	return nil
}

func (s *fakeStore) SaveCalibration(tank *models.Tank, event *models.TankEvent) error {
	s.put(*tank)
	event.ID = uint(len(s.events) + 1)
	s.events = append(s.events, *event)
	return nil
}

func (s *fakeStore) AppendEvent(event *models.TankEvent) error {
	event.ID = uint(len(s.events) + 1)
	s.events = append(s.events, *event)
	return nil
}

func (s *fakeStore) ListEvents(params *models.ReportParams) ([]models.TankEvent, int64, error) {
	var matched []models.TankEvent
	for _, event := range s.events {
		if v := params.Filters["tank_id"]; v != "" && event.TankID.String() != v {
			continue
		}
		if v := params.Filters["event_type"]; v != "" && string(event.EventType) != v {
			continue
		}
		if params.DateFrom != nil && event.OccurredAt.Before(*params.DateFrom) {
			continue
		}
		if params.DateTo != nil && event.OccurredAt.After(*params.DateTo) {
			continue
		}
		matched = append(matched, event)
	}
	total := int64(len(matched))
	start := params.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + params.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *fakeStore) ListMeasurements(scope Scope, params *models.ReportParams) ([]models.FuelMeasurement, int64, error) {
	var matched []models.FuelMeasurement
	for _, row := range s.measurements {
		if v := params.Filters["tank_id"]; v != "" && row.TankID.String() != v {
			continue
		}
		if params.DateFrom != nil && row.MeasuredAt.Before(*params.DateFrom) {
			continue
		}
		if params.DateTo != nil && row.MeasuredAt.After(*params.DateTo) {
			continue
		}
		matched = append(matched, row)
	}
	total := int64(len(matched))
	start := params.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + params.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func newTestService(store *fakeStore) *Service {
	return NewServiceWithClock(store, func() time.Time { return testNow })
}

func seedTank(store *fakeStore, volume float64) models.Tank {
	tank := models.Tank{
		ID:                  uuid.New(),
		TradingPointID:      uuid.New(),
		FuelTypeID:          uuid.New(),
		Name:                "Tank 1",
		Capacity:            10000,
		MinVolume:           1000,
		MaxVolume:           10000,
		CurrentVolume:       volume,
		Status:              models.TankActive,
		LastCalibrationDate: daysAgo(10),
	}
	store.put(tank)
	return tank
}

func elevated() Scope { return Scope{Elevated: true} }

func TestRecordMeasurementUpdatesSnapshotAndHistory(t *testing.T) {
	store := newFakeStore()
	tank := seedTank(store, 5000)
	service := newTestService(store)

	updated, err := service.RecordMeasurement(elevated(), tank.ID, MeasurementInput{
		Volume:      floatPtr(400),
		Temperature: floatPtr(14.5),
	}, "petrov")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.CurrentVolume != 400 {
		t.Errorf("currentVolume = %v, want 400", updated.CurrentVolume)
	}
	if updated.FillStatus != models.FillCritical {
		t.Errorf("fillStatus = %q, want critical", updated.FillStatus)
	}
	if updated.LastMeasurement == nil || !updated.LastMeasurement.Equal(testNow) {
		t.Errorf("lastMeasurement = %v, want %v", updated.LastMeasurement, testNow)
	}
	if len(store.measurements) != 1 {
		t.Fatalf("history rows = %d, want 1", len(store.measurements))
	}
	rec := store.measurements[0]
	if rec.Volume != 400 || rec.Method != models.MethodManual || rec.RecordedBy != "petrov" {
		t.Errorf("history row = %+v", rec)
	}
	if got := store.tanks[tank.ID].CurrentVolume; got != 400 {
		t.Errorf("persisted volume = %v, want 400", got)
	}
}

func TestRecordMeasurementValidation(t *testing.T) {
	tests := []struct {
		name  string
		input MeasurementInput
		check func(t *testing.T, err error)
	}{
		{
			name:  "missing volume",
			input: MeasurementInput{},
			check: func(t *testing.T, err error) {
				var validationErr *ValidationError
				if !errors.As(err, &validationErr) || validationErr.Field != "volume" {
					t.Errorf("err = %v, want volume ValidationError", err)
				}
			},
		},
		{
			name:  "negative volume",
			input: MeasurementInput{Volume: floatPtr(-5)},
			check: func(t *testing.T, err error) {
				var validationErr *ValidationError
				if !errors.As(err, &validationErr) {
					t.Errorf("err = %v, want ValidationError", err)
				}
			},
		},
		{
			name:  "over capacity",
			input: MeasurementInput{Volume: floatPtr(10001)},
			check: func(t *testing.T, err error) {
				var capacityErr *CapacityExceededError
				if !errors.As(err, &capacityErr) {
					t.Fatalf("err = %v, want CapacityExceededError", err)
				}
				if capacityErr.Volume != 10001 || capacityErr.Capacity != 10000 {
					t.Errorf("payload = %+v", capacityErr)
				}
			},
		},
		{
			name:  "bad method",
			input: MeasurementInput{Volume: floatPtr(100), Method: "telepathy"},
			check: func(t *testing.T, err error) {
				var validationErr *ValidationError
				if !errors.As(err, &validationErr) || validationErr.Field != "measurement_method" {
					t.Errorf("err = %v, want method ValidationError", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			tank := seedTank(store, 5000)
			service := newTestService(store)

			_, err := service.RecordMeasurement(elevated(), tank.ID, tt.input, "petrov")
			if err == nil {
				t.Fatal("expected error")
			}
			tt.check(t, err)

			// Rejected input never mutates the snapshot or the history.
			if got := store.tanks[tank.ID].CurrentVolume; got != 5000 {
				t.Errorf("snapshot mutated to %v", got)
			}
			if len(store.measurements) != 0 {
				t.Errorf("history rows = %d, want 0", len(store.measurements))
			}
		})
	}
}

func TestRecordMeasurementBackfill(t *testing.T) {
	store := newFakeStore()
	tank := seedTank(store, 5000)
	service := newTestService(store)

	earlier := models.JSONTime(testNow.Add(-6 * time.Hour))
	updated, err := service.RecordMeasurement(elevated(), tank.ID, MeasurementInput{
		Volume:     floatPtr(4500),
		MeasuredAt: &earlier,
	}, "petrov")
	if err != nil {
		t.Fatal(err)
	}
	if updated.LastMeasurement == nil || !updated.LastMeasurement.Equal(earlier.Time()) {
		t.Errorf("lastMeasurement = %v, want %v", updated.LastMeasurement, earlier.Time())
	}
	if store.measurements[0].MeasuredAt != earlier.Time() {
		t.Errorf("history measuredAt = %v", store.measurements[0].MeasuredAt)
	}

	future := models.JSONTime(testNow.Add(time.Hour))
	_, err = service.RecordMeasurement(elevated(), tank.ID, MeasurementInput{
		Volume:     floatPtr(4500),
		MeasuredAt: &future,
	}, "petrov")
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) || validationErr.Field != "measured_at" {
		t.Errorf("err = %v, want measured_at ValidationError", err)
	}
}

func TestRecordMeasurementScopeAndMissing(t *testing.T) {
	store := newFakeStore()
	tank := seedTank(store, 5000)
	service := newTestService(store)

	outOfScope := Scope{TradingPointIDs: []uuid.UUID{uuid.New()}}
	_, err := service.RecordMeasurement(outOfScope, tank.ID, MeasurementInput{Volume: floatPtr(100)}, "petrov")
	var accessErr *AccessDeniedError
	if !errors.As(err, &accessErr) {
		t.Errorf("err = %v, want AccessDeniedError", err)
	}
	if len(store.measurements) != 0 {
		t.Error("out-of-scope call reached the store")
	}

	_, err = service.RecordMeasurement(elevated(), uuid.New(), MeasurementInput{Volume: floatPtr(100)}, "petrov")
	var notFoundErr *NotFoundError
	if !errors.As(err, &notFoundErr) {
		t.Errorf("err = %v, want NotFoundError", err)
	}
}

func TestMeasurementHistoryAppendOnly(t *testing.T) {
	store := newFakeStore()
	tank := seedTank(store, 5000)
	service := newTestService(store)

	for i := 1; i <= 5; i++ {
		_, err := service.RecordMeasurement(elevated(), tank.ID, MeasurementInput{Volume: floatPtr(float64(1000 * i))}, "petrov")
		if err != nil {
			t.Fatalf("measurement %d: %v", i, err)
		}
		if len(store.measurements) != i {
			t.Fatalf("after %d calls history rows = %d", i, len(store.measurements))
		}
	}
	// Earlier rows are untouched.
	if store.measurements[0].Volume != 1000 {
		t.Errorf("first row mutated: %+v", store.measurements[0])
	}
}

func TestScenarioCriticalThenResolved(t *testing.T) {
	store := newFakeStore()
	tank := seedTank(store, 5000)
	service := newTestService(store)

	updated, err := service.RecordMeasurement(elevated(), tank.ID, MeasurementInput{Volume: floatPtr(400)}, "petrov")
	if err != nil {
		t.Fatal(err)
	}
	if updated.FillStatus != models.FillCritical {
		t.Errorf("fillStatus = %q, want critical", updated.FillStatus)
	}
	if !containsString(updated.Alerts, AlertCriticalLevel) {
		t.Errorf("alerts = %v, want critical fuel level", updated.Alerts)
	}

	updated, err = service.RecordMeasurement(elevated(), tank.ID, MeasurementInput{Volume: floatPtr(3000)}, "petrov")
	if err != nil {
		t.Fatal(err)
	}
	if updated.FillStatus != models.FillNormal {
		t.Errorf("fillStatus = %q, want normal", updated.FillStatus)
	}
	if len(updated.Alerts) != 0 {
		t.Errorf("alerts = %v, want empty", updated.Alerts)
	}
}

func TestCalibrateOverridesMeasurement(t *testing.T) {
	store := newFakeStore()
	tank := seedTank(store, 5000)
	service := newTestService(store)

	if _, err := service.RecordMeasurement(elevated(), tank.ID, MeasurementInput{Volume: floatPtr(4200)}, "petrov"); err != nil {
		t.Fatal(err)
	}

	notes := "stick check after delivery"
	updated, err := service.Calibrate(elevated(), tank.ID, MeasurementInput{
		Volume: floatPtr(3900),
		Method: models.MethodCalibratedStick,
		Notes:  &notes,
	}, "ivanova")
	if err != nil {
		t.Fatal(err)
	}

	if updated.CurrentVolume != 3900 {
		t.Errorf("currentVolume = %v, want calibrated 3900", updated.CurrentVolume)
	}
	wantDate := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if updated.LastCalibrationDate == nil || !updated.LastCalibrationDate.Equal(wantDate) {
		t.Errorf("lastCalibrationDate = %v, want %v", updated.LastCalibrationDate, wantDate)
	}
	if updated.Metadata["last_calibration_operator"] != "ivanova" {
		t.Errorf("metadata = %v", updated.Metadata)
	}

	// Calibration goes to the event log, never to measurement history.
	if len(store.measurements) != 1 {
		t.Errorf("history rows = %d, want 1 (the raw measurement only)", len(store.measurements))
	}
	if len(store.events) != 1 {
		t.Fatalf("events = %d, want 1", len(store.events))
	}
	event := store.events[0]
	if event.EventType != models.EventCalibration || event.Severity != models.SeverityInfo {
		t.Errorf("event = %+v", event)
	}
}

func TestRecordEventValidation(t *testing.T) {
	store := newFakeStore()
	tank := seedTank(store, 5000)
	service := newTestService(store)

	_, err := service.RecordEvent(elevated(), tank.ID, EventInput{EventType: "explosion", Title: "x"}, "petrov")
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) || validationErr.Field != "event_type" {
		t.Errorf("err = %v, want event_type ValidationError", err)
	}

	event, err := service.RecordEvent(elevated(), tank.ID, EventInput{
		EventType: models.EventDrain,
		Title:     "Scheduled drain",
	}, "petrov")
	if err != nil {
		t.Fatal(err)
	}
	if event.Severity != models.SeverityInfo {
		t.Errorf("severity defaulted to %q, want info", event.Severity)
	}
}

func TestListAlerts(t *testing.T) {
	store := newFakeStore()
	service := newTestService(store)

	critical := seedTank(store, 300)       // critical
	low := seedTank(store, 800)            // low_level
	normal := seedTank(store, 5000)        // clean
	offline := seedTank(store, 5000)       // lifecycle offline
	overdue := seedTank(store, 5000)       // normal fill, stale calibration
	refresh := func(tank models.Tank, fn func(*models.Tank)) {
		fn(&tank)
		store.put(tank)
	}
	refresh(offline, func(t *models.Tank) { t.Status = models.TankOffline })
	refresh(overdue, func(t *models.Tank) { t.LastCalibrationDate = daysAgo(120) })
	ts1 := testNow.Add(-time.Hour)
	refresh(critical, func(t *models.Tank) { t.LastMeasurement = &ts1 })

	list, err := service.ListAlerts(elevated(), AlertFilters{}, 1, 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(list.Data) != 4 {
		t.Fatalf("alerts = %d, want 4 (clean tank excluded): %+v", len(list.Data), list.Data)
	}
	for _, item := range list.Data {
		if item.TankID == normal.ID {
			t.Error("clean tank appeared in alerts")
		}
		if item.FillLevel < 0 || item.FillLevel > 100 {
			t.Errorf("fill_level %v out of [0,100]", item.FillLevel)
		}
	}
	// Most severe first, normal-with-alerts last.
	if list.Data[0].TankID != critical.ID {
		t.Errorf("first alert = %+v, want the critical tank", list.Data[0])
	}
	if list.Data[len(list.Data)-1].TankID != overdue.ID {
		t.Errorf("last alert = %+v, want the overdue-calibration tank", list.Data[len(list.Data)-1])
	}
	if list.Counts["critical"] != 1 || list.Counts["high"] != 1 || list.Counts["medium"] != 1 || list.Counts["low"] != 1 {
		t.Errorf("counts = %v", list.Counts)
	}
	_ = low
}

func TestListAlertsSeverityFilter(t *testing.T) {
	store := newFakeStore()
	service := newTestService(store)

	critical := seedTank(store, 300)
	highTank := seedTank(store, 5000)
	refresh := highTank
	refresh.MaxVolume = 4000
	store.put(refresh)
	seedTank(store, 800) // low_level, below the "high" filter

	list, err := service.ListAlerts(elevated(), AlertFilters{Severity: "high"}, 1, 50)
	if err != nil {
		t.Fatal(err)
	}
	// The inclusive ladder admits high_level AND everything more severe.
	if len(list.Data) != 2 {
		t.Fatalf("alerts = %d, want 2: %+v", len(list.Data), list.Data)
	}
	foundCritical, foundHigh := false, false
	for _, item := range list.Data {
		switch item.TankID {
		case critical.ID:
			foundCritical = true
		case highTank.ID:
			foundHigh = true
		}
	}
	if !foundCritical || !foundHigh {
		t.Errorf("filter high missed critical=%v high=%v", foundCritical, foundHigh)
	}
	// Counts stay a fleet-wide overview even when the listing is filtered:
	// the low_level tank is absent from Data but present in the tallies.
	if list.Counts["critical"] != 1 || list.Counts["medium"] != 2 {
		t.Errorf("counts = %v, want critical 1 medium 2", list.Counts)
	}

	if _, err := service.ListAlerts(elevated(), AlertFilters{Severity: "urgent"}, 1, 50); err == nil {
		t.Error("expected validation error for unknown severity")
	}
}

func TestListAlertsPaginationInvariant(t *testing.T) {
	store := newFakeStore()
	service := newTestService(store)
	for i := 0; i < 7; i++ {
		seedTank(store, 300)
	}

	list, err := service.ListAlerts(elevated(), AlertFilters{}, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	p := list.Pagination
	if p.Total != 7 || p.Pages != 3 {
		t.Errorf("pagination = %+v, want total 7 pages 3", p)
	}
	if len(list.Data) > p.Limit {
		t.Errorf("page size %d exceeds limit %d", len(list.Data), p.Limit)
	}
}

func TestListEventsPagination(t *testing.T) {
	store := newFakeStore()
	tank := seedTank(store, 5000)
	service := newTestService(store)

	for i := 0; i < 5; i++ {
		if _, err := service.RecordEvent(elevated(), tank.ID, EventInput{
			EventType: models.EventFill,
			Title:     "Delivery",
		}, "petrov"); err != nil {
			t.Fatal(err)
		}
	}

	params := &models.ReportParams{Page: 3, Limit: 2, SortOrder: "desc", Filters: map[string]string{}}
	resp, err := service.ListEvents(elevated(), tank.ID, params)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Pagination.Total != 5 || resp.Pagination.Pages != 3 {
		t.Errorf("pagination = %+v", resp.Pagination)
	}
	events := resp.Data.([]models.TankEvent)
	if len(events) != 1 {
		t.Errorf("page 3 rows = %d, want 1", len(events))
	}
}

func TestListEventsDateRange(t *testing.T) {
	store := newFakeStore()
	tank := seedTank(store, 5000)
	service := newTestService(store)

	appendAt := func(title string, at time.Time) {
		store.AppendEvent(&models.TankEvent{
			TankID:     tank.ID,
			EventType:  models.EventFill,
			Title:      title,
			OccurredAt: at,
		})
	}
	appendAt("old", testNow.Add(-72*time.Hour))
	appendAt("boundary", testNow.Add(-24*time.Hour))
	appendAt("recent", testNow.Add(-time.Hour))

	from := testNow.Add(-24 * time.Hour)
	to := testNow
	params := &models.ReportParams{
		Page: 1, Limit: 20, SortOrder: "desc",
		DateFrom: &from, DateTo: &to,
		Filters: map[string]string{},
	}
	resp, err := service.ListEvents(elevated(), tank.ID, params)
	if err != nil {
		t.Fatal(err)
	}
	events := resp.Data.([]models.TankEvent)
	// Bounds are inclusive: the event exactly at date_from stays in.
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2: %+v", len(events), events)
	}
	for _, event := range events {
		if event.Title == "old" {
			t.Error("event before date_from leaked through")
		}
	}
	if resp.Pagination.Total != 2 {
		t.Errorf("total = %d, want 2", resp.Pagination.Total)
	}
}

func TestListHistoryDateRange(t *testing.T) {
	store := newFakeStore()
	tank := seedTank(store, 5000)
	service := newTestService(store)

	for i, at := range []time.Time{
		testNow.Add(-72 * time.Hour),
		testNow.Add(-12 * time.Hour),
		testNow,
	} {
		store.measurements = append(store.measurements, models.FuelMeasurement{
			ID:         uint(i + 1),
			TankID:     tank.ID,
			Volume:     float64(1000 * (i + 1)),
			Method:     models.MethodManual,
			MeasuredAt: at,
		})
	}

	from := testNow.Add(-24 * time.Hour)
	params := &models.ReportParams{
		Page: 1, Limit: 20, SortOrder: "desc",
		DateFrom: &from,
		Filters:  map[string]string{"tank_id": tank.ID.String()},
	}
	resp, err := service.ListHistory(elevated(), params)
	if err != nil {
		t.Fatal(err)
	}
	rows := resp.Data.([]models.FuelMeasurement)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	for _, row := range rows {
		if row.MeasuredAt.Before(from) {
			t.Errorf("row measured at %v is before date_from %v", row.MeasuredAt, from)
		}
	}
}

func TestProvisionTank(t *testing.T) {
	store := newFakeStore()
	service := newTestService(store)
	tradingPoint := uuid.New()

	t.Run("defaults and zero volume", func(t *testing.T) {
		tank, err := service.ProvisionTank(elevated(), TankInput{
			TradingPointID: tradingPoint,
			FuelTypeID:     uuid.New(),
			Name:           "New tank",
			Capacity:       20000,
		})
		if err != nil {
			t.Fatal(err)
		}
		if tank.CurrentVolume != 0 || tank.MinVolume != 0 || tank.MaxVolume != 20000 {
			t.Errorf("tank = %+v", tank)
		}
		if tank.Status != models.TankActive {
			t.Errorf("status = %q", tank.Status)
		}
	})

	t.Run("rejects bad bounds", func(t *testing.T) {
		bad := []TankInput{
			{TradingPointID: tradingPoint, Capacity: 0},
			{TradingPointID: tradingPoint, Capacity: 1000, MinVolume: floatPtr(-1)},
			{TradingPointID: tradingPoint, Capacity: 1000, MinVolume: floatPtr(500), MaxVolume: floatPtr(400)},
			{TradingPointID: tradingPoint, Capacity: 1000, MaxVolume: floatPtr(1500)},
		}
		for i, input := range bad {
			if _, err := service.ProvisionTank(elevated(), input); err == nil {
				t.Errorf("case %d: expected error", i)
			}
		}
	})
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
