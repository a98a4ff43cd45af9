package monitoring

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"p9e.in/fuelnet/models"
)

// Scope is the caller's resolved access window. Elevated callers see every
// trading point; everyone else is limited to the listed ids.
type Scope struct {
	Elevated        bool
	TradingPointIDs []uuid.UUID
}

// AllowsTradingPoint reports whether the scope admits the trading point.
func (s Scope) AllowsTradingPoint(id uuid.UUID) bool {
	if s.Elevated {
		return true
	}
	for _, allowed := range s.TradingPointIDs {
		if allowed == id {
			return true
		}
	}
	return false
}

// TankStore is the persistence surface the monitoring service works
// against. The production implementation is GORM over Postgres; tests use
// an in-memory fake.
type TankStore interface {
	FindTank(id uuid.UUID) (*models.Tank, error)
	CreateTank(tank *models.Tank) error
	ListTanks(scope Scope, filters map[string]string) ([]models.Tank, error)

	// SaveMeasurement persists the updated snapshot and appends the history
	// row in one transaction.
	SaveMeasurement(tank *models.Tank, rec *models.FuelMeasurement) error

	// SaveCalibration persists the updated snapshot and appends the tank
	// event in one transaction.
	SaveCalibration(tank *models.Tank, event *models.TankEvent) error

	AppendEvent(event *models.TankEvent) error
	ListEvents(params *models.ReportParams) ([]models.TankEvent, int64, error)
	ListMeasurements(scope Scope, params *models.ReportParams) ([]models.FuelMeasurement, int64, error)
}

// GormTankStore implements TankStore on GORM/Postgres.
type GormTankStore struct {
	db *gorm.DB
}

func NewGormTankStore(db *gorm.DB) *GormTankStore {
	return &GormTankStore{db: db}
}

func (s *GormTankStore) FindTank(id uuid.UUID) (*models.Tank, error) {
	var tank models.Tank
	err := s.db.Preload("TradingPoint").Preload("FuelType").
		First(&tank, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "tank", ID: id.String()}
	}
	if err != nil {
		return nil, wrapStoreErr("find tank", err)
	}
	return &tank, nil
}

func (s *GormTankStore) CreateTank(tank *models.Tank) error {
	return wrapStoreErr("create tank", s.db.Create(tank).Error)
}

func (s *GormTankStore) ListTanks(scope Scope, filters map[string]string) ([]models.Tank, error) {
	query := s.db.Model(&models.Tank{}).
		Preload("TradingPoint").Preload("FuelType")
	if !scope.Elevated {
		query = query.Where("tanks.trading_point_id IN ?", scope.TradingPointIDs)
	}
	for key, value := range filters {
		// network_id lives on the trading point, one join away.
		if key == "network_id" {
			query = query.Joins("JOIN trading_points ON trading_points.id = tanks.trading_point_id").
				Where("trading_points.network_id = ?", value)
			continue
		}
		query = query.Where("tanks."+key+" = ?", value)
	}
	var tanks []models.Tank
	if err := query.Find(&tanks).Error; err != nil {
		return nil, wrapStoreErr("list tanks", err)
	}
	return tanks, nil
}

func (s *GormTankStore) SaveMeasurement(tank *models.Tank, rec *models.FuelMeasurement) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(tank).Error; err != nil {
			return err
		}
		return tx.Create(rec).Error
	})
	return wrapStoreErr("save measurement", err)
}

func (s *GormTankStore) SaveCalibration(tank *models.Tank, event *models.TankEvent) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(tank).Error; err != nil {
			return err
		}
		return tx.Create(event).Error
	})
	return wrapStoreErr("save calibration", err)
}

func (s *GormTankStore) AppendEvent(event *models.TankEvent) error {
	return wrapStoreErr("append event", s.db.Create(event).Error)
}

func (s *GormTankStore) ListEvents(params *models.ReportParams) ([]models.TankEvent, int64, error) {
	params.DateColumn = "occurred_at"
	var events []models.TankEvent
	resp, err := models.NewReportService(s.db, &models.TankEvent{}).GetReport(params, &events)
	if err != nil {
		return nil, 0, wrapStoreErr("list events", err)
	}
	return events, resp.Pagination.Total, nil
}

func (s *GormTankStore) ListMeasurements(scope Scope, params *models.ReportParams) ([]models.FuelMeasurement, int64, error) {
	params.DateColumn = "measured_at"
	query := s.db
	if !scope.Elevated {
		query = query.Where(
			"tank_id IN (?)",
			s.db.Model(&models.Tank{}).Select("id").
				Where("trading_point_id IN ?", scope.TradingPointIDs),
		)
	}
	var rows []models.FuelMeasurement
	resp, err := models.NewReportService(query, &models.FuelMeasurement{}).GetReport(params, &rows)
	if err != nil {
		return nil, 0, wrapStoreErr("list measurements", err)
	}
	return rows, resp.Pagination.Total, nil
}
