// Package monitoring implements the inventory monitoring core for the
// fuel-station network: threshold evaluation of tank snapshots, measurement
// and calibration writes, alert queries, the tank event log and export
// formatting.
package monitoring

import (
	"time"

	"p9e.in/fuelnet/models"
)

// Threshold constants applied by DeriveStatus.
const (
	// CriticalFillPercent is the floor below which a tank is critical
	// regardless of its configured minimum.
	CriticalFillPercent = 5.0

	// WaterLevelLimitMM is the highest acceptable water level reading.
	WaterLevelLimitMM = 10.0

	// CalibrationMaxAge is how long a calibration stays current.
	CalibrationMaxAge = 90 * 24 * time.Hour
)

// Alert messages produced by DeriveStatus.
const (
	AlertCriticalLevel      = "critical fuel level"
	AlertLowLevel           = "low fuel level"
	AlertHighLevel          = "high fuel level"
	AlertWaterContamination = "water contamination detected"
	AlertCalibrationOverdue = "calibration overdue"
	AlertCalibrationNever   = "calibration never performed"
	AlertUnderMaintenance   = "tank under maintenance"
	AlertErrorState         = "tank in error state"
	AlertOffline            = "tank offline"
)

// DeriveStatus maps a tank snapshot to its derived fill status and the full
// alert list. It is a pure function: no I/O, deterministic for a fixed now,
// safe to call from every read and write path.
//
// The numeric ladder is first-match-wins for the returned status, but every
// matching condition contributes an alert. With misconfigured bounds
// (maxVolume < minVolume) low and high conditions can co-occur; the ladder
// does not reconcile them.
func DeriveStatus(t *models.Tank, now time.Time) (models.FillStatus, []string) {
	if t.Capacity <= 0 {
		return models.FillNormal, nil
	}

	fillPct := t.CurrentVolume / t.Capacity * 100
	minPct := t.MinVolume / t.Capacity * 100
	maxPct := t.MaxVolume / t.Capacity * 100

	status := models.FillNormal
	var alerts []string

	if fillPct <= CriticalFillPercent {
		status = models.FillCritical
		alerts = append(alerts, AlertCriticalLevel)
	} else if fillPct <= minPct {
		status = models.FillLow
		alerts = append(alerts, AlertLowLevel)
	}
	if fillPct >= maxPct {
		if status == models.FillNormal {
			status = models.FillHigh
		}
		alerts = append(alerts, AlertHighLevel)
	}

	// Operator lifecycle state overrides the returned status but keeps the
	// numeric alerts in the list.
	switch t.Status {
	case models.TankMaintenance:
		status = models.FillMaintenance
		alerts = append(alerts, AlertUnderMaintenance)
	case models.TankError:
		status = models.FillError
		alerts = append(alerts, AlertErrorState)
	case models.TankOffline:
		status = models.FillOffline
		alerts = append(alerts, AlertOffline)
	}

	if t.WaterLevel != nil && *t.WaterLevel > WaterLevelLimitMM {
		alerts = append(alerts, AlertWaterContamination)
		if status == models.FillNormal {
			status = models.FillMaintenance
		}
	}

	if t.LastCalibrationDate == nil {
		alerts = append(alerts, AlertCalibrationNever)
	} else if now.Sub(*t.LastCalibrationDate) > CalibrationMaxAge {
		alerts = append(alerts, AlertCalibrationOverdue)
	}

	return status, alerts
}

// AlertSeverity maps a derived status to the severity bucket shown to
// clients.
func AlertSeverity(status models.FillStatus) string {
	switch status {
	case models.FillCritical:
		return "critical"
	case models.FillError, models.FillOffline:
		return "high"
	case models.FillLow, models.FillHigh, models.FillMaintenance:
		return "medium"
	default:
		return "low"
	}
}

// statusRank orders derived statuses for alert listings; higher surfaces
// first, normal always sorts last.
func statusRank(status models.FillStatus) int {
	switch status {
	case models.FillCritical:
		return 60
	case models.FillError:
		return 50
	case models.FillOffline:
		return 40
	case models.FillLow:
		return 30
	case models.FillHigh:
		return 20
	case models.FillMaintenance:
		return 10
	default:
		return 0
	}
}

// severityStatuses expands a severity filter to the statuses it admits.
// The ladder is deliberately inclusive: each level also admits everything
// more severe, and "high" admits high_level itself.
var severityStatuses = map[string][]models.FillStatus{
	"critical": {models.FillCritical},
	"high":     {models.FillCritical, models.FillHigh, models.FillError, models.FillOffline},
	"medium": {models.FillCritical, models.FillHigh, models.FillLow,
		models.FillMaintenance, models.FillError, models.FillOffline},
	"low": {models.FillCritical, models.FillHigh, models.FillLow,
		models.FillMaintenance, models.FillError, models.FillOffline, models.FillNormal},
}
