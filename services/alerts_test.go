package services_test

import (
	"testing"
	"time"

	"uriscan/models"
	"uriscan/services"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func recordWithSensor(t *testing.T, key, clock string, readings map[string]interface{}) *models.CombinedRecord {
	t.Helper()
	sensor := &models.SensorSession{
		Date:     "2026-08-30",
		Key:      key,
		Metadata: models.SessionMetadata{Time: clock},
		Readings: readings,
	}
	ts, err := sensor.Timestamp()
	require.NoError(t, err)
	return models.NewCombinedRecord(ts, sensor, nil)
}

func TestDetectTransitionAlertsEmitsOnEdge(t *testing.T) {
	d := services.NewAlertDetector(zap.NewNop())

	previous := recordWithSensor(t, "hw1", "08:00:00", map[string]interface{}{
		"ph_value_sensor": 7.0,
	})
	current := recordWithSensor(t, "hw2", "12:00:00", map[string]interface{}{
		"ph_value_sensor": 9.0,
	})

	alerts := d.DetectTransitionAlerts(previous, current)
	require.Len(t, alerts, 1)

	alert := alerts[0]
	require.Equal(t, models.ParamPH, alert.Parameter)
	require.Equal(t, "pH Level", alert.SensorName)
	require.Equal(t, models.SeverityAlert, alert.Severity)
	require.Equal(t, current.Timestamp, alert.Timestamp)
	require.Contains(t, alert.Message, "outside the normal range")
}

func TestDetectTransitionAlertsSilentWhileStillAbnormal(t *testing.T) {
	d := services.NewAlertDetector(zap.NewNop())

	previous := recordWithSensor(t, "hw1", "08:00:00", map[string]interface{}{
		"ph_value_sensor": 9.0,
	})
	current := recordWithSensor(t, "hw2", "12:00:00", map[string]interface{}{
		"ph_value_sensor": 9.5,
	})

	require.Empty(t, d.DetectTransitionAlerts(previous, current))
}

func TestDetectTransitionAlertsSilentOnRecovery(t *testing.T) {
	d := services.NewAlertDetector(zap.NewNop())

	previous := recordWithSensor(t, "hw1", "08:00:00", map[string]interface{}{
		"ph_value_sensor": 9.0,
	})
	current := recordWithSensor(t, "hw2", "12:00:00", map[string]interface{}{
		"ph_value_sensor": 7.0,
	})

	require.Empty(t, d.DetectTransitionAlerts(previous, current))
}

func TestDetectTransitionAlertsSkipsMissingEndpoints(t *testing.T) {
	d := services.NewAlertDetector(zap.NewNop())

	// Previous record never measured pH, so no transition can exist
	previous := recordWithSensor(t, "hw1", "08:00:00", map[string]interface{}{})
	current := recordWithSensor(t, "hw2", "12:00:00", map[string]interface{}{
		"ph_value_sensor": 9.0,
	})

	require.Empty(t, d.DetectTransitionAlerts(previous, current))

	// And the other way around
	require.Empty(t, d.DetectTransitionAlerts(current, previous))
}

func TestDetectTransitionAlertsNilRecords(t *testing.T) {
	d := services.NewAlertDetector(zap.NewNop())

	current := recordWithSensor(t, "hw1", "08:00:00", map[string]interface{}{
		"ph_value_sensor": 9.0,
	})

	require.Empty(t, d.DetectTransitionAlerts(nil, current))
	require.Empty(t, d.DetectTransitionAlerts(current, nil))
}

func TestDetectTransitionAlertsDehydrationMessage(t *testing.T) {
	d := services.NewAlertDetector(zap.NewNop())

	previous := recordWithSensor(t, "hw1", "08:00:00", map[string]interface{}{
		"temperature_sensor": 36.5,
	})
	current := recordWithSensor(t, "hw2", "12:00:00", map[string]interface{}{
		"temperature_sensor": 38.0,
	})

	alerts := d.DetectTransitionAlerts(previous, current)
	require.Len(t, alerts, 1)
	require.Equal(t, models.SeverityWarning, alerts[0].Severity)
	require.Contains(t, alerts[0].Message, "dehydration")
}

func TestDetectTransitionAlertsMultipleParameters(t *testing.T) {
	d := services.NewAlertDetector(zap.NewNop())

	previous := recordWithSensor(t, "hw1", "08:00:00", map[string]interface{}{
		"ph_value_sensor":       7.0,
		"turbidity":             10.0,
		"blood_detected_sensor": false,
	})
	current := recordWithSensor(t, "hw2", "12:00:00", map[string]interface{}{
		"ph_value_sensor":       9.0,
		"turbidity":             60.0,
		"blood_detected_sensor": true,
	})

	alerts := d.DetectTransitionAlerts(previous, current)
	require.Len(t, alerts, 3)

	seen := make(map[models.Parameter]bool)
	for _, a := range alerts {
		seen[a.Parameter] = true
	}
	require.True(t, seen[models.ParamPH])
	require.True(t, seen[models.ParamTurbidity])
	require.True(t, seen[models.ParamBloodDetected])
}

func TestAlertTimestampPropagation(t *testing.T) {
	d := services.NewAlertDetector(zap.NewNop())

	previous := recordWithSensor(t, "hw1", "08:00:00", map[string]interface{}{
		"tds_value": 200.0,
	})
	current := recordWithSensor(t, "hw2", "12:30:45", map[string]interface{}{
		"tds_value": 650.0,
	})

	alerts := d.DetectTransitionAlerts(previous, current)
	require.Len(t, alerts, 1)
	want := time.Date(2026, 8, 30, 12, 30, 45, 0, time.Local)
	require.Equal(t, want, alerts[0].Timestamp)
}
