package services_test

import (
	"testing"

	"uriscan/models"
	"uriscan/services"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sensorAt(date, key, clock string) *models.SensorSession {
	return &models.SensorSession{
		Date:     date,
		Key:      key,
		Metadata: models.SessionMetadata{Time: clock},
		Readings: map[string]interface{}{},
	}
}

func chemAt(date, key, clock string) *models.ChemistrySession {
	return &models.ChemistrySession{
		Date:     date,
		Key:      key,
		Metadata: models.SessionMetadata{Time: clock},
		Readings: map[string]interface{}{},
	}
}

func dayReport(date string, hw []*models.SensorSession, med []*models.ChemistrySession) *models.DailyReport {
	report := &models.DailyReport{
		Date:             date,
		HardwareSessions: make(map[string]*models.SensorSession),
		MedicalSessions:  make(map[string]*models.ChemistrySession),
	}
	for _, s := range hw {
		report.HardwareSessions[s.Key] = s
	}
	for _, c := range med {
		report.MedicalSessions[c.Key] = c
	}
	return report
}

func TestReconcileDayPairsNearestSubsequent(t *testing.T) {
	r := services.NewReconciler(zap.NewNop())

	report := dayReport("2026-08-30",
		[]*models.SensorSession{sensorAt("2026-08-30", "hw1", "08:00:00")},
		[]*models.ChemistrySession{
			chemAt("2026-08-30", "med1", "08:30:00"),
			chemAt("2026-08-30", "med2", "08:05:00"),
			chemAt("2026-08-30", "med3", "12:00:00"),
		})

	records := r.ReconcileDay(report)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].Chemistry)
	require.Equal(t, "med2", records[0].Chemistry.Key)
}

func TestReconcileDayNeverMatchesEarlierChemistry(t *testing.T) {
	r := services.NewReconciler(zap.NewNop())

	report := dayReport("2026-08-30",
		[]*models.SensorSession{sensorAt("2026-08-30", "hw1", "10:00:00")},
		[]*models.ChemistrySession{chemAt("2026-08-30", "med1", "09:00:00")})

	records := r.ReconcileDay(report)
	require.Len(t, records, 1)
	require.Nil(t, records[0].Chemistry)
	require.Equal(t, "2026-08-30_hw1_nomed", records[0].ID)
}

func TestReconcileDayOneRecordPerHardwareSession(t *testing.T) {
	r := services.NewReconciler(zap.NewNop())

	report := dayReport("2026-08-30",
		[]*models.SensorSession{
			sensorAt("2026-08-30", "hw1", "07:00:00"),
			sensorAt("2026-08-30", "hw2", "09:00:00"),
			sensorAt("2026-08-30", "hw3", "18:00:00"),
		},
		[]*models.ChemistrySession{chemAt("2026-08-30", "med1", "09:10:00")})

	records := r.ReconcileDay(report)
	require.Len(t, records, 3)

	// Newest first
	require.Equal(t, "hw3", records[0].Sensor.Key)
	require.Equal(t, "hw2", records[1].Sensor.Key)
	require.Equal(t, "hw1", records[2].Sensor.Key)

	// The same chemistry session can serve more than one hardware session
	require.Equal(t, "med1", records[2].Chemistry.Key)
	require.Equal(t, "med1", records[1].Chemistry.Key)
	require.Nil(t, records[0].Chemistry)
}

func TestReconcileDayEmptyMedicalStream(t *testing.T) {
	r := services.NewReconciler(zap.NewNop())

	report := dayReport("2026-08-30",
		[]*models.SensorSession{sensorAt("2026-08-30", "hw1", "08:00:00")},
		nil)

	records := r.ReconcileDay(report)
	require.Len(t, records, 1)
	require.Nil(t, records[0].Chemistry)
}

func TestReconcileDayDropsUnparseableHardwareSession(t *testing.T) {
	r := services.NewReconciler(zap.NewNop())

	report := dayReport("2026-08-30",
		[]*models.SensorSession{
			sensorAt("2026-08-30", "hw1", ""),
			sensorAt("2026-08-30", "hw2", "09:00:00"),
		},
		nil)

	records := r.ReconcileDay(report)
	require.Len(t, records, 1)
	require.Equal(t, "hw2", records[0].Sensor.Key)
}

func TestReconcileDaySkipsUnparseableMedicalCandidate(t *testing.T) {
	r := services.NewReconciler(zap.NewNop())

	report := dayReport("2026-08-30",
		[]*models.SensorSession{sensorAt("2026-08-30", "hw1", "08:00:00")},
		[]*models.ChemistrySession{
			chemAt("2026-08-30", "med1", "bogus"),
			chemAt("2026-08-30", "med2", "08:20:00"),
		})

	records := r.ReconcileDay(report)
	require.Len(t, records, 1)
	require.Equal(t, "med2", records[0].Chemistry.Key)
}

func TestReconcileDayNilReport(t *testing.T) {
	r := services.NewReconciler(zap.NewNop())
	require.Empty(t, r.ReconcileDay(nil))
}

func TestReconcileRangeOrdersAcrossDays(t *testing.T) {
	r := services.NewReconciler(zap.NewNop())

	reports := map[string]*models.DailyReport{
		"2026-08-29": dayReport("2026-08-29",
			[]*models.SensorSession{sensorAt("2026-08-29", "hw1", "23:00:00")}, nil),
		"2026-08-30": dayReport("2026-08-30",
			[]*models.SensorSession{sensorAt("2026-08-30", "hw2", "01:00:00")}, nil),
		// Non-date keys in the report tree are ignored
		"meta": dayReport("meta",
			[]*models.SensorSession{sensorAt("meta", "hwX", "01:00:00")}, nil),
	}

	records := r.ReconcileRange(reports)
	require.Len(t, records, 2)
	require.Equal(t, "hw2", records[0].Sensor.Key)
	require.Equal(t, "hw1", records[1].Sensor.Key)
}

func TestLatestRecord(t *testing.T) {
	r := services.NewReconciler(zap.NewNop())

	require.Nil(t, r.LatestRecord(nil))

	reports := map[string]*models.DailyReport{
		"2026-08-30": dayReport("2026-08-30",
			[]*models.SensorSession{
				sensorAt("2026-08-30", "hw1", "06:00:00"),
				sensorAt("2026-08-30", "hw2", "21:00:00"),
			}, nil),
	}
	latest := r.LatestRecord(reports)
	require.NotNil(t, latest)
	require.Equal(t, "hw2", latest.Sensor.Key)
}
