package services

import (
	"sort"
	"time"

	"uriscan/models"

	"go.uber.org/zap"
)

// Reconciler pairs each hardware session with the nearest subsequent
// chemistry session of the same day. It holds no mutable state; every
// call operates on the snapshot it is given.
type Reconciler struct {
	logger *zap.Logger
}

func NewReconciler(logger *zap.Logger) *Reconciler {
	return &Reconciler{
		logger: logger,
	}
}

// ReconcileDay produces one CombinedRecord per hardware session with a
// parseable timestamp, newest first. A hardware session with no
// qualifying chemistry match still yields a record; a chemistry session
// that precedes every hardware session is orphaned and never surfaced.
func (r *Reconciler) ReconcileDay(report *models.DailyReport) []*models.CombinedRecord {
	if report == nil {
		return nil
	}

	hardwareKeys := sortedKeys(report.HardwareSessions)
	medicalKeys := sortedChemKeys(report.MedicalSessions)

	records := make([]*models.CombinedRecord, 0, len(hardwareKeys))

	for _, hwKey := range hardwareKeys {
		session := report.HardwareSessions[hwKey]
		ts, err := session.Timestamp()
		if err != nil {
			// The session cannot be placed in a sequence; it is
			// dropped rather than raised.
			r.logger.Warn("Dropping hardware session with unparseable timestamp",
				zap.String("date", report.Date),
				zap.String("session_key", hwKey),
				zap.Error(err))
			continue
		}

		var matched *models.ChemistrySession
		bestDelta := time.Duration(-1)
		for _, medKey := range medicalKeys {
			candidate := report.MedicalSessions[medKey]
			medTs, err := candidate.Timestamp()
			if err != nil {
				r.logger.Warn("Skipping medical session with unparseable timestamp",
					zap.String("date", report.Date),
					zap.String("session_key", medKey),
					zap.Error(err))
				continue
			}
			delta := medTs.Sub(ts)
			if delta < 0 {
				// A chemistry capture before the hardware session
				// belongs to an earlier use.
				continue
			}
			if matched == nil || delta < bestDelta {
				matched = candidate
				bestDelta = delta
			}
		}

		records = append(records, models.NewCombinedRecord(ts, session, matched))
	}

	// Newest first for display. The sort is stable, so sessions with
	// identical timestamps keep their lexical key order.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})

	return records
}

// ReconcileRange reconciles a span of daily reports into a single
// newest-first record list, the shape the health-records view consumes.
func (r *Reconciler) ReconcileRange(reports map[string]*models.DailyReport) []*models.CombinedRecord {
	var all []*models.CombinedRecord
	for date, report := range reports {
		if !models.DateKeyPattern.MatchString(date) {
			continue
		}
		all = append(all, r.ReconcileDay(report)...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp.After(all[j].Timestamp)
	})
	return all
}

// LatestRecord returns the most recent reconciled record across all
// days, or nil when there is none.
func (r *Reconciler) LatestRecord(reports map[string]*models.DailyReport) *models.CombinedRecord {
	records := r.ReconcileRange(reports)
	if len(records) == 0 {
		return nil
	}
	return records[0]
}

func sortedKeys(sessions map[string]*models.SensorSession) []string {
	keys := make([]string, 0, len(sessions))
	for k := range sessions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedChemKeys(sessions map[string]*models.ChemistrySession) []string {
	keys := make([]string, 0, len(sessions))
	for k := range sessions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
