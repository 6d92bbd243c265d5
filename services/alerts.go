package services

import (
	"fmt"

	"uriscan/models"

	"go.uber.org/zap"
)

// AlertDetector raises alerts on normal-to-abnormal transitions between
// two consecutive reconciled records. A value that stays abnormal does
// not re-alert; a value that was never seen normal cannot transition.
type AlertDetector struct {
	logger *zap.Logger
}

func NewAlertDetector(logger *zap.Logger) *AlertDetector {
	return &AlertDetector{
		logger: logger,
	}
}

// DetectTransitionAlerts compares the previous and current records per
// monitored parameter and emits an Alert for each edge from normal to
// abnormal. Parameters missing either endpoint are skipped; no
// transition can be detected without both.
func (ad *AlertDetector) DetectTransitionAlerts(previous, current *models.CombinedRecord) []*models.Alert {
	if previous == nil || current == nil {
		return nil
	}

	var alerts []*models.Alert
	for _, param := range models.MonitoredParameters {
		prevReading := previous.Reading(param)
		curReading := current.Reading(param)
		if prevReading.Kind == models.ReadingUnknown || curReading.Kind == models.ReadingUnknown {
			continue
		}

		wasNormal := ClassifyParameter(param, prevReading).Status.IsNormal()
		verdict := ClassifyParameter(param, curReading)
		if !wasNormal || !verdict.Status.IsAbnormal() {
			continue
		}

		alert := &models.Alert{
			Parameter:    param,
			SensorName:   param.DisplayName(),
			CurrentValue: verdict.DisplayValue,
			NormalRange:  verdict.NormalRange,
			Severity:     AlertSeverity(verdict.Status),
			Timestamp:    current.Timestamp,
			Message:      alertMessage(param, verdict),
		}
		alerts = append(alerts, alert)

		ad.logger.Debug("Transition alert detected",
			zap.String("parameter", string(param)),
			zap.String("current_value", verdict.DisplayValue),
			zap.String("severity", string(alert.Severity)))
	}

	return alerts
}

func alertMessage(param models.Parameter, verdict models.ParameterVerdict) string {
	if verdict.Status == models.StatusDehydrationRisk {
		return fmt.Sprintf("%s reading %s suggests dehydration. Consider increasing fluid intake.",
			param.DisplayName(), verdict.DisplayValue)
	}
	return fmt.Sprintf("%s reading %s is outside the normal range (%s).",
		param.DisplayName(), verdict.DisplayValue, verdict.NormalRange)
}
