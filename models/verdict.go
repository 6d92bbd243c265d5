package models

import "time"

// Status is the classification outcome for one parameter.
type Status string

const (
	StatusNormal           Status = "Normal"
	StatusSlightlyAbnormal Status = "Slightly Abnormal"
	StatusAbnormal         Status = "Abnormal"
	StatusDehydrationRisk  Status = "Dehydration Risk"
	// StatusUnknown marks a parameter with no usable reading. The old
	// dashboard treated a missing value as normal; an absent reading is
	// surfaced as unknown instead and the caller decides how to display it.
	StatusUnknown Status = "Unknown"
)

// IsNormal reports whether the status raises no concern.
func (s Status) IsNormal() bool { return s == StatusNormal }

// IsAbnormal reports whether the status is alert-worthy. Unknown is
// neither normal nor abnormal.
func (s Status) IsAbnormal() bool {
	switch s {
	case StatusSlightlyAbnormal, StatusAbnormal, StatusDehydrationRisk:
		return true
	}
	return false
}

// ParameterVerdict is derived per parameter at read time and never
// persisted.
type ParameterVerdict struct {
	Parameter    Parameter `json:"parameter"`
	Status       Status    `json:"status"`
	DisplayValue string    `json:"displayValue"`
	NormalRange  string    `json:"normalRange"`
}

// Severity mirrors the notification types the dashboard panel renders.
type Severity string

const (
	SeverityWarning Severity = "Warning"
	SeverityAlert   Severity = "Alert"
)

// Alert is raised only on a normal-to-abnormal transition, never on
// every abnormal sample.
type Alert struct {
	Parameter    Parameter `json:"parameter"`
	SensorName   string    `json:"sensorName"`
	CurrentValue string    `json:"currentValue"`
	NormalRange  string    `json:"normalRange"`
	Severity     Severity  `json:"severity"`
	Timestamp    time.Time `json:"timestamp"`
	Message      string    `json:"message"`
}

// SeverityEmoji returns the marker used in Telegram messages.
func (a *Alert) SeverityEmoji() string {
	switch a.Severity {
	case SeverityAlert:
		return "🔴"
	case SeverityWarning:
		return "🟡"
	default:
		return "⚪"
	}
}
