package models

import (
	"fmt"
	"regexp"
	"time"
)

// Wire layout, shared with the device firmware and the dashboard:
//
//	Users/{uid}/Reports/{YYYY-MM-DD}/Hardware_Sessions/{key}
//	    metadata/time  "HH:MM:SS"
//	    sensorData/...
//	Users/{uid}/Reports/{YYYY-MM-DD}/Medical_Sessions/{key}
//	    metadata/time  "HH:MM:SS"
//	    Chemistry_Result/chem_...
//
// Session keys are opaque but lexically sortable, so lexical order
// approximates chronological order within a day.

const (
	DateLayout      = "2006-01-02"
	TimeLayout      = "15:04:05"
	timestampLayout = DateLayout + " " + TimeLayout
)

var DateKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// SessionMetadata holds the per-session envelope written by the capture
// pipeline alongside the readings.
type SessionMetadata struct {
	Time string `json:"time"`
}

// SensorSession is one hardware capture event: the telemetry the bowl
// sensors record during a single use.
type SensorSession struct {
	Date     string
	Key      string
	Metadata SessionMetadata
	Readings map[string]interface{} // sensorData node, raw values
}

// ChemistrySession is one dipstick capture event, produced independently
// of any hardware session.
type ChemistrySession struct {
	Date     string
	Key      string
	Metadata SessionMetadata
	Readings map[string]interface{} // Chemistry_Result node, raw values
}

// DailyReport is one day's worth of both session streams for a user.
// Either map may be empty.
type DailyReport struct {
	Date             string
	HardwareSessions map[string]*SensorSession
	MedicalSessions  map[string]*ChemistrySession
}

// Timestamp combines the session's date and wall-clock time.
func (s *SensorSession) Timestamp() (time.Time, error) {
	return parseSessionTimestamp(s.Date, s.Metadata.Time)
}

// Timestamp combines the session's date and wall-clock time.
func (c *ChemistrySession) Timestamp() (time.Time, error) {
	return parseSessionTimestamp(c.Date, c.Metadata.Time)
}

func parseSessionTimestamp(date, clock string) (time.Time, error) {
	if clock == "" {
		return time.Time{}, fmt.Errorf("session has no metadata time")
	}
	ts, err := time.ParseInLocation(timestampLayout, date+" "+clock, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid session timestamp %q %q: %v", date, clock, err)
	}
	return ts, nil
}

// CombinedRecord pairs a hardware session with its best-matching
// chemistry session. Identity is anchored to the hardware session; a
// record without a chemistry match is still a record, while a chemistry
// session that matches no hardware session is never surfaced.
type CombinedRecord struct {
	ID        string
	Date      string
	Timestamp time.Time
	Sensor    *SensorSession
	Chemistry *ChemistrySession // nil when no medical session qualified
}

// noMedicalKey is the placeholder used in record IDs when a hardware
// session has no qualifying chemistry match, matching the ID scheme the
// dashboard expects.
const noMedicalKey = "nomed"

// NewCombinedRecord derives the record identity from its constituents.
func NewCombinedRecord(ts time.Time, sensor *SensorSession, chemistry *ChemistrySession) *CombinedRecord {
	medKey := noMedicalKey
	if chemistry != nil {
		medKey = chemistry.Key
	}
	return &CombinedRecord{
		ID:        fmt.Sprintf("%s_%s_%s", sensor.Date, sensor.Key, medKey),
		Date:      sensor.Date,
		Timestamp: ts,
		Sensor:    sensor,
		Chemistry: chemistry,
	}
}

// Reading returns the normalized raw value for a parameter, pulling from
// whichever stream carries it. Parameters missing their stream or their
// key normalize to ReadingUnknown.
func (r *CombinedRecord) Reading(p Parameter) Reading {
	spec, ok := parameterSpecs[p]
	if !ok {
		return Reading{Kind: ReadingUnknown}
	}
	var source map[string]interface{}
	if spec.FromChemistry {
		if r.Chemistry == nil {
			return Reading{Kind: ReadingUnknown}
		}
		source = r.Chemistry.Readings
	} else {
		if r.Sensor == nil {
			return Reading{Kind: ReadingUnknown}
		}
		source = r.Sensor.Readings
	}
	raw, ok := source[spec.WireKey]
	if !ok {
		return Reading{Kind: ReadingUnknown}
	}
	return NormalizeReading(raw)
}
