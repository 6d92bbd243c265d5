package models

import (
	"strconv"
	"strings"
)

// ReadingKind classifies a raw sensor or chemistry-pad value after
// normalization. Devices report a mix of numbers, booleans and sentinel
// strings ("neg", "negative", "norm", "normal"), so every value is
// normalized exactly once before classification.
type ReadingKind int

const (
	ReadingUnknown ReadingKind = iota
	ReadingNegative
	ReadingPositive
	ReadingNumeric
)

// Reading is a normalized raw value.
type Reading struct {
	Kind  ReadingKind
	Value float64 // set only when Kind == ReadingNumeric
	Raw   string  // original textual form, for display of positives
}

var negativeSentinels = map[string]bool{
	"neg":      true,
	"negative": true,
	"norm":     true,
	"normal":   true,
}

// NormalizeReading converts a raw Firebase value into a Reading.
// Nil and unparseable values come back as ReadingUnknown.
func NormalizeReading(raw interface{}) Reading {
	switch v := raw.(type) {
	case nil:
		return Reading{Kind: ReadingUnknown}
	case bool:
		if v {
			return Reading{Kind: ReadingPositive, Raw: "true"}
		}
		return Reading{Kind: ReadingNegative, Raw: "false"}
	case float64:
		if v == 0 {
			return Reading{Kind: ReadingNegative, Raw: "0"}
		}
		return Reading{Kind: ReadingNumeric, Value: v, Raw: strconv.FormatFloat(v, 'f', -1, 64)}
	case int:
		return NormalizeReading(float64(v))
	case int64:
		return NormalizeReading(float64(v))
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return Reading{Kind: ReadingUnknown}
		}
		if negativeSentinels[strings.ToLower(s)] {
			return Reading{Kind: ReadingNegative, Raw: s}
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			if f == 0 {
				return Reading{Kind: ReadingNegative, Raw: s}
			}
			return Reading{Kind: ReadingNumeric, Value: f, Raw: s}
		}
		return Reading{Kind: ReadingPositive, Raw: s}
	default:
		return Reading{Kind: ReadingUnknown}
	}
}

// IsNegative reports whether the reading is a negative/zero sentinel.
func (r Reading) IsNegative() bool { return r.Kind == ReadingNegative }

// IsNumeric reports whether the reading carries a usable numeric value.
func (r Reading) IsNumeric() bool { return r.Kind == ReadingNumeric }
