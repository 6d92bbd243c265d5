package services

import (
	"fmt"
	"math"

	"uriscan/models"
)

// Reference ranges for urinalysis parameters. These are fixed clinical
// constants, not runtime configuration; every call site classifies
// against this single table.
const (
	PHMin = 4.5
	PHMax = 8.0

	SpecificGravityMin = 1.005
	SpecificGravityMax = 1.030

	AmmoniaMinPPM = 5.0
	AmmoniaMaxPPM = 500.0

	// Turbidity below 20 NTU is clear; 20-50 NTU is slightly cloudy;
	// above 50 NTU the sample is murky.
	TurbiditySlightNTU   = 20.0
	TurbidityAbnormalNTU = 50.0

	// TDS up to 300 ppm is normal; 301-500 is borderline; above 500 is
	// abnormal.
	TDSNormalMaxPPM   = 300.0
	TDSAbnormalminPPM = 500.0

	UrobilinogenMin = 0.2
	UrobilinogenMax = 1.0

	// Protein up to 30 mg/dL reads as "Trace" and is still normal.
	ProteinTraceMax = 30.0

	// Urine temperature above 37 degrees C is read as a dehydration
	// signal, a distinct alert class rather than a normal/abnormal pair.
	DehydrationTempC = 37.0
)

const displayNA = "N/A"

// ClassifyParameter evaluates one raw reading against the reference
// table and produces a verdict with a formatted display value. A missing
// or unusable reading yields StatusUnknown rather than assuming normal.
func ClassifyParameter(param models.Parameter, reading models.Reading) models.ParameterVerdict {
	v := models.ParameterVerdict{
		Parameter:    param,
		Status:       models.StatusUnknown,
		DisplayValue: displayNA,
		NormalRange:  NormalRangeDescription(param),
	}

	if reading.Kind == models.ReadingUnknown {
		return v
	}

	switch param {
	case models.ParamPH:
		if f, ok := asNumber(reading); ok {
			v.DisplayValue = fmt.Sprintf("%.2f", f)
			v.Status = rangeStatus(f, PHMin, PHMax)
		}

	case models.ParamSpecificGravity:
		if f, ok := asNumber(reading); ok {
			v.DisplayValue = fmt.Sprintf("%.3f", f)
			v.Status = rangeStatus(f, SpecificGravityMin, SpecificGravityMax)
		}

	case models.ParamAmmonia:
		if f, ok := asNumber(reading); ok {
			v.DisplayValue = fmt.Sprintf("%.2f ppm", f)
			v.Status = rangeStatus(f, AmmoniaMinPPM, AmmoniaMaxPPM)
		}

	case models.ParamTurbidity:
		if f, ok := asNumber(reading); ok {
			v.DisplayValue = fmt.Sprintf("%.1f NTU", f)
			switch {
			case f > TurbidityAbnormalNTU:
				v.Status = models.StatusAbnormal
			case f >= TurbiditySlightNTU:
				v.Status = models.StatusSlightlyAbnormal
			default:
				v.Status = models.StatusNormal
			}
		}

	case models.ParamTDS:
		if f, ok := asNumber(reading); ok {
			v.DisplayValue = fmt.Sprintf("%.0f ppm", f)
			switch {
			case f > TDSAbnormalminPPM:
				v.Status = models.StatusAbnormal
			case f > TDSNormalMaxPPM:
				v.Status = models.StatusSlightlyAbnormal
			default:
				v.Status = models.StatusNormal
			}
		}

	case models.ParamTemperature:
		if f, ok := asNumber(reading); ok {
			v.DisplayValue = fmt.Sprintf("%.1f °C", f)
			if f > DehydrationTempC {
				v.Status = models.StatusDehydrationRisk
			} else {
				v.Status = models.StatusNormal
			}
		}

	case models.ParamUrobilinogen:
		if reading.IsNegative() {
			v.DisplayValue = "Normal"
			v.Status = models.StatusNormal
		} else if f, ok := asNumber(reading); ok {
			v.DisplayValue = fmt.Sprintf("%.1f mg/dL", f)
			v.Status = rangeStatus(f, UrobilinogenMin, UrobilinogenMax)
		} else {
			v.DisplayValue = reading.Raw
			v.Status = models.StatusAbnormal
		}

	case models.ParamProtein:
		if reading.IsNegative() {
			v.DisplayValue = "Negative"
			v.Status = models.StatusNormal
		} else if f, ok := asNumber(reading); ok && f <= ProteinTraceMax {
			v.DisplayValue = "Trace"
			v.Status = models.StatusNormal
		} else {
			v.DisplayValue = reading.Raw
			v.Status = models.StatusAbnormal
		}

	case models.ParamBlood:
		v = sentinelVerdict(v, reading, "Ery/µL")

	case models.ParamLeukocytes:
		v = sentinelVerdict(v, reading, "Leu/µL")

	case models.ParamBilirubin, models.ParamKetones, models.ParamAscorbicAcid,
		models.ParamGlucose, models.ParamNitrite:
		if reading.IsNegative() {
			v.DisplayValue = "Negative"
			v.Status = models.StatusNormal
		} else {
			v.DisplayValue = "Positive"
			v.Status = models.StatusAbnormal
		}

	case models.ParamBloodDetected:
		if reading.IsNegative() {
			v.DisplayValue = "Negative"
			v.Status = models.StatusNormal
		} else {
			v.DisplayValue = "Detected"
			v.Status = models.StatusAbnormal
		}

	case models.ParamLeakage:
		if reading.IsNegative() {
			v.DisplayValue = "No Leaks"
			v.Status = models.StatusNormal
		} else {
			v.DisplayValue = "Leak Detected"
			v.Status = models.StatusAbnormal
		}
	}

	return v
}

// sentinelVerdict handles pads that are negative-or-measured: a negative
// sentinel is normal, anything else reads as a positive count.
func sentinelVerdict(v models.ParameterVerdict, reading models.Reading, unit string) models.ParameterVerdict {
	if reading.IsNegative() {
		v.DisplayValue = "Negative"
		v.Status = models.StatusNormal
		return v
	}
	if reading.IsNumeric() {
		v.DisplayValue = fmt.Sprintf("%s %s", reading.Raw, unit)
	} else {
		v.DisplayValue = "Positive"
	}
	v.Status = models.StatusAbnormal
	return v
}

// ClassifyRecord produces the full diagnostics-table verdict set for a
// reconciled record.
func ClassifyRecord(record *models.CombinedRecord) []models.ParameterVerdict {
	verdicts := make([]models.ParameterVerdict, 0, len(models.MonitoredParameters))
	for _, param := range models.MonitoredParameters {
		verdicts = append(verdicts, ClassifyParameter(param, record.Reading(param)))
	}
	return verdicts
}

// NormalRangeDescription returns the reference-range text shown next to
// a parameter in reports and alerts.
func NormalRangeDescription(param models.Parameter) string {
	switch param {
	case models.ParamPH:
		return "4.5 – 8.0"
	case models.ParamSpecificGravity:
		return "1.005 – 1.030"
	case models.ParamAmmonia:
		return "5 – 500 ppm"
	case models.ParamTurbidity:
		return "< 20 NTU"
	case models.ParamTDS:
		return "≤ 300 ppm"
	case models.ParamTemperature:
		return "≤ 37 °C"
	case models.ParamUrobilinogen:
		return "0.2 – 1.0 mg/dL"
	case models.ParamProtein:
		return "Negative / Trace"
	case models.ParamBlood:
		return "Negative (0–2 Ery/µL)"
	case models.ParamLeukocytes:
		return "Negative (0–10 Leu/µL)"
	case models.ParamBloodDetected, models.ParamLeakage:
		return "Negative"
	default:
		return "Negative"
	}
}

// AlertSeverity maps a verdict status onto the notification panel's two
// severity tiers.
func AlertSeverity(status models.Status) models.Severity {
	if status == models.StatusAbnormal {
		return models.SeverityAlert
	}
	return models.SeverityWarning
}

// HydrationPercent converts specific gravity into the hydration
// percentage gauge: lower gravity means better hydration. Values are
// clamped to the physiological 1.002-1.035 range.
func HydrationPercent(sg float64) int {
	if sg == 0 || math.IsNaN(sg) {
		return 0
	}
	clamped := math.Max(1.002, math.Min(1.035, sg))
	pct := 100 * (1.035 - clamped) / (1.035 - 1.002)
	return int(math.Round(math.Max(0, math.Min(100, pct))))
}

func rangeStatus(v, min, max float64) models.Status {
	if v < min || v > max {
		return models.StatusAbnormal
	}
	return models.StatusNormal
}

func asNumber(r models.Reading) (float64, bool) {
	if r.IsNumeric() {
		return r.Value, true
	}
	// A literal zero normalizes to the negative sentinel but is still a
	// usable number for range checks.
	if r.IsNegative() && r.Raw == "0" {
		return 0, true
	}
	return 0, false
}
