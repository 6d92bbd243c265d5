package services_test

import (
	"testing"

	"uriscan/models"
	"uriscan/services"

	"github.com/stretchr/testify/require"
)

func classify(t *testing.T, param models.Parameter, raw interface{}) models.ParameterVerdict {
	t.Helper()
	return services.ClassifyParameter(param, models.NormalizeReading(raw))
}

func TestClassifyPHBoundaries(t *testing.T) {
	cases := []struct {
		value float64
		want  models.Status
	}{
		{4.5, models.StatusNormal},
		{8.0, models.StatusNormal},
		{6.2, models.StatusNormal},
		{4.49, models.StatusAbnormal},
		{8.01, models.StatusAbnormal},
	}
	for _, tc := range cases {
		v := classify(t, models.ParamPH, tc.value)
		require.Equal(t, tc.want, v.Status, "pH %v", tc.value)
	}
}

func TestClassifySpecificGravityBoundaries(t *testing.T) {
	require.Equal(t, models.StatusNormal, classify(t, models.ParamSpecificGravity, 1.005).Status)
	require.Equal(t, models.StatusNormal, classify(t, models.ParamSpecificGravity, 1.030).Status)
	require.Equal(t, models.StatusAbnormal, classify(t, models.ParamSpecificGravity, 1.004).Status)
	require.Equal(t, models.StatusAbnormal, classify(t, models.ParamSpecificGravity, 1.031).Status)
}

func TestClassifyAmmoniaBoundaries(t *testing.T) {
	require.Equal(t, models.StatusNormal, classify(t, models.ParamAmmonia, 5.0).Status)
	require.Equal(t, models.StatusNormal, classify(t, models.ParamAmmonia, 500.0).Status)
	require.Equal(t, models.StatusAbnormal, classify(t, models.ParamAmmonia, 4.9).Status)
	require.Equal(t, models.StatusAbnormal, classify(t, models.ParamAmmonia, 500.1).Status)
}

func TestClassifyTurbidityTiers(t *testing.T) {
	require.Equal(t, models.StatusNormal, classify(t, models.ParamTurbidity, 19.9).Status)
	require.Equal(t, models.StatusSlightlyAbnormal, classify(t, models.ParamTurbidity, 20.0).Status)
	require.Equal(t, models.StatusSlightlyAbnormal, classify(t, models.ParamTurbidity, 50.0).Status)
	require.Equal(t, models.StatusAbnormal, classify(t, models.ParamTurbidity, 50.1).Status)
}

func TestClassifyTDSTiers(t *testing.T) {
	require.Equal(t, models.StatusNormal, classify(t, models.ParamTDS, 300.0).Status)
	require.Equal(t, models.StatusSlightlyAbnormal, classify(t, models.ParamTDS, 301.0).Status)
	require.Equal(t, models.StatusSlightlyAbnormal, classify(t, models.ParamTDS, 500.0).Status)
	require.Equal(t, models.StatusAbnormal, classify(t, models.ParamTDS, 501.0).Status)
}

func TestClassifyTemperatureDehydration(t *testing.T) {
	require.Equal(t, models.StatusNormal, classify(t, models.ParamTemperature, 37.0).Status)

	v := classify(t, models.ParamTemperature, 37.1)
	require.Equal(t, models.StatusDehydrationRisk, v.Status)
	require.True(t, v.Status.IsAbnormal())
}

func TestClassifyUrobilinogen(t *testing.T) {
	require.Equal(t, models.StatusNormal, classify(t, models.ParamUrobilinogen, "norm").Status)
	require.Equal(t, models.StatusNormal, classify(t, models.ParamUrobilinogen, 0.2).Status)
	require.Equal(t, models.StatusNormal, classify(t, models.ParamUrobilinogen, 1.0).Status)
	require.Equal(t, models.StatusAbnormal, classify(t, models.ParamUrobilinogen, 0.1).Status)
	require.Equal(t, models.StatusAbnormal, classify(t, models.ParamUrobilinogen, 1.5).Status)
}

func TestClassifyProtein(t *testing.T) {
	v := classify(t, models.ParamProtein, "neg")
	require.Equal(t, models.StatusNormal, v.Status)
	require.Equal(t, "Negative", v.DisplayValue)

	v = classify(t, models.ParamProtein, 15.0)
	require.Equal(t, models.StatusNormal, v.Status)
	require.Equal(t, "Trace", v.DisplayValue)

	v = classify(t, models.ParamProtein, 30.0)
	require.Equal(t, models.StatusNormal, v.Status)

	require.Equal(t, models.StatusAbnormal, classify(t, models.ParamProtein, 31.0).Status)
}

func TestClassifyBinaryPads(t *testing.T) {
	for _, param := range []models.Parameter{
		models.ParamBilirubin, models.ParamKetones, models.ParamAscorbicAcid,
		models.ParamGlucose, models.ParamNitrite,
	} {
		require.Equal(t, models.StatusNormal, classify(t, param, "neg").Status, "%s neg", param)
		require.Equal(t, models.StatusNormal, classify(t, param, 0).Status, "%s zero", param)

		v := classify(t, param, "2+")
		require.Equal(t, models.StatusAbnormal, v.Status, "%s positive", param)
		require.Equal(t, "Positive", v.DisplayValue)
	}
}

func TestClassifyBloodAndLeukocyteCounts(t *testing.T) {
	v := classify(t, models.ParamBlood, 25.0)
	require.Equal(t, models.StatusAbnormal, v.Status)
	require.Equal(t, "25 Ery/µL", v.DisplayValue)

	v = classify(t, models.ParamLeukocytes, "neg")
	require.Equal(t, models.StatusNormal, v.Status)

	v = classify(t, models.ParamLeukocytes, 70.0)
	require.Equal(t, models.StatusAbnormal, v.Status)
	require.Equal(t, "70 Leu/µL", v.DisplayValue)
}

func TestClassifyHardwareFlags(t *testing.T) {
	require.Equal(t, models.StatusNormal, classify(t, models.ParamBloodDetected, false).Status)
	require.Equal(t, models.StatusAbnormal, classify(t, models.ParamBloodDetected, true).Status)

	v := classify(t, models.ParamLeakage, true)
	require.Equal(t, models.StatusAbnormal, v.Status)
	require.Equal(t, "Leak Detected", v.DisplayValue)
}

func TestClassifyMissingReadingIsUnknown(t *testing.T) {
	for _, param := range models.MonitoredParameters {
		v := classify(t, param, nil)
		require.Equal(t, models.StatusUnknown, v.Status, "%s", param)
		require.Equal(t, "N/A", v.DisplayValue)
	}
}

func TestAlertSeverity(t *testing.T) {
	require.Equal(t, models.SeverityAlert, services.AlertSeverity(models.StatusAbnormal))
	require.Equal(t, models.SeverityWarning, services.AlertSeverity(models.StatusSlightlyAbnormal))
	require.Equal(t, models.SeverityWarning, services.AlertSeverity(models.StatusDehydrationRisk))
}

func TestHydrationPercent(t *testing.T) {
	require.Equal(t, 0, services.HydrationPercent(0))
	require.Equal(t, 100, services.HydrationPercent(1.002))
	require.Equal(t, 0, services.HydrationPercent(1.035))
	require.Equal(t, 100, services.HydrationPercent(1.0))  // clamped low
	require.Equal(t, 0, services.HydrationPercent(1.040)) // clamped high

	mid := services.HydrationPercent(1.018)
	require.Greater(t, mid, 40)
	require.Less(t, mid, 60)
}
