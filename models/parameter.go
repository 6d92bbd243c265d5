package models

// Parameter identifies one monitored urinalysis or telemetry parameter.
type Parameter string

const (
	ParamPH              Parameter = "ph"
	ParamSpecificGravity Parameter = "specific_gravity"
	ParamTDS             Parameter = "tds"
	ParamTurbidity       Parameter = "turbidity"
	ParamAmmonia         Parameter = "ammonia"
	ParamTemperature     Parameter = "temperature"
	ParamBloodDetected   Parameter = "blood_detected"
	ParamLeakage         Parameter = "leakage"

	ParamBilirubin    Parameter = "bilirubin"
	ParamUrobilinogen Parameter = "urobilinogen"
	ParamKetones      Parameter = "ketones"
	ParamAscorbicAcid Parameter = "ascorbic_acid"
	ParamGlucose      Parameter = "glucose"
	ParamProtein      Parameter = "protein"
	ParamBlood        Parameter = "blood"
	ParamNitrite      Parameter = "nitrite"
	ParamLeukocytes   Parameter = "leukocytes"
)

type parameterSpec struct {
	WireKey       string
	FromChemistry bool
	DisplayName   string
}

// parameterSpecs binds each parameter to the Firebase key the capture
// pipeline writes it under. Sensor keys live under sensorData, chemistry
// keys under Chemistry_Result.
var parameterSpecs = map[Parameter]parameterSpec{
	ParamPH:              {WireKey: "ph_value_sensor", DisplayName: "pH Level"},
	ParamSpecificGravity: {WireKey: "specific_gravity_sensor", DisplayName: "Specific Gravity (SG)"},
	ParamTDS:             {WireKey: "tds_value", DisplayName: "Total Dissolved Solids"},
	ParamTurbidity:       {WireKey: "turbidity", DisplayName: "Turbidity"},
	ParamAmmonia:         {WireKey: "ammonia_sensor", DisplayName: "Ammonia Gas"},
	ParamTemperature:     {WireKey: "temperature_sensor", DisplayName: "Temperature"},
	ParamBloodDetected:   {WireKey: "blood_detected_sensor", DisplayName: "Blood Detection"},
	ParamLeakage:         {WireKey: "leakage_detected", DisplayName: "Leakage Alert"},

	ParamBilirubin:    {WireKey: "chem_bilirubin", FromChemistry: true, DisplayName: "Bilirubin (BIL)"},
	ParamUrobilinogen: {WireKey: "chem_urobilinogen", FromChemistry: true, DisplayName: "Urobilinogen (UBG)"},
	ParamKetones:      {WireKey: "chem_ketones", FromChemistry: true, DisplayName: "Ketone (KET)"},
	ParamAscorbicAcid: {WireKey: "chem_ascorbicAcid", FromChemistry: true, DisplayName: "Ascorbic Acid (ASC)"},
	ParamGlucose:      {WireKey: "chem_glucose", FromChemistry: true, DisplayName: "Glucose (GLU)"},
	ParamProtein:      {WireKey: "chem_protein", FromChemistry: true, DisplayName: "Protein (PRO)"},
	ParamBlood:        {WireKey: "chem_blood", FromChemistry: true, DisplayName: "Blood (BLD)"},
	ParamNitrite:      {WireKey: "chem_nitrite", FromChemistry: true, DisplayName: "Nitrite (NIT)"},
	ParamLeukocytes:   {WireKey: "chem_leukocytes", FromChemistry: true, DisplayName: "Leukocytes (LEU)"},
}

// MonitoredParameters lists every parameter in the order the diagnostics
// table shows them.
var MonitoredParameters = []Parameter{
	ParamBilirubin,
	ParamUrobilinogen,
	ParamKetones,
	ParamAscorbicAcid,
	ParamGlucose,
	ParamProtein,
	ParamBlood,
	ParamPH,
	ParamNitrite,
	ParamLeukocytes,
	ParamSpecificGravity,
	ParamTDS,
	ParamTurbidity,
	ParamAmmonia,
	ParamTemperature,
	ParamBloodDetected,
	ParamLeakage,
}

// DisplayName returns the user-facing parameter name.
func (p Parameter) DisplayName() string {
	if spec, ok := parameterSpecs[p]; ok {
		return spec.DisplayName
	}
	return string(p)
}

// WireKey returns the Firebase field name carrying this parameter.
func (p Parameter) WireKey() string {
	if spec, ok := parameterSpecs[p]; ok {
		return spec.WireKey
	}
	return string(p)
}

// FromChemistry reports whether the parameter comes from the dipstick
// stream rather than the hardware sensors.
func (p Parameter) FromChemistry() bool {
	return parameterSpecs[p].FromChemistry
}
