package env

// PressureSample is one compensated reading of the barometric sensor.
type PressureSample struct {
	Temperature float64 `json:"temp_c"`       // °C
	Pressure    float64 `json:"pressure_hpa"` // hPa
	Altitude    float64 `json:"altitude_m"`   // m, relative to the startup baseline
}

// HumiditySample is one reading of the humidity sensor.
type HumiditySample struct {
	Temperature float64 `json:"temp_c"`       // °C
	Humidity    float64 `json:"humidity_pct"` // %RH
}
