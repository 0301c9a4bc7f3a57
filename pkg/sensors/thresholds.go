package sensors

import "fmt"

// Range is an inclusive healthy band for one sensor.
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether v falls inside the band.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Thresholds holds the healthy bands for all four sensors.
type Thresholds struct {
	SoilMoisture Range
	LightLevel   Range
	Temperature  Range
	Humidity     Range
}

// DefaultThresholds returns the stock healthy bands for houseplants.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SoilMoisture: Range{Min: 30, Max: 70},
		LightLevel:   Range{Min: 200, Max: 800},
		Temperature:  Range{Min: 15, Max: 35},
		Humidity:     Range{Min: 40, Max: 70},
	}
}

// Advice returns one human-readable recommendation per reading that falls
// outside its healthy band. An empty result means all readings are fine.
func (t Thresholds) Advice(readings map[string]float64) []string {
	var advice []string

	if v, ok := readings[KeySoilMoisture]; ok && v < t.SoilMoisture.Min {
		advice = append(advice, "Soil moisture is too low! Consider watering the plant.")
	}
	if v, ok := readings[KeyLightLevel]; ok && v < t.LightLevel.Min {
		advice = append(advice, "Light level is too low! Provide additional lighting.")
	}
	if v, ok := readings[KeyTemperature]; ok && !t.Temperature.Contains(v) {
		advice = append(advice, fmt.Sprintf("Temperature is not optimal! Keep it between %.0f and %.0f°C.", t.Temperature.Min, t.Temperature.Max))
	}
	if v, ok := readings[KeyHumidity]; ok && !t.Humidity.Contains(v) {
		advice = append(advice, "Humidity is not optimal! Adjust the environment.")
	}

	return advice
}
