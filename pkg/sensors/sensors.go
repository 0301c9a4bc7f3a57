// Package sensors provides the sensor provider contract and a simulated
// implementation producing plausible plant-environment readings.
package sensors

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// Reading keys. A complete read carries all four.
const (
	KeySoilMoisture = "soil_moisture"
	KeyLightLevel   = "light_level"
	KeyTemperature  = "temperature"
	KeyHumidity     = "humidity"
)

// Keys lists the required reading keys.
var Keys = []string{KeySoilMoisture, KeyLightLevel, KeyTemperature, KeyHumidity}

// Provider is the external sensor collaborator: one call returns the four
// named readings, or an error when the sensor bank is unavailable.
type Provider interface {
	Read(ctx context.Context) (map[string]float64, error)
}

// Station is the simulated sensor bank's identity, generated once at startup.
type Station struct {
	StationID string `fake:"{uuid}"`
	Firmware  string `fake:"{appversion}"`
	Location  string `fake:"{city}, {state}"`
}

// Simulated is a Provider that fabricates readings. Values follow a daily
// cycle with noise so dashboards and thresholds behave like they would
// against live hardware.
type Simulated struct {
	station          Station
	baselineMoisture float64
	baselineLight    float64
	baselineTemp     float64
	baselineHumidity float64
	noise            float64
	now              func() time.Time
}

// NewSimulated creates a simulated provider with randomized baselines.
func NewSimulated() (*Simulated, error) {
	var station Station
	if err := gofakeit.Struct(&station); err != nil {
		return nil, err
	}

	return &Simulated{
		station:          station,
		baselineMoisture: 40 + rand.Float64()*20,   // 40-60%
		baselineLight:    200 + rand.Float64()*150, // 200-350 lm
		baselineTemp:     20 + rand.Float64()*8,    // 20-28°C
		baselineHumidity: 50 + rand.Float64()*15,   // 50-65%
		noise:            1 + rand.Float64()*2,
		now:              time.Now,
	}, nil
}

// Station returns the simulated bank's generated identity.
func (s *Simulated) Station() Station {
	return s.station
}

// Read returns one complete set of simulated readings.
func (s *Simulated) Read(_ context.Context) (map[string]float64, error) {
	t := s.now()
	hour := float64(t.Hour()) + float64(t.Minute())/60

	// Light and temperature peak early afternoon; moisture drains slowly
	// between waterings and humidity runs opposite to temperature.
	daylight := math.Max(0, math.Sin((hour-6)*math.Pi/12))
	temp := s.baselineTemp + 5*daylight + s.jitter()
	light := s.baselineLight + 180*daylight + s.jitter()*10
	moisture := clamp(s.baselineMoisture-5*daylight+s.jitter(), 10, 90)
	humidity := clamp(s.baselineHumidity-(temp-s.baselineTemp)*1.5+s.jitter(), 20, 90)

	return map[string]float64{
		KeySoilMoisture: round(moisture),
		KeyLightLevel:   round(clamp(light, 50, 500)),
		KeyTemperature:  round(clamp(temp, 10, 40)),
		KeyHumidity:     round(humidity),
	}, nil
}

func (s *Simulated) jitter() float64 {
	return (rand.Float64() - 0.5) * s.noise
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round(v float64) float64 {
	return math.Round(v*100) / 100
}
