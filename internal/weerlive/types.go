package weerlive

import (
	"bytes"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Snapshot is the weather reported by WeerLive at the time of the call: the live observation and the hourly forecast,
// ordered by hour.
type Snapshot struct {
	Live     Observation `json:"live"`
	Forecast []Forecast  `json:"forecast"`
}

// Hour returns the forecast for the n-th hour from now (zero-based). ok is false if the forecast doesn't cover that hour.
func (s Snapshot) Hour(n int) (Conditions, bool) {
	if n < 0 || n >= len(s.Forecast) {
		return Conditions{}, false
	}
	return s.Forecast[n].Conditions, true
}

func (s Snapshot) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("live", s.Live),
		slog.Int("forecast", len(s.Forecast)),
	)
}

// Conditions are the weather attributes used to decide whether it's sunny: the weather image code, the sun power (gr),
// the temperature and the wind force in Beaufort.
type Conditions struct {
	Image       string `json:"image"`
	SunPower    Number `json:"gr"`
	Temperature Number `json:"temp"`
	WindForce   Number `json:"windbft"`
}

func (c Conditions) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("image", c.Image),
		slog.Float64("gr", float64(c.SunPower)),
		slog.Float64("temp", float64(c.Temperature)),
		slog.Float64("windbft", float64(c.WindForce)),
	)
}

// Observation is the live weather for the location. Sunrise and Sunset are local times, formatted as HH:MM.
type Observation struct {
	Conditions
	Place   string `json:"plaats,omitempty"`
	Sunrise string `json:"sup"`
	Sunset  string `json:"sunder"`
}

func (o Observation) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("image", o.Image),
		slog.Float64("gr", float64(o.SunPower)),
		slog.Float64("temp", float64(o.Temperature)),
		slog.Float64("windbft", float64(o.WindForce)),
		slog.String("sup", o.Sunrise),
		slog.String("sunder", o.Sunset),
	)
}

// Forecast is the forecast for one hour.
type Forecast struct {
	Conditions
	Hour string `json:"uur,omitempty"`
}

// response is the body returned by the WeerLive API. liveweer always holds one entry.
type response struct {
	Live     []Observation `json:"liveweer"`
	Forecast []Forecast    `json:"uur_verw"`
}

// Number is a numeric WeerLive field. v1 of the API reports numbers as strings, v2 as JSON numbers. Number accepts both.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	value := string(bytes.Trim(b, `"`))
	value = strings.Replace(strings.TrimSpace(value), ",", ".", 1)
	if value == "" || value == "null" || value == "-" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", string(b), err)
	}
	*n = Number(f)
	return nil
}
