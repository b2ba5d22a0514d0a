package controller

import (
	"fmt"
	"github.com/clambin/sunguard/internal/configuration"
	"github.com/clambin/sunguard/internal/weerlive"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// A Report is the outcome of one evaluation cycle.
type Report struct {
	Time      time.Time         `json:"time"`
	Weather   weerlive.Snapshot `json:"weather"`
	SunWindow SunWindow         `json:"sunWindow"`
	Sensors   []Result          `json:"sensors"`
}

// A Result is the evaluated state of one sensor.
type Result struct {
	Sensor   string `json:"sensor"`
	Open     bool   `json:"open"`
	Previous bool   `json:"previous"`
	InWindow bool   `json:"inWindow"`
	Sunny    bool   `json:"sunny"`
	// Reasons why the weather isn't sunny enough. Only set when the sensor is in its time window.
	Reasons []string `json:"reasons,omitempty"`
}

// Changed returns true if the sensor changes state.
func (r Result) Changed() bool {
	return r.Open != r.Previous
}

// Reason describes why the sensor is in its current state.
func (r Result) Reason() string {
	switch {
	case !r.InWindow && r.Previous:
		return "closed because of the upcoming sunset"
	case !r.InWindow:
		return "outside time window"
	case r.Sunny:
		return "sunny weather"
	case r.Open:
		return "kept open despite " + strings.Join(r.Reasons, ", ")
	default:
		return "not sunny: " + strings.Join(r.Reasons, ", ")
	}
}

func (r Result) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("sensor", r.Sensor),
		slog.Bool("open", r.Open),
		slog.Bool("previous", r.Previous),
		slog.String("reason", r.Reason()),
	)
}

// Evaluate determines the state of each sensor for the provided weather at time now. previous returns the current
// state of a sensor: it selects which criteria the weather must meet. Evaluate has no side effects: evaluating the
// same input twice gives the same Report.
//
// If the weather can't be evaluated (e.g. malformed sunrise/sunset), Evaluate returns an *EvaluationError.
func Evaluate(platform configuration.Platform, sensors []configuration.Sensor, snapshot weerlive.Snapshot, now time.Time, previous func(string) bool) (report Report, err error) {
	var current string
	defer func() {
		if r := recover(); r != nil {
			err = &EvaluationError{Sensor: current, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	sun, err := newSunWindow(snapshot.Live, now, platform.SunriseOffset, platform.SunsetOffset)
	if err != nil {
		return Report{}, err
	}

	report = Report{
		Time:      now,
		Weather:   snapshot,
		SunWindow: sun,
		Sensors:   make([]Result, 0, len(sensors)),
	}
	for _, sensor := range sensors {
		current = sensor.Name
		report.Sensors = append(report.Sensors, evaluateSensor(platform, sensor, snapshot, now, sun, previous(sensor.Name)))
	}
	return report, nil
}

func evaluateSensor(platform configuration.Platform, sensor configuration.Sensor, snapshot weerlive.Snapshot, now time.Time, sun SunWindow, prev bool) Result {
	r := Result{
		Sensor:   sensor.Name,
		Previous: prev,
		InWindow: inTimeWindow(now, sensor, sun),
	}
	if !r.InWindow {
		return r
	}

	r.Sunny, r.Reasons = isSunnyWeather(platform, snapshot.Live.Conditions, sensor, prev)
	for hour := range sensor.SameHours {
		forecast, ok := snapshot.Hour(hour)
		if !ok {
			r.Sunny = false
			r.Reasons = append(r.Reasons, "no forecast for hour "+strconv.Itoa(hour+1))
			continue
		}
		sunny, reasons := isSunnyWeather(platform, forecast, sensor, prev)
		r.Sunny = r.Sunny && sunny
		r.Reasons = append(r.Reasons, prefix("hour "+strconv.Itoa(hour+1)+": ", reasons)...)
	}

	// once open, the weather alone doesn't close the sensor if dontCloseOnWeather is set.
	r.Open = r.Sunny || (prev && sensor.DontCloseOnWeather)
	return r
}

// isSunnyWeather checks the weather against the sensor's criteria. A closed sensor requires a sunshine image, enough
// sun power, a high enough temperature and wind no stronger than maxWind. An open sensor stays open as long as the
// image is a sunshine or clouded image and the wind is no stronger than maxWind.
//
// If the weather doesn't meet the criteria, isSunnyWeather also returns the reasons why.
func isSunnyWeather(platform configuration.Platform, weather weerlive.Conditions, sensor configuration.Sensor, open bool) (bool, []string) {
	var reasons []string
	sunshine := platform.SunshineImages.Contains(weather.Image)
	windy := float64(weather.WindForce) > sensor.MaxWind

	if !open {
		if !sunshine {
			reasons = append(reasons, "image not sunny: "+weather.Image)
		}
		if sunPower := float64(weather.SunPower); sunPower < sensor.MinSunPower {
			reasons = append(reasons, "sun power: "+formatFloat(sunPower)+" < "+formatFloat(sensor.MinSunPower))
		}
		if temp := float64(weather.Temperature); temp < sensor.MinTemperature {
			reasons = append(reasons, "temperature: "+formatFloat(temp)+" < "+formatFloat(sensor.MinTemperature))
		}
	} else if !sunshine && !platform.CloudedImages.Contains(weather.Image) {
		reasons = append(reasons, "image not sunny: "+weather.Image, "image not clouded: "+weather.Image)
	}
	if windy {
		reasons = append(reasons, "wind: "+formatFloat(float64(weather.WindForce))+" > "+formatFloat(sensor.MaxWind))
	}
	return len(reasons) == 0, reasons
}

func prefix(p string, values []string) []string {
	prefixed := make([]string, len(values))
	for i, value := range values {
		prefixed[i] = p + value
	}
	return prefixed
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
