package controller

import (
	"fmt"
	"github.com/clambin/sunguard/internal/configuration"
	"github.com/clambin/sunguard/internal/weerlive"
	"time"
)

// TimeOfDayToInstant converts a HH:MM string into an instant on the calendar day of ref. No timezone conversion takes
// place: the weather source and the local clock are assumed to be in the same timezone.
func TimeOfDayToInstant(value string, ref time.Time) (time.Time, error) {
	tod, err := configuration.ParseTimeOfDay(value)
	if err != nil {
		return time.Time{}, err
	}
	return tod.On(ref), nil
}

// A SunWindow is the part of the day in which sensors may open: from sunrise + offset until sunset - offset.
type SunWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func newSunWindow(live weerlive.Observation, now time.Time, sunriseOffset, sunsetOffset time.Duration) (SunWindow, error) {
	sunrise, err := TimeOfDayToInstant(live.Sunrise, now)
	if err != nil {
		return SunWindow{}, &EvaluationError{Err: fmt.Errorf("sunrise: %w", err)}
	}
	sunset, err := TimeOfDayToInstant(live.Sunset, now)
	if err != nil {
		return SunWindow{}, &EvaluationError{Err: fmt.Errorf("sunset: %w", err)}
	}
	return SunWindow{
		Start: sunrise.Add(sunriseOffset),
		End:   sunset.Add(-sunsetOffset),
	}, nil
}

// Contains returns true if t is in [Start, End).
func (w SunWindow) Contains(t time.Time) bool {
	return within(t, w.Start, w.End)
}

// inTimeWindow returns true if now is within both the sensor's configured window and the SunWindow.
func inTimeWindow(now time.Time, sensor configuration.Sensor, sun SunWindow) bool {
	return within(now, sensor.FromTime.On(now), sensor.UntilTime.On(now)) && sun.Contains(now)
}

func within(t, from, until time.Time) bool {
	return !t.Before(from) && t.Before(until)
}
