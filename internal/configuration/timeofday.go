package configuration

import (
	"fmt"
	"gopkg.in/yaml.v3"
	"time"
)

// TimeOfDay is a local time of day, configured as HH:MM.
type TimeOfDay struct {
	Hour   int
	Minute int
	Set    bool
}

// ParseTimeOfDay parses a HH:MM (or HH:MM:SS) string. Seconds are ignored. "24:00" is the end of the day: the
// next midnight.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	if value == "24:00" || value == "24:00:00" {
		return TimeOfDay{Hour: 24, Set: true}, nil
	}
	timestamp, err := time.Parse("15:04", value)
	if err != nil {
		timestamp, err = time.Parse("15:04:05", value)
	}
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: expected HH:MM", value)
	}
	return TimeOfDay{Hour: timestamp.Hour(), Minute: timestamp.Minute(), Set: true}, nil
}

// On returns the instant of t on the calendar day of ref: midnight in ref's location, plus t's hours and minutes.
func (t TimeOfDay) On(ref time.Time) time.Time {
	year, month, day := ref.Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, ref.Location())
	return midnight.Add(time.Duration(t.Hour*60+t.Minute) * time.Minute)
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t *TimeOfDay) UnmarshalYAML(value *yaml.Node) error {
	var err error
	*t, err = ParseTimeOfDay(value.Value)
	return err
}

func (t TimeOfDay) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}
