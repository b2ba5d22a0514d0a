package configuration

import (
	"errors"
	"fmt"
	"gopkg.in/yaml.v3"
	"io"
	"log/slog"
)

// Sensor defines a virtual contact sensor. The sensor opens when it's sunny and calm enough between FromTime and
// UntilTime (and between sunrise and sunset).
type Sensor struct {
	Name               string    `yaml:"name" validate:"required"`
	FromTime           TimeOfDay `yaml:"fromTime"`
	UntilTime          TimeOfDay `yaml:"untilTime"`
	MinSunPower        float64   `yaml:"minSunPower"`
	MinTemperature     float64   `yaml:"minTemperature"`
	MaxWind            float64   `yaml:"maxWind" validate:"gte=0,lte=12"`
	SameHours          int       `yaml:"sameHours" validate:"gte=0,lte=48"`
	DontCloseOnWeather bool      `yaml:"dontCloseOnWeather"`
}

func (s Sensor) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("name", s.Name),
		slog.String("from", s.FromTime.String()),
		slog.String("until", s.UntilTime.String()),
		slog.Float64("minSunPower", s.MinSunPower),
		slog.Float64("minTemperature", s.MinTemperature),
		slog.Float64("maxWind", s.MaxWind),
		slog.Int("sameHours", s.SameHours),
		slog.Bool("dontCloseOnWeather", s.DontCloseOnWeather),
	)
}

// LoadSensors reads the sensor definitions from a YAML document. The list may be named "sensors" or, as in earlier
// versions, "accessories" / "Accessories".
//
// LoadSensors returns a *ConfigError for every invalid sensor definition and for every duplicate sensor name.
func LoadSensors(r io.Reader, logger *slog.Logger) ([]Sensor, error) {
	var config struct {
		Sensors          []Sensor `yaml:"sensors"`
		Accessories      []Sensor `yaml:"accessories"`
		AccessoriesUpper []Sensor `yaml:"Accessories"`
	}

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return nil, &ConfigError{Key: "sensors", Reason: err.Error()}
	}

	sensors := config.Sensors
	if len(sensors) == 0 {
		sensors = config.Accessories
	}
	if len(sensors) == 0 {
		sensors = config.AccessoriesUpper
	}

	if err := validateSensors(sensors); err != nil {
		return nil, err
	}

	for _, sensor := range sensors {
		logger.Info("sensor found", slog.Any("sensor", sensor))
	}
	return sensors, nil
}

func validateSensors(sensors []Sensor) error {
	var errs []error
	names := make(map[string]struct{}, len(sensors))
	for i, sensor := range sensors {
		label := sensor.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
		}
		if err := validate.Struct(sensor); err != nil {
			errs = append(errs, prefixKeys("sensors["+label+"].", toConfigError(err)))
		}
		if !sensor.FromTime.Set {
			errs = append(errs, &ConfigError{Key: "sensors[" + label + "].fromTime", Reason: "missing"})
		}
		if !sensor.UntilTime.Set {
			errs = append(errs, &ConfigError{Key: "sensors[" + label + "].untilTime", Reason: "missing"})
		}
		if sensor.Name == "" {
			continue
		}
		if _, ok := names[sensor.Name]; ok {
			errs = append(errs, &ConfigError{Key: "sensors[" + label + "]", Reason: "duplicate sensor name"})
		}
		names[sensor.Name] = struct{}{}
	}
	return errors.Join(errs...)
}

func prefixKeys(prefix string, err error) error {
	var errs []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	} else {
		errs = []error{err}
	}
	for _, e := range errs {
		var configErr *ConfigError
		if errors.As(e, &configErr) {
			configErr.Key = prefix + configErr.Key
		}
	}
	return errors.Join(errs...)
}
