// Package configuration loads the platform settings and the sensor definitions.
package configuration

import (
	"github.com/clambin/go-common/set"
	"github.com/clambin/sunguard/internal/weerlive"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"strings"
	"time"
)

const (
	DefaultSunriseOffset = 60 * time.Minute
	DefaultSunsetOffset  = 60 * time.Minute
)

// Platform holds the settings shared by all sensors. It is loaded once at startup and not modified afterwards.
type Platform struct {
	APIKey         string
	Latitude       float64
	Longitude      float64
	URL            string
	Timeout        time.Duration
	Insecure       bool
	SunshineImages set.Set[string]
	CloudedImages  set.Set[string]
	SunriseOffset  time.Duration
	SunsetOffset   time.Duration
}

// platformValues are the raw values of a Platform, as found in the configuration.
type platformValues struct {
	APIKey         string        `key:"weerlive.apikey" validate:"required"`
	Latitude       float64       `key:"weerlive.latitude" validate:"required,latitude"`
	Longitude      float64       `key:"weerlive.longitude" validate:"required,longitude"`
	URL            string        `key:"weerlive.url" validate:"required,url"`
	Timeout        time.Duration `key:"weerlive.timeout" validate:"gt=0"`
	SunshineImages []string      `key:"sunshineImages" validate:"min=1,dive,required"`
	CloudedImages  []string      `key:"cloudedImages" validate:"dive,required"`
}

// LoadPlatform reads the Platform settings from v. It returns a *ConfigError for every missing or invalid setting.
//
// sunriseOffset and sunsetOffset are in minutes. If not set, they default to 60 minutes. An explicit zero is honored.
func LoadPlatform(v *viper.Viper) (Platform, error) {
	values := platformValues{
		APIKey:         v.GetString("weerlive.apikey"),
		Latitude:       v.GetFloat64("weerlive.latitude"),
		Longitude:      v.GetFloat64("weerlive.longitude"),
		URL:            v.GetString("weerlive.url"),
		Timeout:        v.GetDuration("weerlive.timeout"),
		SunshineImages: splitImages(v.GetString("sunshineImages")),
		CloudedImages:  splitImages(v.GetString("cloudedImages")),
	}
	if values.URL == "" {
		values.URL = weerlive.DefaultURL
	}
	if values.Timeout == 0 {
		values.Timeout = weerlive.DefaultTimeout
	}
	if err := validate.Struct(values); err != nil {
		return Platform{}, toConfigError(err)
	}

	insecure := true
	if v.IsSet("weerlive.insecure") {
		insecure = v.GetBool("weerlive.insecure")
	}

	return Platform{
		APIKey:         values.APIKey,
		Latitude:       values.Latitude,
		Longitude:      values.Longitude,
		URL:            values.URL,
		Timeout:        values.Timeout,
		Insecure:       insecure,
		SunshineImages: set.New(values.SunshineImages...),
		CloudedImages:  set.New(values.CloudedImages...),
		SunriseOffset:  offset(v, "sunriseOffset", DefaultSunriseOffset),
		SunsetOffset:   offset(v, "sunsetOffset", DefaultSunsetOffset),
	}, nil
}

func offset(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	if !v.IsSet(key) {
		return fallback
	}
	return time.Duration(v.GetInt(key)) * time.Minute
}

// splitImages splits a comma-separated list of image codes. Empty entries are dropped.
func splitImages(images string) []string {
	var codes []string
	for _, code := range strings.Split(images, ",") {
		if code = strings.TrimSpace(code); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(fieldKey)
	return v
}
