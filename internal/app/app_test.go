package app

import (
	"bytes"
	"github.com/clambin/sunguard/internal/configuration"
	"github.com/clambin/sunguard/internal/weerlive"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testConfig = `
weerlive:
  apikey: my-key
  latitude: 52.37
  longitude: 4.89
sunshineImages: zonnig,lichtbewolkt
cloudedImages: halfbewolkt
health:
  addr: :0
exporter:
  addr: :0
`

const testSensors = `
sensors:
  - name: awning
    fromTime: "08:00"
    untilTime: "20:00"
    minSunPower: 5
    minTemperature: 15
    maxWind: 4
    sameHours: 2
`

func TestNew(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(testConfig), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sensors.yaml"), []byte(testSensors), 0o600))

	cfg := viper.New()
	cfg.SetConfigFile(configFile)
	require.NoError(t, cfg.ReadInConfig())
	assert.Equal(t, filepath.Join(dir, "sensors.yaml"), SensorsPath(cfg))

	m, err := New(cfg, "1.0", prometheus.NewPedanticRegistry(), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	assert.NotNil(t, m)

	cfg.Set("sensors", filepath.Join(dir, "missing.yaml"))
	m, err = New(cfg, "1.0", prometheus.NewPedanticRegistry(), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestNew_Failure(t *testing.T) {
	cfg := viper.New()
	cfg.SetConfigType("yaml")
	require.NoError(t, cfg.ReadConfig(bytes.NewBufferString(`
weerlive:
  latitude: 52.37
  longitude: 4.89
`)))

	_, err := New(cfg, "1.0", nil, slog.New(slog.DiscardHandler))
	require.Error(t, err)
	assert.ErrorIs(t, err, &configuration.ConfigError{})

	dir := t.TempDir()
	sensorsFile := filepath.Join(dir, "sensors.yaml")
	require.NoError(t, os.WriteFile(sensorsFile, []byte("sensors:\n  - name: awning\n"), 0o600))
	require.NoError(t, cfg.ReadConfig(bytes.NewBufferString(testConfig)))
	cfg.Set("sensors", sensorsFile)

	_, err = New(cfg, "1.0", nil, slog.New(slog.DiscardHandler))
	require.Error(t, err)
	assert.ErrorIs(t, err, &configuration.ConfigError{})
}

func Test_makeTasks(t *testing.T) {
	testCases := []struct {
		name   string
		config string
		length int
	}{
		{
			name: "with slack",
			config: `
health:
  addr: :0
slack:
  token: 1234
`,
			length: 6,
		},
		{
			name: "without slack",
			config: `
health:
  addr: :0
`,
			length: 5,
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := viper.New()
			cfg.SetConfigType("yaml")
			require.NoError(t, cfg.ReadConfig(bytes.NewBufferString(tt.config)))

			tasks, err := makeTasks(cfg, configuration.Platform{}, nil, "1.0", prometheus.NewPedanticRegistry(), slog.New(slog.DiscardHandler))
			require.NoError(t, err)
			assert.Len(t, tasks, tt.length)
		})
	}

	cfg := viper.New()
	cfg.Set("scheduler.schedule", "every ten minutes")
	_, err := makeTasks(cfg, configuration.Platform{}, nil, "1.0", nil, slog.New(slog.DiscardHandler))
	assert.Error(t, err)
}

func Test_maybeLoadSensors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		wantErr assert.ErrorAssertionFunc
		want    []string
	}{
		{
			name:    "valid",
			content: testSensors,
			wantErr: assert.NoError,
			want:    []string{"awning"},
		},
		{
			name:    "invalid",
			content: `invalid yaml`,
			wantErr: assert.Error,
		},
		{
			name:    "missing",
			content: ``,
			wantErr: assert.NoError,
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "sensors.yaml")
			if tt.content != "" {
				require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))
			}

			sensors, err := maybeLoadSensors(path, slog.New(slog.DiscardHandler))
			tt.wantErr(t, err)
			var names []string
			for _, sensor := range sensors {
				names = append(names, sensor.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestNewClient(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"liveweer":[{"image":"zonnig","gr":500,"temp":20,"windbft":2,"sup":"06:00","sunder":"21:00"}],"uur_verw":[]}`))
	}))
	t.Cleanup(s.Close)

	m := weerlive.NewMetrics("sunguard", "weerlive", map[string]string{"application": "sunguard"})
	c := NewClient(configuration.Platform{APIKey: "my-key", Latitude: 52.37, Longitude: 4.89, URL: s.URL, Timeout: time.Second}, m)

	snapshot, err := c.Fetch(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "zonnig", snapshot.Live.Image)

	assert.NoError(t, testutil.CollectAndCompare(m, strings.NewReader(`
# HELP sunguard_weerlive_http_requests_total total number of http requests
# TYPE sunguard_weerlive_http_requests_total counter
sunguard_weerlive_http_requests_total{application="sunguard",code="200",method="GET",path="/"} 1
`), "sunguard_weerlive_http_requests_total"))
}
