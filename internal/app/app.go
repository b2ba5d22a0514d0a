// Package app creates all components of sunguard and runs them.
package app

import (
	"errors"
	"fmt"
	"github.com/clambin/go-common/http/metrics"
	"github.com/clambin/go-common/slackbot"
	"github.com/clambin/go-common/taskmanager"
	"github.com/clambin/go-common/taskmanager/httpserver"
	promserver "github.com/clambin/go-common/taskmanager/prometheus"
	"github.com/clambin/sunguard/internal/collector"
	"github.com/clambin/sunguard/internal/configuration"
	"github.com/clambin/sunguard/internal/controller"
	"github.com/clambin/sunguard/internal/controller/notifier"
	"github.com/clambin/sunguard/internal/health"
	"github.com/clambin/sunguard/internal/registry"
	"github.com/clambin/sunguard/internal/weerlive"
	"github.com/clambin/sunguard/pkg/scheduler"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
)

// New loads the platform configuration and the sensor definitions and returns a manager for all tasks required to
// run sunguard.
func New(cfg *viper.Viper, version string, r prometheus.Registerer, logger *slog.Logger) (*taskmanager.Manager, error) {
	platform, err := configuration.LoadPlatform(cfg)
	if err != nil {
		return nil, err
	}
	sensors, err := maybeLoadSensors(SensorsPath(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("sensors: %w", err)
	}
	if len(sensors) == 0 {
		logger.Warn("no sensors found")
	}
	tasks, err := makeTasks(cfg, platform, sensors, version, r, logger)
	if err != nil {
		return nil, err
	}
	return taskmanager.New(tasks...), nil
}

// SensorsPath returns the file holding the sensor definitions: the file set in "sensors", or sensors.yaml in the
// directory of the configuration file.
func SensorsPath(cfg *viper.Viper) string {
	if path := cfg.GetString("sensors"); path != "" {
		return path
	}
	return filepath.Join(filepath.Dir(cfg.ConfigFileUsed()), "sensors.yaml")
}

func maybeLoadSensors(path string, logger *slog.Logger) ([]configuration.Sensor, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = nil
		}
		return nil, err
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	return configuration.LoadSensors(f, logger)
}

// NewClient returns a WeerLive client for the platform. If m is not nil, it records all calls to the API.
func NewClient(platform configuration.Platform, m metrics.RequestMetrics) *weerlive.Client {
	options := []weerlive.Option{
		weerlive.WithURL(platform.URL),
		weerlive.WithTimeout(platform.Timeout),
		weerlive.WithInsecure(platform.Insecure),
	}
	if m != nil {
		options = append(options, weerlive.WithRoundTripper(weerlive.Instrument(m)))
	}
	return weerlive.New(platform.APIKey, platform.Latitude, platform.Longitude, options...)
}

func makeTasks(cfg *viper.Viper, platform configuration.Platform, sensors []configuration.Sensor, version string, r prometheus.Registerer, l *slog.Logger) ([]taskmanager.Task, error) {
	var tasks []taskmanager.Task

	// Weather client
	clientMetrics := weerlive.NewMetrics("sunguard", "weerlive", map[string]string{"application": "sunguard"})
	client := NewClient(platform, clientMetrics)

	// Scheduler
	s, err := scheduler.New(cfg.GetString("scheduler.schedule"), cfg.GetDuration("scheduler.interval"), l.With("component", "scheduler"))
	if err != nil {
		return nil, err
	}

	// Notifiers
	notifiers := notifier.Notifiers{&notifier.SLogNotifier{Logger: l.With("component", "notifier")}}
	if token := cfg.GetString("slack.token"); token != "" {
		b := slackbot.New(
			token,
			slackbot.WithName("sunguard "+version),
			slackbot.WithLogger(l.With(slog.String("component", "slackbot"))),
		)
		tasks = append(tasks, b)
		notifiers = append(notifiers, &notifier.SlackNotifier{Bot: b, Logger: l.With("component", "slack")})
	}

	// Controller
	accessories := registry.New(l.With("component", "registry"))
	c := controller.New(platform, sensors, client, accessories, notifiers, s, l.With("component", "controller"))
	c.Metrics = controller.NewMetrics("sunguard", "controller")
	tasks = append(tasks, c)

	// Collector
	coll := &collector.Collector{Publisher: c, Logger: l.With("component", "collector")}
	tasks = append(tasks, coll)

	if r != nil {
		r.MustRegister(clientMetrics, c.Metrics, coll)
	}

	// Prometheus Server
	tasks = append(tasks, promserver.New(promserver.WithAddr(cfg.GetString("exporter.addr"))))

	// Health & accessories endpoint
	h := health.New(c, l.With("component", "health"))
	tasks = append(tasks, h)
	m := http.NewServeMux()
	m.Handle("/health", h)
	m.Handle("/accessories", accessories)
	tasks = append(tasks, httpserver.New(cfg.GetString("health.addr"), m))

	return tasks, nil
}
