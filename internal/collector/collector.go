package collector

import (
	"context"
	"github.com/clambin/sunguard/internal/controller"
	"github.com/prometheus/client_golang/prometheus"
	"log/slog"
	"sync"
)

var (
	sensorOpen = prometheus.NewDesc(
		prometheus.BuildFQName("sunguard", "sensor", "open"),
		"1 if the sensor is open",
		[]string{"sensor"},
		nil,
	)
	sensorInWindow = prometheus.NewDesc(
		prometheus.BuildFQName("sunguard", "sensor", "in_window"),
		"1 if the sensor is inside its time window",
		[]string{"sensor"},
		nil,
	)
	weatherSunPower = prometheus.NewDesc(
		prometheus.BuildFQName("sunguard", "weather", "sun_power_watt_per_square_meter"),
		"Current sun power",
		nil,
		nil,
	)
	weatherTemperature = prometheus.NewDesc(
		prometheus.BuildFQName("sunguard", "weather", "temperature_celsius"),
		"Current temperature in degrees celsius",
		nil,
		nil,
	)
	weatherWindForce = prometheus.NewDesc(
		prometheus.BuildFQName("sunguard", "weather", "wind_force_beaufort"),
		"Current wind force in Beaufort",
		nil,
		nil,
	)
	weatherImage = prometheus.NewDesc(
		prometheus.BuildFQName("sunguard", "weather", "image"),
		"Current weather. Always one. See label 'image'",
		[]string{"image"},
		nil,
	)
	lastUpdate = prometheus.NewDesc(
		prometheus.BuildFQName("sunguard", "", "last_update_timestamp_seconds"),
		"Time of the last evaluation",
		nil,
		nil,
	)
)

type Publisher interface {
	Subscribe() <-chan controller.Report
	Unsubscribe(<-chan controller.Report)
}

// Collector exports the outcome of the most recent evaluation cycle as Prometheus metrics.
type Collector struct {
	Publisher  Publisher
	Logger     *slog.Logger
	lock       sync.RWMutex
	lastReport *controller.Report
}

func (c *Collector) Run(ctx context.Context) error {
	c.Logger.Debug("started")
	defer c.Logger.Debug("stopped")

	ch := c.Publisher.Subscribe()
	defer c.Publisher.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return nil
		case report := <-ch:
			c.process(report)
		}
	}
}

func (c *Collector) process(report controller.Report) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.lastReport = &report
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- sensorOpen
	ch <- sensorInWindow
	ch <- weatherSunPower
	ch <- weatherTemperature
	ch <- weatherWindForce
	ch <- weatherImage
	ch <- lastUpdate
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	if c.lastReport != nil {
		c.collectSensors(ch)
		c.collectWeather(ch)
		ch <- prometheus.MustNewConstMetric(lastUpdate, prometheus.GaugeValue, float64(c.lastReport.Time.Unix()))
	}
}

func (c *Collector) collectSensors(ch chan<- prometheus.Metric) {
	for _, result := range c.lastReport.Sensors {
		ch <- prometheus.MustNewConstMetric(sensorOpen, prometheus.GaugeValue, boolToFloat(result.Open), result.Sensor)
		ch <- prometheus.MustNewConstMetric(sensorInWindow, prometheus.GaugeValue, boolToFloat(result.InWindow), result.Sensor)
	}
}

func (c *Collector) collectWeather(ch chan<- prometheus.Metric) {
	live := c.lastReport.Weather.Live
	ch <- prometheus.MustNewConstMetric(weatherSunPower, prometheus.GaugeValue, float64(live.SunPower))
	ch <- prometheus.MustNewConstMetric(weatherTemperature, prometheus.GaugeValue, float64(live.Temperature))
	ch <- prometheus.MustNewConstMetric(weatherWindForce, prometheus.GaugeValue, float64(live.WindForce))
	ch <- prometheus.MustNewConstMetric(weatherImage, prometheus.GaugeValue, 1, live.Image)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
