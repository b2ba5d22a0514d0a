package eval

import (
	"fmt"
	"github.com/clambin/go-common/charmer"
	"github.com/clambin/sunguard/internal/app"
	"github.com/clambin/sunguard/internal/configuration"
	"github.com/clambin/sunguard/internal/controller"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"io"
	"log/slog"
	"os"
	"time"
)

var (
	Cmd = cobra.Command{
		Use:   "eval",
		Short: "evaluate all sensors against the current weather",
		RunE: func(cmd *cobra.Command, args []string) error {
			return evalSensors(cmd.OutOrStdout(), viper.GetViper(), time.Now)(cmd, args)
		},
	}

	args = charmer.Arguments{
		"open": {Default: false, Help: "evaluate as if all sensors are currently open"},
	}
)

func init() {
	_ = charmer.SetPersistentFlags(&Cmd, viper.GetViper(), args)
}

func evalSensors(w io.Writer, v *viper.Viper, now func() time.Time) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		platform, err := configuration.LoadPlatform(v)
		if err != nil {
			return err
		}
		sensors, err := loadSensors(app.SensorsPath(v))
		if err != nil {
			return err
		}
		snapshot, err := app.NewClient(platform, nil).Fetch(cmd.Context())
		if err != nil {
			return err
		}
		open := v.GetBool("open")
		report, err := controller.Evaluate(platform, sensors, snapshot, now(), func(string) bool { return open })
		if err != nil {
			return err
		}
		writeReport(w, report)
		return nil
	}
}

func loadSensors(path string) ([]configuration.Sensor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return configuration.LoadSensors(f, slog.New(slog.DiscardHandler))
}

const formatString = "%-20s %-6v %s\n"

func writeReport(w io.Writer, report controller.Report) {
	live := report.Weather.Live
	_, _ = fmt.Fprintf(w, "weather: image=%s gr=%v temp=%v windbft=%v sun=%s-%s forecast=%dh\n",
		live.Image, float64(live.SunPower), float64(live.Temperature), float64(live.WindForce),
		report.SunWindow.Start.Format("15:04"), report.SunWindow.End.Format("15:04"),
		len(report.Weather.Forecast),
	)
	if len(report.Sensors) > 0 {
		_, _ = fmt.Fprintf(w, formatString, "SENSOR", "OPEN", "REASON")
		for _, result := range report.Sensors {
			_, _ = fmt.Fprintf(w, formatString, result.Sensor, result.Open, result.Reason())
		}
	}
}
