package cli

import (
	"errors"
	"github.com/clambin/go-common/charmer"
	"github.com/clambin/sunguard/internal/app"
	"github.com/clambin/sunguard/internal/cmd/eval"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

var (
	configFilename string
	RootCmd        = cobra.Command{
		Use:   "sunguard",
		Short: "opens and closes virtual sun sensors, based on the weather reported by WeerLive",
		RunE:  run,
	}
)

var arguments = charmer.Arguments{
	"debug":              {Default: false, Help: "Log debug messages"},
	"weerlive.apikey":    {Default: "", Help: "WeerLive API key"},
	"weerlive.url":       {Default: "https://weerlive.nl/api/weerlive_api_v2.php", Help: "WeerLive API URL"},
	"weerlive.timeout":   {Default: 10 * time.Second, Help: "Timeout for WeerLive API calls"},
	"weerlive.insecure":  {Default: true, Help: "Don't verify the WeerLive TLS certificate"},
	"sunshineImages":     {Default: "", Help: "Comma-separated list of sunny weather images"},
	"cloudedImages":      {Default: "", Help: "Comma-separated list of clouded weather images"},
	"scheduler.schedule": {Default: "*/10 * * * *", Help: "Evaluation schedule (cron expression)"},
	"scheduler.interval": {Default: time.Minute, Help: "How often to check the schedule"},
	"exporter.addr":      {Default: ":9090", Help: "Address of Prometheus exporter"},
	"health.addr":        {Default: ":8080", Help: "Address of /health & /accessories endpoints"},
	"slack.token":        {Default: "", Help: "Slack token"},
	"sensors":            {Default: "", Help: "Sensors file (default: sensors.yaml next to the configuration file)"},
}

func init() {
	cobra.OnInitialize(initConfig)
	RootCmd.PersistentFlags().StringVar(&configFilename, "config", "", "Configuration file")
	if err := charmer.SetPersistentFlags(&RootCmd, viper.GetViper(), arguments); err != nil {
		panic("failed to set flags: " + err.Error())
	}
	RootCmd.AddCommand(&eval.Cmd)
}

func initConfig() {
	// .env is optional
	_ = godotenv.Load()

	if configFilename != "" {
		viper.SetConfigFile(configFilename)
	} else {
		viper.AddConfigPath("/etc/sunguard/")
		viper.AddConfigPath("$HOME/.sunguard")
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("SUNGUARD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFilename != "" || !errors.As(err, &notFound) {
			slog.Error("failed to read config file", "err", err)
			os.Exit(1)
		}
		slog.Warn("no config file found. using flags & environment only")
	}
}

func run(cmd *cobra.Command, _ []string) error {
	logger := NewLogger(os.Stderr, viper.GetBool("debug"))
	logger.Info("sunguard starting", "version", cmd.Root().Version)
	defer logger.Info("sunguard stopped")

	m, err := app.New(viper.GetViper(), cmd.Root().Version, prometheus.DefaultRegisterer, logger)
	if err != nil {
		return err
	}

	ctx, done := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer done()

	return m.Run(ctx)
}

// NewLogger returns a text logger. If debug is set, it logs debug messages too.
func NewLogger(w io.Writer, debug bool) *slog.Logger {
	var opts slog.HandlerOptions
	if debug {
		opts.Level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &opts))
}
