package main

import (
	"io"

	"github.com/aldas/go-agps-client"
	"github.com/aldas/go-agps-client/internal/config"
	"github.com/aldas/go-agps-client/internal/logging"
	"github.com/aldas/go-agps-client/serialport"
	"github.com/aldas/go-agps-client/ublox"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// deps are constructors for external resources. Tests replace them with fakes.
type deps struct {
	newFetcher func(cfg ublox.Config, logger zerolog.Logger) agps.PayloadFetcher
	openPort   func(cfg serialport.Config) (agps.Port, error)
	newLogger  func(w io.Writer) zerolog.Logger
}

func defaultDeps() deps {
	return deps{
		newFetcher: func(cfg ublox.Config, logger zerolog.Logger) agps.PayloadFetcher {
			return ublox.NewClient(cfg, logger)
		},
		openPort: func(cfg serialport.Config) (agps.Port, error) {
			p, err := serialport.Open(cfg)
			if err != nil {
				return nil, err
			}
			return p, nil
		},
		newLogger: logging.New,
	}
}

// app holds state shared by all commands: viper instance with bound flags and path to config file
type app struct {
	deps       deps
	v          *viper.Viper
	configPath string
}

func newRootCmd(d deps) *cobra.Command {
	a := &app{deps: d, v: viper.New()}
	config.SetDefaults(a.v)

	rootCmd := &cobra.Command{
		Use:   "agpsloader",
		Short: "Loads u-blox AGPS data to GPS receiver and prints received fixes",
		Long: "agpsloader fetches AssistNow Online (AGPS) data from u-blox server, writes it to GPS receiver over " +
			"serial line and then prints GPGGA sentences received from the receiver until interrupted.",
		SilenceUsage: true,
		RunE:         a.runE,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to configuration file (toml, yaml or json)")
	flags.String("host", ublox.DefaultHost, "AGPS server host")
	flags.Int("port", ublox.DefaultPort, "AGPS server port")
	flags.Duration("timeout", 0, "AGPS exchange timeout (0 waits until server closes connection)")
	flags.String("user", "", "AGPS server user (email)")
	flags.String("pwd", "", "AGPS server password")
	flags.Float64("lat", 50.0, "approximate latitude of receiver")
	flags.Float64("lon", 14.3, "approximate longitude of receiver")
	flags.Int("pacc", 10000, "accuracy of approximate position in meters")
	flags.String("device", serialport.DefaultDevice, "path to GPS receiver serial device")
	flags.Int("baud", serialport.DefaultBaud, "serial device baud rate")
	flags.StringSlice("sentence", []string{agps.PrefixGPGGA}, "sentence prefix to print (repeatable)")
	flags.Bool("debug-frames", false, "log every frame received from device")

	for key, flag := range map[string]string{
		"server.host":        "host",
		"server.port":        "port",
		"server.timeout":     "timeout",
		"request.user":       "user",
		"request.pwd":        "pwd",
		"request.lat":        "lat",
		"request.lon":        "lon",
		"request.pacc":       "pacc",
		"serial.device":      "device",
		"serial.baud":        "baud",
		"relay.sentences":    "sentence",
		"relay.debug_frames": "debug-frames",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.AddCommand(
		newRunCmd(a),
		newRelayCmd(a),
		newConfigCmd(a),
	)
	return rootCmd
}

func (a *app) loadConfig() (config.Config, error) {
	return config.Load(a.v, a.configPath)
}

func (a *app) logger(cmd *cobra.Command, cfg config.Config) zerolog.Logger {
	logger := a.deps.newLogger(cmd.OutOrStdout())
	if cfg.Relay.DebugFrames {
		logger = logging.WithDebug(logger)
	}
	return logger
}
