package config

import (
	"errors"
	"fmt"
	"math"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/aldas/go-agps-client"
	"github.com/aldas/go-agps-client/serialport"
	"github.com/aldas/go-agps-client/ublox"
	"github.com/spf13/viper"
)

// EnvPrefix is prefix for environment variables overriding configuration. For example AGPS_REQUEST_USER
const EnvPrefix = "AGPS"

// Config is AGPS loader configuration. Defaults match u-blox AssistNow Online server and Raspberry Pi UART.
type Config struct {
	Server  ServerConfig  `mapstructure:"server" toml:"server" yaml:"server"`
	Request RequestConfig `mapstructure:"request" toml:"request" yaml:"request"`
	Serial  SerialConfig  `mapstructure:"serial" toml:"serial" yaml:"serial"`
	Relay   RelayConfig   `mapstructure:"relay" toml:"relay" yaml:"relay"`
}

type ServerConfig struct {
	Host string `mapstructure:"host" toml:"host" yaml:"host"`
	Port int    `mapstructure:"port" toml:"port" yaml:"port"`
	// Timeout limits AGPS exchange. Zero means read until server closes connection
	Timeout time.Duration `mapstructure:"timeout" toml:"timeout" yaml:"timeout"`
}

type RequestConfig struct {
	Command  string  `mapstructure:"cmd" toml:"cmd" yaml:"cmd"`
	User     string  `mapstructure:"user" toml:"user" yaml:"user"`
	Password string  `mapstructure:"pwd" toml:"pwd" yaml:"pwd"`
	Lat      float64 `mapstructure:"lat" toml:"lat" yaml:"lat"`
	Lon      float64 `mapstructure:"lon" toml:"lon" yaml:"lon"`
	PAcc     int     `mapstructure:"pacc" toml:"pacc" yaml:"pacc"`
}

type SerialConfig struct {
	Device      string        `mapstructure:"device" toml:"device" yaml:"device"`
	Baud        int           `mapstructure:"baud" toml:"baud" yaml:"baud"`
	ReadTimeout time.Duration `mapstructure:"read_timeout" toml:"read_timeout" yaml:"read_timeout"`
}

type RelayConfig struct {
	Sentences   []string `mapstructure:"sentences" toml:"sentences" yaml:"sentences"`
	DebugFrames bool     `mapstructure:"debug_frames" toml:"debug_frames" yaml:"debug_frames"`
}

// Default returns configuration with default values
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: ublox.DefaultHost,
			Port: ublox.DefaultPort,
		},
		Request: RequestConfig{
			Command: agps.CommandFull,
			Lat:     50.0,
			Lon:     14.3,
			PAcc:    10000,
		},
		Serial: SerialConfig{
			Device:      serialport.DefaultDevice,
			Baud:        serialport.DefaultBaud,
			ReadTimeout: serialport.DefaultReadTimeout,
		},
		Relay: RelayConfig{
			Sentences: []string{agps.PrefixGPGGA},
		},
	}
}

// SetDefaults registers default values and environment variable lookup to viper instance
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.timeout", d.Server.Timeout)
	v.SetDefault("request.cmd", d.Request.Command)
	v.SetDefault("request.user", d.Request.User)
	v.SetDefault("request.pwd", d.Request.Password)
	v.SetDefault("request.lat", d.Request.Lat)
	v.SetDefault("request.lon", d.Request.Lon)
	v.SetDefault("request.pacc", d.Request.PAcc)
	v.SetDefault("serial.device", d.Serial.Device)
	v.SetDefault("serial.baud", d.Serial.Baud)
	v.SetDefault("serial.read_timeout", d.Serial.ReadTimeout)
	v.SetDefault("relay.sentences", d.Relay.Sentences)
	v.SetDefault("relay.debug_frames", d.Relay.DebugFrames)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads configuration file (when path is given) and unmarshals and validates configuration from viper instance.
func Load(v *viper.Viper, path string) (Config, error) {
	if v == nil {
		v = viper.New()
		SetDefaults(v)
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that configuration values are usable
func (c Config) Validate() error {
	var errs []error
	if c.Server.Host == "" {
		errs = append(errs, errors.New("server.host is required"))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be in range 1-65535, got %v", c.Server.Port))
	}
	if c.Server.Timeout < 0 {
		errs = append(errs, errors.New("server.timeout must be >= 0"))
	}
	if math.IsNaN(c.Request.Lat) || c.Request.Lat < -90 || c.Request.Lat > 90 {
		errs = append(errs, fmt.Errorf("request.lat must be in range -90..90, got %v", c.Request.Lat))
	}
	if math.IsNaN(c.Request.Lon) || c.Request.Lon < -180 || c.Request.Lon > 180 {
		errs = append(errs, fmt.Errorf("request.lon must be in range -180..180, got %v", c.Request.Lon))
	}
	if c.Request.PAcc < 0 {
		errs = append(errs, errors.New("request.pacc must be >= 0"))
	}
	if strings.ContainsRune(c.Request.User, ';') || strings.ContainsRune(c.Request.Password, ';') {
		errs = append(errs, errors.New("request.user and request.pwd can not contain ';'"))
	}
	if c.Serial.Device == "" {
		errs = append(errs, errors.New("serial.device is required"))
	}
	if !serialport.IsSupportedBaud(c.Serial.Baud) {
		errs = append(errs, fmt.Errorf("serial.baud %v is not supported", c.Serial.Baud))
	}
	if c.Serial.ReadTimeout <= 0 {
		errs = append(errs, errors.New("serial.read_timeout must be > 0"))
	}
	for _, s := range c.Relay.Sentences {
		if !strings.HasPrefix(s, "$") {
			errs = append(errs, fmt.Errorf("relay.sentences entry %q must start with '$'", s))
		}
	}
	return errors.Join(errs...)
}

// ServerAddress returns AGPS server address in `host:port` form
func (c Config) ServerAddress() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// AGPSRequest creates AGPS server request from configuration
func (c Config) AGPSRequest() agps.Request {
	return agps.Request{
		Command:  c.Request.Command,
		User:     c.Request.User,
		Password: c.Request.Password,
		Lat:      c.Request.Lat,
		Lon:      c.Request.Lon,
		PAcc:     c.Request.PAcc,
	}
}

// ClientConfig creates AGPS server client configuration
func (c Config) ClientConfig() ublox.Config {
	return ublox.Config{
		Address: c.ServerAddress(),
		Timeout: c.Server.Timeout,
	}
}

// SerialPortConfig creates serial device configuration
func (c Config) SerialPortConfig() serialport.Config {
	return serialport.Config{
		Name:        c.Serial.Device,
		Baud:        c.Serial.Baud,
		ReadTimeout: c.Serial.ReadTimeout,
	}
}

// RelayConfig creates sentence relay configuration
func (c Config) RelayConfig() agps.RelayConfig {
	return agps.RelayConfig{
		Prefixes:       c.Relay.Sentences,
		DebugLogFrames: c.Relay.DebugFrames,
	}
}
