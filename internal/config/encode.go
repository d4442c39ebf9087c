package config

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	FormatTOML = "toml"
	FormatYAML = "yaml"
)

// Encode serializes configuration to given format. Durations are written in their string form (`30s`) and password
// is masked so output is safe to share and can be fed back with `--config`.
func Encode(c Config, format string) ([]byte, error) {
	doc := c.document()
	switch format {
	case FormatTOML, "":
		return toml.Marshal(doc)
	case FormatYAML, "yml":
		return yaml.Marshal(doc)
	default:
		return nil, fmt.Errorf("unknown config format: %v", format)
	}
}

func (c Config) document() map[string]any {
	pwd := c.Request.Password
	if pwd != "" {
		pwd = "***"
	}
	sentences := c.Relay.Sentences
	if sentences == nil {
		sentences = []string{}
	}
	return map[string]any{
		"server": map[string]any{
			"host":    c.Server.Host,
			"port":    c.Server.Port,
			"timeout": c.Server.Timeout.String(),
		},
		"request": map[string]any{
			"cmd":  c.Request.Command,
			"user": c.Request.User,
			"pwd":  pwd,
			"lat":  c.Request.Lat,
			"lon":  c.Request.Lon,
			"pacc": c.Request.PAcc,
		},
		"serial": map[string]any{
			"device":       c.Serial.Device,
			"baud":         c.Serial.Baud,
			"read_timeout": c.Serial.ReadTimeout.String(),
		},
		"relay": map[string]any{
			"sentences":    sentences,
			"debug_frames": c.Relay.DebugFrames,
		},
	}
}
