package agps

import (
	"bytes"
	"strconv"
	"strings"
)

// CommandFull requests full set of aiding data (ephemeris, almanac, ionosphere, time and position)
const CommandFull = "full"

// Request is AGPS server request. Server expects request as single line of semicolon separated key=value pairs
//
// Example: `cmd=full;user=a@b.co;pwd=secret;lat=50.0;lon=14.3;pacc=10000`
type Request struct {
	// Command is request command. Empty value means CommandFull.
	Command  string
	User     string
	Password string

	// Lat is approximate latitude of receiver in decimal degrees
	Lat float64
	// Lon is approximate longitude of receiver in decimal degrees
	Lon float64
	// PAcc is accuracy of given position in meters
	PAcc int
}

// Encode serializes request to its wire form. Field order is fixed and no line terminator is appended.
func (r Request) Encode() []byte {
	cmd := r.Command
	if cmd == "" {
		cmd = CommandFull
	}
	buf := new(bytes.Buffer)
	buf.WriteString("cmd=")
	buf.WriteString(cmd)
	buf.WriteString(";user=")
	buf.WriteString(r.User)
	buf.WriteString(";pwd=")
	buf.WriteString(r.Password)
	buf.WriteString(";lat=")
	buf.WriteString(formatDecimal(r.Lat))
	buf.WriteString(";lon=")
	buf.WriteString(formatDecimal(r.Lon))
	buf.WriteString(";pacc=")
	buf.WriteString(strconv.Itoa(r.PAcc))
	return buf.Bytes()
}

// String returns encoded request with password masked so it is safe to log.
func (r Request) String() string {
	masked := r
	if masked.Password != "" {
		masked.Password = "***"
	}
	return string(masked.Encode())
}

// formatDecimal formats float in the shortest form that still always has fractional part (50 -> `50.0`)
func formatDecimal(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}
