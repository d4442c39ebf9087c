package serialport

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aldas/go-agps-client"
)

const (
	// DefaultDevice is Raspberry Pi GPIO UART where GPS receiver is usually connected
	DefaultDevice = "/dev/ttyAMA0"
	// DefaultBaud is default baud rate for u-blox receivers
	DefaultBaud = 9600
	// DefaultReadTimeout is how long single Read call is allowed to block without data
	DefaultReadTimeout = 100 * time.Millisecond
)

// Config is configuration for serial device. Line is always 8N1.
type Config struct {
	// Name is path to serial device. For example: /dev/ttyAMA0
	Name string
	Baud int

	// ReadTimeout is duration that Read call is allowed to block when there is no data. Read that times out returns
	// 0 bytes and no error so callers can check context cancellation between reads. Zero or negative value means
	// DefaultReadTimeout. Read never blocks indefinitely.
	ReadTimeout time.Duration
}

// ErrHangup is returned by Read when serial line has been hung up (device unplugged, pty master closed).
var ErrHangup = errors.New("serial line hung up")

var errUnsupportedBaud = errors.New("unsupported baud rate")

// SupportedBaudRates lists baud rates Open accepts
var SupportedBaudRates = []int{4800, 9600, 19200, 38400, 57600, 115200}

// IsSupportedBaud checks if baud rate is supported by Open
func IsSupportedBaud(baud int) bool {
	for _, b := range SupportedBaudRates {
		if b == baud {
			return true
		}
	}
	return false
}

func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = DefaultDevice
	}
	if c.Baud == 0 {
		c.Baud = DefaultBaud
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	return c
}

// Open opens serial device
func Open(config Config) (*Port, error) {
	config = config.withDefaults()
	if !IsSupportedBaud(config.Baud) {
		return nil, fmt.Errorf("%w: %w: %v", agps.ErrDevice, errUnsupportedBaud, config.Baud)
	}
	p, err := openPort(config)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %v: %w", agps.ErrDevice, config.Name, err)
	}
	return p, nil
}

// timeoutRead interprets result of read from device configured with VMIN=0/VTIME. Such read reports timeout as zero
// bytes and io.EOF which is converted to (0, nil). Hung up line reports the same result but immediately, so zero byte
// read that returned well before timeout elapsed is ErrHangup.
func timeoutRead(n int, err error, elapsed time.Duration, timeout time.Duration) (int, error) {
	if n != 0 || !(err == nil || errors.Is(err, io.EOF)) {
		return n, err
	}
	if elapsed < timeout/2 {
		return 0, ErrHangup
	}
	return 0, nil
}
