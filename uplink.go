package agps

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// Drain discards bytes already waiting in device input queue. Queue is polled until it reports no pending bytes and
// on each poll exactly reported amount of bytes is read. Bytes arriving after last poll are not guarded against.
// Returns total number of discarded bytes.
func Drain(buf InputBuffer) (int, error) {
	total := 0
	var discard []byte
	for {
		n, err := buf.Available()
		if err != nil {
			return total, fmt.Errorf("%w: failed to query pending bytes: %w", ErrDevice, err)
		}
		if n <= 0 {
			return total, nil
		}
		if cap(discard) < n {
			discard = make([]byte, n)
		}
		read, err := io.ReadFull(buf, discard[:n])
		total += read
		if err != nil {
			return total, fmt.Errorf("%w: failed to discard pending bytes: %w", ErrDevice, err)
		}
	}
}

// Uplink writes AGPS payload to GPS receiver over serial device.
type Uplink struct {
	port   Port
	logger zerolog.Logger
}

// NewUplink creates new instance of Uplink for given serial device.
func NewUplink(port Port, logger zerolog.Logger) *Uplink {
	return &Uplink{
		port:   port,
		logger: logger,
	}
}

// Upload drains device input queue and writes payload to device with single write call.
func (u *Uplink) Upload(payload []byte) error {
	u.logger.Info().Msg("Waiting for free line")
	discarded, err := Drain(u.port)
	if err != nil {
		return err
	}
	u.logger.Debug().Int("discarded_bytes", discarded).Msg("Drained device input queue")

	u.logger.Info().Int("bytes", len(payload)).Msg("Writing AGPS data")
	n, err := u.port.Write(payload)
	if err != nil {
		return fmt.Errorf("%w: failed to write AGPS data: %w", ErrDevice, err)
	}
	if n < len(payload) {
		return fmt.Errorf("%w: %w", ErrDevice, io.ErrShortWrite)
	}
	u.logger.Info().Msg("Done")
	return nil
}
