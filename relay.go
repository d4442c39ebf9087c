package agps

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/aldas/go-agps-client/internal/utils"
	"github.com/rs/zerolog"
)

const (
	// SentenceDelimiter is byte that starts every NMEA 0183 sentence
	SentenceDelimiter = '$'
	// PrefixGPGGA identifies GPS fix data sentence
	PrefixGPGGA = "$GPGGA"
)

// RelayConfig is configuration for SentenceRelay
type RelayConfig struct {
	// Prefixes lists sentence prefixes (including `$`) that are printed. Empty means PrefixGPGGA.
	Prefixes []string
	// Delimiter is frame delimiter byte. Zero value means SentenceDelimiter.
	Delimiter byte

	// DebugLogFrames instructs relay to log all completed frames, including the ones not printed
	DebugLogFrames bool
}

// SentenceRelay reads sentences from GPS receiver byte by byte and prints sentences matching configured prefixes.
type SentenceRelay struct {
	device io.ReadCloser
	output io.Writer
	logger zerolog.Logger

	prefixes  [][]byte
	delimiter byte
	debugLog  bool

	closeOnce sync.Once
	closeErr  error
}

// NewSentenceRelay creates new instance of SentenceRelay. Relay takes ownership of device and closes it when Run ends.
func NewSentenceRelay(device io.ReadCloser, output io.Writer, config RelayConfig, logger zerolog.Logger) *SentenceRelay {
	r := &SentenceRelay{
		device:    device,
		output:    output,
		logger:    logger,
		delimiter: config.Delimiter,
		debugLog:  config.DebugLogFrames,
	}
	if r.delimiter == 0 {
		r.delimiter = SentenceDelimiter
	}
	prefixes := config.Prefixes
	if len(prefixes) == 0 {
		prefixes = []string{PrefixGPGGA}
	}
	for _, p := range prefixes {
		r.prefixes = append(r.prefixes, []byte(p))
	}
	return r
}

// Run reads device until context is cancelled, device reaches EOF or read fails. Device is closed on every exit path.
//
// Frame is completed when next delimiter is read. Delimiter byte is appended to the emptied message buffer after the
// completed frame has been checked, so checked frame always starts with delimiter read on previous frame boundary.
// Frame that is still being accumulated when Run ends is dropped.
func (r *SentenceRelay) Run(ctx context.Context) (err error) {
	defer func() {
		if cErr := r.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	message := make([]byte, 0, 128)
	buf := make([]byte, 1)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := r.device.Read(buf)
		if n == 1 {
			if buf[0] == r.delimiter {
				r.handleFrame(message)
				message = message[:0]
			}
			message = append(message, buf[0])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return io.EOF
			}
			return fmt.Errorf("%w: relay read failure: %w", ErrDevice, err)
		}
	}
}

func (r *SentenceRelay) handleFrame(frame []byte) {
	if r.debugLog {
		r.logger.Debug().Str("frame", utils.FormatSpaces(frame)).Msg("Received frame")
	}
	if !r.matches(frame) {
		return
	}
	line := bytes.TrimSpace(frame)
	if _, err := fmt.Fprintf(r.output, "%s\n", line); err != nil {
		r.logger.Error().Err(err).Msg("Failed to print sentence")
	}
}

func (r *SentenceRelay) matches(frame []byte) bool {
	for _, p := range r.prefixes {
		if bytes.HasPrefix(frame, p) {
			return true
		}
	}
	return false
}

// Close closes relay device. Device is closed only once no matter how many times Close is called.
func (r *SentenceRelay) Close() error {
	r.closeOnce.Do(func() {
		r.closeErr = r.device.Close()
	})
	return r.closeErr
}
