package agps

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	test_test "github.com/aldas/go-agps-client/test"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestSentenceRelay_Run(t *testing.T) {
	var testCases = []struct {
		name         string
		whenInput    string
		whenPrefixes []string
		expect       string
	}{
		{
			name:      "ok, prints only GPGGA frames",
			whenInput: "$GPGGA,1,2,3$GPRMC,x$GPGGA,9,9,9$",
			expect:    "$GPGGA,1,2,3\n$GPGGA,9,9,9\n",
		},
		{
			name:      "ok, surrounding whitespace is stripped",
			whenInput: "$GPGGA,1,2,3*47\r\n$GPRMC,x\r\n$",
			expect:    "$GPGGA,1,2,3*47\n",
		},
		{
			name:      "ok, unfinished frame is not printed",
			whenInput: "$GPRMC,x$GPGGA,1,2,3\r\n",
			expect:    "",
		},
		{
			name:      "ok, garbage before first delimiter is discarded",
			whenInput: "\xb5\x62GPGGA,0$GPGGA,1$",
			expect:    "$GPGGA,1\n",
		},
		{
			name:      "ok, frame must start with delimiter and prefix",
			whenInput: "$GNGGA,1$XGPGGA,2$$GPGGA$",
			expect:    "$GPGGA\n",
		},
		{
			name:         "ok, multiple prefixes",
			whenInput:    "$GNGGA,1$GPGGA,2$GPRMC,3$",
			whenPrefixes: []string{"$GNGGA", "$GPGGA"},
			expect:       "$GNGGA,1\n$GPGGA,2\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			port := test_test.NewFakePort([]byte(tc.whenInput))
			out := new(bytes.Buffer)

			relay := NewSentenceRelay(port, out, RelayConfig{Prefixes: tc.whenPrefixes}, zerolog.Nop())
			err := relay.Run(context.Background())

			assert.ErrorIs(t, err, io.EOF)
			assert.Equal(t, tc.expect, out.String())
			assert.Equal(t, 1, port.CloseCount)
		})
	}
}

func TestSentenceRelay_RunIsRepeatable(t *testing.T) {
	run := func() string {
		out := new(bytes.Buffer)
		relay := NewSentenceRelay(test_test.LoadFakePort(t, "nmea_capture.txt"), out, RelayConfig{}, zerolog.Nop())
		_ = relay.Run(context.Background())
		return out.String()
	}

	first := run()
	second := run()

	expect := "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47\n" +
		"$GPGGA,123520,4807.040,N,01131.002,E,1,08,0.9,545.6,M,46.9,M,,*4E\n"
	assert.Equal(t, expect, first)
	assert.Equal(t, first, second)
}

func TestSentenceRelay_RunInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	port := test_test.NewFakePort([]byte("$GPGGA,1,2,3$GPGGA,4,5,6$"))
	port.OnRead = test_test.CancelAfterReads(cancel, 3)
	out := new(bytes.Buffer)

	relay := NewSentenceRelay(port, out, RelayConfig{}, zerolog.Nop())
	err := relay.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, port.ReadCount)
	assert.Equal(t, 1, port.CloseCount)
	assert.Equal(t, "", out.String())

	assert.NoError(t, relay.Close())
	assert.Equal(t, 1, port.CloseCount)
}

func TestSentenceRelay_RunReadError(t *testing.T) {
	port := test_test.NewFakePort([]byte("$GPGGA,1$"))
	port.ReadErr = errors.New("device disconnected")
	out := new(bytes.Buffer)

	err := NewSentenceRelay(port, out, RelayConfig{}, zerolog.Nop()).Run(context.Background())

	assert.EqualError(t, err, "serial device failure: relay read failure: device disconnected")
	assert.Equal(t, "$GPGGA,1\n", out.String())
	assert.Equal(t, 1, port.CloseCount)
}

type idleReader struct {
	reads  int
	cancel context.CancelFunc
}

func (r *idleReader) Read(b []byte) (int, error) {
	r.reads++
	if r.reads == 5 {
		r.cancel()
	}
	return 0, nil
}

func (r *idleReader) Close() error {
	return nil
}

func TestSentenceRelay_RunZeroReadsAreNotErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reader := &idleReader{cancel: cancel}

	err := NewSentenceRelay(reader, io.Discard, RelayConfig{}, zerolog.Nop()).Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 5, reader.reads)
}
