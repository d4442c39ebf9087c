package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/aldas/go-agps-client"
	"github.com/aldas/go-agps-client/internal/logging"
	"github.com/aldas/go-agps-client/serialport"
	test_test "github.com/aldas/go-agps-client/test"
	"github.com/aldas/go-agps-client/ublox"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const agpsResponse = "u-blox a-gps server (c) 1997-2009 u-blox AG\r\nContent-Length: 4\r\n\r\n\xb5\x62\x0b\x31"

// fakeAGPSServer serves single AGPS response and reports received request
func fakeAGPSServer(t *testing.T, response string) (string, <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	requests := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 512)
		n, _ := conn.Read(buf)
		requests <- string(buf[:n])
		_, _ = conn.Write([]byte(response))
	}()
	return ln.Addr().String(), requests
}

type fakeFetcher struct {
	payload []byte
	err     error
	request agps.Request
}

func (f *fakeFetcher) FetchPayload(_ context.Context, req agps.Request) ([]byte, error) {
	f.request = req
	return f.payload, f.err
}

func testDeps(port *test_test.FakePort, openedWith *serialport.Config) deps {
	d := defaultDeps()
	d.openPort = func(cfg serialport.Config) (agps.Port, error) {
		if openedWith != nil {
			*openedWith = cfg
		}
		return port, nil
	}
	d.newLogger = func(w io.Writer) zerolog.Logger {
		return logging.NewWithConfig(w, logging.Config{Level: zerolog.InfoLevel, NoColor: true})
	}
	return d
}

func executeCLI(t *testing.T, d deps, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(d)
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRun_endToEnd(t *testing.T) {
	addr, requests := fakeAGPSServer(t, agpsResponse)
	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)

	device := test_test.NewFakePort([]byte("$GPGGA,1,2,3$GPRMC,x$GPGGA,9,9,9$"))
	device.Pending = []int{0}
	var openedWith serialport.Config

	stdout, err := executeCLI(t, testDeps(device, &openedWith),
		"--host", host,
		"--port", port,
		"--user", "a@b.co",
		"--pwd", "secret",
		"--device", "/dev/ttyUSB0",
	)

	require.NoError(t, err)
	assert.Equal(t, "cmd=full;user=a@b.co;pwd=secret;lat=50.0;lon=14.3;pacc=10000", <-requests)
	assert.Equal(t, []byte{0xb5, 0x62, 0x0b, 0x31}, device.Written.Bytes())
	assert.Equal(t, "/dev/ttyUSB0", openedWith.Name)
	assert.Equal(t, 9600, openedWith.Baud)
	assert.Equal(t, 1, device.CloseCount)

	expect := "INF Connecting to u-blox address=" + addr + "\n" +
		"INF Connection established\n" +
		"INF Sending the request\n" +
		"INF Waiting for free line\n" +
		"INF Writing AGPS data bytes=4\n" +
		"INF Done\n" +
		"$GPGGA,1,2,3\n" +
		"$GPGGA,9,9,9\n" +
		"INF Serial device reached end of data\n"
	assert.Equal(t, expect, stdout)
}

func TestRun_protocolError(t *testing.T) {
	addr, _ := fakeAGPSServer(t, "error: bad credentials\r\n")
	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	device := test_test.NewFakePort(nil)

	_, err = executeCLI(t, testDeps(device, nil), "run", "--host", host, "--port", port)

	assert.ErrorIs(t, err, agps.ErrProtocol)
	assert.Equal(t, 0, device.CloseCount)
	assert.Equal(t, 0, device.Written.Len())
}

func TestRun_invalidConfig(t *testing.T) {
	_, err := executeCLI(t, testDeps(test_test.NewFakePort(nil), nil), "--lat", "123")

	assert.EqualError(t, err, "request.lat must be in range -90..90, got 123")
}

func TestRunLoader_uploadFailureClosesPort(t *testing.T) {
	device := test_test.NewFakePort(nil)
	device.WriteErr = errors.New("input/output error")
	fetcher := &fakeFetcher{payload: []byte{0x01}}
	openPort := func(serialport.Config) (agps.Port, error) { return device, nil }

	err := runLoader(context.Background(), defaultConfig(t), fetcher, openPort, io.Discard, zerolog.Nop())

	assert.ErrorIs(t, err, agps.ErrDevice)
	assert.Equal(t, 1, device.CloseCount)
}

func TestRunLoader_openFailure(t *testing.T) {
	fetcher := &fakeFetcher{payload: []byte{0x01}}
	openPort := func(serialport.Config) (agps.Port, error) {
		return nil, agps.ErrDevice
	}

	err := runLoader(context.Background(), defaultConfig(t), fetcher, openPort, io.Discard, zerolog.Nop())

	assert.ErrorIs(t, err, agps.ErrDevice)
}

func TestRunLoader_interruptedRelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	device := test_test.NewFakePort([]byte("$GPGGA,1,2,3$GPGGA,4"))
	device.OnRead = test_test.CancelAfterReads(cancel, 14)
	fetcher := &fakeFetcher{payload: []byte{0xb5, 0x62}}
	openPort := func(serialport.Config) (agps.Port, error) { return device, nil }
	out := new(bytes.Buffer)

	err := runLoader(ctx, defaultConfig(t), fetcher, openPort, out, zerolog.Nop())

	assert.NoError(t, err)
	assert.Equal(t, "$GPGGA,1,2,3\n", out.String())
	assert.Equal(t, 14, device.ReadCount)
	assert.Equal(t, 1, device.CloseCount)
}

func TestRunLoader_interruptedFetch(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.Join(agps.ErrConnection, context.Canceled)}
	opened := false
	openPort := func(serialport.Config) (agps.Port, error) {
		opened = true
		return nil, nil
	}

	err := runLoader(context.Background(), defaultConfig(t), fetcher, openPort, io.Discard, zerolog.Nop())

	assert.NoError(t, err)
	assert.False(t, opened)
}

func TestRelayCmd(t *testing.T) {
	device := test_test.NewFakePort([]byte("$GNGGA,1$GPGGA,2$GPRMC,3$"))

	stdout, err := executeCLI(t, testDeps(device, nil), "relay", "--sentence", "$GNGGA", "--sentence", "$GPGGA")

	require.NoError(t, err)
	assert.Equal(t, "$GNGGA,1\n$GPGGA,2\nINF Serial device reached end of data\n", stdout)
	assert.Equal(t, 0, device.Written.Len())
	assert.Equal(t, 1, device.CloseCount)
}

func TestConfigCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agps.toml")
	require.NoError(t, os.WriteFile(path, []byte("[serial]\nbaud = 115200\n"), 0o600))

	stdout, err := executeCLI(t, testDeps(nil, nil), "config", "--config", path, "--format", "yaml", "--user", "a@b.co")

	require.NoError(t, err)
	assert.Contains(t, stdout, "baud: 115200")
	assert.Contains(t, stdout, "user: a@b.co")
	assert.Contains(t, stdout, "host: agps.u-blox.com")
}

func TestDefaultDeps(t *testing.T) {
	d := defaultDeps()

	fetcher := d.newFetcher(ublox.Config{}, zerolog.Nop())
	assert.IsType(t, &ublox.Client{}, fetcher)

	_, err := d.openPort(serialport.Config{Name: filepath.Join(t.TempDir(), "ttyNOPE0")})
	assert.ErrorIs(t, err, agps.ErrDevice)
}
