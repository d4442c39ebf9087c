//go:build linux

package serialport

import (
	"errors"
	"io"
	"math"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// Port is serial device opened in raw mode. Reads wait for data with poll(2) so timeout and hangup are told apart
// by poll result instead of zero byte reads.
type Port struct {
	f  *os.File
	fd int

	pollTimeoutMs int
}

func openPort(config Config) (*Port, error) {
	fd, err := unix.Open(config.Name, unix.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return nil, err
	}

	ok := false
	defer func() {
		if !ok {
			_ = unix.Close(fd)
		}
	}()

	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return nil, err
	}
	spd := baudToUnix(config.Baud)

	// raw mode, no line processing. AGPS payload is binary
	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB | unix.CSTOPB
	t.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL

	// read is only issued after poll reports data so it never waits for more than what is already queued
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0

	t.Cflag &^= unix.CBAUD
	t.Cflag |= spd
	t.Ispeed = spd
	t.Ospeed = spd

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, t); err != nil {
		return nil, err
	}

	ok = true
	return &Port{
		f:             os.NewFile(uintptr(fd), config.Name),
		fd:            fd,
		pollTimeoutMs: pollTimeout(config.ReadTimeout),
	}, nil
}

// pollTimeout converts read timeout to poll(2) timeout in milliseconds. Timeout is at least 1ms.
func pollTimeout(timeout time.Duration) int {
	ms := timeout.Milliseconds()
	if ms < 1 {
		return 1
	}
	if ms > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(ms)
}

func baudToUnix(baud int) uint32 {
	switch baud {
	case 4800:
		return unix.B4800
	case 19200:
		return unix.B19200
	case 38400:
		return unix.B38400
	case 57600:
		return unix.B57600
	case 115200:
		return unix.B115200
	default:
		return unix.B9600
	}
}

// Available returns number of bytes waiting in device input queue
func (p *Port) Available() (int, error) {
	return unix.IoctlGetInt(p.fd, unix.TIOCINQ)
}

// Read waits up to read timeout for data. Timeout without data returns (0, nil). Hung up line returns ErrHangup
// (or error reported by tty, usually EIO).
func (p *Port) Read(b []byte) (int, error) {
	fds := []unix.PollFd{{Fd: int32(p.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, p.pollTimeoutMs)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return 0, nil
		}
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	revents := fds[0].Revents
	if revents&unix.POLLNVAL != 0 {
		return 0, os.ErrClosed
	}
	if revents&unix.POLLIN == 0 && revents&(unix.POLLHUP|unix.POLLERR) != 0 {
		return 0, ErrHangup
	}

	read, err := p.f.Read(b)
	if read == 0 && (err == nil || errors.Is(err, io.EOF)) {
		// poll reported line readable but there is nothing to read: end of data after hangup
		return 0, ErrHangup
	}
	return read, err
}

func (p *Port) Write(b []byte) (int, error) {
	return p.f.Write(b)
}

func (p *Port) Close() error {
	return p.f.Close()
}
