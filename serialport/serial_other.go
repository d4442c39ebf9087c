//go:build !linux

package serialport

import (
	"io"
	"time"

	"github.com/tarm/serial"
)

// flushPort is part of github.com/tarm/serial port that Port uses
type flushPort interface {
	io.ReadWriteCloser
	Flush() error
}

// Port is serial device opened with github.com/tarm/serial.
//
// Library does not expose number of bytes waiting in input queue so Available discards the queue on first call
// (flush) and always reports 0.
type Port struct {
	port        flushPort
	readTimeout time.Duration
	timeNow     func() time.Time
	flushed     bool
}

func openPort(config Config) (*Port, error) {
	p, err := serial.OpenPort(&serial.Config{
		Name:        config.Name,
		Baud:        config.Baud,
		ReadTimeout: config.ReadTimeout,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
	})
	if err != nil {
		return nil, err
	}
	return newPort(p, config.ReadTimeout), nil
}

func newPort(p flushPort, readTimeout time.Duration) *Port {
	return &Port{
		port:        p,
		readTimeout: readTimeout,
		timeNow:     time.Now,
	}
}

func (p *Port) Available() (int, error) {
	if p.flushed {
		return 0, nil
	}
	p.flushed = true
	return 0, p.port.Flush()
}

func (p *Port) Read(b []byte) (int, error) {
	start := p.timeNow()
	n, err := p.port.Read(b)
	return timeoutRead(n, err, p.timeNow().Sub(start), p.readTimeout)
}

func (p *Port) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

func (p *Port) Close() error {
	return p.port.Close()
}
