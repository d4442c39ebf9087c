package test_test

import (
	"bytes"
	"context"
	"errors"
	"io"
)

// FakePort is in-memory serial device. Input queue is served to reads, writes are collected to Written.
type FakePort struct {
	// Pending is sequence of results returned by Available calls. Each poll consumes one value, when sequence is
	// exhausted Available returns 0.
	Pending []int
	// Input is data returned by Read calls
	Input *bytes.Reader
	// Written holds everything written to port
	Written bytes.Buffer

	// ReadErr is returned by Read when Input is exhausted. Defaults to io.EOF
	ReadErr error
	// WriteErr is returned by Write
	WriteErr error
	// AvailableErr is returned by Available
	AvailableErr error

	// OnRead is called before each Read with number of reads done so far (including this one)
	OnRead func(readCount int)

	ReadCount      int
	AvailableCount int
	CloseCount     int
}

// NewFakePort creates FakePort which reads serve given input.
func NewFakePort(input []byte) *FakePort {
	return &FakePort{Input: bytes.NewReader(input)}
}

func (p *FakePort) Available() (int, error) {
	p.AvailableCount++
	if p.AvailableErr != nil {
		return 0, p.AvailableErr
	}
	if len(p.Pending) == 0 {
		return 0, nil
	}
	n := p.Pending[0]
	p.Pending = p.Pending[1:]
	return n, nil
}

func (p *FakePort) Read(b []byte) (int, error) {
	p.ReadCount++
	if p.OnRead != nil {
		p.OnRead(p.ReadCount)
	}
	if p.CloseCount > 0 {
		return 0, errors.New("read from closed port")
	}
	if p.Input == nil {
		return 0, io.EOF
	}
	n, err := p.Input.Read(b)
	if errors.Is(err, io.EOF) && p.ReadErr != nil {
		return n, p.ReadErr
	}
	return n, err
}

func (p *FakePort) Write(b []byte) (int, error) {
	if p.WriteErr != nil {
		return 0, p.WriteErr
	}
	return p.Written.Write(b)
}

func (p *FakePort) Close() error {
	p.CloseCount++
	return nil
}

// CancelAfterReads returns OnRead hook that cancels context when given read count is reached.
func CancelAfterReads(cancel context.CancelFunc, reads int) func(int) {
	return func(readCount int) {
		if readCount == reads {
			cancel()
		}
	}
}
