package agps

import (
	"context"
	"io"
)

// InputBuffer is the part of serial device that Drain needs: a query for bytes waiting in device input queue and
// a way to read them.
type InputBuffer interface {
	// Available returns number of bytes currently waiting to be read from device input queue.
	Available() (int, error)
	io.Reader
}

// Port is open serial device shared (in sequence) by Uplink and SentenceRelay.
type Port interface {
	InputBuffer
	io.Writer
	io.Closer
}

// PayloadFetcher fetches AGPS data from remote server and returns binary payload without response header.
type PayloadFetcher interface {
	FetchPayload(ctx context.Context, req Request) ([]byte, error)
}
