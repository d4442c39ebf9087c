package agps

import "errors"

var (
	// ErrConnection is returned when connecting to AGPS server, sending the request or receiving the response fails.
	ErrConnection = errors.New("agps connection failure")
	// ErrProtocol is returned when AGPS server response does not contain header/payload delimiter.
	ErrProtocol = errors.New("agps protocol failure")
	// ErrDevice is returned when serial device can not be opened, read or written.
	ErrDevice = errors.New("serial device failure")
)
