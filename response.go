package agps

import (
	"bytes"
	"fmt"
)

// headerDelimiter separates AGPS server response header from binary payload
var headerDelimiter = []byte("\r\n\r\n")

// SplitResponse splits AGPS server response at first `\r\n\r\n`. Header is returned without delimiter and payload is
// everything after delimiter. Delimiter sequences inside payload are not special.
func SplitResponse(response []byte) (header []byte, payload []byte, err error) {
	idx := bytes.Index(response, headerDelimiter)
	if idx == -1 {
		return nil, nil, fmt.Errorf("%w: header delimiter not found in %v byte response", ErrProtocol, len(response))
	}
	return response[:idx], response[idx+len(headerDelimiter):], nil
}

// ExtractPayload returns binary AGPS payload from server response.
func ExtractPayload(response []byte) ([]byte, error) {
	_, payload, err := SplitResponse(response)
	return payload, err
}
