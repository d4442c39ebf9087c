package utils

import (
	"strconv"
	"strings"
)

// FormatSpaces renders bytes read from serial line as single line string. Whitespace control characters are escaped
// (`\r`, `\n` etc.) and other non-printable bytes are written as `\xNN` so binary garbage on the line is visible in logs.
func FormatSpaces(s []byte) string {
	buf := strings.Builder{}
	for _, c := range s {
		switch c {
		case '\t':
			buf.WriteString(`\t`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\v':
			buf.WriteString(`\v`)
		case '\f':
			buf.WriteString(`\f`)
		default:
			if c < 0x20 || c > 0x7e {
				buf.WriteString(`\x`)
				if c < 0x10 {
					buf.WriteByte('0')
				}
				buf.WriteString(strconv.FormatUint(uint64(c), 16))
				continue
			}
			buf.WriteByte(c)
		}
	}
	return buf.String()
}
