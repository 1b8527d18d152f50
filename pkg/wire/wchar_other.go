//go:build !windows

package wire

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode/utf32"
)

// WCharWidth is the size of wchar_t, UTF-32 code units on unix-like systems
const WCharWidth = 4

var wcharEncoding = utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM)

// checkWChar rejects surrogates and values above the unicode range, the decoder would replace them silently
func checkWChar(b []byte) error {
	for i := 0; i+WCharWidth <= len(b); i += WCharWidth {
		v := binary.LittleEndian.Uint32(b[i:])
		if v > utf8.MaxRune || !utf8.ValidRune(rune(v)) { //nolint:gosec // range checked
			return fmt.Errorf("invalid code point %#x at offset %d", v, i)
		}
	}
	return nil
}
