//go:build windows

package wire

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"

	"golang.org/x/text/encoding/unicode"
)

// WCharWidth is the size of wchar_t, UTF-16 code units on windows
const WCharWidth = 2

var wcharEncoding = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// checkWChar rejects unpaired surrogates, the decoder would replace them silently
func checkWChar(b []byte) error {
	for i := 0; i+WCharWidth <= len(b); i += WCharWidth {
		u := rune(binary.LittleEndian.Uint16(b[i:]))
		if !utf16.IsSurrogate(u) {
			continue
		}
		if u >= 0xDC00 || i+2*WCharWidth > len(b) {
			return fmt.Errorf("unpaired surrogate %#x at offset %d", u, i)
		}
		next := rune(binary.LittleEndian.Uint16(b[i+WCharWidth:]))
		if next < 0xDC00 || next > 0xDFFF {
			return fmt.Errorf("unpaired surrogate %#x at offset %d", u, i)
		}
		i += WCharWidth
	}
	return nil
}
