package wire

import "fmt"

// DecodeWChar converts a wide-character buffer of the host platform into a string.
// The buffer must hold whole code units, WCharWidth bytes each, forming valid code points.
func DecodeWChar(b []byte) (string, error) {
	if len(b)%WCharWidth != 0 {
		return "", fmt.Errorf("wide char buffer of %d bytes is not a multiple of %d", len(b), WCharWidth)
	}
	if err := checkWChar(b); err != nil {
		return "", err
	}
	res, err := wcharEncoding.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("can't decode wide char buffer: %w", err)
	}
	return string(res), nil
}

// EncodeWChar converts a string into the wide-character encoding of the host platform, without terminator
func EncodeWChar(s string) ([]byte, error) {
	res, err := wcharEncoding.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("can't encode wide char string: %w", err)
	}
	return res, nil
}
