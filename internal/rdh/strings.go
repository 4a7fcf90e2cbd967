package rdh

import (
	"encoding/base64"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Directory display names travel base64-wrapped in the device's native
// Windows-1252 code page.

// EncodeDirectoryString converts a UTF-8 string into the wire form of a
// directory string property. Runes outside Windows-1252 are rejected.
func EncodeDirectoryString(s string) (string, error) {
	raw, err := charmap.Windows1252.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeDirectoryString converts a directory string property back into
// UTF-8. Values that do not parse as base64 pass through unchanged;
// entries created at the panel store their names bare.
func DecodeDirectoryString(s string) string {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return s
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return s
	}
	return string(decoded)
}
