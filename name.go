package mscfb

import (
	"fmt"
	"unicode/utf16"

	"golang.org/x/text/encoding/unicode"
)

const nameFieldLen = 64

var nameEncoding = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// nameUnits returns the length of name in UTF-16 code units.
func nameUnits(name string) int {
	return len(utf16.Encode([]rune(name)))
}

// encodeName writes name as NUL-terminated UTF-16LE into a directory entry
// name field and returns the length field value (bytes, terminator included).
func encodeName(name string) ([nameFieldLen]byte, uint16, error) {
	var field [nameFieldLen]byte

	encoded, err := nameEncoding.NewEncoder().Bytes([]byte(name))
	if err != nil {
		return field, 0, fmt.Errorf("encode name %q: %w", name, err)
	}

	if len(encoded)/2 > MAX_NAME_LEN {
		return field, 0, fmt.Errorf("name %q is %v UTF-16 units long, max is %v: %w",
			name, len(encoded)/2, MAX_NAME_LEN, ErrorInvalidData)
	}

	copy(field[:], encoded)

	return field, uint16(len(encoded) + 2), nil
}

// decodeName reads a directory entry name field. nameLen counts bytes
// including the NUL terminator.
func decodeName(field [nameFieldLen]byte, nameLen uint16, validation Validation) (string, error) {
	if nameLen > nameFieldLen || nameLen%2 != 0 {
		if validation.IsStrict() {
			return "", fmt.Errorf("name length field is %v: %w", nameLen, ErrorInvalidCFB)
		}
		nameLen = nameFieldLen
	}

	if nameLen < 2 {
		return "", nil
	}

	raw := field[:nameLen-2]
	// Tolerate writers that count the terminator twice or pad with NULs.
	for len(raw) >= 2 && raw[len(raw)-1] == 0 && raw[len(raw)-2] == 0 {
		raw = raw[:len(raw)-2]
	}

	decoded, err := nameEncoding.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode name: %w", err)
	}

	return string(decoded), nil
}
