package mscfb

import (
	"fmt"

	"github.com/google/uuid"
)

// CLSIDs stamped on the root entry so Office recognizes the document type.
var (
	WORD_DOCUMENT_CLSID = CLSIDFromUUID(uuid.MustParse("00020906-0000-0000-C000-000000000046"))
	POWERPOINT_CLSID    = CLSIDFromUUID(uuid.MustParse("64818D10-4F9B-11CF-86EA-00AA00B929E8"))
	EXCEL_CLSID         = CLSIDFromUUID(uuid.MustParse("00020820-0000-0000-C000-000000000046"))
)

// CLSIDFromUUID converts a GUID in its canonical text order into the on-disk
// CLSID layout, where the first three groups are little-endian.
func CLSIDFromUUID(u uuid.UUID) [16]byte {
	var c [16]byte

	c[0], c[1], c[2], c[3] = u[3], u[2], u[1], u[0]
	c[4], c[5] = u[5], u[4]
	c[6], c[7] = u[7], u[6]
	copy(c[8:], u[8:])

	return c
}

// UUIDFromCLSID is the inverse of CLSIDFromUUID.
func UUIDFromCLSID(c [16]byte) uuid.UUID {
	var u uuid.UUID

	u[0], u[1], u[2], u[3] = c[3], c[2], c[1], c[0]
	u[4], u[5] = c[5], c[4]
	u[6], u[7] = c[7], c[6]
	copy(u[8:], c[8:])

	return u
}

// ParseCLSID parses a GUID such as "{00020906-0000-0000-C000-000000000046}".
func ParseCLSID(s string) ([16]byte, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return [16]byte{}, fmt.Errorf("parse CLSID %q: %w: %w", s, ErrorInvalidData, err)
	}

	return CLSIDFromUUID(u), nil
}
