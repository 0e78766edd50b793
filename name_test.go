package mscfb

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNameCodec(t *testing.T) {
	for _, name := range []string{"Root Entry", "\x05SummaryInformation", "Ünïcødé", strings.Repeat("n", MAX_NAME_LEN)} {
		t.Run(name, func(t *testing.T) {
			field, nameLen, err := encodeName(name)
			require.NoError(t, err)
			require.EqualValues(t, (nameUnits(name)+1)*2, nameLen)

			got, err := decodeName(field, nameLen, ValidationStrict)
			require.NoError(t, err)
			require.Equal(t, name, got)
		})
	}

	_, _, err := encodeName(strings.Repeat("n", MAX_NAME_LEN+1))
	require.ErrorIs(t, err, ErrorInvalidData)
}

func TestDecodeNameBadLength(t *testing.T) {
	field, _, err := encodeName("abc")
	require.NoError(t, err)

	_, err = decodeName(field, 65, ValidationStrict)
	require.ErrorIs(t, err, ErrorInvalidCFB)

	got, err := decodeName(field, 65, ValidationPermissive)
	require.NoError(t, err)
	require.Equal(t, "abc", got)

	got, err = decodeName(field, 0, ValidationStrict)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestNameUnitsSurrogates(t *testing.T) {
	require.Equal(t, 2, nameUnits("😀"))
	require.Equal(t, 3, nameUnits("abc"))
}

func TestCLSID(t *testing.T) {
	u := uuid.MustParse("00020906-0000-0000-C000-000000000046")
	c := CLSIDFromUUID(u)

	require.Equal(t, [16]byte{
		0x06, 0x09, 0x02, 0x00, 0x00, 0x00, 0x00, 0x00,
		0xC0, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x46,
	}, c)
	require.Equal(t, WORD_DOCUMENT_CLSID, c)
	require.Equal(t, u, UUIDFromCLSID(c))

	parsed, err := ParseCLSID("{64818D10-4F9B-11CF-86EA-00AA00B929E8}")
	require.NoError(t, err)
	require.Equal(t, POWERPOINT_CLSID, parsed)

	_, err = ParseCLSID("nope")
	require.ErrorIs(t, err, ErrorInvalidData)
}

func TestFiletime(t *testing.T) {
	require.True(t, FiletimeToTime(0).IsZero())
	require.Zero(t, TimeToFiletime(time.Time{}))

	require.Equal(t, time.Unix(0, 0).UTC(), FiletimeToTime(filetimeUnixOffset))

	ts := time.Date(2024, 3, 9, 12, 30, 45, 123456700, time.UTC)
	require.Equal(t, ts, FiletimeToTime(TimeToFiletime(ts)))

	old := time.Date(1800, 1, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, old, FiletimeToTime(TimeToFiletime(old)))
}
