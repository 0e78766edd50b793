package mscfb

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func pattern(n int, seed byte) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = seed + byte(i*7)
	}
	return data
}

func newTestWriter(t *testing.T, opts ...WriterOption) *Writer {
	t.Helper()

	w, err := NewWriter(opts...)
	require.NoError(t, err)
	return w
}

// saveAndOpen writes w into memory and reopens the result strictly.
func saveAndOpen(t *testing.T, w *Writer) (*CompoundFile, []byte) {
	t.Helper()

	var out memFile
	require.NoError(t, w.WriteToSeeker(&out))

	data := out.Bytes()
	require.True(t, IsCompoundFile(data))
	require.Zero(t, len(data)%w.Version().SectorLen())

	cf, err := Open(bytes.NewReader(data), ValidationStrict)
	require.NoError(t, err)

	return cf, data
}

func TestWriterEmpty(t *testing.T) {
	cf, data := saveAndOpen(t, newTestWriter(t))

	// header, one directory sector, one FAT sector
	require.Len(t, data, MINIMAL_FILE_LEN)
	require.Empty(t, cf.ListStreams())
	require.Equal(t, ROOT_DIR_NAME, cf.RootName())
	require.EqualValues(t, 1, cf.Header.NumFatSectors)
	require.Equal(t, END_OF_CHAIN, cf.Header.FirstMinifatSector)
	require.Equal(t, END_OF_CHAIN, cf.Directory.RootDirEntry().StartingSector)
}

func TestWriterRoundTrip(t *testing.T) {
	streams := map[string][]byte{
		"WordDocument":           pattern(10000, 1),
		"1Table":                 pattern(1500, 2),
		"\x05SummaryInformation": pattern(200, 3),
		"Data":                   pattern(4096, 4),
		"Empty":                  {},
	}

	w := newTestWriter(t)
	for _, name := range []string{"WordDocument", "1Table", "\x05SummaryInformation", "Data", "Empty"} {
		require.NoError(t, w.CreateStream([]string{name}, streams[name]))
	}
	require.NoError(t, w.CreateStream([]string{"ObjectPool", "_1234", "\x01Ole"}, pattern(20, 5)))

	cf, data := saveAndOpen(t, w)

	for name, want := range streams {
		got, err := cf.ReadStream([]string{name})
		require.NoError(t, err, name)
		require.Equal(t, want, got, name)
	}

	got, err := cf.ReadStream([]string{"ObjectPool", "_1234", "\x01Ole"})
	require.NoError(t, err)
	require.Equal(t, pattern(20, 5), got)
	require.True(t, cf.DirectoryExists([]string{"ObjectPool", "_1234"}))

	// the first large stream starts right after the header
	entry, err := cf.Entry([]string{"WordDocument"})
	require.NoError(t, err)
	require.EqualValues(t, 0, entry.StartSector)
	require.Equal(t, pattern(10000, 1), data[512:512+10000])
}

func TestWriterCutoffBoundary(t *testing.T) {
	w := newTestWriter(t)
	require.NoError(t, w.CreateStream([]string{"Small"}, pattern(4095, 1)))
	require.NoError(t, w.CreateStream([]string{"Exact"}, pattern(4096, 2)))
	require.NoError(t, w.CreateStream([]string{"Large"}, pattern(4097, 3)))

	cf, _ := saveAndOpen(t, w)

	// 4095 bytes is 64 mini sectors
	require.EqualValues(t, 64*MINI_SECTOR_LEN, cf.Directory.RootDirEntry().StreamSize)
	require.Len(t, cf.MiniAlloc.Minifat, 64)

	exact, err := cf.Entry([]string{"Exact"})
	require.NoError(t, err)
	require.EqualValues(t, 0, exact.StartSector)

	large, err := cf.Entry([]string{"Large"})
	require.NoError(t, err)
	require.EqualValues(t, 8, large.StartSector)

	for name, seed := range map[string]byte{"Small": 1, "Exact": 2, "Large": 3} {
		got, err := cf.ReadStream([]string{name})
		require.NoError(t, err)
		require.Equal(t, pattern(len(got), seed), got)
	}
}

func TestWriterEndToEnd(t *testing.T) {
	w := newTestWriter(t)
	require.NoError(t, w.CreateStream([]string{"A"}, []byte("x")))
	require.NoError(t, w.CreateStream([]string{"B", "C"}, []byte("y")))

	path := filepath.Join(t.TempDir(), "out.cfb")
	require.NoError(t, w.Save(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	cf, err := Open(f, ValidationStrict)
	require.NoError(t, err)
	require.Equal(t, [][]string{{"A"}, {"B", "C"}}, cf.ListStreams())
	require.True(t, cf.DirectoryExists([]string{"B"}))
	require.False(t, cf.Exists([]string{"B"}))

	got, err := cf.ReadStream([]string{"B", "C"})
	require.NoError(t, err)
	require.Equal(t, []byte("y"), got)
}

func TestWriterUpdateStream(t *testing.T) {
	w := newTestWriter(t)
	require.NoError(t, w.CreateStream([]string{"S"}, []byte("first")))
	require.NoError(t, w.UpdateStream([]string{"s"}, []byte("second")))

	cf, _ := saveAndOpen(t, w)
	require.Len(t, cf.ListStreams(), 1)

	got, err := cf.ReadStream([]string{"S"})
	require.NoError(t, err)
	require.Equal(t, []byte("second"), got)
}

func TestWriterCopiesData(t *testing.T) {
	data := []byte("original")

	w := newTestWriter(t)
	require.NoError(t, w.CreateStream([]string{"S"}, data))
	copy(data, "mutated!")

	cf, _ := saveAndOpen(t, w)
	got, err := cf.ReadStream([]string{"S"})
	require.NoError(t, err)
	require.Equal(t, []byte("original"), got)
}

func TestWriterDelete(t *testing.T) {
	w := newTestWriter(t)
	require.NoError(t, w.CreateStream([]string{"Keep"}, []byte("k")))
	require.NoError(t, w.CreateStream([]string{"Drop"}, []byte("d")))
	require.NoError(t, w.CreateStream([]string{"Dir", "Sub", "S"}, []byte("s")))
	require.NoError(t, w.CreateStorage([]string{"Dir", "Empty"}))

	require.ErrorIs(t, w.DeleteStream([]string{"Missing"}), ErrorStreamNotFound)
	require.NoError(t, w.DeleteStream([]string{"drop"}))
	require.ErrorIs(t, w.DeleteStream([]string{"Drop"}), ErrorStreamNotFound)

	require.ErrorIs(t, w.DeleteStorage([]string{"Nowhere"}), ErrorInvalidFormat)
	require.ErrorIs(t, w.DeleteStorage(nil), ErrorInvalidFormat)
	require.NoError(t, w.DeleteStorage([]string{"Dir"}))

	cf, _ := saveAndOpen(t, w)
	require.Equal(t, [][]string{{"Keep"}}, cf.ListStreams())
	require.False(t, cf.DirectoryExists([]string{"Dir"}))
}

func TestWriterStorages(t *testing.T) {
	w := newTestWriter(t)
	require.NoError(t, w.CreateStorage([]string{"ObjectPool"}))
	require.NoError(t, w.CreateStorage([]string{"ObjectPool"}))
	require.NoError(t, w.CreateStorage([]string{"Macros", "VBA"}))

	cf, _ := saveAndOpen(t, w)
	require.True(t, cf.DirectoryExists([]string{"ObjectPool"}))
	require.True(t, cf.DirectoryExists([]string{"Macros"}))
	require.True(t, cf.DirectoryExists([]string{"macros", "vba"}))
	require.Empty(t, cf.ListStreams())

	entries, err := cf.ListEntries(nil)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestWriterInvalidInput(t *testing.T) {
	_, err := NewWriter(WithSectorLen(1024))
	require.ErrorIs(t, err, ErrorInvalidData)

	w := newTestWriter(t)
	require.ErrorIs(t, w.CreateStream(nil, []byte("x")), ErrorInvalidData)
	require.ErrorIs(t, w.CreateStream([]string{""}, []byte("x")), ErrorInvalidData)
	require.ErrorIs(t, w.CreateStream([]string{strings.Repeat("a", 32)}, nil), ErrorInvalidData)
	require.ErrorIs(t, w.CreateStorage([]string{"a/b"}), ErrorInvalidData)

	require.NoError(t, w.CreateStream([]string{"A"}, []byte("x")))
	require.ErrorIs(t, w.CreateStream([]string{"A", "B"}, nil), ErrorInvalidData)
	require.ErrorIs(t, w.CreateStorage([]string{"a"}), ErrorInvalidData)
	require.ErrorIs(t, w.CreateStorage([]string{"A", "B"}), ErrorInvalidData)

	require.NoError(t, w.CreateStorage([]string{"S"}))
	require.ErrorIs(t, w.CreateStream([]string{"S"}, nil), ErrorInvalidData)
	require.NoError(t, w.CreateStream([]string{"S", "T"}, nil))
}

func TestWriterVersion4(t *testing.T) {
	w := newTestWriter(t, WithSectorLen(4096))
	require.Equal(t, V4, w.Version())
	require.NoError(t, w.CreateStream([]string{"Big"}, pattern(10000, 9)))
	require.NoError(t, w.CreateStream([]string{"Small"}, pattern(100, 8)))

	cf, data := saveAndOpen(t, w)
	require.Equal(t, V4, cf.Version())
	require.EqualValues(t, 4, binary.LittleEndian.Uint16(data[26:]))
	require.EqualValues(t, 12, binary.LittleEndian.Uint16(data[30:]))

	// header sector is padded to the full sector size
	require.Equal(t, make([]byte, 4096-HEADER_LEN), data[HEADER_LEN:4096])
	require.Equal(t, pattern(10000, 9), data[4096:4096+10000])

	got, err := cf.ReadStream([]string{"Small"})
	require.NoError(t, err)
	require.Equal(t, pattern(100, 8), got)
}

func TestWriterDifat(t *testing.T) {
	// enough sectors to need more FAT sectors than the header can list
	size := 128 * 110 * 512

	w := newTestWriter(t)
	require.NoError(t, w.CreateStream([]string{"Huge"}, pattern(size, 11)))

	cf, _ := saveAndOpen(t, w)
	require.Greater(t, cf.Header.NumFatSectors, uint32(NUM_DIFAT_ENTRIES_IN_HEADER))
	require.EqualValues(t, 1, cf.Header.NumDifatSectors)
	require.NotEqual(t, END_OF_CHAIN, cf.Header.FirstDifatSector)

	stream, err := cf.OpenStream("/Huge")
	require.NoError(t, err)
	require.EqualValues(t, size, stream.Len())

	_, err = stream.Seek(int64(size-1000), io.SeekStart)
	require.NoError(t, err)

	tail := make([]byte, 2000)
	n, _ := stream.Read(tail)
	require.Positive(t, n)
	require.Equal(t, pattern(size, 11)[size-1000:size-1000+n], tail[:n])
}

func TestWriterRootCLSIDAndTimes(t *testing.T) {
	ts := time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC)

	w := newTestWriter(t, WithStorageTime(ts))
	w.SetRootCLSID(POWERPOINT_CLSID)
	require.NoError(t, w.CreateStorage([]string{"Store"}))
	require.NoError(t, w.CreateStream([]string{"Stream"}, []byte("s")))

	cf, _ := saveAndOpen(t, w)
	require.Equal(t, UUIDFromCLSID(POWERPOINT_CLSID), cf.RootEntry().CLSID)
	require.True(t, cf.RootEntry().IsRoot())

	storage, err := cf.Entry([]string{"Store"})
	require.NoError(t, err)
	require.Equal(t, ts, storage.ModifiedTime)
	require.Equal(t, ts, storage.CreationTime)

	stream, err := cf.Entry([]string{"Stream"})
	require.NoError(t, err)
	require.True(t, stream.ModifiedTime.IsZero())
}

func TestWriterIndependentSaves(t *testing.T) {
	w := newTestWriter(t)
	require.NoError(t, w.CreateStream([]string{"A"}, []byte("a")))

	var first, second memFile
	require.NoError(t, w.WriteToSeeker(&first))
	require.NoError(t, w.WriteToSeeker(&second))
	require.Equal(t, first.Bytes(), second.Bytes())

	require.NoError(t, w.CreateStream([]string{"B"}, []byte("b")))
	cf, _ := saveAndOpen(t, w)
	require.Len(t, cf.ListStreams(), 2)

	old, err := Open(bytes.NewReader(first.Bytes()), ValidationStrict)
	require.NoError(t, err)
	require.Len(t, old.ListStreams(), 1)
}

func TestWriterLogsLayout(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)

	w := newTestWriter(t, WithLogger(zap.New(core)))
	require.NoError(t, w.CreateStream([]string{"A"}, pattern(5000, 1)))

	var out memFile
	require.NoError(t, w.WriteToSeeker(&out))

	entries := logs.FilterMessage("compound file layout").All()
	require.Len(t, entries, 1)
	require.EqualValues(t, 1, entries[0].ContextMap()["large_streams"])
}
