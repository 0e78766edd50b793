package packer

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	mscfb "github.com/asalih/go-cfb"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string][]byte, dirs ...string) string {
	t.Helper()

	root := t.TempDir()
	for name, data := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, data, 0o600))
	}
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, filepath.FromSlash(d)), 0o755))
	}

	return root
}

func openPacked(t *testing.T, path string) *mscfb.CompoundFile {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, mscfb.IsCompoundFile(data))

	cf, err := mscfb.Open(bytes.NewReader(data), mscfb.ValidationStrict)
	require.NoError(t, err)

	return cf
}

func TestPack(t *testing.T) {
	word := bytes.Repeat([]byte{0xA5}, 6000)
	dir := writeTree(t, map[string][]byte{
		"WordDocument":      word,
		"1Table":            []byte("table"),
		"Macros/VBA/dir":    []byte("vba"),
		"scratch/notes.tmp": []byte("tmp"),
		"build.tmp":         []byte("tmp"),
	}, "ObjectPool")

	out := filepath.Join(t.TempDir(), "out.doc")
	stats, err := Pack(dir, out, Options{
		CLSID:   mscfb.WORD_DOCUMENT_CLSID,
		Exclude: []string{"*.tmp"},
	}, nil)
	require.NoError(t, err)
	require.Equal(t, 3, stats.Streams)
	require.Equal(t, 2, stats.Skipped)

	cf := openPacked(t, out)

	got, err := cf.ReadStream([]string{"WordDocument"})
	require.NoError(t, err)
	require.Equal(t, word, got)

	got, err = cf.ReadStream([]string{"Macros", "VBA", "dir"})
	require.NoError(t, err)
	require.Equal(t, []byte("vba"), got)

	require.True(t, cf.DirectoryExists([]string{"ObjectPool"}))
	require.True(t, cf.DirectoryExists([]string{"scratch"}))
	require.False(t, cf.Exists([]string{"build.tmp"}))
	require.False(t, cf.Exists([]string{"scratch", "notes.tmp"}))
	require.Equal(t, mscfb.UUIDFromCLSID(mscfb.WORD_DOCUMENT_CLSID), cf.RootEntry().CLSID)

	// the first large stream added starts at sector 0
	entry, err := cf.Entry([]string{"WordDocument"})
	require.NoError(t, err)
	require.EqualValues(t, 0, entry.StartSector)
}

func TestPackInclude(t *testing.T) {
	dir := writeTree(t, map[string][]byte{
		"a.txt":     []byte("a"),
		"b.bin":     []byte("b"),
		"sub/c.txt": []byte("c"),
	})

	out := filepath.Join(t.TempDir(), "out.cfb")
	_, err := Pack(dir, out, Options{SectorLen: 4096, Include: []string{"*.txt"}}, nil)
	require.NoError(t, err)

	cf := openPacked(t, out)
	require.Equal(t, mscfb.V4, cf.Version())
	require.ElementsMatch(t, [][]string{{"a.txt"}, {"sub", "c.txt"}}, cf.ListStreams())
}

func TestPackBadSectorLen(t *testing.T) {
	dir := writeTree(t, map[string][]byte{"a": []byte("a")})

	_, err := Pack(dir, filepath.Join(t.TempDir(), "x"), Options{SectorLen: 1024}, nil)
	require.ErrorIs(t, err, mscfb.ErrorInvalidData)
}

func TestResolveCLSID(t *testing.T) {
	c, err := ResolveCLSID("Word")
	require.NoError(t, err)
	require.Equal(t, mscfb.WORD_DOCUMENT_CLSID, c)

	c, err = ResolveCLSID("powerpoint")
	require.NoError(t, err)
	require.Equal(t, mscfb.POWERPOINT_CLSID, c)

	c, err = ResolveCLSID("")
	require.NoError(t, err)
	require.Equal(t, [16]byte{}, c)

	c, err = ResolveCLSID("{00020906-0000-0000-C000-000000000046}")
	require.NoError(t, err)
	require.Equal(t, mscfb.WORD_DOCUMENT_CLSID, c)

	_, err = ResolveCLSID("not-a-guid")
	require.ErrorIs(t, err, mscfb.ErrorInvalidData)
}
