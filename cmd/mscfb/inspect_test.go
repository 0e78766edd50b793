package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	mscfb "github.com/asalih/go-cfb"
	"github.com/stretchr/testify/require"
)

func TestInspectReport(t *testing.T) {
	w, err := mscfb.NewWriter()
	require.NoError(t, err)
	w.SetRootCLSID(mscfb.WORD_DOCUMENT_CLSID)
	require.NoError(t, w.CreateStream([]string{"WordDocument"}, bytes.Repeat([]byte{1}, 5000)))
	require.NoError(t, w.CreateStream([]string{"ObjectPool", "Data"}, []byte("abc")))

	name := filepath.Join(t.TempDir(), "doc.cfb")
	require.NoError(t, w.Save(name))

	f, err := os.Open(name)
	require.NoError(t, err)
	defer f.Close()

	cf, err := mscfb.Open(f, mscfb.ValidationStrict)
	require.NoError(t, err)

	r, err := newReport(cf)
	require.NoError(t, err)
	require.Equal(t, 512, r.SectorSize)
	require.Equal(t, "Root Entry", r.RootName)
	require.Equal(t, "{00020906-0000-0000-C000-000000000046}", r.RootCLSID)
	require.Equal(t, 2, r.Streams)
	require.Equal(t, 1, r.Storages)
	require.Equal(t, uint64(64), r.MinistreamSize)
	require.Equal(t, uint32(1), r.FatSectors)
	require.Equal(t, uint32(0), r.DifatSectors)
	require.NotEmpty(t, r.rows())
}
