package mscfb

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFatAllocateChain(t *testing.T) {
	f := newFatBuilder(512)

	require.Equal(t, END_OF_CHAIN, f.allocateChain(0))
	require.EqualValues(t, 0, f.totalSectors())

	start := f.allocateChain(1000)
	require.EqualValues(t, 0, start)
	require.Equal(t, []uint32{1, END_OF_CHAIN}, f.fat)

	start = f.allocateChain(512)
	require.EqualValues(t, 2, start)
	require.Equal(t, END_OF_CHAIN, f.fat[2])

	start = f.allocateSpecial(2, FAT_SECTOR)
	require.EqualValues(t, 3, start)
	require.Equal(t, []uint32{1, END_OF_CHAIN, END_OF_CHAIN, FAT_SECTOR, FAT_SECTOR}, f.fat)
	require.EqualValues(t, 5, f.totalSectors())

	require.Equal(t, END_OF_CHAIN, f.allocateSpecial(0, DIFAT_SECTOR))
	require.NoError(t, f.validate())
}

func TestFatGenerateSectors(t *testing.T) {
	f := newFatBuilder(512)
	f.allocateChain(300 * 512)

	sectors := f.generateFatSectors()
	require.Len(t, sectors, 3)
	for _, s := range sectors {
		require.Len(t, s, 512)
	}

	require.EqualValues(t, 1, binary.LittleEndian.Uint32(sectors[0][0:]))
	require.Equal(t, END_OF_CHAIN, binary.LittleEndian.Uint32(sectors[2][(299-256)*4:]))
	require.Equal(t, FREE_SECTOR, binary.LittleEndian.Uint32(sectors[2][(300-256)*4:]))
	require.Equal(t, FREE_SECTOR, binary.LittleEndian.Uint32(sectors[2][508:]))
}

func TestValidateChains(t *testing.T) {
	t.Run("self loop", func(t *testing.T) {
		f := newFatBuilder(512)
		f.allocateChain(4 * 512)
		f.fat[3] = 3

		err := f.validate()
		require.Error(t, err)
		require.Contains(t, err.Error(), "circular reference detected at sector 3")
	})

	t.Run("longer cycle", func(t *testing.T) {
		err := validateChains([]uint32{1, 2, 0}, "sector")
		require.Error(t, err)
		require.Contains(t, err.Error(), "circular reference")
	})

	t.Run("out of range", func(t *testing.T) {
		err := validateChains([]uint32{1, 7}, "sector")
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid sector reference 7 at sector 1")
	})

	t.Run("reserved value", func(t *testing.T) {
		err := validateChains([]uint32{INVALID_SECTOR}, "sector")
		require.Error(t, err)
	})

	t.Run("shared tail", func(t *testing.T) {
		require.NoError(t, validateChains([]uint32{2, 2, END_OF_CHAIN, FREE_SECTOR, FAT_SECTOR}, "sector"))
	})
}

func TestMiniFatAllocate(t *testing.T) {
	m := newMiniFatBuilder()
	require.True(t, m.isEmpty())
	require.Equal(t, END_OF_CHAIN, m.allocateMiniChain(nil))

	start := m.allocateMiniChain(make([]byte, 100))
	require.EqualValues(t, 0, start)
	require.Equal(t, []uint32{1, END_OF_CHAIN}, m.minifat)
	require.EqualValues(t, 128, m.ministreamSize())

	start = m.allocateMiniChain([]byte("x"))
	require.EqualValues(t, 2, start)
	require.EqualValues(t, 3, m.miniSectorCount())
	require.EqualValues(t, 192, m.ministreamSize())
	require.Equal(t, byte('x'), m.ministreamData()[128])

	sectors := m.generateMinifatSectors(512)
	require.Len(t, sectors, 1)
	require.Equal(t, FREE_SECTOR, binary.LittleEndian.Uint32(sectors[0][12:]))
	require.NoError(t, m.validate())
}

func TestDifatSectorCount(t *testing.T) {
	require.EqualValues(t, 0, difatSectorsFor(109, 512))
	require.EqualValues(t, 1, difatSectorsFor(150, 512))
	require.EqualValues(t, 2, difatSectorsFor(250, 512))
	require.EqualValues(t, 1, difatSectorsFor(250, 4096))
}

func TestDifatGenerate(t *testing.T) {
	ids := make([]uint32, 250)
	for i := range ids {
		ids[i] = uint32(1000 + i)
	}

	d := newDifatBuilder(512)
	d.setFatSectors(ids)
	require.EqualValues(t, 2, d.calculateDifatSectorCount())

	sectors := d.generateDifatSectors(10)
	require.Len(t, sectors, 2)

	// first sector: 127 ids then a link to sector 11
	require.EqualValues(t, 1109, binary.LittleEndian.Uint32(sectors[0][0:]))
	require.EqualValues(t, 1235, binary.LittleEndian.Uint32(sectors[0][126*4:]))
	require.EqualValues(t, 11, binary.LittleEndian.Uint32(sectors[0][508:]))

	// second sector: the remaining 14 ids, FREE padding, END_OF_CHAIN
	require.EqualValues(t, 1236, binary.LittleEndian.Uint32(sectors[1][0:]))
	require.EqualValues(t, 1249, binary.LittleEndian.Uint32(sectors[1][13*4:]))
	require.Equal(t, FREE_SECTOR, binary.LittleEndian.Uint32(sectors[1][14*4:]))
	require.Equal(t, END_OF_CHAIN, binary.LittleEndian.Uint32(sectors[1][508:]))

	d.setFatSectors(ids[:109])
	require.Empty(t, d.generateDifatSectors(10))
}

func TestComputeFatSectors(t *testing.T) {
	numFat, numDifat, err := computeFatSectors(1, 512)
	require.NoError(t, err)
	require.EqualValues(t, 1, numFat)
	require.EqualValues(t, 0, numDifat)

	// 127 data sectors plus the FAT sector itself fill one FAT sector
	numFat, _, err = computeFatSectors(127, 512)
	require.NoError(t, err)
	require.EqualValues(t, 1, numFat)

	numFat, _, err = computeFatSectors(128, 512)
	require.NoError(t, err)
	require.EqualValues(t, 2, numFat)

	numFat, numDifat, err = computeFatSectors(128*109, 512)
	require.NoError(t, err)
	require.EqualValues(t, 110, numFat)
	require.EqualValues(t, 1, numDifat)
	require.GreaterOrEqual(t, numFat*128, 128*109+numFat+numDifat)
}
