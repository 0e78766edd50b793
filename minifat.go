package mscfb

// miniFatBuilder allocates 64-byte mini sector chains for streams below the
// mini stream cutoff and accumulates their contents into the ministream.
// The ministream itself is later stored as one ordinary FAT chain.
type miniFatBuilder struct {
	minifat        []uint32
	nextMiniSector uint32
	ministream     []byte
}

func newMiniFatBuilder() *miniFatBuilder {
	return &miniFatBuilder{}
}

// allocateMiniChain links ceil(len(data)/64) mini sectors, appends data
// zero-padded to a mini sector boundary and returns the first mini sector.
func (m *miniFatBuilder) allocateMiniChain(data []byte) uint32 {
	if len(data) == 0 {
		return END_OF_CHAIN
	}

	numMiniSectors := uint32(divCeil(len(data), MINI_SECTOR_LEN))
	start := m.nextMiniSector

	for i := uint32(0); i < numMiniSectors; i++ {
		if i < numMiniSectors-1 {
			m.minifat = append(m.minifat, start+i+1)
		} else {
			m.minifat = append(m.minifat, END_OF_CHAIN)
		}
	}
	m.nextMiniSector = start + numMiniSectors

	padded := int(numMiniSectors) * MINI_SECTOR_LEN
	m.ministream = append(m.ministream, data...)
	m.ministream = append(m.ministream, make([]byte, padded-len(data))...)

	return start
}

func (m *miniFatBuilder) ministreamData() []byte {
	return m.ministream
}

func (m *miniFatBuilder) ministreamSize() uint64 {
	return uint64(len(m.ministream))
}

func (m *miniFatBuilder) miniSectorCount() uint32 {
	return m.nextMiniSector
}

func (m *miniFatBuilder) isEmpty() bool {
	return len(m.minifat) == 0
}

func (m *miniFatBuilder) generateMinifatSectors(sectorLen int) [][]byte {
	return pageTable(m.minifat, sectorLen)
}

func (m *miniFatBuilder) validate() error {
	return validateChains(m.minifat, "mini sector")
}
