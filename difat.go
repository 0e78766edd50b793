package mscfb

import "encoding/binary"

// difatBuilder lays out FAT sector ids that do not fit in the header.
type difatBuilder struct {
	fatSectorIds []uint32
	sectorLen    int
}

func newDifatBuilder(sectorLen int) *difatBuilder {
	return &difatBuilder{sectorLen: sectorLen}
}

// setFatSectors keeps only the ids past the header's 109 slots.
func (d *difatBuilder) setFatSectors(all []uint32) {
	if len(all) > NUM_DIFAT_ENTRIES_IN_HEADER {
		d.fatSectorIds = append([]uint32(nil), all[NUM_DIFAT_ENTRIES_IN_HEADER:]...)
	} else {
		d.fatSectorIds = nil
	}
}

func (d *difatBuilder) idsPerSector() int {
	return d.sectorLen/4 - 1
}

func (d *difatBuilder) calculateDifatSectorCount() uint32 {
	return uint32(divCeil(len(d.fatSectorIds), d.idsPerSector()))
}

// generateDifatSectors encodes the overflow ids into consecutive sectors
// starting at firstId. The last slot of each sector links to the next one.
func (d *difatBuilder) generateDifatSectors(firstId uint32) [][]byte {
	count := d.calculateDifatSectorCount()
	perSector := d.idsPerSector()

	sectors := make([][]byte, 0, count)
	for i := uint32(0); i < count; i++ {
		sector := make([]byte, d.sectorLen)
		SectorInitDifat.Initialize(sector)

		start := int(i) * perSector
		end := start + perSector
		if end > len(d.fatSectorIds) {
			end = len(d.fatSectorIds)
		}

		for j, id := range d.fatSectorIds[start:end] {
			binary.LittleEndian.PutUint32(sector[j*4:], id)
		}

		if i < count-1 {
			binary.LittleEndian.PutUint32(sector[d.sectorLen-4:], firstId+i+1)
		}

		sectors = append(sectors, sector)
	}

	return sectors
}

// difatSectorsFor returns how many DIFAT sectors numFat FAT sectors need.
func difatSectorsFor(numFat uint32, sectorLen int) uint32 {
	if numFat <= uint32(NUM_DIFAT_ENTRIES_IN_HEADER) {
		return 0
	}

	over := int(numFat) - NUM_DIFAT_ENTRIES_IN_HEADER
	return uint32(divCeil(over, sectorLen/4-1))
}
