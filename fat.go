package mscfb

import (
	"encoding/binary"
	"fmt"
)

// fatBuilder allocates sector chains for a file being written. Allocation
// is append-only: sector ids increase monotonically and are never reused.
type fatBuilder struct {
	fat        []uint32
	nextSector uint32
	sectorLen  int
}

func newFatBuilder(sectorLen int) *fatBuilder {
	return &fatBuilder{sectorLen: sectorLen}
}

// allocateChain reserves enough contiguous sectors to hold length bytes,
// links them and returns the first id. Zero length yields END_OF_CHAIN.
func (f *fatBuilder) allocateChain(length int) uint32 {
	if length == 0 {
		return END_OF_CHAIN
	}

	numSectors := uint32(divCeil(length, f.sectorLen))
	start := f.nextSector
	f.grow(start + numSectors)

	for i := uint32(0); i < numSectors; i++ {
		sector := start + i
		if i < numSectors-1 {
			f.fat[sector] = sector + 1
		} else {
			f.fat[sector] = END_OF_CHAIN
		}
	}

	f.nextSector = start + numSectors
	return start
}

// allocateSpecial reserves a contiguous run stamped with marker, used for
// the sectors holding the FAT and DIFAT themselves.
func (f *fatBuilder) allocateSpecial(count uint32, marker uint32) uint32 {
	if count == 0 {
		return END_OF_CHAIN
	}

	start := f.nextSector
	f.grow(start + count)

	for s := start; s < start+count; s++ {
		f.fat[s] = marker
	}

	f.nextSector = start + count
	return start
}

func (f *fatBuilder) grow(n uint32) {
	for uint32(len(f.fat)) < n {
		f.fat = append(f.fat, FREE_SECTOR)
	}
}

func (f *fatBuilder) totalSectors() uint32 {
	return f.nextSector
}

// generateFatSectors pages the table into sectors, padding the tail of the
// last one with FREE_SECTOR.
func (f *fatBuilder) generateFatSectors() [][]byte {
	return pageTable(f.fat, f.sectorLen)
}

func (f *fatBuilder) validate() error {
	return validateChains(f.fat, "sector")
}

func pageTable(table []uint32, sectorLen int) [][]byte {
	entriesPerSector := sectorLen / 4
	numSectors := divCeil(len(table), entriesPerSector)

	sectors := make([][]byte, 0, numSectors)
	for i := 0; i < numSectors; i++ {
		sector := make([]byte, sectorLen)
		SectorInitFat.Initialize(sector)

		start := i * entriesPerSector
		end := start + entriesPerSector
		if end > len(table) {
			end = len(table)
		}

		for j, value := range table[start:end] {
			binary.LittleEndian.PutUint32(sector[j*4:], value)
		}

		sectors = append(sectors, sector)
	}

	return sectors
}

const (
	chainUnvisited uint8 = iota
	chainInProgress
	chainTerminated
)

// validateChains walks every chain in table and fails on the first
// reference to a slot outside the table, an invalid sentinel, or a cycle.
func validateChains(table []uint32, unit string) error {
	state := make([]uint8, len(table))

	for start, value := range table {
		if state[start] != chainUnvisited {
			continue
		}
		if value > MAX_REGULAR_SECTOR && value != END_OF_CHAIN {
			if value == INVALID_SECTOR {
				return fmt.Errorf("%v %v holds reserved value 0x%08X", unit, start, value)
			}
			continue
		}

		path := []uint32{}
		current := uint32(start)
		for {
			state[current] = chainInProgress
			path = append(path, current)

			next := table[current]
			if next == END_OF_CHAIN || next == FREE_SECTOR || next == FAT_SECTOR || next == DIFAT_SECTOR {
				break
			}
			if next > MAX_REGULAR_SECTOR {
				return fmt.Errorf("%v %v holds reserved value 0x%08X", unit, current, next)
			}
			if next >= uint32(len(table)) {
				return fmt.Errorf("invalid %v reference %v at %v %v", unit, next, unit, current)
			}
			if state[next] == chainInProgress {
				return fmt.Errorf("circular reference detected at %v %v", unit, next)
			}
			if state[next] == chainTerminated {
				break
			}

			current = next
		}

		for _, s := range path {
			state[s] = chainTerminated
		}
	}

	return nil
}
