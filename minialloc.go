package mscfb

import (
	"fmt"
	"io"
)

// MiniAlloc resolves MiniFAT chains. Mini sectors live inside the
// ministream, the FAT chain owned by the root entry.
type MiniAlloc struct {
	Directory          *Directory
	Minifat            []uint32
	MinifatStartSector uint32

	ministream *Chain
}

func NewMiniAlloc(d *Directory, minifat []uint32, minifatStartSector uint32) (*MiniAlloc, error) {
	alloc := MiniAlloc{
		Directory:          d,
		Minifat:            minifat,
		MinifatStartSector: minifatStartSector,
	}

	err := alloc.Validate()
	if err != nil {
		return nil, err
	}

	if start := d.RootDirEntry().StartingSector; start != END_OF_CHAIN {
		alloc.ministream, err = d.Allocator.OpenChain(start)
		if err != nil {
			return nil, fmt.Errorf("open ministream: %w", err)
		}
	}

	return &alloc, nil
}

func (a *MiniAlloc) Validate() error {
	rootEntry := a.Directory.RootDirEntry()
	rootStreamMiniSectors := rootEntry.StreamSize / uint64(MINI_SECTOR_LEN)
	if rootStreamMiniSectors < uint64(len(a.Minifat)) {
		return fmt.Errorf("miniFAT has %v entries, but root stream has only %v mini sectors: %w",
			len(a.Minifat), rootStreamMiniSectors, ErrorInvalidCFB)
	}

	pointees := make(map[uint32]bool)
	for miniSectorIdx, miniSector := range a.Minifat {
		if miniSector <= MAX_REGULAR_SECTOR {
			if miniSector >= uint32(len(a.Minifat)) {
				return fmt.Errorf("miniFAT[%v] points to mini sector %v, but there are only %v mini sectors: %w",
					miniSectorIdx, miniSector, len(a.Minifat), ErrorInvalidCFB)
			}

			if pointees[miniSector] {
				return fmt.Errorf("mini sector %v pointed to twice: %w", miniSector, ErrorInvalidCFB)
			}

			pointees[miniSector] = true
		}
	}

	return nil
}

func (a *MiniAlloc) Next(index uint32) (uint32, error) {
	if index >= uint32(len(a.Minifat)) {
		return 0, fmt.Errorf("mini sector %v is beyond the MiniFAT (%v entries): %w", index, len(a.Minifat), ErrorInvalidCFB)
	}

	nextId := a.Minifat[index]
	if nextId != END_OF_CHAIN && (nextId > MAX_REGULAR_SECTOR || nextId >= uint32(len(a.Minifat))) {
		return 0, fmt.Errorf("mini sector %v links to invalid mini sector %v: %w", index, nextId, ErrorInvalidCFB)
	}

	return nextId, nil
}

func (a *MiniAlloc) OpenMiniChain(start uint32) (*MiniChain, error) {
	return NewMiniChain(a, start)
}

// readAt copies ministream bytes starting at offset into p, stopping at the
// end of the chain sector holding offset.
func (a *MiniAlloc) readAt(p []byte, offset uint64) (int, error) {
	if a.ministream == nil {
		return 0, fmt.Errorf("file has no ministream: %w", ErrorInvalidCFB)
	}

	if _, err := a.ministream.Seek(int64(offset), io.SeekStart); err != nil {
		return 0, fmt.Errorf("seek ministream: %w: %w", err, ErrorInvalidCFB)
	}

	return a.ministream.Read(p)
}
