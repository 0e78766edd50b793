package mscfb

import (
	"fmt"
	"io"
)

// Chain reads the sectors of one FAT chain as a contiguous byte stream. Its
// length is always a whole number of sectors.
type Chain struct {
	Allocator       *Allocator
	SectorIds       []uint32
	OffsetFromStart uint64
}

func NewChain(allocator *Allocator, startingSectorId uint32) (*Chain, error) {
	sectorIds := make([]uint32, 0)
	seen := make(map[uint32]bool)
	currentSectorId := startingSectorId

	var err error
	for currentSectorId != END_OF_CHAIN {
		if seen[currentSectorId] {
			return nil, fmt.Errorf("chain contained duplicate sector id %v: %w", currentSectorId, ErrorInvalidCFB)
		}
		seen[currentSectorId] = true

		sectorIds = append(sectorIds, currentSectorId)
		currentSectorId, err = allocator.Next(currentSectorId)
		if err != nil {
			return nil, err
		}
	}

	return &Chain{
		Allocator:       allocator,
		SectorIds:       sectorIds,
		OffsetFromStart: 0,
	}, nil
}

func (c *Chain) NumSectors() uint32 {
	return uint32(len(c.SectorIds))
}

func (c *Chain) Len() uint64 {
	return uint64(c.Allocator.Sectors.SectorLen() * len(c.SectorIds))
}

// Read copies from at most one sector per call.
func (c *Chain) Read(p []byte) (int, error) {
	totalLen := c.Len()
	if c.OffsetFromStart >= totalLen {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	sectorLen := uint64(c.Allocator.Sectors.SectorLen())
	currentSectorId := c.SectorIds[c.OffsetFromStart/sectorLen]
	offsetWithinSector := c.OffsetFromStart % sectorLen

	sector, err := c.Allocator.Sectors.ReadSector(currentSectorId)
	if err != nil {
		return 0, err
	}

	n := copy(p, sector[offsetWithinSector:])
	c.OffsetFromStart += uint64(n)

	return n, nil
}

func (c *Chain) Seek(offset int64, whence int) (int64, error) {
	newOffset, err := seekOffset(int64(c.OffsetFromStart), int64(c.Len()), offset, whence)
	if err != nil {
		return 0, err
	}

	c.OffsetFromStart = uint64(newOffset)
	return newOffset, nil
}

// seekOffset resolves an io.Seeker request against a stream of length bytes.
func seekOffset(current, length, offset int64, whence int) (int64, error) {
	var newOffset int64
	switch whence {
	case io.SeekStart:
		newOffset = offset
	case io.SeekCurrent:
		newOffset = current + offset
	case io.SeekEnd:
		newOffset = length + offset
	default:
		return 0, fmt.Errorf("invalid whence %v", whence)
	}

	if newOffset < 0 || newOffset > length {
		return 0, fmt.Errorf("invalid offset %v", newOffset)
	}

	return newOffset, nil
}
