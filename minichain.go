package mscfb

import (
	"fmt"
	"io"
)

// MiniChain reads one MiniFAT chain as a contiguous byte stream.
type MiniChain struct {
	MiniAlloc *MiniAlloc
	SectorIds []uint32
	Offset    uint64
}

func NewMiniChain(miniAlloc *MiniAlloc, sectorId uint32) (*MiniChain, error) {
	sectorIds := make([]uint32, 0)
	seen := make(map[uint32]bool)
	currentSectorId := sectorId

	var err error
	for currentSectorId != END_OF_CHAIN {
		if seen[currentSectorId] {
			return nil, fmt.Errorf("mini chain contained duplicate sector id %v: %w", currentSectorId, ErrorInvalidCFB)
		}
		seen[currentSectorId] = true

		sectorIds = append(sectorIds, currentSectorId)
		currentSectorId, err = miniAlloc.Next(currentSectorId)
		if err != nil {
			return nil, err
		}
	}

	return &MiniChain{
		MiniAlloc: miniAlloc,
		SectorIds: sectorIds,
		Offset:    0,
	}, nil
}

func (c *MiniChain) Len() uint64 {
	return uint64(MINI_SECTOR_LEN * len(c.SectorIds))
}

// Read copies from at most one mini sector per call.
func (c *MiniChain) Read(p []byte) (n int, err error) {
	if c.Offset >= c.Len() {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	sectorLen := uint64(MINI_SECTOR_LEN)
	currentSectorId := c.SectorIds[c.Offset/sectorLen]
	offsetWithinSector := c.Offset % sectorLen

	remaining := sectorLen - offsetWithinSector
	if uint64(len(p)) > remaining {
		p = p[:remaining]
	}

	bytesRead, err := c.MiniAlloc.readAt(p, uint64(currentSectorId)*sectorLen+offsetWithinSector)
	if err == io.EOF {
		return 0, fmt.Errorf("mini sector %v is beyond the ministream: %w", currentSectorId, ErrorInvalidCFB)
	}
	if err != nil {
		return 0, err
	}

	c.Offset += uint64(bytesRead)

	return bytesRead, nil
}

func (c *MiniChain) Seek(offset int64, whence int) (int64, error) {
	newOffset, err := seekOffset(int64(c.Offset), int64(c.Len()), offset, whence)
	if err != nil {
		return 0, err
	}

	c.Offset = uint64(newOffset)
	return newOffset, nil
}
