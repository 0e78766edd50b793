package mscfb

import (
	"encoding/binary"
	"fmt"
	"io"

	lru "github.com/hashicorp/golang-lru/v2"
)

// SectorInit describes how a freshly allocated sector is filled before
// table or directory data is written into it.
type SectorInit int

const (
	SectorInitZero SectorInit = iota
	SectorInitFat
	SectorInitDifat
	SectorInitDir
)

// Initialize fills sector according to the init kind.
func (s SectorInit) Initialize(sector []byte) {
	switch s {
	case SectorInitZero:
		clear(sector)
	case SectorInitFat:
		for i := 0; i+4 <= len(sector); i += 4 {
			binary.LittleEndian.PutUint32(sector[i:], FREE_SECTOR)
		}
	case SectorInitDifat:
		SectorInitFat.Initialize(sector)
		if len(sector) >= 4 {
			binary.LittleEndian.PutUint32(sector[len(sector)-4:], END_OF_CHAIN)
		}
	case SectorInitDir:
		var one [DIR_ENTRY_LEN]byte
		encodeEmptyDirEntry(one[:])
		for i := 0; i+DIR_ENTRY_LEN <= len(sector); i += DIR_ENTRY_LEN {
			copy(sector[i:], one[:])
		}
	}
}

func encodeEmptyDirEntry(dst []byte) {
	clear(dst)
	// left, right and child sibling ids
	binary.LittleEndian.PutUint32(dst[68:], NO_STREAM)
	binary.LittleEndian.PutUint32(dst[72:], NO_STREAM)
	binary.LittleEndian.PutUint32(dst[76:], NO_STREAM)
}

// Sectors gives random access to the sectors of an open file. Decoded
// sectors are kept in an LRU cache since chains revisit table sectors.
type Sectors struct {
	Version    Version
	NumSectors uint32

	inner io.ReadSeeker
	cache *lru.Cache[uint32, []byte]
}

func NewSectors(v Version, bufferLength int64, reader io.ReadSeeker, cacheSize int) (*Sectors, error) {
	sectorLen := v.SectorLen()
	numSectors := ((bufferLength + int64(sectorLen) - 1) / int64(sectorLen)) - 1

	s := &Sectors{
		Version:    v,
		NumSectors: uint32(numSectors),
		inner:      reader,
	}

	if cacheSize > 0 {
		cache, err := lru.New[uint32, []byte](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create sector cache: %w", err)
		}
		s.cache = cache
	}

	return s, nil
}

func (s *Sectors) SectorLen() int {
	return s.Version.SectorLen()
}

func (s *Sectors) SeekToSector(sectorId uint32) (int64, error) {
	return s.SeekWithinSector(sectorId, 0)
}

func (s *Sectors) SeekWithinSector(sectorId uint32, offset int64) (int64, error) {
	if sectorId >= s.NumSectors {
		return 0, fmt.Errorf("tried to seek to sector %v, but sector count is only %v: %w",
			sectorId, s.NumSectors, ErrorInvalidCFB)
	}

	return s.inner.Seek(int64(sectorId+1)*int64(s.SectorLen())+offset, io.SeekStart)
}

// ReadSector returns the contents of one sector. The returned slice is shared
// with the cache and must not be modified. A sector truncated by the end of
// the file reads as zero-padded.
func (s *Sectors) ReadSector(sectorId uint32) ([]byte, error) {
	if s.cache != nil {
		if data, ok := s.cache.Get(sectorId); ok {
			return data, nil
		}
	}

	if _, err := s.SeekToSector(sectorId); err != nil {
		return nil, err
	}

	data := make([]byte, s.SectorLen())
	_, err := io.ReadFull(s.inner, data)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("read sector %v: %w", sectorId, err)
	}

	if s.cache != nil {
		s.cache.Add(sectorId, data)
	}

	return data, nil
}

// ReadSectorEntries decodes a sector as a table of little-endian uint32 values.
func (s *Sectors) ReadSectorEntries(sectorId uint32) ([]uint32, error) {
	data, err := s.ReadSector(sectorId)
	if err != nil {
		return nil, err
	}

	entries := make([]uint32, len(data)/4)
	for i := range entries {
		entries[i] = binary.LittleEndian.Uint32(data[i*4:])
	}

	return entries, nil
}
