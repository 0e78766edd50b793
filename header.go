package mscfb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

type Header struct {
	Version            Version
	NumDirSectors      uint32
	NumFatSectors      uint32
	FirstDirSector     uint32
	FirstMinifatSector uint32
	NumMinifatSectors  uint32
	FirstDifatSector   uint32
	NumDifatSectors    uint32

	// FAT sector ids. On read this holds the 109 header slots as stored;
	// on write it holds every FAT sector id and only the first 109 are
	// encoded, the rest go to DIFAT sectors.
	InitialDifatEntries []uint32
}

// rawHeader is the on-disk layout of the 512-byte header.
type rawHeader struct {
	Magic                [8]byte
	CLSID                [16]byte
	MinorVersion         uint16
	MajorVersion         uint16
	ByteOrder            uint16
	SectorShift          uint16
	MiniSectorShift      uint16
	Reserved             [6]byte
	NumDirSectors        uint32
	NumFatSectors        uint32
	FirstDirSector       uint32
	TransactionSignature uint32
	MiniStreamCutoff     uint32
	FirstMinifatSector   uint32
	NumMinifatSectors    uint32
	FirstDifatSector     uint32
	NumDifatSectors      uint32
	Difat                [NUM_DIFAT_ENTRIES_IN_HEADER]uint32
}

// NewHeader returns a header for an empty file of the given version.
func NewHeader(version Version) *Header {
	return &Header{
		Version:            version,
		FirstDirSector:     END_OF_CHAIN,
		FirstMinifatSector: END_OF_CHAIN,
		FirstDifatSector:   END_OF_CHAIN,
	}
}

func (h *Header) readFrom(reader io.Reader, validation Validation) error {
	var raw rawHeader
	if err := binary.Read(reader, binary.LittleEndian, &raw); err != nil {
		return fmt.Errorf("read header: %w", err)
	}

	if !bytes.Equal(raw.Magic[:], MAGIC_NUMBER) {
		return fmt.Errorf("missing magic number: %w", ErrorInvalidCFB)
	}

	if raw.ByteOrder != BYTE_ORDER_MARK {
		return fmt.Errorf("invalid CFB byte order mark (expected 0x%04X, found 0x%04X): %w",
			BYTE_ORDER_MARK, raw.ByteOrder, ErrorInvalidCFB)
	}

	version, err := VersionNumber(raw.MajorVersion)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrorInvalidCFB, err)
	}

	if raw.SectorShift != version.SectorShift() {
		return fmt.Errorf("incorrect sector shift for CFB version %v (expected %v, found %v): %w",
			version, version.SectorShift(), raw.SectorShift, ErrorInvalidCFB)
	}

	if raw.MiniSectorShift != MINI_SECTOR_SHIFT {
		return fmt.Errorf("incorrect mini sector shift (expected %v, found %v): %w",
			MINI_SECTOR_SHIFT, raw.MiniSectorShift, ErrorInvalidCFB)
	}

	if raw.MiniStreamCutoff != MINI_STREAM_CUTOFF {
		return fmt.Errorf("incorrect mini stream cutoff (expected %v, found %v): %w",
			MINI_STREAM_CUTOFF, raw.MiniStreamCutoff, ErrorInvalidCFB)
	}

	if validation.IsStrict() && version == V3 && raw.NumDirSectors != 0 {
		return fmt.Errorf("version 3 header has %v directory sectors, must be 0: %w",
			raw.NumDirSectors, ErrorInvalidCFB)
	}

	// Some CFB implementations use FREE_SECTOR to indicate END_OF_CHAIN.
	if raw.FirstDifatSector == FREE_SECTOR {
		raw.FirstDifatSector = END_OF_CHAIN
	}
	if raw.FirstMinifatSector == FREE_SECTOR {
		raw.FirstMinifatSector = END_OF_CHAIN
	}

	h.Version = version
	h.NumDirSectors = raw.NumDirSectors
	h.NumFatSectors = raw.NumFatSectors
	h.FirstDirSector = raw.FirstDirSector
	h.FirstMinifatSector = raw.FirstMinifatSector
	h.NumMinifatSectors = raw.NumMinifatSectors
	h.FirstDifatSector = raw.FirstDifatSector
	h.NumDifatSectors = raw.NumDifatSectors
	h.InitialDifatEntries = append([]uint32(nil), raw.Difat[:]...)

	return nil
}

// generate encodes the header into a buffer one sector long. For version 4
// files the header occupies the first 512 bytes and the rest is zero.
func (h *Header) generate() []byte {
	raw := rawHeader{
		MinorVersion:       MINOR_VERSION,
		MajorVersion:       uint16(h.Version),
		ByteOrder:          BYTE_ORDER_MARK,
		SectorShift:        h.Version.SectorShift(),
		MiniSectorShift:    MINI_SECTOR_SHIFT,
		NumDirSectors:      h.NumDirSectors,
		NumFatSectors:      h.NumFatSectors,
		FirstDirSector:     h.FirstDirSector,
		MiniStreamCutoff:   MINI_STREAM_CUTOFF,
		FirstMinifatSector: h.FirstMinifatSector,
		NumMinifatSectors:  h.NumMinifatSectors,
		FirstDifatSector:   h.FirstDifatSector,
		NumDifatSectors:    h.NumDifatSectors,
	}
	copy(raw.Magic[:], MAGIC_NUMBER)

	// Version 3 readers require the directory sector count to be zero.
	if h.Version == V3 {
		raw.NumDirSectors = 0
	}

	for i := range raw.Difat {
		if i < len(h.InitialDifatEntries) {
			raw.Difat[i] = h.InitialDifatEntries[i]
		} else {
			raw.Difat[i] = FREE_SECTOR
		}
	}

	buf := bytes.NewBuffer(make([]byte, 0, h.Version.SectorLen()))
	// Writing a fixed-size struct into a bytes.Buffer cannot fail.
	_ = binary.Write(buf, binary.LittleEndian, &raw)

	out := buf.Bytes()
	return append(out, make([]byte, h.Version.SectorLen()-len(out))...)
}
