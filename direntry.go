package mscfb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

type DirEntry struct {
	Name           string
	ObjType        ObjectType
	Color          Color
	LeftSibling    uint32
	RightSibling   uint32
	Child          uint32
	CLSID          [16]byte
	StateBits      uint32
	CreationTime   uint64
	ModifiedTime   uint64
	StartingSector uint32
	StreamSize     uint64
}

// rawDirEntry is the 128-byte on-disk layout of a directory entry.
type rawDirEntry struct {
	Name           [nameFieldLen]byte
	NameLen        uint16
	ObjType        uint8
	Color          uint8
	LeftSibling    uint32
	RightSibling   uint32
	Child          uint32
	CLSID          [16]byte
	StateBits      uint32
	CreationTime   uint64
	ModifiedTime   uint64
	StartingSector uint32
	StreamSize     uint64
}

func NewDirEntry(name string, objType ObjectType, timestamp uint64) *DirEntry {
	dir := DirEntry{
		Name:         name,
		ObjType:      objType,
		Color:        Black,
		LeftSibling:  NO_STREAM,
		RightSibling: NO_STREAM,
		Child:        NO_STREAM,
		CLSID:        [16]byte{},
		StateBits:    0,
		CreationTime: timestamp,
		ModifiedTime: timestamp,
		StreamSize:   0,
	}
	if objType == ObjStorage {
		dir.StartingSector = 0
	} else {
		dir.StartingSector = END_OF_CHAIN
	}

	return &dir
}

func ReadDirEntry(reader io.Reader, version Version, validation Validation) (*DirEntry, error) {
	var raw rawDirEntry
	if err := binary.Read(reader, binary.LittleEndian, &raw); err != nil {
		return nil, err
	}

	name, err := decodeName(raw.Name, raw.NameLen, validation)
	if err != nil {
		return nil, err
	}

	color, err := ColorFromByte(raw.Color)
	if err != nil && validation.IsStrict() {
		return nil, fmt.Errorf("directory entry %q: %w: %w", name, err, ErrorInvalidCFB)
	}

	if raw.ObjType > OBJ_TYPE_ROOT && validation.IsStrict() {
		return nil, fmt.Errorf("directory entry %q has invalid object type %v: %w", name, raw.ObjType, ErrorInvalidCFB)
	}

	return &DirEntry{
		Name:           name,
		ObjType:        ObjectFromByte(raw.ObjType),
		Color:          color,
		LeftSibling:    raw.LeftSibling,
		RightSibling:   raw.RightSibling,
		Child:          raw.Child,
		CLSID:          raw.CLSID,
		StateBits:      raw.StateBits,
		CreationTime:   raw.CreationTime,
		ModifiedTime:   raw.ModifiedTime,
		StartingSector: raw.StartingSector,
		StreamSize:     raw.StreamSize & version.SectorLenMask(),
	}, nil
}

// writeTo appends the 128-byte encoding of d to buf.
func (d *DirEntry) writeTo(buf *bytes.Buffer) error {
	raw := rawDirEntry{
		ObjType:        d.ObjType.AsByte(),
		Color:          d.Color.AsByte(),
		LeftSibling:    d.LeftSibling,
		RightSibling:   d.RightSibling,
		Child:          d.Child,
		CLSID:          d.CLSID,
		StateBits:      d.StateBits,
		CreationTime:   d.CreationTime,
		ModifiedTime:   d.ModifiedTime,
		StartingSector: d.StartingSector,
		StreamSize:     d.StreamSize,
	}

	if d.ObjType != ObjUnallocated {
		field, nameLen, err := encodeName(d.Name)
		if err != nil {
			return err
		}
		raw.Name = field
		raw.NameLen = nameLen
	}

	return binary.Write(buf, binary.LittleEndian, &raw)
}
