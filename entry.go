package mscfb

import (
	"time"

	"github.com/google/uuid"
)

// Entry describes one stream or storage of an open file.
type Entry struct {
	Name         string
	Path         string
	Names        []string
	ObjType      ObjectType
	CLSID        uuid.UUID
	StateBits    uint32
	CreationTime time.Time
	ModifiedTime time.Time
	StreamLen    uint64
	StartSector  uint32
}

func NewEntry(dirEntry *DirEntry, names []string) *Entry {
	entry := Entry{
		Name:         dirEntry.Name,
		Path:         PathFromNameChain(names),
		Names:        names,
		ObjType:      dirEntry.ObjType,
		CLSID:        UUIDFromCLSID(dirEntry.CLSID),
		StateBits:    dirEntry.StateBits,
		CreationTime: FiletimeToTime(dirEntry.CreationTime),
		ModifiedTime: FiletimeToTime(dirEntry.ModifiedTime),
		StreamLen:    dirEntry.StreamSize,
		StartSector:  dirEntry.StartingSector,
	}

	return &entry
}

func (e *Entry) IsStream() bool {
	return e.ObjType == ObjStream
}

func (e *Entry) IsStorage() bool {
	return e.ObjType == ObjStorage
}

func (e *Entry) IsRoot() bool {
	return e.ObjType == ObjRoot
}

// WalkFunc is called for every entry visited by CompoundFile.Walk.
// Returning fs.SkipDir from a storage skips its contents; any other error
// stops the walk.
type WalkFunc func(entry *Entry) error
