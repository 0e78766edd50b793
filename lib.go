package mscfb

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
)

// CompoundFile is an open compound file. Lookups seek the underlying reader,
// so a CompoundFile must not be used from several goroutines at once.
type CompoundFile struct {
	Reader io.ReadSeeker

	Header    *Header
	Directory *Directory
	MiniAlloc *MiniAlloc

	fileSize int64
}

// IsCompoundFile reports whether data starts with the CFB magic number and
// is long enough to hold a header, a FAT sector and a directory sector.
func IsCompoundFile(data []byte) bool {
	return len(data) >= MINIMAL_FILE_LEN && bytes.Equal(data[:len(MAGIC_NUMBER)], MAGIC_NUMBER)
}

func Open(reader io.ReadSeeker, validation Validation, opts ...ReaderOption) (*CompoundFile, error) {
	cfg := readerConfig{cacheSize: defaultSectorCacheSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	bufLen, err := reader.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}

	if int(bufLen) < HEADER_LEN {
		return nil, fmt.Errorf("file is %v bytes, smaller than a header: %w", bufLen, ErrorInvalidCFB)
	}

	_, err = reader.Seek(0, io.SeekStart)
	if err != nil {
		return nil, err
	}

	header := &Header{}
	err = header.readFrom(reader, validation)
	if err != nil {
		return nil, err
	}

	sectorLen := header.Version.SectorLen()
	if bufLen > ((int64(MAX_REGULAR_SECTOR) + 1) * int64(sectorLen)) {
		return nil, fmt.Errorf("file is too large: %w", ErrorInvalidCFB)
	}

	if bufLen < int64(sectorLen) {
		return nil, fmt.Errorf("file is too small: %w", ErrorInvalidCFB)
	}

	sectors, err := NewSectors(header.Version, bufLen, reader, cfg.cacheSize)
	if err != nil {
		return nil, err
	}

	difat := make([]uint32, len(header.InitialDifatEntries))
	copy(difat, header.InitialDifatEntries)

	seenSectorIds := make(map[uint32]bool)
	difatSectorIds := make([]uint32, 0)
	currentDifatSector := header.FirstDifatSector

	for currentDifatSector != END_OF_CHAIN {
		if currentDifatSector > MAX_REGULAR_SECTOR {
			return nil, fmt.Errorf("invalid DIFAT chain: %w", ErrorInvalidCFB)
		} else if currentDifatSector >= sectors.NumSectors {
			return nil, fmt.Errorf("invalid DIFAT chain includes sector index %v: %w", currentDifatSector, ErrorInvalidCFB)
		}

		if seenSectorIds[currentDifatSector] {
			return nil, fmt.Errorf("DIFAT chain includes duplicate sector index %v: %w", currentDifatSector, ErrorInvalidCFB)
		}

		seenSectorIds[currentDifatSector] = true
		difatSectorIds = append(difatSectorIds, currentDifatSector)

		entries, err := sectors.ReadSectorEntries(currentDifatSector)
		if err != nil {
			return nil, err
		}

		for _, next := range entries[:len(entries)-1] {
			if next != FREE_SECTOR && next > MAX_REGULAR_SECTOR {
				return nil, fmt.Errorf("invalid DIFAT refers to invalid sector index %v: %w", next, ErrorInvalidCFB)
			}
			difat = append(difat, next)
		}

		currentDifatSector = entries[len(entries)-1]
		// Some writers terminate the DIFAT chain with FREE_SECTOR.
		if currentDifatSector == FREE_SECTOR {
			currentDifatSector = END_OF_CHAIN
		}
	}

	if validation.IsStrict() &&
		header.NumDifatSectors != uint32(len(difatSectorIds)) {
		return nil, fmt.Errorf("incorrect DIFAT chain length (header says %v, actual is %v): %w",
			header.NumDifatSectors, len(difatSectorIds), ErrorInvalidCFB)
	}

	for len(difat) > 0 && difat[len(difat)-1] == FREE_SECTOR {
		difat = difat[:len(difat)-1]
	}

	if validation.IsStrict() &&
		header.NumFatSectors != uint32(len(difat)) {
		return nil, fmt.Errorf("incorrect number of FAT sectors (header says %v, DIFAT says %v): %w",
			header.NumFatSectors, len(difat), ErrorInvalidCFB)
	}

	fat := make([]uint32, 0, len(difat)*header.Version.FatEntriesPerSector())
	for _, sectorId := range difat {
		if sectorId >= sectors.NumSectors {
			return nil, fmt.Errorf("invalid FAT sector index %v: %w", sectorId, ErrorInvalidCFB)
		}

		entries, err := sectors.ReadSectorEntries(sectorId)
		if err != nil {
			return nil, err
		}
		fat = append(fat, entries...)
	}

	// Some writers pad the FAT with zeros instead of FREE_SECTOR.
	if !validation.IsStrict() {
		for len(fat) > int(sectors.NumSectors) && fat[len(fat)-1] == 0 {
			fat = fat[:len(fat)-1]
		}
	}

	for len(fat) > 0 && fat[len(fat)-1] == FREE_SECTOR {
		fat = fat[:len(fat)-1]
	}

	allocator, err := NewAllocator(sectors, difatSectorIds, difat, fat, validation)
	if err != nil {
		return nil, err
	}

	dirChain, err := allocator.OpenChain(header.FirstDirSector)
	if err != nil {
		return nil, fmt.Errorf("open directory chain: %w", err)
	}

	if validation.IsStrict() && header.Version == V4 && header.NumDirSectors != dirChain.NumSectors() {
		return nil, fmt.Errorf("incorrect number of directory sectors (header says %v, FAT says %v): %w",
			header.NumDirSectors, dirChain.NumSectors(), ErrorInvalidCFB)
	}

	dirData, err := io.ReadAll(dirChain)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	dirReader := bytes.NewReader(dirData)
	dirEntries := make([]*DirEntry, 0, int(dirChain.NumSectors())*header.Version.DirEntriesPerSector())
	for dirReader.Len() >= DIR_ENTRY_LEN {
		entry, err := ReadDirEntry(dirReader, header.Version, validation)
		if err != nil {
			return nil, fmt.Errorf("read directory entry %v: %w", len(dirEntries), err)
		}

		dirEntries = append(dirEntries, entry)
	}

	directory, err := NewDirectory(allocator, dirEntries, header.FirstDirSector, validation)
	if err != nil {
		return nil, err
	}

	chain, err := allocator.OpenChain(header.FirstMinifatSector)
	if err != nil {
		return nil, fmt.Errorf("open MiniFAT chain: %w", err)
	}

	if validation.IsStrict() && header.NumMinifatSectors != chain.NumSectors() {
		return nil, fmt.Errorf("incorrect number of MiniFAT sectors (header says %v, FAT says %v): %w",
			header.NumMinifatSectors, chain.NumSectors(), ErrorInvalidCFB)
	}

	minifatData, err := io.ReadAll(chain)
	if err != nil {
		return nil, fmt.Errorf("read MiniFAT: %w", err)
	}

	minifat := make([]uint32, len(minifatData)/4)
	for i := range minifat {
		minifat[i] = binary.LittleEndian.Uint32(minifatData[i*4:])
	}

	for len(minifat) > 0 && minifat[len(minifat)-1] == FREE_SECTOR {
		minifat = minifat[:len(minifat)-1]
	}

	miniAlloc, err := NewMiniAlloc(directory, minifat, header.FirstMinifatSector)
	if err != nil {
		return nil, err
	}

	compoundFile := CompoundFile{
		Reader: reader,

		Header:    header,
		Directory: directory,
		MiniAlloc: miniAlloc,
		fileSize:  bufLen,
	}

	return &compoundFile, nil
}

func (c *CompoundFile) Version() Version {
	return c.Header.Version
}

// FileSize returns the size of the underlying file in bytes.
func (c *CompoundFile) FileSize() int64 {
	return c.fileSize
}

func (c *CompoundFile) RootEntry() *Entry {
	return NewEntry(c.Directory.RootDirEntry(), []string{})
}

// RootName returns the name stored in the root entry, normally "Root Entry".
func (c *CompoundFile) RootName() string {
	return c.Directory.RootDirEntry().Name
}

// Entry returns metadata of the stream or storage at path. An empty path
// addresses the root.
func (c *CompoundFile) Entry(path []string) (*Entry, error) {
	streamId, names, err := c.lookup(path)
	if err != nil {
		return nil, err
	}

	return NewEntry(c.Directory.DirEntries[streamId], names), nil
}

// lookup resolves path and returns its entry id together with the path
// spelled as stored in the file.
func (c *CompoundFile) lookup(path []string) (uint32, []string, error) {
	sids, err := c.Directory.resolve(path)
	if err != nil {
		return 0, nil, err
	}

	if len(sids) == 0 {
		return ROOT_STREAM_ID, []string{}, nil
	}

	names := make([]string, len(sids))
	for i, sid := range sids {
		names[i] = c.Directory.DirEntries[sid].Name
	}

	return sids[len(sids)-1], names, nil
}

// Exists reports whether a stream exists at path.
func (c *CompoundFile) Exists(path []string) bool {
	entry, err := c.Entry(path)
	return err == nil && entry.IsStream()
}

// DirectoryExists reports whether a storage (or the root, for an empty
// path) exists at path.
func (c *CompoundFile) DirectoryExists(path []string) bool {
	entry, err := c.Entry(path)
	return err == nil && entry.ObjType.IsContainer()
}

// OpenStream opens the stream at a slash separated path such as
// "/Storage/Stream".
func (c *CompoundFile) OpenStream(path string) (*Stream, error) {
	return c.openStream(NameChainFromPath(path))
}

func (c *CompoundFile) openStream(names []string) (*Stream, error) {
	path := PathFromNameChain(names)

	streamId, stored, err := c.lookup(names)
	if err != nil {
		return nil, err
	}

	dirEntry := c.Directory.DirEntries[streamId]
	if dirEntry.ObjType != ObjStream {
		return nil, fmt.Errorf("%s: %w", path, ErrorNotAStream)
	}

	entry := NewEntry(dirEntry, stored)

	if dirEntry.StreamSize < uint64(MINI_STREAM_CUTOFF) {
		chain, err := c.MiniAlloc.OpenMiniChain(dirEntry.StartingSector)
		if err != nil {
			return nil, fmt.Errorf("open stream %s: %w", path, err)
		}
		return newStream(entry, chain), nil
	}

	chain, err := c.Directory.Allocator.OpenChain(dirEntry.StartingSector)
	if err != nil {
		return nil, fmt.Errorf("open stream %s: %w", path, err)
	}

	return newStream(entry, chain), nil
}

// ReadStream returns the full contents of the stream at path.
func (c *CompoundFile) ReadStream(path []string) ([]byte, error) {
	stream, err := c.openStream(path)
	if err != nil {
		return nil, err
	}

	data := make([]byte, stream.Len())
	if _, err := io.ReadFull(stream, data); err != nil {
		return nil, fmt.Errorf("read stream %s: %w", PathFromNameChain(path), err)
	}

	return data, nil
}

// ListEntries returns the direct children of the storage at path in tree
// order.
func (c *CompoundFile) ListEntries(path []string) ([]*Entry, error) {
	streamId, parent, err := c.lookup(path)
	if err != nil {
		return nil, err
	}

	if !c.Directory.DirEntries[streamId].ObjType.IsContainer() {
		return nil, fmt.Errorf("%s is not a storage: %w", PathFromNameChain(path), ErrorInvalidFormat)
	}

	var entries []*Entry
	for _, sid := range c.Directory.Children(streamId) {
		dirEntry := c.Directory.DirEntries[sid]
		names := append(append([]string(nil), parent...), dirEntry.Name)
		entries = append(entries, NewEntry(dirEntry, names))
	}

	return entries, nil
}

// Walk visits every entry below the root in preorder, storages before their
// contents and siblings in tree order.
func (c *CompoundFile) Walk(fn WalkFunc) error {
	err := c.walk(ROOT_STREAM_ID, []string{}, fn)
	if errors.Is(err, fs.SkipDir) {
		return nil
	}
	return err
}

func (c *CompoundFile) walk(parent uint32, parentNames []string, fn WalkFunc) error {
	for _, sid := range c.Directory.Children(parent) {
		dirEntry := c.Directory.DirEntries[sid]
		names := append(append([]string(nil), parentNames...), dirEntry.Name)

		err := fn(NewEntry(dirEntry, names))
		if err != nil {
			if errors.Is(err, fs.SkipDir) && dirEntry.ObjType.IsContainer() {
				continue
			}
			return err
		}

		if dirEntry.ObjType.IsContainer() {
			if err := c.walk(sid, names, fn); err != nil {
				return err
			}
		}
	}

	return nil
}

// ListStreams returns the path of every stream in the file.
func (c *CompoundFile) ListStreams() [][]string {
	var paths [][]string

	// the callback never fails
	_ = c.Walk(func(entry *Entry) error {
		if entry.IsStream() {
			paths = append(paths, entry.Names)
		}
		return nil
	})

	return paths
}
