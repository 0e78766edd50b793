package mscfb

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxSizingRounds bounds the FAT/DIFAT size computation. FAT and DIFAT
// sectors are themselves tracked by the FAT, so their count is found by
// iterating to a fixed point; it settles within a few rounds.
const maxSizingRounds = 8

type pendingStream struct {
	path []string
	data []byte
}

// Writer accumulates streams and storages in memory and lays them out as a
// complete compound file on save. Nothing is written until WriteToSeeker or
// Save is called, and each call produces an independent file from the state
// accumulated so far. A Writer is not safe for concurrent use.
type Writer struct {
	version     Version
	log         *zap.Logger
	rootCLSID   [16]byte
	storageTime uint64

	// in add order; large streams are allocated in this order
	streams  []pendingStream
	storages [][]string
}

// NewWriter returns an empty Writer using 512-byte sectors unless configured
// otherwise.
func NewWriter(opts ...WriterOption) (*Writer, error) {
	w := &Writer{
		version: V3,
		log:     zap.NewNop(),
	}

	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}

	return w, nil
}

func (w *Writer) Version() Version {
	return w.version
}

// SetRootCLSID stamps the root entry's class id, which Office uses to tell
// document types apart.
func (w *Writer) SetRootCLSID(clsid [16]byte) {
	w.rootCLSID = clsid
}

func (w *Writer) SetRootCLSIDFromUUID(u uuid.UUID) {
	w.rootCLSID = CLSIDFromUUID(u)
}

func validatePath(path []string) error {
	if len(path) == 0 {
		return fmt.Errorf("empty path: %w", ErrorInvalidData)
	}

	for _, name := range path {
		if err := ValidateName(name); err != nil {
			return err
		}
	}

	return nil
}

// CreateStream adds a stream at path, replacing the contents of an existing
// stream at the same path. Missing parent storages are created on save.
func (w *Writer) CreateStream(path []string, data []byte) error {
	if err := validatePath(path); err != nil {
		return err
	}

	for _, storage := range w.storages {
		if hasPathPrefix(storage, path) {
			return fmt.Errorf("%v is a storage: %w", PathFromNameChain(path), ErrorInvalidData)
		}
	}

	for i := range w.streams {
		existing := w.streams[i].path
		if samePath(existing, path) {
			w.streams[i].data = append([]byte(nil), data...)
			return nil
		}
		if hasPathPrefix(path, existing) || hasPathPrefix(existing, path) {
			return fmt.Errorf("%v conflicts with stream %v: %w",
				PathFromNameChain(path), PathFromNameChain(existing), ErrorInvalidData)
		}
	}

	w.streams = append(w.streams, pendingStream{
		path: append([]string(nil), path...),
		data: append([]byte(nil), data...),
	})

	return nil
}

// UpdateStream is an alias of CreateStream.
func (w *Writer) UpdateStream(path []string, data []byte) error {
	return w.CreateStream(path, data)
}

func (w *Writer) DeleteStream(path []string) error {
	for i := range w.streams {
		if samePath(w.streams[i].path, path) {
			w.streams = append(w.streams[:i], w.streams[i+1:]...)
			return nil
		}
	}

	return fmt.Errorf("%v: %w", PathFromNameChain(path), ErrorStreamNotFound)
}

// CreateStorage adds an empty storage at path. Parent storages are created
// on save.
func (w *Writer) CreateStorage(path []string) error {
	if err := validatePath(path); err != nil {
		return err
	}

	for _, s := range w.streams {
		if hasPathPrefix(path, s.path) {
			return fmt.Errorf("%v conflicts with stream %v: %w",
				PathFromNameChain(path), PathFromNameChain(s.path), ErrorInvalidData)
		}
	}

	for _, storage := range w.storages {
		if samePath(storage, path) {
			return nil
		}
	}

	w.storages = append(w.storages, append([]string(nil), path...))
	return nil
}

// DeleteStorage removes the storage at path together with every stream and
// storage below it.
func (w *Writer) DeleteStorage(path []string) error {
	if len(path) == 0 {
		return fmt.Errorf("cannot delete root storage: %w", ErrorInvalidFormat)
	}

	found := false

	storages := w.storages[:0]
	for _, storage := range w.storages {
		if hasPathPrefix(storage, path) {
			found = true
			continue
		}
		storages = append(storages, storage)
	}
	w.storages = storages

	streams := w.streams[:0]
	for _, s := range w.streams {
		if len(s.path) > len(path) && hasPathPrefix(s.path, path) {
			found = true
			continue
		}
		streams = append(streams, s)
	}
	w.streams = streams

	if !found {
		return fmt.Errorf("storage %v not found: %w", PathFromNameChain(path), ErrorInvalidFormat)
	}

	return nil
}

// Save writes the compound file to a new file at path, truncating any
// existing one.
func (w *Writer) Save(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create compound file: %w", err)
	}
	defer func() {
		if f != nil {
			_ = f.Close()
		}
	}()

	if err := w.WriteToSeeker(f); err != nil {
		return err
	}

	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync compound file: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close compound file: %w", err)
	}
	f = nil

	return nil
}

type largeStream struct {
	pendingStream
	startSector uint32
}

type smallStream struct {
	pendingStream
	startMiniSector uint32
}

// WriteToSeeker lays out every pending stream and storage and writes the
// resulting file to out. All allocation happens in memory first; a
// validation failure aborts before anything is written.
func (w *Writer) WriteToSeeker(out io.WriteSeeker) error {
	sectorLen := w.version.SectorLen()
	fat := newFatBuilder(sectorLen)
	minifat := newMiniFatBuilder()

	var small []smallStream
	var large []largeStream
	for _, s := range w.streams {
		if len(s.data) < int(MINI_STREAM_CUTOFF) {
			small = append(small, smallStream{pendingStream: s})
		} else {
			large = append(large, largeStream{pendingStream: s})
		}
	}

	for i := range small {
		small[i].startMiniSector = minifat.allocateMiniChain(small[i].data)
	}

	// Large streams are allocated before the ministream, in add order, so
	// callers can pin a stream (WordDocument) to sector 0.
	for i := range large {
		large[i].startSector = fat.allocateChain(len(large[i].data))
	}

	ministreamStart := END_OF_CHAIN
	var ministreamSize uint64
	if !minifat.isEmpty() {
		ministreamStart = fat.allocateChain(len(minifat.ministreamData()))
		ministreamSize = minifat.ministreamSize()
	}

	dir := newDirectoryBuilder(ministreamStart, ministreamSize)
	dir.setRootCLSID(w.rootCLSID)
	dir.setStorageTime(w.storageTime)
	for _, storage := range w.storages {
		dir.addStoragePath(storage)
	}
	for _, s := range large {
		dir.addStreamPath(s.path, s.startSector, uint64(len(s.data)))
	}
	for _, s := range small {
		dir.addStreamPath(s.path, s.startMiniSector, uint64(len(s.data)))
	}

	dirStream, err := dir.generateDirectoryStream()
	if err != nil {
		return err
	}
	dirSectorCount := uint32(divCeil(len(dirStream), sectorLen))
	dirStart := fat.allocateChain(len(dirStream))

	var minifatSectors [][]byte
	minifatStart := END_OF_CHAIN
	if !minifat.isEmpty() {
		minifatSectors = minifat.generateMinifatSectors(sectorLen)
		minifatStart = fat.allocateChain(len(minifatSectors) * sectorLen)
	}

	numFat, numDifat, err := computeFatSectors(fat.totalSectors(), sectorLen)
	if err != nil {
		return err
	}

	difatStart := fat.allocateSpecial(numDifat, DIFAT_SECTOR)
	fatStart := fat.allocateSpecial(numFat, FAT_SECTOR)

	fatSectors := fat.generateFatSectors()
	if uint32(len(fatSectors)) != numFat {
		return fmt.Errorf("FAT needs %v sectors, %v reserved: %w", len(fatSectors), numFat, ErrorInvalidData)
	}

	if err := fat.validate(); err != nil {
		return fmt.Errorf("FAT validation failed: %w: %w", ErrorInvalidData, err)
	}
	if err := minifat.validate(); err != nil {
		return fmt.Errorf("MiniFAT validation failed: %w: %w", ErrorInvalidData, err)
	}

	fatIds := make([]uint32, numFat)
	for i := range fatIds {
		fatIds[i] = fatStart + uint32(i)
	}

	difat := newDifatBuilder(sectorLen)
	difat.setFatSectors(fatIds)
	difatSectors := difat.generateDifatSectors(difatStart)
	if uint32(len(difatSectors)) != numDifat {
		return fmt.Errorf("DIFAT needs %v sectors, %v reserved: %w", len(difatSectors), numDifat, ErrorInvalidData)
	}

	header := NewHeader(w.version)
	header.NumDirSectors = dirSectorCount
	header.FirstDirSector = dirStart
	header.NumFatSectors = numFat
	header.InitialDifatEntries = fatIds
	header.FirstMinifatSector = minifatStart
	header.NumMinifatSectors = uint32(len(minifatSectors))
	if numDifat > 0 {
		header.FirstDifatSector = difatStart
		header.NumDifatSectors = numDifat
	}

	w.log.Debug("compound file layout",
		zap.Stringer("version", w.version),
		zap.Int("small_streams", len(small)),
		zap.Int("large_streams", len(large)),
		zap.Uint64("ministream_size", ministreamSize),
		zap.Int("directory_entries", dir.entryCount()),
		zap.Uint32("directory_start", dirStart),
		zap.Uint32("fat_sectors", numFat),
		zap.Uint32("difat_sectors", numDifat),
		zap.Uint32("total_sectors", fat.totalSectors()),
	)

	if _, err := out.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek to header: %w", err)
	}
	if _, err := out.Write(header.generate()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	if err := w.writeSectors(out, ministreamStart, minifat.ministreamData(), SectorInitZero); err != nil {
		return fmt.Errorf("write ministream: %w", err)
	}

	for _, s := range large {
		if err := w.writeSectors(out, s.startSector, s.data, SectorInitZero); err != nil {
			return fmt.Errorf("write stream %v: %w", PathFromNameChain(s.path), err)
		}
	}

	if err := w.writeSectors(out, dirStart, dirStream, SectorInitDir); err != nil {
		return fmt.Errorf("write directory: %w", err)
	}

	if err := w.writeSectorRun(out, minifatStart, minifatSectors); err != nil {
		return fmt.Errorf("write MiniFAT sectors: %w", err)
	}

	if err := w.writeSectorRun(out, fatStart, fatSectors); err != nil {
		return fmt.Errorf("write FAT sectors: %w", err)
	}

	if err := w.writeSectorRun(out, difatStart, difatSectors); err != nil {
		return fmt.Errorf("write DIFAT sectors: %w", err)
	}

	return nil
}

// computeFatSectors finds how many FAT and DIFAT sectors are needed when
// used sectors are already allocated and the FAT and DIFAT sectors must be
// tracked by the FAT as well.
func computeFatSectors(used uint32, sectorLen int) (uint32, uint32, error) {
	perFatSector := uint32(sectorLen / 4)

	var numFat, numDifat uint32
	for i := 0; i < maxSizingRounds; i++ {
		total := used + numFat + numDifat
		newFat := (total + perFatSector - 1) / perFatSector
		newDifat := difatSectorsFor(newFat, sectorLen)

		if newFat == numFat && newDifat == numDifat {
			return numFat, numDifat, nil
		}
		numFat, numDifat = newFat, newDifat
	}

	return 0, 0, fmt.Errorf("FAT size did not settle after %v rounds for %v sectors: %w",
		maxSizingRounds, used, ErrorInvalidData)
}

// writeSectors writes data at the offset of sector start, padding the last
// sector as init describes. The sectors must be contiguous.
func (w *Writer) writeSectors(out io.WriteSeeker, start uint32, data []byte, init SectorInit) error {
	if start == END_OF_CHAIN || len(data) == 0 {
		return nil
	}

	sectorLen := w.version.SectorLen()
	if _, err := out.Seek(int64(start+1)*int64(sectorLen), io.SeekStart); err != nil {
		return err
	}

	if _, err := out.Write(data); err != nil {
		return err
	}

	if rem := len(data) % sectorLen; rem != 0 {
		pad := make([]byte, sectorLen-rem)
		init.Initialize(pad)
		if _, err := out.Write(pad); err != nil {
			return err
		}
	}

	return nil
}

func (w *Writer) writeSectorRun(out io.WriteSeeker, start uint32, sectors [][]byte) error {
	for i, sector := range sectors {
		if err := w.writeSectors(out, start+uint32(i), sector, SectorInitZero); err != nil {
			return err
		}
	}

	return nil
}
