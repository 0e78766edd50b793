package mscfb

import (
	"time"

	"go.uber.org/zap"
)

// WriterOption is a functional option for configuring a Writer.
type WriterOption func(*Writer) error

// WithSectorLen selects 512-byte (version 3) or 4096-byte (version 4) sectors.
func WithSectorLen(sectorLen int) WriterOption {
	return func(w *Writer) error {
		version, err := VersionForSectorLen(sectorLen)
		if err != nil {
			return err
		}
		w.version = version
		return nil
	}
}

// WithVersion selects the file format version.
func WithVersion(version Version) WriterOption {
	return func(w *Writer) error {
		return WithSectorLen(version.SectorLen())(w)
	}
}

// WithLogger sets the logger receiving save diagnostics at debug level.
func WithLogger(log *zap.Logger) WriterOption {
	return func(w *Writer) error {
		if log != nil {
			w.log = log
		}
		return nil
	}
}

// WithStorageTime stamps storages with t as creation and modification time.
// By default timestamps are left zero.
func WithStorageTime(t time.Time) WriterOption {
	return func(w *Writer) error {
		w.storageTime = TimeToFiletime(t)
		return nil
	}
}

// ReaderOption is a functional option for Open.
type ReaderOption func(*readerConfig)

type readerConfig struct {
	cacheSize int
}

const defaultSectorCacheSize = 256

// WithCacheSize sets how many decoded sectors Open keeps in memory.
// Zero or less disables the cache.
func WithCacheSize(n int) ReaderOption {
	return func(c *readerConfig) {
		c.cacheSize = n
	}
}
