package mscfb

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// directoryBuilder turns stream and storage paths into directory entries.
// Entries keep their creation order as SIDs; sibling links are computed
// per storage when the directory stream is generated.
type directoryBuilder struct {
	entries   []*DirEntry
	pathToSid map[string]uint32
	children  map[uint32][]uint32
	timestamp uint64
}

func newDirectoryBuilder(ministreamStart uint32, ministreamSize uint64) *directoryBuilder {
	root := NewDirEntry(ROOT_DIR_NAME, ObjRoot, 0)
	root.StartingSector = ministreamStart
	root.StreamSize = ministreamSize

	return &directoryBuilder{
		entries:   []*DirEntry{root},
		pathToSid: map[string]uint32{"": ROOT_STREAM_ID},
		children:  map[uint32][]uint32{ROOT_STREAM_ID: nil},
	}
}

func pathKey(components []string) string {
	upper := make([]string, len(components))
	for i, c := range components {
		upper[i] = strings.ToUpper(c)
	}
	return strings.Join(upper, "/")
}

func (d *directoryBuilder) setRootCLSID(clsid [16]byte) {
	d.entries[ROOT_STREAM_ID].CLSID = clsid
}

// setStorageTime sets the FILETIME stamped on storages created afterwards.
func (d *directoryBuilder) setStorageTime(ft uint64) {
	d.timestamp = ft
}

// addStoragePath walks components from the root, creating any storage not
// seen yet, and returns the SID of the last one.
func (d *directoryBuilder) addStoragePath(components []string) uint32 {
	parent := ROOT_STREAM_ID

	for i := range components {
		key := pathKey(components[:i+1])
		if sid, ok := d.pathToSid[key]; ok {
			parent = sid
			continue
		}

		sid := uint32(len(d.entries))
		d.entries = append(d.entries, NewDirEntry(components[i], ObjStorage, d.timestamp))
		d.pathToSid[key] = sid
		d.children[parent] = append(d.children[parent], sid)
		d.children[sid] = nil

		parent = sid
	}

	return parent
}

// addStreamPath creates missing parent storages and appends a stream entry
// under the last of them.
func (d *directoryBuilder) addStreamPath(fullPath []string, startSector uint32, size uint64) uint32 {
	parent := d.addStoragePath(fullPath[:len(fullPath)-1])

	sid := uint32(len(d.entries))
	entry := NewDirEntry(fullPath[len(fullPath)-1], ObjStream, 0)
	entry.StartingSector = startSector
	entry.StreamSize = size

	d.entries = append(d.entries, entry)
	d.children[parent] = append(d.children[parent], sid)

	return sid
}

// generateDirectoryStream links every storage's children and serializes all
// entries in SID order, 128 bytes each.
func (d *directoryBuilder) generateDirectoryStream() ([]byte, error) {
	if uint64(len(d.entries)) > uint64(MAX_REGULAR_STREAM_ID)+1 {
		return nil, fmt.Errorf("%v directory entries exceed the format limit: %w", len(d.entries), ErrorInvalidData)
	}

	for sid, entry := range d.entries {
		if entry.ObjType.IsContainer() {
			d.linkChildren(uint32(sid), d.children[uint32(sid)])
		}
	}

	var buf bytes.Buffer
	buf.Grow(len(d.entries) * DIR_ENTRY_LEN)
	for sid, entry := range d.entries {
		if err := entry.writeTo(&buf); err != nil {
			return nil, fmt.Errorf("encode directory entry %v: %w", sid, err)
		}
	}

	return buf.Bytes(), nil
}

// linkChildren arranges a storage's children as a binary search tree. The
// children are sorted and the middle one becomes the storage's child; those
// before it form a chain through left links and those after it a chain
// through right links. Every node stays black.
func (d *directoryBuilder) linkChildren(parent uint32, childSids []uint32) {
	if len(childSids) == 0 {
		d.entries[parent].Child = NO_STREAM
		return
	}

	sorted := append([]uint32(nil), childSids...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return compareSiblingNames(d.entries[sorted[i]].Name, d.entries[sorted[j]].Name) == OrderLess
	})

	mid := len(sorted) / 2
	d.entries[parent].Child = sorted[mid]

	for i, sid := range sorted {
		entry := d.entries[sid]
		entry.LeftSibling = NO_STREAM
		entry.RightSibling = NO_STREAM

		switch {
		case i < mid:
			if i > 0 {
				entry.LeftSibling = sorted[i-1]
			}
		case i == mid:
			if i > 0 {
				entry.LeftSibling = sorted[i-1]
			}
			if i < len(sorted)-1 {
				entry.RightSibling = sorted[i+1]
			}
		default:
			if i < len(sorted)-1 {
				entry.RightSibling = sorted[i+1]
			}
		}
	}
}

func (d *directoryBuilder) entryCount() int {
	return len(d.entries)
}
