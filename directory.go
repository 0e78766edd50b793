package mscfb

import "fmt"

type Directory struct {
	Allocator      *Allocator
	DirEntries     []*DirEntry
	DirStartSector uint32
	Validation     Validation
}

func NewDirectory(allocator *Allocator, dirEntries []*DirEntry, dirStartSector uint32, validation Validation) (*Directory, error) {
	dir := Directory{
		Allocator:      allocator,
		DirEntries:     dirEntries,
		DirStartSector: dirStartSector,
		Validation:     validation,
	}

	err := dir.Validate()
	if err != nil {
		return nil, err
	}

	return &dir, nil
}

func (d *Directory) RootDirEntry() *DirEntry {
	return d.DirEntries[ROOT_STREAM_ID]
}

// siblingsOrdered accepts either the plain CFB ordering or the one used by
// writers that push "_VBA_PROJECT" and "__" names to the back.
func siblingsOrdered(left, right string) bool {
	return CompareNames(left, right) == OrderLess || compareSiblingNames(left, right) == OrderLess
}

func (d *Directory) Validate() error {
	if len(d.DirEntries) == 0 {
		return fmt.Errorf("directory has no entries: %w", ErrorInvalidCFB)
	}

	rootDirEntry := d.RootDirEntry()
	if rootDirEntry.ObjType != ObjRoot {
		return fmt.Errorf("root entry has object type: %v: %w", rootDirEntry.ObjType, ErrorInvalidCFB)
	}

	if rootDirEntry.StreamSize%uint64(MINI_SECTOR_LEN) != 0 {
		return fmt.Errorf("root stream len is %v, but should be multiple of %v: %w",
			rootDirEntry.StreamSize, MINI_SECTOR_LEN, ErrorInvalidCFB)
	}

	visited := make(map[uint32]bool)
	stack := []uint32{ROOT_STREAM_ID}

	for len(stack) > 0 {
		dirEntryId := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[dirEntryId] {
			return fmt.Errorf("directory has a cycle at entry %v: %w", dirEntryId, ErrorInvalidCFB)
		}

		visited[dirEntryId] = true

		dirEntry := d.DirEntries[dirEntryId]
		if dirEntryId != ROOT_STREAM_ID && dirEntry.ObjType != ObjStorage && dirEntry.ObjType != ObjStream {
			return fmt.Errorf("non-root entry %v with object type: %v: %w", dirEntryId, dirEntry.ObjType, ErrorInvalidCFB)
		}

		leftSibling := dirEntry.LeftSibling
		if leftSibling != NO_STREAM {
			if leftSibling >= uint32(len(d.DirEntries)) {
				return fmt.Errorf("left sibling index is %v, but directory entry count is %v: %w",
					leftSibling, len(d.DirEntries), ErrorInvalidCFB)
			}

			entry := d.DirEntries[leftSibling]
			if d.Validation.IsStrict() && !siblingsOrdered(entry.Name, dirEntry.Name) {
				return fmt.Errorf("name ordering, %v vs %v: %w", entry.Name, dirEntry.Name, ErrorInvalidCFB)
			}

			stack = append(stack, leftSibling)
		}

		rightSibling := dirEntry.RightSibling
		if rightSibling != NO_STREAM {
			if rightSibling >= uint32(len(d.DirEntries)) {
				return fmt.Errorf("right sibling index is %v, but directory entry count is %v: %w",
					rightSibling, len(d.DirEntries), ErrorInvalidCFB)
			}

			entry := d.DirEntries[rightSibling]
			if d.Validation.IsStrict() && !siblingsOrdered(dirEntry.Name, entry.Name) {
				return fmt.Errorf("name ordering, %v vs %v: %w", dirEntry.Name, entry.Name, ErrorInvalidCFB)
			}

			stack = append(stack, rightSibling)
		}

		child := dirEntry.Child
		if child != NO_STREAM {
			if child >= uint32(len(d.DirEntries)) {
				return fmt.Errorf("child index is %v, but directory entry count is %v: %w",
					child, len(d.DirEntries), ErrorInvalidCFB)
			}

			stack = append(stack, child)
		}
	}

	return nil
}

// StreamIDForNameChain resolves names from the root. Each level is searched
// by descending the sibling tree; trees not ordered the way the search
// expects fall back to a scan of every sibling.
func (d *Directory) StreamIDForNameChain(names []string) (uint32, error) {
	sids, err := d.resolve(names)
	if err != nil {
		return 0, err
	}

	if len(sids) == 0 {
		return ROOT_STREAM_ID, nil
	}
	return sids[len(sids)-1], nil
}

// resolve returns the entry id of every component of names.
func (d *Directory) resolve(names []string) ([]uint32, error) {
	sids := make([]uint32, 0, len(names))
	streamId := ROOT_STREAM_ID

	for _, name := range names {
		if !d.DirEntries[streamId].ObjType.IsContainer() {
			return nil, fmt.Errorf("%v: %w", PathFromNameChain(names), ErrorStreamNotFound)
		}

		next, ok := d.searchChildren(streamId, name)
		if !ok {
			next, ok = d.scanChildren(streamId, name)
		}
		if !ok {
			return nil, fmt.Errorf("%v: %w", PathFromNameChain(names), ErrorStreamNotFound)
		}

		sids = append(sids, next)
		streamId = next
	}

	return sids, nil
}

func (d *Directory) searchChildren(parent uint32, name string) (uint32, bool) {
	streamId := d.DirEntries[parent].Child

	// bounded by entry count in case of a malformed tree
	for steps := 0; streamId != NO_STREAM && steps < len(d.DirEntries); steps++ {
		dirEntry := d.DirEntries[streamId]

		switch CompareNames(name, dirEntry.Name) {
		case OrderEqual:
			return streamId, true
		case OrderLess:
			streamId = dirEntry.LeftSibling
		case OrderGreater:
			streamId = dirEntry.RightSibling
		}
	}

	return 0, false
}

func (d *Directory) scanChildren(parent uint32, name string) (uint32, bool) {
	for _, sid := range d.Children(parent) {
		if CompareNames(name, d.DirEntries[sid].Name) == OrderEqual {
			return sid, true
		}
	}

	return 0, false
}

// Children returns the ids of every entry in parent's sibling tree, in tree
// order.
func (d *Directory) Children(parent uint32) []uint32 {
	var out []uint32
	visited := make(map[uint32]bool)

	var walk func(sid uint32)
	walk = func(sid uint32) {
		if sid == NO_STREAM || sid >= uint32(len(d.DirEntries)) || visited[sid] {
			return
		}
		visited[sid] = true

		entry := d.DirEntries[sid]
		walk(entry.LeftSibling)
		out = append(out, sid)
		walk(entry.RightSibling)
	}
	walk(d.DirEntries[parent].Child)

	return out
}
