package mscfb

import "fmt"

// Allocator resolves FAT chains of an open file.
type Allocator struct {
	Sectors        *Sectors
	DifatSectorIds []uint32
	Difat          []uint32
	Fat            []uint32
	Validation     Validation
}

func NewAllocator(sectors *Sectors, difatSectorIds []uint32, difat []uint32, fat []uint32, validation Validation) (*Allocator, error) {
	alloc := Allocator{
		Sectors:        sectors,
		DifatSectorIds: difatSectorIds,
		Difat:          difat,
		Fat:            fat,
		Validation:     validation,
	}

	err := alloc.Validate()
	if err != nil {
		return nil, err
	}

	return &alloc, nil
}

// Next returns the sector following index in its chain, or END_OF_CHAIN.
func (a *Allocator) Next(index uint32) (uint32, error) {
	if index >= uint32(len(a.Fat)) {
		return 0, fmt.Errorf("sector %v is beyond the FAT (%v entries): %w", index, len(a.Fat), ErrorInvalidCFB)
	}

	nextId := a.Fat[index]
	if nextId != END_OF_CHAIN && (nextId > MAX_REGULAR_SECTOR || nextId >= uint32(len(a.Fat))) {
		return 0, fmt.Errorf("sector %v links to invalid sector %v: %w", index, nextId, ErrorInvalidCFB)
	}

	return nextId, nil
}

func (a *Allocator) Validate() error {
	if len(a.Fat) > int(a.Sectors.NumSectors) {
		return fmt.Errorf("fat has %v entries, but file has %v: %w",
			len(a.Fat), a.Sectors.NumSectors, ErrorInvalidCFB)
	}

	for _, difatSector := range a.DifatSectorIds {
		if difatSector >= uint32(len(a.Fat)) {
			return fmt.Errorf("invalid FAT has %v entries, but DIFAT lists %v as a DIFAT sector: %w",
				len(a.Fat), difatSector, ErrorInvalidCFB)
		}

		if a.Fat[difatSector] != DIFAT_SECTOR {
			if a.Validation.IsStrict() {
				return fmt.Errorf("invalid DIFAT sector %v is not marked as such in the FAT: %w", difatSector, ErrorInvalidCFB)
			}
			a.Fat[difatSector] = DIFAT_SECTOR
		}
	}

	for _, fatSector := range a.Difat {
		if fatSector >= uint32(len(a.Fat)) {
			return fmt.Errorf("invalid FAT has %v entries, but DIFAT lists %v as a FAT sector: %w",
				len(a.Fat), fatSector, ErrorInvalidCFB)
		}

		if a.Fat[fatSector] != FAT_SECTOR {
			if a.Validation.IsStrict() {
				return fmt.Errorf("invalid FAT sector %v is not marked as such in the FAT: %w", fatSector, ErrorInvalidCFB)
			}
			a.Fat[fatSector] = FAT_SECTOR
		}
	}

	pointees := make(map[uint32]bool)
	for fatIdx, fat := range a.Fat {
		if fat <= MAX_REGULAR_SECTOR {
			if fat >= uint32(len(a.Fat)) {
				return fmt.Errorf("invalid FAT entry %v points to sector %v, but file has only %v sectors: %w",
					fatIdx, fat, len(a.Fat), ErrorInvalidCFB)
			}
			if pointees[fat] {
				return fmt.Errorf("invalid FAT entry %v points to sector %v, which is already pointed to by another FAT entry: %w",
					fatIdx, fat, ErrorInvalidCFB)
			}
			pointees[fat] = true
		} else if fat == INVALID_SECTOR {
			return fmt.Errorf("invalid FAT entry %v points to sector %v, which is an invalid sector: %w", fatIdx, fat, ErrorInvalidCFB)
		}
	}

	return nil
}

// OpenChain collects the chain starting at start.
func (a *Allocator) OpenChain(start uint32) (*Chain, error) {
	return NewChain(a, start)
}
