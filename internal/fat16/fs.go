package fat16

import "fmt"

// Filesystem is the process-wide FAT16 state (spec §3 "Resolved directory
// state" and Design Notes §9: "model it as a field of a Filesystem value
// that the syscall layer holds for the kernel's lifetime" rather than the
// original's bare globals).
type Filesystem struct {
	dev  BlockDevice
	bpb  BPB
	geom Geometry
	fat  *fatTable

	currentDirCluster uint16 // 0 = root
	currentPath       string
}

// Mount reads and validates the boot sector, loads the FAT, and returns a
// Filesystem rooted at "/".
func Mount(dev BlockDevice) (*Filesystem, error) {
	sector := make([]byte, SectorSize)
	if err := dev.ReadSector(0, sector); err != nil {
		return nil, fmt.Errorf("fat16: reading boot sector: %w", err)
	}

	bpb, err := ParseBPB(sector)
	if err != nil {
		return nil, err
	}
	geom := DeriveGeometry(bpb)

	fat, err := loadFATTable(dev, bpb, geom)
	if err != nil {
		return nil, err
	}

	return &Filesystem{
		dev:         dev,
		bpb:         bpb,
		geom:        geom,
		fat:         fat,
		currentPath: "/",
	}, nil
}

// Cwd returns the current working directory path.
func (fs *Filesystem) Cwd() string { return fs.currentPath }

// dirSector describes one 512-byte sector belonging to a directory, root
// or otherwise.
type dirSector struct {
	lba uint32
}

// sectorsOf returns the ordered list of sectors backing the directory at
// cluster (0 = root). Root directories are a fixed run of sectors with no
// chain (spec §4.4); subdirectories are the full cluster chain expanded to
// sectors.
func (fs *Filesystem) sectorsOf(cluster uint16) []dirSector {
	if cluster == 0 {
		sectors := make([]dirSector, fs.geom.RootSectors)
		for i := range sectors {
			sectors[i] = dirSector{lba: fs.geom.RootStart + uint32(i)}
		}
		return sectors
	}

	clusters := fs.fat.chain(cluster)
	var sectors []dirSector
	for _, c := range clusters {
		base := fs.geom.ClusterToSector(c, fs.bpb.SectorsPerCluster)
		for i := uint8(0); i < fs.bpb.SectorsPerCluster; i++ {
			sectors = append(sectors, dirSector{lba: base + uint32(i)})
		}
	}
	return sectors
}

// visitSlots enumerates every 32-byte directory slot in cluster, stopping
// after the 0x00 end-of-directory marker or when visit returns true (spec
// §4.4 "Directory scanning"). LFN (0x0F) and deleted (0xE5) slots, and the
// terminator slot itself, are all offered to visit so callers can find
// free slots; visit receives whether the slot is "live" (not free, not
// deleted, not LFN). The terminator slot is always the last one offered:
// scanning stops right after it regardless of what visit returns, since
// nothing past it is in use.
func (fs *Filesystem) visitSlots(cluster uint16, visit func(raw []byte, sector uint32, offset int, live bool) (stop bool, err error)) error {
	sectorBuf := make([]byte, SectorSize)
	for _, ds := range fs.sectorsOf(cluster) {
		if err := fs.dev.ReadSector(ds.lba, sectorBuf); err != nil {
			return fmt.Errorf("fat16: reading directory sector %d: %w", ds.lba, err)
		}
		for off := 0; off+DirEntrySize <= SectorSize; off += DirEntrySize {
			slot := sectorBuf[off : off+DirEntrySize]
			first := slot[0]
			if first == entryFree {
				_, err := visit(slot, ds.lba, off, false)
				return err
			}
			attr := slot[11]
			live := first != entryDeleted && attr != AttrLFN
			stop, err := visit(slot, ds.lba, off, live)
			if err != nil {
				return err
			}
			if stop {
				return nil
			}
		}
	}
	return nil
}

// lookup finds a live, non-LFN entry named name in dirCluster.
func (fs *Filesystem) lookup(dirCluster uint16, name string) (DirEntry, bool, error) {
	var found DirEntry
	ok := false
	err := fs.visitSlots(dirCluster, func(raw []byte, sector uint32, offset int, live bool) (bool, error) {
		if !live {
			return false, nil
		}
		var raw11name [8]byte
		var raw11ext [3]byte
		copy(raw11name[:], raw[0:8])
		copy(raw11ext[:], raw[8:11])
		candidate := decode83(raw11name, raw11ext)
		if !names83Equal(candidate, name) {
			return false, nil
		}
		entry, derr := decodeDirEntry(raw, sector, offset)
		if derr != nil {
			return false, derr
		}
		found = entry
		ok = true
		return true, nil
	})
	return found, ok, err
}

// resolveAbsolute walks every token of an absolute, normalized path from
// the root, requiring non-final tokens to be directories (spec §4.4
// "Absolute resolution"). It returns the cluster of the final component
// (0 for the root) and, if the final component is a file, its entry.
func (fs *Filesystem) resolveAbsolute(path string) (cluster uint16, entry DirEntry, isDir bool, err error) {
	tokens := Tokens(path)
	if len(tokens) == 0 {
		return 0, DirEntry{}, true, nil
	}

	cur := uint16(0)
	for i, tok := range tokens {
		e, ok, lerr := fs.lookup(cur, tok)
		if lerr != nil {
			return 0, DirEntry{}, false, lerr
		}
		if !ok {
			return 0, DirEntry{}, false, fmt.Errorf("%w: %q", ErrNotFound, tok)
		}
		last := i == len(tokens)-1
		if !last && !e.IsDir() {
			return 0, DirEntry{}, false, fmt.Errorf("%w: %q is not a directory", ErrTypeMismatch, tok)
		}
		if last {
			return e.FirstCluster, e, e.IsDir(), nil
		}
		cur = e.FirstCluster
	}
	return cur, DirEntry{}, true, nil
}

// findFreeSlot locates a slot in dirCluster whose first byte is 0x00 or
// 0xE5 (spec §4.4 "Free-slot allocation"). For subdirectories, if the
// chain is exhausted a new cluster is allocated, linked, zeroed, and its
// first slot returned. The root cannot grow.
func (fs *Filesystem) findFreeSlot(dirCluster uint16) (sector uint32, offset int, err error) {
	found := false
	var fSector uint32
	var fOffset int

	scanErr := fs.visitSlots(dirCluster, func(raw []byte, sec uint32, off int, live bool) (bool, error) {
		if raw[0] == entryFree || raw[0] == entryDeleted {
			found = true
			fSector = sec
			fOffset = off
			return true, nil
		}
		return false, nil
	})
	if scanErr != nil {
		return 0, 0, scanErr
	}
	if found {
		return fSector, fOffset, nil
	}

	if dirCluster == 0 {
		return 0, 0, ErrDirFull
	}

	// Chain exhausted without a free slot: grow the directory.
	chain := fs.fat.chain(dirCluster)
	tail := chain[len(chain)-1]

	newCluster, aerr := fs.fat.allocCluster()
	if aerr != nil {
		return 0, 0, aerr
	}
	if err := fs.fat.linkTail(tail, newCluster); err != nil {
		return 0, 0, err
	}
	if err := fs.zeroCluster(newCluster); err != nil {
		return 0, 0, err
	}

	firstSector := fs.geom.ClusterToSector(newCluster, fs.bpb.SectorsPerCluster)
	return firstSector, 0, nil
}

func (fs *Filesystem) zeroCluster(cluster uint16) error {
	zero := make([]byte, SectorSize)
	base := fs.geom.ClusterToSector(cluster, fs.bpb.SectorsPerCluster)
	for i := uint8(0); i < fs.bpb.SectorsPerCluster; i++ {
		if err := fs.dev.WriteSector(base+uint32(i), zero); err != nil {
			return fmt.Errorf("fat16: zeroing cluster %d sector %d: %w", cluster, i, err)
		}
	}
	return nil
}

func (fs *Filesystem) writeSlot(sector uint32, offset int, raw [DirEntrySize]byte) error {
	buf := make([]byte, SectorSize)
	if err := fs.dev.ReadSector(sector, buf); err != nil {
		return fmt.Errorf("fat16: reading directory sector %d: %w", sector, err)
	}
	copy(buf[offset:offset+DirEntrySize], raw[:])
	if err := fs.dev.WriteSector(sector, buf); err != nil {
		return fmt.Errorf("fat16: writing directory sector %d: %w", sector, err)
	}
	return nil
}

// deleteSlot marks the slot at (sector, offset) deleted (0xE5).
func (fs *Filesystem) deleteSlot(sector uint32, offset int) error {
	buf := make([]byte, SectorSize)
	if err := fs.dev.ReadSector(sector, buf); err != nil {
		return fmt.Errorf("fat16: reading directory sector %d: %w", sector, err)
	}
	buf[offset] = entryDeleted
	if err := fs.dev.WriteSector(sector, buf); err != nil {
		return fmt.Errorf("fat16: writing directory sector %d: %w", sector, err)
	}
	return nil
}
