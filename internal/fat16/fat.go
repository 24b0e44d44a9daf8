package fat16

import "fmt"

// FAT16 entry values (spec §3).
const (
	FATFree      = 0x0000
	FATEndOfChainMin = 0xFFF8 // >= this value marks end-of-chain
	FATReservedMax   = 0xFFF6 // entries 2..this are valid "next cluster" values
)

// fatTable owns the in-memory copy of the first FAT and mirrors every
// mutation to both on-disk copies (spec invariant (b): "Every mutation to
// a FAT entry is mirrored into the second FAT").
type fatTable struct {
	dev  BlockDevice
	bpb  BPB
	geom Geometry

	cache []byte // full contents of FAT #1, SectorsPerFAT*BytesPerSector bytes
}

func loadFATTable(dev BlockDevice, bpb BPB, geom Geometry) (*fatTable, error) {
	t := &fatTable{dev: dev, bpb: bpb, geom: geom}
	size := uint32(bpb.SectorsPerFAT) * uint32(bpb.BytesPerSector)
	t.cache = make([]byte, size)

	sectorBuf := make([]byte, SectorSize)
	for i := uint32(0); i < uint32(bpb.SectorsPerFAT); i++ {
		if err := dev.ReadSector(uint32(bpb.ReservedSectors)+i, sectorBuf); err != nil {
			return nil, fmt.Errorf("fat16: loading FAT sector %d: %w", i, err)
		}
		copy(t.cache[i*SectorSize:], sectorBuf)
	}
	return t, nil
}

// entryOffset returns the byte offset of cluster c's entry within the FAT
// (spec §4.4: "FAT entry at cluster c: sector reserved+(c*2)/512, offset
// (c*2) mod 512").
func entryOffset(c uint16) uint32 { return uint32(c) * 2 }

func (t *fatTable) get(c uint16) uint16 {
	off := entryOffset(c)
	return uint16(t.cache[off]) | uint16(t.cache[off+1])<<8
}

// set writes cluster c's entry and mirrors the owning sector to both FAT
// copies on disk.
func (t *fatTable) set(c uint16, value uint16) error {
	off := entryOffset(c)
	t.cache[off] = byte(value)
	t.cache[off+1] = byte(value >> 8)

	sectorIdx := off / SectorSize
	sectorBuf := t.cache[sectorIdx*SectorSize : sectorIdx*SectorSize+SectorSize]

	fat1Sector := uint32(t.bpb.ReservedSectors) + sectorIdx
	fat2Sector := fat1Sector + uint32(t.bpb.SectorsPerFAT)

	if err := t.dev.WriteSector(fat1Sector, sectorBuf); err != nil {
		return fmt.Errorf("fat16: writing FAT1 sector %d: %w", sectorIdx, err)
	}
	if err := t.dev.WriteSector(fat2Sector, sectorBuf); err != nil {
		return fmt.Errorf("fat16: writing FAT2 sector %d: %w", sectorIdx, err)
	}
	return nil
}

// isEndOfChain reports whether entry marks the end of a cluster chain.
func isEndOfChain(entry uint16) bool { return entry >= FATEndOfChainMin }

// chain walks the full cluster chain starting at start, stopping at the
// end-of-chain marker. An empty chain (start == 0) returns nil.
func (t *fatTable) chain(start uint16) []uint16 {
	if start == 0 {
		return nil
	}
	var clusters []uint16
	c := start
	seen := make(map[uint16]bool)
	for c != 0 && !isEndOfChain(c) {
		if seen[c] {
			break // corrupted loop; stop rather than spin forever
		}
		seen[c] = true
		clusters = append(clusters, c)
		c = t.get(c)
	}
	return clusters
}

// allocCluster scans FAT entries 2..N for a free entry, marks it
// end-of-chain, and returns it (spec §4.4 "Cluster allocation").
func (t *fatTable) allocCluster() (uint16, error) {
	for c := uint16(2); uint32(c) < t.geom.TotalClusters+2; c++ {
		if t.get(c) == FATFree {
			if err := t.set(c, 0xFFFF); err != nil {
				return 0, err
			}
			return c, nil
		}
	}
	return 0, ErrNoSpace
}

// freeChain walks start's chain and zeroes every entry.
func (t *fatTable) freeChain(start uint16) error {
	c := start
	for c != 0 && !isEndOfChain(c) {
		next := t.get(c)
		if err := t.set(c, FATFree); err != nil {
			return err
		}
		c = next
	}
	return nil
}

// linkTail appends next after the current end-of-chain cluster tail.
func (t *fatTable) linkTail(tail, next uint16) error {
	if err := t.set(tail, next); err != nil {
		return err
	}
	return t.set(next, 0xFFFF)
}
