package fat16

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// rawBPB mirrors the on-disk BIOS Parameter Block layout byte-for-byte, in
// the style of ostafen-digler/internal/disk/fat.go's FatBootSector: a
// struct decoded in one binary.Read call rather than hand-rolled offset
// math.
type rawBPB struct {
	JumpBoot         [3]byte
	OEMName          [8]byte
	BytesPerSector   uint16
	SectorsPerClust  uint8
	ReservedSectors  uint16
	NumFATs          uint8
	RootEntries      uint16
	TotalSectors16   uint16
	MediaDescriptor  uint8
	SectorsPerFAT    uint16
	SectorsPerTrack  uint16
	NumHeads         uint16
	HiddenSectors    uint32
	TotalSectors32   uint32
	DriveNumber      uint8
	Reserved1        uint8
	BootSignature    uint8
	VolumeID         uint32
	VolumeLabel      [11]byte
	FileSystemType   [8]byte
	BootCode         [448]byte
	SignatureLow     uint8
	SignatureHigh    uint8
}

// BPB is the cached, validated BIOS Parameter Block (spec §3): "bytes/
// sector (must be 512), sectors/cluster, reserved sectors, FAT count (2),
// root entries, sectors/FAT, total sectors (16 and 32)".
type BPB struct {
	BytesPerSector    uint16
	SectorsPerCluster uint8
	ReservedSectors   uint16
	NumFATs           uint8
	RootEntries       uint16
	SectorsPerFAT     uint16
	TotalSectors      uint32 // resolved from the 16- or 32-bit field
	VolumeLabel       string
}

// Geometry holds the derived layout computed once from the BPB (spec §4.4).
type Geometry struct {
	RootStart      uint32 // first sector of the root directory
	RootSectors    uint32 // sectors occupied by the root directory
	FirstDataSect  uint32 // first sector of the cluster data area
	ClusterBytes   uint32
	TotalClusters  uint32
}

// ParseBPB decodes and validates the boot sector (spec §3: "Verified by
// boot-sector signature 0x55AA at offsets 510/511").
func ParseBPB(sector []byte) (BPB, error) {
	if len(sector) != SectorSize {
		return BPB{}, fmt.Errorf("fat16: boot sector must be %d bytes, got %d", SectorSize, len(sector))
	}

	var raw rawBPB
	if err := binary.Read(bytes.NewReader(sector), binary.LittleEndian, &raw); err != nil {
		return BPB{}, fmt.Errorf("fat16: decoding BPB: %w", err)
	}

	if raw.SignatureLow != 0x55 || raw.SignatureHigh != 0xAA {
		return BPB{}, fmt.Errorf("fat16: bad boot sector signature 0x%02x%02x, want 0x55AA", raw.SignatureLow, raw.SignatureHigh)
	}
	if raw.BytesPerSector != SectorSize {
		return BPB{}, fmt.Errorf("fat16: unsupported bytes/sector %d, want %d", raw.BytesPerSector, SectorSize)
	}
	if raw.NumFATs != 2 {
		return BPB{}, fmt.Errorf("fat16: unsupported FAT count %d, want 2", raw.NumFATs)
	}
	if raw.SectorsPerClust == 0 {
		return BPB{}, fmt.Errorf("fat16: sectors/cluster must be nonzero")
	}
	if raw.SectorsPerFAT == 0 {
		return BPB{}, fmt.Errorf("fat16: sectors/FAT must be nonzero")
	}

	total := uint32(raw.TotalSectors16)
	if total == 0 {
		total = raw.TotalSectors32
	}
	if total == 0 {
		return BPB{}, fmt.Errorf("fat16: total sectors is zero")
	}

	return BPB{
		BytesPerSector:    raw.BytesPerSector,
		SectorsPerCluster: raw.SectorsPerClust,
		ReservedSectors:   raw.ReservedSectors,
		NumFATs:           raw.NumFATs,
		RootEntries:       raw.RootEntries,
		SectorsPerFAT:     raw.SectorsPerFAT,
		TotalSectors:      total,
		VolumeLabel:       trimPadding(raw.VolumeLabel[:]),
	}, nil
}

func trimPadding(b []byte) string {
	end := len(b)
	for end > 0 && (b[end-1] == ' ' || b[end-1] == 0) {
		end--
	}
	return string(b[:end])
}

// DeriveGeometry computes the layout constants spec §4.4 defines:
//
//	root_start = reserved + num_fats * sectors_per_fat
//	root_sectors = ceil(root_entries * 32 / bytes_per_sector)
//	first_data = root_start + root_sectors
func DeriveGeometry(b BPB) Geometry {
	rootStart := uint32(b.ReservedSectors) + uint32(b.NumFATs)*uint32(b.SectorsPerFAT)
	rootBytes := uint32(b.RootEntries) * DirEntrySize
	rootSectors := (rootBytes + uint32(b.BytesPerSector) - 1) / uint32(b.BytesPerSector)
	firstData := rootStart + rootSectors
	clusterBytes := uint32(b.SectorsPerCluster) * uint32(b.BytesPerSector)

	dataSectors := uint32(0)
	if b.TotalSectors > firstData {
		dataSectors = b.TotalSectors - firstData
	}
	totalClusters := uint32(0)
	if b.SectorsPerCluster > 0 {
		totalClusters = dataSectors / uint32(b.SectorsPerCluster)
	}

	return Geometry{
		RootStart:     rootStart,
		RootSectors:   rootSectors,
		FirstDataSect: firstData,
		ClusterBytes:  clusterBytes,
		TotalClusters: totalClusters,
	}
}

// ClusterToSector converts a cluster number to its first absolute sector
// (spec §4.4): first_data + (c-2) * sectors_per_cluster.
func (g Geometry) ClusterToSector(cluster uint16, sectorsPerCluster uint8) uint32 {
	return g.FirstDataSect + (uint32(cluster)-2)*uint32(sectorsPerCluster)
}
