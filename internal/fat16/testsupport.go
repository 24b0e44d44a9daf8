package fat16

import (
	"bytes"
	"encoding/binary"
)

// FormatForTest writes a minimal valid FAT16 volume to dev: a boot sector
// carrying a valid BPB, two zeroed FATs, and a zeroed root directory. It
// exists so this package's own tests and its consumers' tests (elf,
// syscall, usermode) can build an in-memory fixture without a real disk
// image — there is no mkfs tool in this kernel, since every volume it
// ever mounts is prepared by a host-side build step outside this repo's
// scope.
func FormatForTest(dev BlockDevice) error {
	const (
		sectorsPerCluster = 1
		reservedSectors   = 1
		numFATs           = 2
		rootEntries       = 224
		sectorsPerFAT     = 12 // 2841 data clusters need 2843*2 bytes of FAT
		totalSectors      = 2880
	)

	raw := rawBPB{
		BytesPerSector:  SectorSize,
		SectorsPerClust: sectorsPerCluster,
		ReservedSectors: reservedSectors,
		NumFATs:         numFATs,
		RootEntries:     rootEntries,
		TotalSectors16:  totalSectors,
		MediaDescriptor: 0xF0,
		SectorsPerFAT:   sectorsPerFAT,
		SectorsPerTrack: 18,
		NumHeads:        2,
		DriveNumber:     0,
		BootSignature:   0x29,
		VolumeID:        0x12345678,
		SignatureLow:    0x55,
		SignatureHigh:   0xAA,
	}
	copy(raw.OEMName[:], "ASTRAOS ")
	copy(raw.VolumeLabel[:], "ASTRAOS    ")
	copy(raw.FileSystemType[:], "FAT16   ")

	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, &raw); err != nil {
		return err
	}
	sector := make([]byte, SectorSize)
	copy(sector, buf.Bytes())
	if err := dev.WriteSector(0, sector); err != nil {
		return err
	}

	zero := make([]byte, SectorSize)
	rootSectors := (uint32(rootEntries)*DirEntrySize + SectorSize - 1) / SectorSize
	lastMetaSector := reservedSectors + numFATs*sectorsPerFAT + rootSectors
	for i := uint32(1); i < uint32(lastMetaSector); i++ {
		if err := dev.WriteSector(i, zero); err != nil {
			return err
		}
	}
	return nil
}
