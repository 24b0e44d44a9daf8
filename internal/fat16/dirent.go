package fat16

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

// DirEntrySize is the size in bytes of one on-disk directory entry
// (spec §3: "Directory entry (32 bytes)").
const DirEntrySize = 32

// Attribute bits, grounded in ostafen-digler/internal/disk/fat.go's
// ATTR_* constants.
const (
	AttrReadOnly = 0x01
	AttrHidden   = 0x02
	AttrSystem   = 0x04
	AttrVolume   = 0x08
	AttrDir      = 0x10
	AttrArchive  = 0x20
	AttrLFN      = 0x0F
)

const (
	entryFree    = 0x00 // marks end-of-directory when in name[0]
	entryDeleted = 0xE5 // marks a free/deleted slot
)

// rawDirEntry mirrors the canonical 32-byte DOS directory entry.
type rawDirEntry struct {
	Name       [8]byte
	Ext        [3]byte
	Attr       uint8
	Reserved   uint8
	CreateTime uint8
	CreateTS   uint16
	CreateDate uint16
	AccessDate uint16
	ClusterHi  uint16 // always 0 for FAT16
	WriteTime  uint16
	WriteDate  uint16
	ClusterLo  uint16
	Size       uint32
}

// DirEntry is the decoded, ergonomic view of a directory slot.
type DirEntry struct {
	Name         string // normalized "NAME.EXT" (or "NAME" with no extension)
	Attr         uint8
	FirstCluster uint16
	Size         uint32

	// slotSector/slotOffset identify where this entry lives on disk, for
	// in-place rewrites (rename, size update, deletion).
	slotSector uint32
	slotOffset int
}

// IsDir reports whether the entry names a directory.
func (e DirEntry) IsDir() bool { return e.Attr&AttrDir != 0 }

// encode83 splits and pads a human name into the fixed 8.3 form: uppercase,
// split at the first '.', name padded to 8 and extension padded to 3 with
// spaces (spec §4.4 "Filename coding").
func encode83(name string) ([8]byte, [3]byte, error) {
	var nameField [8]byte
	var extField [3]byte
	for i := range nameField {
		nameField[i] = ' '
	}
	for i := range extField {
		extField[i] = ' '
	}

	if name == "." || name == ".." {
		copy(nameField[:], name)
		return nameField, extField, nil
	}

	upper := strings.ToUpper(name)
	base := upper
	ext := ""
	if idx := strings.IndexByte(upper, '.'); idx >= 0 {
		base = upper[:idx]
		ext = upper[idx+1:]
	}

	if len(base) == 0 || len(base) > 8 {
		return nameField, extField, fmt.Errorf("fat16: name %q does not fit 8.3 base", name)
	}
	if len(ext) > 3 {
		return nameField, extField, fmt.Errorf("fat16: name %q does not fit 8.3 extension", name)
	}

	copy(nameField[:], base)
	copy(extField[:], ext)
	return nameField, extField, nil
}

// decode83 reverses encode83, producing "NAME.EXT" or bare "NAME" when
// there is no extension.
func decode83(nameField [8]byte, extField [3]byte) string {
	base := strings.TrimRight(string(nameField[:]), " ")
	ext := strings.TrimRight(string(extField[:]), " ")
	if ext == "" {
		return base
	}
	return base + "." + ext
}

func decodeDirEntry(buf []byte, sector uint32, offset int) (DirEntry, error) {
	var raw rawDirEntry
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &raw); err != nil {
		return DirEntry{}, fmt.Errorf("fat16: decoding directory entry: %w", err)
	}
	return DirEntry{
		Name:         decode83(raw.Name, raw.Ext),
		Attr:         raw.Attr,
		FirstCluster: raw.ClusterLo,
		Size:         raw.Size,
		slotSector:   sector,
		slotOffset:   offset,
	}, nil
}

func encodeDirEntry(name string, attr uint8, firstCluster uint16, size uint32) ([DirEntrySize]byte, error) {
	var out [DirEntrySize]byte
	nameField, extField, err := encode83(name)
	if err != nil {
		return out, err
	}
	raw := rawDirEntry{
		Name:      nameField,
		Ext:       extField,
		Attr:      attr,
		ClusterLo: firstCluster,
		Size:      size,
	}
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, &raw); err != nil {
		return out, fmt.Errorf("fat16: encoding directory entry: %w", err)
	}
	copy(out[:], buf.Bytes())
	return out, nil
}

// names83Equal compares two already-padded 11-byte 8.3 forms for equality
// (spec §4.4: "Equality compares the full 11-byte padded form").
func names83Equal(a, b string) bool {
	an, ae, errA := encode83(a)
	bn, be, errB := encode83(b)
	if errA != nil || errB != nil {
		return false
	}
	return an == bn && ae == be
}
