// Package elf implements the narrow ELF32 loader this kernel needs: read
// a validated ET_EXEC/EM_386 image's PT_LOAD segments directly into
// identity-mapped user memory and report its entry point and covered
// range (spec §4.5). There is no relocation, no dynamic linking, and no
// section-header processing — only what's required to start one static
// executable.
package elf

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"astraos/internal/memlayout"
)

const (
	ehSize = 52 // ELF32 file header size
	phSize = 32 // ELF32 program header entry size

	classELF32    = 1
	dataLSB       = 2
	evCurrent     = 1
	typeExec      = 2
	machine386    = 3
	ptLoad        = 1
	maxProgHeader = 32
)

var magic = [4]byte{0x7F, 'E', 'L', 'F'}

type fileHeader struct {
	Ident     [16]byte
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint32
	Phoff     uint32
	Shoff     uint32
	Flags     uint32
	Ehsize    uint16
	Phentsize uint16
	Phnum     uint16
	Shentsize uint16
	Shnum     uint16
	Shstrndx  uint16
}

type progHeader struct {
	Type   uint32
	Offset uint32
	Vaddr  uint32
	Paddr  uint32
	Filesz uint32
	Memsz  uint32
	Flags  uint32
	Align  uint32
}

// Reader is the narrow file interface the loader needs: random-access
// byte reads plus the total file size, used to reject a program-header
// table or segment extent that overruns the file. A fat16.Filesystem's
// ReadAt, bound to one path, satisfies this through a small adapter in
// the usermode package.
type Reader interface {
	Size() uint32
	ReadAt(offset uint32, out []byte) (int, error)
}

// Memory is the destination for PT_LOAD segment bytes: the identity-mapped
// physical address space, addressed by virtual address. A real kernel
// implements this with a raw unsafe.Pointer copy; tests use an in-memory
// byte-slice fake.
type Memory interface {
	WriteAt(vaddr uint32, data []byte) error
	ZeroAt(vaddr uint32, length uint32) error
}

// Image describes a successfully loaded program: its entry point and the
// [Low, High) virtual-address range its segments occupy.
type Image struct {
	Entry uint32
	Low   uint32
	High  uint32
}

func readFull(r Reader, offset uint32, n int) ([]byte, error) {
	buf := make([]byte, n)
	got, err := r.ReadAt(offset, buf)
	if err != nil {
		return nil, err
	}
	if got != n {
		return nil, fmt.Errorf("elf: short read at offset %d: got %d want %d", offset, got, n)
	}
	return buf, nil
}

// Load validates r's ELF32 header and program headers, copies every
// PT_LOAD segment into mem, zero-fills each segment's BSS tail, and
// returns the loaded image's entry point and covered range.
func Load(r Reader, mem Memory) (Image, error) {
	fileSize := r.Size()

	hdrBuf, err := readFull(r, 0, ehSize)
	if err != nil {
		return Image{}, fmt.Errorf("elf: reading header: %w", err)
	}
	var hdr fileHeader
	if err := binary.Read(bytes.NewReader(hdrBuf), binary.LittleEndian, &hdr); err != nil {
		return Image{}, fmt.Errorf("elf: decoding header: %w", err)
	}

	if hdr.Ident[0] != magic[0] || hdr.Ident[1] != magic[1] || hdr.Ident[2] != magic[2] || hdr.Ident[3] != magic[3] {
		return Image{}, fmt.Errorf("elf: bad magic")
	}
	if hdr.Ident[4] != classELF32 {
		return Image{}, fmt.Errorf("elf: not ELFCLASS32")
	}
	if hdr.Ident[5] != dataLSB {
		return Image{}, fmt.Errorf("elf: not ELFDATA2LSB")
	}
	if hdr.Ident[6] != evCurrent {
		return Image{}, fmt.Errorf("elf: bad EI_VERSION")
	}
	if hdr.Type != typeExec {
		return Image{}, fmt.Errorf("elf: not ET_EXEC")
	}
	if hdr.Machine != machine386 {
		return Image{}, fmt.Errorf("elf: not EM_386")
	}
	if hdr.Version != evCurrent {
		return Image{}, fmt.Errorf("elf: bad e_version")
	}
	if hdr.Phentsize != phSize {
		return Image{}, fmt.Errorf("elf: unexpected program header entry size %d", hdr.Phentsize)
	}
	if hdr.Phnum == 0 || hdr.Phnum > maxProgHeader {
		return Image{}, fmt.Errorf("elf: program header count %d out of range", hdr.Phnum)
	}

	tableEnd := hdr.Phoff + uint32(hdr.Phnum)*phSize
	if tableEnd < hdr.Phoff || tableEnd > fileSize {
		return Image{}, fmt.Errorf("elf: program header table escapes file")
	}

	var low, high uint32
	haveRange := false
	for i := uint16(0); i < hdr.Phnum; i++ {
		phBuf, err := readFull(r, hdr.Phoff+uint32(i)*phSize, phSize)
		if err != nil {
			return Image{}, fmt.Errorf("elf: reading program header %d: %w", i, err)
		}
		var ph progHeader
		if err := binary.Read(bytes.NewReader(phBuf), binary.LittleEndian, &ph); err != nil {
			return Image{}, fmt.Errorf("elf: decoding program header %d: %w", i, err)
		}
		if ph.Type != ptLoad || ph.Memsz == 0 {
			continue
		}

		fileEnd := ph.Offset + ph.Filesz
		if fileEnd < ph.Offset || fileEnd > fileSize {
			return Image{}, fmt.Errorf("elf: segment %d file extent escapes file", i)
		}
		vEnd := ph.Vaddr + ph.Memsz
		if vEnd < ph.Vaddr || ph.Vaddr < memlayout.UserMinVAddr || vEnd > memlayout.UserMaxVAddr {
			return Image{}, fmt.Errorf("elf: segment %d virtual range [%#x,%#x) escapes user region", i, ph.Vaddr, vEnd)
		}
		if ph.Filesz > ph.Memsz {
			return Image{}, fmt.Errorf("elf: segment %d filesz exceeds memsz", i)
		}

		if ph.Filesz > 0 {
			data, err := readFull(r, ph.Offset, int(ph.Filesz))
			if err != nil {
				return Image{}, fmt.Errorf("elf: reading segment %d: %w", i, err)
			}
			if err := mem.WriteAt(ph.Vaddr, data); err != nil {
				return Image{}, fmt.Errorf("elf: writing segment %d: %w", i, err)
			}
		}
		if bssLen := ph.Memsz - ph.Filesz; bssLen > 0 {
			if err := mem.ZeroAt(ph.Vaddr+ph.Filesz, bssLen); err != nil {
				return Image{}, fmt.Errorf("elf: zeroing segment %d bss: %w", i, err)
			}
		}

		if !haveRange || ph.Vaddr < low {
			low = ph.Vaddr
		}
		if !haveRange || vEnd > high {
			high = vEnd
		}
		haveRange = true
	}

	if !haveRange {
		return Image{}, fmt.Errorf("elf: no PT_LOAD segments")
	}
	if hdr.Entry < low || hdr.Entry >= high {
		return Image{}, fmt.Errorf("elf: entry %#x outside loaded range [%#x,%#x)", hdr.Entry, low, high)
	}

	return Image{Entry: hdr.Entry, Low: low, High: high}, nil
}
