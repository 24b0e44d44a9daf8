// Package arch holds the i386-specific CPU bring-up code: the GDT/TSS, the
// IDT and its trap stubs, the 8259 PIC remap, and the first-4-MiB paging
// setup. It plays the role the teacher's own `src/go/mazarin` package plays
// for ARM64 — go:nosplit/go:linkname bridges to a handful of hand-written
// assembly routines, with everything that can be expressed in portable Go
// written in Go.
package arch

import (
	"unsafe"

	"astraos/internal/bitfield"
)

// SegmentDescriptor is the 8-byte GDT entry shape (spec data model
// "Segment descriptor"): base, limit, access byte, granularity byte.
type SegmentDescriptor struct {
	LimitLow  uint16
	BaseLow   uint16
	BaseMid   uint8
	Access    uint8
	GranLimit uint8 // high nibble of limit packed with granularity flags
	BaseHigh  uint8
}

// Selectors, matching spec §3 exactly.
const (
	SelNull       = 0x00
	SelKernelCode = 0x08
	SelKernelData = 0x10
	SelUserCode   = 0x1B
	SelUserData   = 0x23
	SelTSS        = 0x2B
)

const gdtEntries = 6

var gdt [gdtEntries]SegmentDescriptor

// gdtr is the 6-byte descriptor register value: 2-byte limit, 4-byte base.
type gdtr struct {
	limit uint16
	base  uint32
}

var gdtRegister gdtr

func encodeDescriptor(base uint32, limit uint32, access byte, gran byte) SegmentDescriptor {
	return SegmentDescriptor{
		LimitLow:  uint16(limit & 0xFFFF),
		BaseLow:   uint16(base & 0xFFFF),
		BaseMid:   uint8((base >> 16) & 0xFF),
		Access:    access,
		GranLimit: (gran & 0xF0) | uint8((limit>>16)&0x0F),
		BaseHigh:  uint8((base >> 24) & 0xFF),
	}
}

func accessByte(accessed, rw, dc, exec, codeOrData bool, dpl uint32, present bool) byte {
	a := bitfield.SegmentAccess{
		Accessed:       accessed,
		ReadWrite:      rw,
		DirectionConf:  dc,
		Executable:     exec,
		DescriptorType: codeOrData,
		Privilege:      dpl,
		Present:        present,
	}
	b, err := bitfield.PackSegmentAccess(a)
	if err != nil {
		panic(err)
	}
	return b
}

func granByte(limitHigh uint32, avl, long, size, gran bool) byte {
	g := bitfield.SegmentGranularity{
		LimitHigh:   limitHigh,
		Available:   avl,
		LongMode:    long,
		Size:        size,
		Granularity: gran,
	}
	b, err := bitfield.PackSegmentGranularity(g)
	if err != nil {
		panic(err)
	}
	return b
}

// BuildGDT populates the 6 fixed descriptors spec §3 names: null, kernel
// code/data, user code/data, TSS. tssBase/tssLimit are supplied by the
// caller once the TSS structure's address is known.
func BuildGDT(tssBase uint32, tssLimit uint32) {
	gdt[0] = SegmentDescriptor{}

	// Kernel code: access 0x9A, granularity 0xCF (4 KiB pages, 32-bit, full 4 GiB limit).
	gdt[1] = encodeDescriptor(0, 0xFFFFF,
		accessByte(false, true, false, true, true, 0, true),
		granByte(0, false, false, true, true))

	// Kernel data: access 0x92.
	gdt[2] = encodeDescriptor(0, 0xFFFFF,
		accessByte(false, true, false, false, true, 0, true),
		granByte(0, false, false, true, true))

	// User code: access 0xFA (DPL=3).
	gdt[3] = encodeDescriptor(0, 0xFFFFF,
		accessByte(false, true, false, true, true, 3, true),
		granByte(0, false, false, true, true))

	// User data: access 0xF2 (DPL=3).
	gdt[4] = encodeDescriptor(0, 0xFFFFF,
		accessByte(false, true, false, false, true, 3, true),
		granByte(0, false, false, true, true))

	// TSS: access 0x89 (present, DPL=0, type=9 32-bit TSS available,
	// S=0 system descriptor), granularity byte 0x00 (byte granularity).
	gdt[5] = encodeDescriptor(tssBase, tssLimit, 0x89, 0x00)

	gdtRegister.limit = uint16(gdtEntries*8 - 1)
	gdtRegister.base = uint32(uintptr(unsafe.Pointer(&gdt[0])))
}

// InitGDT installs the descriptor table and reloads every segment register,
// matching spec §4.1's "far jump that reloads CS=0x08 and sets data
// segments to 0x10".
func InitGDT() {
	loadGDT(&gdtRegister)
	reloadSegments(SelKernelCode, SelKernelData)
}

//go:linkname loadGDT loadGDT
//go:nosplit
func loadGDT(reg *gdtr)

//go:linkname reloadSegments reloadSegments
//go:nosplit
func reloadSegments(codeSel, dataSel uint16)
