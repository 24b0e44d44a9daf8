package arch

import (
	"unsafe"

	"astraos/internal/bitfield"
)

// Page size and the single 4 MiB region this kernel ever maps (spec §1
// Non-goals: "paging beyond 4 MiB" is explicitly out of scope).
const (
	PageSize       = 4096
	entriesPerTbl  = 1024
	identityRegion = entriesPerTbl * PageSize // 4 MiB
)

// PageDirectory and PageTable are the two static tables spec §4.2 calls
// for: "allocate one static page directory and one static page table,
// identity-map the first 4 MiB". Both are 4 KiB aligned by the linker
// placing them in their own section; that placement is asserted, not
// performed, here (the linker script is outside this package's scope).
type PageDirectory [entriesPerTbl]uint32
type PageTable [entriesPerTbl]uint32

var pageDirectory PageDirectory
var pageTable PageTable

func pteFlags(present, writable, user bool) uint32 {
	packed, err := bitfield.PackPTEFlags(bitfield.PTEFlags{
		Present:  present,
		Writable: writable,
		User:     user,
	})
	if err != nil {
		panic(err)
	}
	return packed
}

// InitPaging identity-maps the first 4 MiB with P|R/W (supervisor-only by
// default), sets PDE[0]'s U bit so ring 3 can reach whatever user PTEs
// later appear inside it (spec §3 invariant, §4.2), loads CR3, and sets
// CR0.PG.
func InitPaging() {
	for i := range pageTable {
		frame := uint32(i) * PageSize
		pageTable[i] = frame | pteFlags(true, true, false)
	}

	pageDirectory[0] = (pageTableAddr() & 0xFFFFF000) | pteFlags(true, true, true)
	for i := 1; i < entriesPerTbl; i++ {
		pageDirectory[i] = 0 // not-present
	}

	loadCR3(pageDirectoryAddr())
	enablePaging()
}

func pageTableAddr() uint32     { return addrOf(&pageTable[0]) }
func pageDirectoryAddr() uint32 { return addrOf(&pageDirectory[0]) }

// MarkUser ORs the U bit onto every PTE covering [start, end) within the
// first 4 MiB, page-aligning start down and end up, then flushes the TLB.
// Addresses outside the identity-mapped region are ignored (spec §4.2).
func MarkUser(start, end uint32) {
	walkRange(start, end, func(i int) { pageTable[i] |= pteFlags(false, false, true) })
}

// ClearUser ANDs off the U bit over the same range as MarkUser.
func ClearUser(start, end uint32) {
	walkRange(start, end, func(i int) { pageTable[i] &^= pteFlags(false, false, true) })
}

// ProtectKernel clears U on every PTE covering [kernelStart, kernelEnd),
// the one-shot call spec §4.2 names "protect_kernel()".
func ProtectKernel(kernelStart, kernelEnd uint32) {
	ClearUser(kernelStart, kernelEnd)
}

func walkRange(start, end uint32, apply func(i int)) {
	alignedStart := start &^ (PageSize - 1)
	alignedEnd := (end + PageSize - 1) &^ (PageSize - 1)
	if alignedStart >= identityRegion {
		return
	}
	if alignedEnd > identityRegion {
		alignedEnd = identityRegion
	}
	for addr := alignedStart; addr < alignedEnd; addr += PageSize {
		apply(int(addr / PageSize))
	}
	flushTLB()
}

func flushTLB() {
	loadCR3(pageDirectoryAddr())
}

func addrOf(p *uint32) uint32 { return uint32(uintptr(unsafe.Pointer(p))) }

//go:linkname loadCR3 loadCR3
//go:nosplit
func loadCR3(physAddr uint32)

//go:linkname enablePaging enablePaging
//go:nosplit
func enablePaging()
