// Package heap implements the kernel's block-list allocator: kmalloc/kfree
// over a singly linked list of magic-tagged blocks (spec §4.3), extended
// from the teacher's heapSegment design with a corruption-detecting magic
// field.
package heap

import "unsafe"

// blockMagic tags every live header. A mismatch on free or during a walk
// means the heap has been corrupted (a stray write past an allocation,
// typically) and spec §4.9/§7 class 6 calls for halting rather than
// continuing on untrustworthy state.
const blockMagic = 0x4B484150 // "PAHK" little-endian reads back "KHAP"

const alignment = 4

// block is the header placed immediately before every allocation's data
// area, the same "header then data" shape as the teacher's heapSegment but
// with an added magic tag and a singly (not doubly) linked free list, since
// this allocator never needs to walk backward.
type block struct {
	magic uint32
	size  uint32 // total size including this header
	free  uint32
	next  *block
}

const headerSize = unsafe.Sizeof(block{})

// Panic is called when a magic check fails. Wired to console.Panic at boot;
// defaults to a no-op so the package is safe to import standalone (its
// table-driven tests override it to capture the call instead of halting).
var Panic = func(msg string) {}

var (
	head       *block
	arenaEnd   uintptr
	arenaLimit uintptr
)

// Init seeds the arena as one free block spanning [start, start+size) with
// no room to grow. Equivalent to InitWithLimit(start, size, size).
func Init(start uintptr, size uint32) {
	InitWithLimit(start, size, size)
}

// InitWithLimit seeds the arena as one free block spanning [start,
// start+size), but lets Alloc extend it up to start+limit on a miss
// (spec §4.3 "kmalloc(size) ... extends the arena on miss"). The caller is
// responsible for limit staying inside memory the kernel already owns.
func InitWithLimit(start uintptr, size, limit uint32) {
	start = alignUp(start)
	b := (*block)(unsafe.Pointer(start))
	*b = block{magic: blockMagic, size: size, free: 1, next: nil}
	head = b
	arenaEnd = start + uintptr(size)
	arenaLimit = start + uintptr(limit)
}

func alignUp(v uintptr) uintptr {
	return (v + alignment - 1) &^ (alignment - 1)
}

func alignSize(v uint32) uint32 {
	return uint32(alignUp(uintptr(v)))
}

// Alloc returns a pointer to a zeroed region of at least size bytes,
// first-fit searching the block list and splitting the winning block when
// the remainder is large enough to host another header, per spec §4.3. On
// a miss it extends the arena toward arenaLimit and retries once before
// returning nil.
func Alloc(size uint32) unsafe.Pointer {
	need := alignSize(size + uint32(headerSize))

	var tail *block
	for b := head; b != nil; b = b.next {
		checkMagic(b)
		tail = b
		if b.free == 0 || b.size < need {
			continue
		}
		if b.size >= need+uint32(headerSize)+alignment {
			splitBlock(b, need)
		}
		b.free = 0
		data := dataOf(b)
		clear(unsafe.Slice((*byte)(data), size))
		return data
	}

	if growArena(tail, need) {
		return Alloc(size)
	}
	return nil
}

// growArena extends the arena's tail block, or appends a new one right
// after it, up to arenaLimit, so the next Alloc retry can satisfy need.
// Returns false when arenaLimit is already reached.
func growArena(tail *block, need uint32) bool {
	if tail == nil {
		return false
	}
	if tail.free == 1 {
		avail := uint32(arenaLimit - uintptr(unsafe.Pointer(tail)))
		if avail < need {
			return false
		}
		tail.size = avail
		arenaEnd = arenaLimit
		return true
	}
	avail := arenaLimit - arenaEnd
	if avail < uintptr(need) {
		return false
	}
	newBlock := (*block)(unsafe.Pointer(arenaEnd))
	*newBlock = block{magic: blockMagic, size: uint32(avail), free: 1, next: nil}
	tail.next = newBlock
	arenaEnd = arenaLimit
	return true
}

func splitBlock(b *block, used uint32) {
	remainder := b.size - used
	newAddr := uintptr(unsafe.Pointer(b)) + uintptr(used)
	newBlock := (*block)(unsafe.Pointer(newAddr))
	*newBlock = block{magic: blockMagic, size: remainder, free: 1, next: b.next}
	b.size = used
	b.next = newBlock
}

func dataOf(b *block) unsafe.Pointer {
	return unsafe.Pointer(uintptr(unsafe.Pointer(b)) + headerSize)
}

func headerOf(ptr unsafe.Pointer) *block {
	return (*block)(unsafe.Pointer(uintptr(ptr) - headerSize))
}

func checkMagic(b *block) {
	if b.magic != blockMagic {
		Panic("heap: corrupted block header")
	}
}

// Free marks ptr's block free and coalesces with its free neighbor to the
// right in a single pass; the list is singly linked, so coalescing left
// is skipped (matching the teacher's left-to-right merge given a simpler
// list shape than the teacher's doubly linked one).
func Free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	b := headerOf(ptr)
	checkMagic(b)
	b.free = 1

	for b.next != nil && b.next.free == 1 {
		checkMagic(b.next)
		b.size += b.next.size
		b.next = b.next.next
	}
}
