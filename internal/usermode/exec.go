// Package usermode implements exec: loading an ELF32 binary from the
// mounted filesystem, laying out its argv stack, and performing the ring
// transition into it (spec §4.6, §4.7).
package usermode

import (
	"fmt"
	"unsafe"

	"astraos/internal/arch"
	"astraos/internal/elf"
	"astraos/internal/fat16"
	"astraos/internal/memlayout"
)

// fileReader adapts a fat16.Filesystem path into elf.Reader.
type fileReader struct {
	fs   *fat16.Filesystem
	path string
	size uint32
}

func newFileReader(fs *fat16.Filesystem, path string) (*fileReader, error) {
	entry, isDir, exists, err := fs.Stat(path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("usermode: exec: %q not found", path)
	}
	if isDir {
		return nil, fmt.Errorf("usermode: exec: %q is a directory", path)
	}
	return &fileReader{fs: fs, path: path, size: entry.Size}, nil
}

func (r *fileReader) Size() uint32 { return r.size }

func (r *fileReader) ReadAt(offset uint32, out []byte) (int, error) {
	return r.fs.ReadAt(r.path, offset, out)
}

// physMemory implements elf.Memory and syscall.Memory directly against
// identity-mapped physical memory: vaddr == paddr in this kernel's single
// 4 MiB region, so WriteAt/ZeroAt/ReadAt are plain pointer copies.
type physMemory struct{}

// Mem is the one physical-memory adapter the kernel wires into both the
// loader and the syscall gate.
var Mem physMemory

func (physMemory) WriteAt(vaddr uint32, data []byte) error {
	dst := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(vaddr))), len(data))
	copy(dst, data)
	return nil
}

func (physMemory) ZeroAt(vaddr uint32, length uint32) error {
	dst := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(vaddr))), length)
	for i := range dst {
		dst[i] = 0
	}
	return nil
}

func (physMemory) ReadAt(addr uint32, out []byte) error {
	src := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(addr))), len(out))
	copy(out, src)
	return nil
}

// Exec loads path's ELF image, lays out argv on the user stack, switches
// the page-table U bits from the previous image to the new one, and enters
// user mode at the loaded entry point. It returns only after the user
// process issues SYS_EXIT (spec §2's "never returns" language describes
// the user program's view, not this function's — EnterUserModeAndWait
// resumes here via resumeKernelAfterExit once SYS_EXIT fires).
func Exec(fs *fat16.Filesystem, path string, argv []string) (exitCode int32, err error) {
	reader, err := newFileReader(fs, path)
	if err != nil {
		return -1, err
	}

	image, err := elf.Load(reader, Mem)
	if err != nil {
		return -1, fmt.Errorf("usermode: exec: %w", err)
	}

	sp, err := buildArgvStack(argv)
	if err != nil {
		return -1, fmt.Errorf("usermode: exec: %w", err)
	}

	arch.ClearUser(memlayout.UserMinVAddr, memlayout.UserStackTop)
	arch.MarkUser(image.Low, image.High)
	arch.MarkUser(memlayout.UserStackBase, memlayout.UserStackTop)

	return enterAndWait(image.Entry, sp)
}

// buildArgvStack writes argv strings descending from USER_STACK_TOP, then a
// 16-byte-aligned array of pointers to them terminated by a NULL pointer,
// then the array's address, then argc, per spec §4.6. Cap argc at memlayout.MaxArgc and each
// string at memlayout.MaxArgLen bytes.
func buildArgvStack(argv []string) (uint32, error) {
	if len(argv) > memlayout.MaxArgc {
		return 0, fmt.Errorf("too many arguments: %d > %d", len(argv), memlayout.MaxArgc)
	}

	sp := uint32(memlayout.UserStackTop)
	ptrs := make([]uint32, len(argv))

	for i, s := range argv {
		if len(s) >= memlayout.MaxArgLen {
			return 0, fmt.Errorf("argument %d exceeds %d bytes", i, memlayout.MaxArgLen)
		}
		data := append([]byte(s), 0)
		sp -= uint32(len(data))
		if err := Mem.WriteAt(sp, data); err != nil {
			return 0, err
		}
		ptrs[i] = sp
	}

	sp &^= 0xF // align down to 16 bytes before the pointer array

	arraySize := uint32(len(ptrs)+1) * 4
	sp -= arraySize
	sp &^= 0xF

	arrayBase := sp
	for i, p := range ptrs {
		writeWord(arrayBase+uint32(i)*4, p)
	}
	writeWord(arrayBase+uint32(len(ptrs))*4, 0)

	sp -= 4
	writeWord(sp, arrayBase)

	sp -= 4
	writeWord(sp, uint32(len(argv)))

	return sp, nil
}

func writeWord(addr uint32, v uint32) {
	var b [4]byte
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
	Mem.WriteAt(addr, b[:])
}
