package syscall

import (
	"fmt"

	"astraos/internal/memlayout"
)

// UserPtr is a validated address inside the fixed user region (spec §9:
// "wrap raw user addresses in a typed user pointer and perform bounded,
// non-trusting copy-in/copy-out"). The zero value is never a valid
// UserPtr since address 0 is below memlayout.UserMinVAddr.
type UserPtr uint32

// Memory is the copy-in/copy-out surface over the identity-mapped user
// address space. A real kernel implements it with bounds-checked
// unsafe.Pointer reads/writes; tests use a byte-slice fake.
type Memory interface {
	ReadAt(addr uint32, out []byte) error
	WriteAt(addr uint32, data []byte) error
}

func inUserRange(addr, length uint32) bool {
	end := addr + length
	return addr >= memlayout.UserMinVAddr && end >= addr && end <= memlayout.UserStackTop
}

// ReadCString copies a NUL-terminated string from user memory, rejecting
// pointers or runs that exceed max bytes or escape the user range.
func ReadCString(mem Memory, ptr UserPtr, max int) (string, error) {
	if !inUserRange(uint32(ptr), 1) {
		return "", fmt.Errorf("syscall: pointer %#x out of user range", ptr)
	}
	buf := make([]byte, max)
	if err := mem.ReadAt(uint32(ptr), buf); err != nil {
		return "", fmt.Errorf("syscall: reading string at %#x: %w", ptr, err)
	}
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i]), nil
		}
	}
	return "", fmt.Errorf("syscall: string at %#x not NUL-terminated within %d bytes", ptr, max)
}

// CopyIn reads n bytes of user memory at ptr.
func CopyIn(mem Memory, ptr UserPtr, n int) ([]byte, error) {
	if !inUserRange(uint32(ptr), uint32(n)) {
		return nil, fmt.Errorf("syscall: read at %#x length %d exceeds user range", ptr, n)
	}
	buf := make([]byte, n)
	if err := mem.ReadAt(uint32(ptr), buf); err != nil {
		return nil, fmt.Errorf("syscall: reading %d bytes at %#x: %w", n, ptr, err)
	}
	return buf, nil
}

// CopyOut writes data into user memory at ptr.
func CopyOut(mem Memory, ptr UserPtr, data []byte) error {
	if !inUserRange(uint32(ptr), uint32(len(data))) {
		return fmt.Errorf("syscall: write at %#x length %d exceeds user range", ptr, len(data))
	}
	if err := mem.WriteAt(uint32(ptr), data); err != nil {
		return fmt.Errorf("syscall: writing %d bytes at %#x: %w", len(data), ptr, err)
	}
	return nil
}
