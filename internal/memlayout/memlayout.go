// Package memlayout holds the fixed virtual-address ranges every loaded
// user program and its stack must live inside (spec §3 "Loaded program
// image", §4.6 "Exec and user-stack layout"). Keeping these constants in
// one leaf package lets the loader, the exec path, and the syscall
// pointer validator agree on the same numbers without importing each
// other.
package memlayout

const (
	// UserMinVAddr and UserMaxVAddr bound every PT_LOAD segment and the
	// program's entry point.
	UserMinVAddr = 0x00200000
	UserMaxVAddr = 0x003F0000

	// UserStackBase and UserStackTop bound the fixed user stack region,
	// outside the loaded-image range.
	UserStackBase = 0x003FC000
	UserStackTop  = 0x00400000

	// MaxArgc and MaxArgLen cap the argv the exec path will marshal onto
	// the user stack.
	MaxArgc   = 32
	MaxArgLen = 256
)
