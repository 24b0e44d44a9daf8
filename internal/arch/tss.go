package arch

import "unsafe"

// TSS is the single kernel-global Task State Segment (spec §3 "TSS"). Only
// esp0/ss0 are ever mutated after init; every other field is fixed at
// construction to user selectors with RPL 3 so a task switch (never
// performed by this kernel) could not escalate privilege.
type TSS struct {
	prevTask uint32
	esp0     uint32
	ss0      uint32
	esp1     uint32
	ss1      uint32
	esp2     uint32
	ss2      uint32
	cr3      uint32
	eip      uint32
	eflags   uint32
	eax, ecx, edx, ebx uint32
	esp, ebp           uint32
	esi, edi           uint32
	es, cs, ss, ds, fs, gs uint32
	ldt      uint32
	trap     uint16
	iomapBase uint16
}

var kernelTSS TSS

// interruptStack is the fixed stack the CPU switches to on every ring 3 to
// ring 0 transition (hardware loads ESP from TSS.esp0 whenever a trap
// raises privilege). One static array is enough: this kernel never takes a
// nested trap from ring 3 while already servicing one.
var interruptStack [16384]byte

// BuildTSS zeroes and seeds the TSS: ss0=0x10 per spec, data segments set to
// the user selectors (RPL 3), esp0 pointed at the top of the static
// interrupt stack, and iomap_base = sizeof(TSS) so no I/O port is permitted
// from ring 3.
func BuildTSS() {
	kernelTSS = TSS{
		ss0: SelKernelData,
		es:  SelUserData,
		ss:  SelUserData,
		ds:  SelUserData,
		fs:  SelUserData,
		gs:  SelUserData,
	}
	kernelTSS.esp0 = uint32(uintptr(unsafe.Pointer(&interruptStack[0]))) + uint32(len(interruptStack))
	kernelTSS.iomapBase = uint16(unsafe.Sizeof(TSS{}))
}

// TSSBaseAndLimit returns the address/size pair InitGDT's TSS descriptor
// needs.
func TSSBaseAndLimit() (base uint32, limit uint32) {
	return uint32(uintptr(unsafe.Pointer(&kernelTSS))), uint32(unsafe.Sizeof(TSS{}) - 1)
}

// SetKernelStack updates only esp0, the field consulted on every ring 3 to
// ring 0 transition (spec §4.1 "tss_set_kernel_stack").
func SetKernelStack(esp0 uint32) {
	kernelTSS.esp0 = esp0
}

// LoadTaskRegister executes ltr against the TSS selector.
func LoadTaskRegister() {
	ltr(SelTSS)
}

//go:linkname ltr ltr
//go:nosplit
func ltr(selector uint16)
