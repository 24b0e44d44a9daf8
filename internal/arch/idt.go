package arch

import "unsafe"

// IDTGate is a single 8-byte interrupt gate descriptor (spec §3 "IDT
// entry"): split offset, a fixed selector, and a flags byte distinguishing
// supervisor-only gates (0x8E) from the one DPL=3 syscall gate (0xEE).
type IDTGate struct {
	OffsetLow  uint16
	Selector   uint16
	Zero       uint8
	Flags      uint8
	OffsetHigh uint16
}

const idtEntries = 256

const (
	gateSupervisor = 0x8E
	gateUser       = 0xEE

	vectorIRQBase    = 32
	vectorIRQCount   = 16
	vectorSyscall    = 0x80
)

var idt [idtEntries]IDTGate

type idtr struct {
	limit uint16
	base  uint32
}

var idtRegister idtr

func encodeGate(handler uint32, selector uint16, flags uint8) IDTGate {
	return IDTGate{
		OffsetLow:  uint16(handler & 0xFFFF),
		Selector:   selector,
		Zero:       0,
		Flags:      flags,
		OffsetHigh: uint16((handler >> 16) & 0xFFFF),
	}
}

// BuildIDT installs all 256 gates: 0-31 exception stubs and 32-47 IRQ stubs
// at gateSupervisor, plus the 0x80 syscall gate at gateUser (DPL=3), per
// spec §4.1. vectorStubAddr, implemented in vectors_386.s, supplies the
// entry-point address for each vector.
func BuildIDT() {
	for v := 0; v < idtEntries; v++ {
		idt[v] = encodeGate(vectorStubAddr(uint32(v)), SelKernelCode, gateSupervisor)
	}
	idt[vectorSyscall] = encodeGate(vectorStubAddr(vectorSyscall), SelKernelCode, gateUser)

	idtRegister.limit = uint16(idtEntries*8 - 1)
	idtRegister.base = uint32(uintptr(unsafe.Pointer(&idt[0])))
}

// InitIDT loads the descriptor register built by BuildIDT.
func InitIDT() {
	loadIDT(&idtRegister)
}

//go:linkname loadIDT loadIDT
//go:nosplit
func loadIDT(reg *idtr)

// vectorStubAddr returns the address of vector v's entry stub in
// vectors_386.s. Vectors 0-31, 32-47, and 0x80 each have a distinct stub;
// every other vector shares unknownStub, which reports sentinel
// IntNo=0xFF. Exceptions that don't push a CPU error code have a stub that
// pushes a dummy 0 so commonISRHandler always sees a uniform TrapFrame.
//
//go:linkname vectorStubAddr vectorStubAddr
//go:nosplit
func vectorStubAddr(vector uint32) uint32
