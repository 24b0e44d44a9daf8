package arch

import _ "unsafe" // for go:linkname

// TrapFrame mirrors exactly the layout the entry stubs in vectors_386.s
// push before calling into Go (spec §3 "Trap frame"): segment register,
// the pusha block, the vector/error-code pair, then the CPU-pushed
// iret frame.
type TrapFrame struct {
	DS uint32

	EDI, ESI, EBP, ESP, EBX, EDX, ECX, EAX uint32

	IntNo, ErrCode uint32

	EIP, CS, EFlags, UserESP, SS uint32
}

// Console is the minimal sink commonISRHandler/commonIRQHandler print
// through. Supplied at boot by internal/boot so this package stays free of
// a hard dependency on internal/console.
type Console interface {
	WriteString(s string)
	PutHex32(v uint32)
}

var panicConsole Console

// SetPanicConsole wires the console used for fatal-exception diagnostics.
func SetPanicConsole(c Console) { panicConsole = c }

// IRQHandler is the signature for a registered hardware-interrupt handler.
type IRQHandler func()

var irqHandlers [vectorIRQCount]IRQHandler

// RegisterIRQHandler installs the handler called for IRQ line irq (0-15).
func RegisterIRQHandler(irq int, handler IRQHandler) {
	irqHandlers[irq] = handler
}

// SyscallHandler is the signature the syscall gate is invoked through.
type SyscallHandler func(eax, ebx, ecx, edx uint32) (result int32, exit bool, exitCode int32)

var syscallHandler SyscallHandler

// RegisterSyscallHandler wires the dispatcher int 0x80 calls into.
func RegisterSyscallHandler(h SyscallHandler) { syscallHandler = h }

var exceptionNames = [32]string{
	0: "Divide-by-zero", 1: "Debug", 2: "NMI", 3: "Breakpoint",
	4: "Overflow", 5: "Bound range exceeded", 6: "Invalid opcode",
	7: "Device not available", 8: "Double fault", 9: "Segment overrun",
	10: "Invalid TSS", 11: "Segment not present", 12: "Stack-segment fault",
	13: "General protection fault", 14: "Page fault", 16: "x87 FP exception",
	17: "Alignment check", 18: "Machine check", 19: "SIMD FP exception",
}

// commonISRHandler is called by every exception stub (vectors 0-31) via
// go:linkname from vectors_386.s, with frame populated exactly as
// TrapFrame describes. Vector 14 (page fault) additionally decodes CR2 and
// the error bitmask, per spec §4.1. Every exception is fatal: print class,
// number, error, and halt — there is no recoverable path in this kernel.
//
//go:nosplit
func commonISRHandler(frame *TrapFrame) {
	name := "Unknown exception"
	if int(frame.IntNo) < len(exceptionNames) && exceptionNames[frame.IntNo] != "" {
		name = exceptionNames[frame.IntNo]
	}

	if panicConsole != nil {
		panicConsole.WriteString("PANIC: ")
		panicConsole.WriteString(name)
		panicConsole.WriteString(" (vector ")
		panicConsole.PutHex32(frame.IntNo)
		panicConsole.WriteString(", error ")
		panicConsole.PutHex32(frame.ErrCode)
		panicConsole.WriteString(") at eip=")
		panicConsole.PutHex32(frame.EIP)
		if frame.IntNo == 14 {
			panicConsole.WriteString(" cr2=")
			panicConsole.PutHex32(readCR2())
			panicConsole.WriteString(decodePageFaultCause(frame.ErrCode))
		}
		panicConsole.WriteString("\n")
	}
	haltForever()
}

// commonIRQHandler is called by every IRQ stub (vectors 32-47). It looks up
// the handler slot by int_no-32, invokes it if present, and sends EOI
// (slave first when irq >= 8, then always master), matching spec §4.1.
//
//go:nosplit
func commonIRQHandler(frame *TrapFrame) {
	irq := int(frame.IntNo - vectorIRQBase)
	if irq >= 0 && irq < vectorIRQCount && irqHandlers[irq] != nil {
		irqHandlers[irq]()
	}
	sendEOI(irq)
}

// commonSyscallHandler is called by the int 0x80 stub. It writes the
// result into frame.EAX so the stub's iret delivers it to user, per spec
// §4.8's "result written into the saved eax slot". SYS_EXIT is signaled by
// exit=true and diverges: it never reaches the iret path, instead jumping
// straight to the saved kernel context (resumeKernelAfterExit in asm_386.s).
//
//go:nosplit
func commonSyscallHandler(frame *TrapFrame) {
	if syscallHandler == nil {
		frame.EAX = 0xFFFFFFFF // -1
		return
	}
	result, exit, exitCode := syscallHandler(frame.EAX, frame.EBX, frame.ECX, frame.EDX)
	if exit {
		resumeKernelAfterExit(exitCode)
		return
	}
	frame.EAX = uint32(result)
}

func decodePageFaultCause(errCode uint32) string {
	cause := " ("
	if errCode&1 == 0 {
		cause += "not-present"
	} else {
		cause += "protection-violation"
	}
	if errCode&2 != 0 {
		cause += ",write"
	} else {
		cause += ",read"
	}
	if errCode&4 != 0 {
		cause += ",user"
	} else {
		cause += ",supervisor"
	}
	return cause + ")"
}

//go:linkname readCR2 readCR2
//go:nosplit
func readCR2() uint32

//go:linkname haltForever haltForever
//go:nosplit
func haltForever()

//go:linkname resumeKernelAfterExit resumeKernelAfterExit
//go:nosplit
func resumeKernelAfterExit(exitCode int32)
