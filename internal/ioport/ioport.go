// Package ioport provides byte/word/dword port I/O primitives for the i386
// device drivers (ATA, PIC, PIT, keyboard). Every function here is a thin
// go:linkname bridge to the plan9-assembly IN/OUT instructions in
// ioport_386.s, the same bridge-per-primitive shape the teacher uses for
// set_vbar_el1 and friends in exceptions.go.
package ioport

import _ "unsafe" // for go:linkname

//go:linkname inb inb
//go:nosplit
func inb(port uint16) uint8

//go:linkname outb outb
//go:nosplit
func outb(port uint16, value uint8)

//go:linkname inw inw
//go:nosplit
func inw(port uint16) uint16

//go:linkname outw outw
//go:nosplit
func outw(port uint16, value uint16)

//go:linkname inl inl
//go:nosplit
func inl(port uint16) uint32

//go:linkname outl outl
//go:nosplit
func outl(port uint16, value uint32)

// In8 reads a single byte from port.
func In8(port uint16) uint8 { return inb(port) }

// Out8 writes a single byte to port.
func Out8(port uint16, value uint8) { outb(port, value) }

// In16 reads a 16-bit word from port.
func In16(port uint16) uint16 { return inw(port) }

// Out16 writes a 16-bit word to port.
func Out16(port uint16, value uint16) { outw(port, value) }

// In32 reads a 32-bit dword from port.
func In32(port uint16) uint32 { return inl(port) }

// Out32 writes a 32-bit dword to port.
func Out32(port uint16, value uint32) { outl(port, value) }

// Wait performs a throwaway write to port 0x80, the conventional "IO delay"
// trick for giving a slow device time to react between two port accesses.
func Wait() { outb(0x80, 0) }
