// Package pit drives the 8253/8254 Programmable Interval Timer, channel 0,
// mode 3 (square wave), and owns the single tick counter the kernel reads
// from outside interrupt context (spec §5: "the timer tick counter is the
// only kernel data structure modified by an interrupt handler that is read
// elsewhere").
package pit

import (
	_ "unsafe" // for go:linkname

	"astraos/internal/ioport"
)

const (
	portChannel0 = 0x40
	portCommand  = 0x43

	baseFrequency = 1193180

	mode3SquareWave = 0x36
)

var ticks uint32

// Init programs channel 0 for mode 3 at the given frequency in Hz,
// computing the 16-bit reload value from the 1193180 Hz base (spec §6).
func Init(hz uint32) {
	divisor := baseFrequency / hz
	ioport.Out8(portCommand, mode3SquareWave)
	ioport.Out8(portChannel0, uint8(divisor&0xFF))
	ioport.Out8(portChannel0, uint8((divisor>>8)&0xFF))
}

// Tick is called from the IRQ0 handler. The counter is a single 32-bit
// word, treated as atomic on i386 per spec §5, so no further
// synchronization is needed between this write and Ticks' reads.
func Tick() {
	ticks++
}

// Ticks returns the current tick count.
func Ticks() uint32 {
	return ticks
}

// Sleep busy-waits via sti;hlt until at least n ticks have elapsed, the
// only other voluntary-yield point besides the boot idle loop (spec §5
// "timer_sleep").
func Sleep(n uint32) {
	target := ticks + n
	for ticks < target {
		haltUntilInterrupt()
	}
}

//go:linkname haltUntilInterrupt haltUntilInterrupt
//go:nosplit
func haltUntilInterrupt()
