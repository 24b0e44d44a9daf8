// Package kbd decodes PS/2 Set 1 scancodes from the keyboard data port
// into ASCII, feeding the interactive shell (spec §6: "keyboard data at
// 0x60"). It is a thin, ambient input layer; no part of the filesystem or
// syscall spec depends on it.
package kbd

import "astraos/internal/ioport"

const portData = 0x60

const releaseBit = 0x80

var lowerMap = [128]byte{
	0x02: '1', 0x03: '2', 0x04: '3', 0x05: '4', 0x06: '5',
	0x07: '6', 0x08: '7', 0x09: '8', 0x0A: '9', 0x0B: '0',
	0x0C: '-', 0x0D: '=',
	0x10: 'q', 0x11: 'w', 0x12: 'e', 0x13: 'r', 0x14: 't',
	0x15: 'y', 0x16: 'u', 0x17: 'i', 0x18: 'o', 0x19: 'p',
	0x1E: 'a', 0x1F: 's', 0x20: 'd', 0x21: 'f', 0x22: 'g',
	0x23: 'h', 0x24: 'j', 0x25: 'k', 0x26: 'l',
	0x2C: 'z', 0x2D: 'x', 0x2E: 'c', 0x2F: 'v', 0x30: 'b',
	0x31: 'n', 0x32: 'm',
	0x39: ' ',
	0x1C: '\n',
	0x0E: '\b',
}

var shiftMap = [128]byte{
	0x02: '!', 0x03: '@', 0x04: '#', 0x05: '$', 0x06: '%',
	0x07: '^', 0x08: '&', 0x09: '*', 0x0A: '(', 0x0B: ')',
}

const (
	scLeftShift  = 0x2A
	scRightShift = 0x36
)

var shiftHeld bool

// PollByte reads one scancode from the data port and decodes it into an
// ASCII byte; ok is false for key releases, unmapped keys, and modifier
// keys that only change decoder state.
func PollByte() (b byte, ok bool) {
	sc := ioport.In8(portData)

	if sc == scLeftShift || sc == scRightShift {
		shiftHeld = true
		return 0, false
	}
	if sc == scLeftShift|releaseBit || sc == scRightShift|releaseBit {
		shiftHeld = false
		return 0, false
	}
	if sc&releaseBit != 0 {
		return 0, false
	}

	if shiftHeld {
		if ch := shiftMap[sc]; ch != 0 {
			return ch, true
		}
	}
	ch := lowerMap[sc]
	if ch == 0 {
		return 0, false
	}
	return ch, true
}

// HasByte reports whether the controller's output buffer has data pending
// (status register bit 0), so a caller can poll without blocking.
func HasByte() bool {
	const statusPort = 0x64
	const outputFull = 0x01
	return ioport.In8(statusPort)&outputFull != 0
}
