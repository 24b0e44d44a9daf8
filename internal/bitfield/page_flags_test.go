package bitfield

import (
	"fmt"
	"testing"
)

func TestPackPTEFlags(t *testing.T) {
	tests := []struct {
		name     string
		flags    PTEFlags
		expected uint32
	}{
		{
			name:     "all flags false",
			flags:    PTEFlags{},
			expected: 0x00000000,
		},
		{
			name:     "present only",
			flags:    PTEFlags{Present: true},
			expected: 0x00000001, // bit 0
		},
		{
			name:     "present + writable",
			flags:    PTEFlags{Present: true, Writable: true},
			expected: 0x00000003, // bits 0,1
		},
		{
			name:     "present + writable + user",
			flags:    PTEFlags{Present: true, Writable: true, User: true},
			expected: 0x00000007, // bits 0,1,2
		},
		{
			name:     "user only",
			flags:    PTEFlags{User: true},
			expected: 0x00000004, // bit 2
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packed, err := PackPTEFlags(tt.flags)
			if err != nil {
				t.Fatalf("PackPTEFlags() error = %v", err)
			}
			if packed != tt.expected {
				t.Errorf("PackPTEFlags() = 0x%08x, want 0x%08x", packed, tt.expected)
			}
		})
	}
}

func TestUnpackPTEFlags(t *testing.T) {
	tests := []struct {
		name     string
		packed   uint32
		expected PTEFlags
	}{
		{name: "all zeros", packed: 0x0, expected: PTEFlags{}},
		{name: "present", packed: 0x1, expected: PTEFlags{Present: true}},
		{name: "present+writable", packed: 0x3, expected: PTEFlags{Present: true, Writable: true}},
		{name: "all three", packed: 0x7, expected: PTEFlags{Present: true, Writable: true, User: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UnpackPTEFlags(tt.packed)
			if got.Present != tt.expected.Present || got.Writable != tt.expected.Writable || got.User != tt.expected.User {
				t.Errorf("UnpackPTEFlags(0x%x) = %+v, want %+v", tt.packed, got, tt.expected)
			}
		})
	}
}

func TestPTEFlagsRoundTrip(t *testing.T) {
	cases := []PTEFlags{
		{},
		{Present: true},
		{Present: true, Writable: true},
		{Present: true, Writable: true, User: true},
		{Present: true, User: true},
	}

	for i, original := range cases {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			packed, err := PackPTEFlags(original)
			if err != nil {
				t.Fatalf("PackPTEFlags() error = %v", err)
			}
			got := UnpackPTEFlags(packed)
			if got.Present != original.Present || got.Writable != original.Writable || got.User != original.User {
				t.Errorf("round trip mismatch: got %+v, want %+v", got, original)
			}
		})
	}
}

func ExamplePackPTEFlags() {
	flags := PTEFlags{Present: true, Writable: true, User: true}

	packed, err := PackPTEFlags(flags)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Printf("Packed flags: 0x%08x\n", packed)

	unpacked := UnpackPTEFlags(packed)
	fmt.Printf("Unpacked - Present: %v, Writable: %v, User: %v\n",
		unpacked.Present, unpacked.Writable, unpacked.User)

	// Output:
	// Packed flags: 0x00000007
	// Unpacked - Present: true, Writable: true, User: true
}
