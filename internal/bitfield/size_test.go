package bitfield

import (
	"testing"
	"unsafe"
)

func TestPTEFlagsSize(t *testing.T) {
	var flags PTEFlags
	size := unsafe.Sizeof(flags)

	t.Logf("PTEFlags struct size: %d bytes (%d bits)", size, size*8)

	expectedMin := uintptr(6)
	expectedMax := uintptr(16)

	if size < expectedMin || size > expectedMax {
		t.Errorf("PTEFlags size %d is unexpected (expected between %d and %d)",
			size, expectedMin, expectedMax)
	}
}

func TestPackedPTESize(t *testing.T) {
	flags := PTEFlags{Present: true, Writable: false, Reserved: 0x12345678}

	packed, err := PackPTEFlags(flags)
	if err != nil {
		t.Fatalf("PackPTEFlags error: %v", err)
	}

	packed64 := uint64(packed)
	if packed64>>32 != 0 {
		t.Errorf("packed value exceeds 32 bits! upper bits: 0x%x", packed64>>32)
	}
}

func TestUnpackPTESize(t *testing.T) {
	testValue := uint32(0x48D159E1)

	unpacked := UnpackPTEFlags(testValue)
	t.Logf("Unpacked from 0x%08x: Present=%v Writable=%v User=%v Reserved=0x%x",
		testValue, unpacked.Present, unpacked.Writable, unpacked.User, unpacked.Reserved)

	unpacked64 := UnpackPTEFlags(uint32(uint64(testValue)))
	if unpacked != unpacked64 {
		t.Errorf("unpacking differs between uint32 and uint64 cast")
	}
}

func TestSegmentAccessByte(t *testing.T) {
	// kernel code: 0x9A -> P=1 DPL=0 S=1 Exec=1 DC=0 RW=1 Accessed=0
	access := SegmentAccess{
		Accessed:       false,
		ReadWrite:      true,
		DirectionConf:  false,
		Executable:     true,
		DescriptorType: true,
		Privilege:      0,
		Present:        true,
	}
	got, err := PackSegmentAccess(access)
	if err != nil {
		t.Fatalf("PackSegmentAccess error: %v", err)
	}
	if got != 0x9A {
		t.Errorf("kernel code access byte = 0x%02x, want 0x9A", got)
	}
}

func TestSegmentGranularityByte(t *testing.T) {
	// 0xCF -> LimitHigh=0xF, G=1, D/B=1, L=0, AVL=0
	gran := SegmentGranularity{
		LimitHigh:   0xF,
		Available:   false,
		LongMode:    false,
		Size:        true,
		Granularity: true,
	}
	got, err := PackSegmentGranularity(gran)
	if err != nil {
		t.Fatalf("PackSegmentGranularity error: %v", err)
	}
	if got != 0xCF {
		t.Errorf("granularity byte = 0x%02x, want 0xCF", got)
	}
}
