package bitfield

// SegmentAccess represents the access byte of a GDT segment descriptor
// (spec §3: "access flags (P, DPL, S, Type)"). Built once at GDT
// construction time, never on a hot path, so the reflection-based Pack is
// an acceptable cost here (unlike PTEFlags, which informs per-page-range
// loops in the paging core).
type SegmentAccess struct {
	Accessed       bool   `bitfield:",1"`
	ReadWrite      bool   `bitfield:",1"`
	DirectionConf  bool   `bitfield:",1"`
	Executable     bool   `bitfield:",1"`
	DescriptorType bool   `bitfield:",1"` // S bit: 1 for code/data, 0 for system (TSS)
	Privilege      uint32 `bitfield:",2"` // DPL
	Present        bool   `bitfield:",1"`
}

// SegmentGranularity represents the granularity byte (high nibble of the
// limit plus the AVL/L/D-B/G flag bits).
type SegmentGranularity struct {
	LimitHigh   uint32 `bitfield:",4"`
	Available   bool   `bitfield:",1"`
	LongMode    bool   `bitfield:",1"` // unused on i386, always false
	Size        bool   `bitfield:",1"` // D/B bit: 1 for 32-bit segments
	Granularity bool   `bitfield:",1"` // G bit: 1 for 4 KiB granularity
}

// PackSegmentAccess packs a into a single access byte.
func PackSegmentAccess(a SegmentAccess) (byte, error) {
	packed, err := Pack(a, &Config{NumBits: 8})
	if err != nil {
		return 0, err
	}
	return byte(packed), nil
}

// PackSegmentGranularity packs g into a single granularity byte.
func PackSegmentGranularity(g SegmentGranularity) (byte, error) {
	packed, err := Pack(g, &Config{NumBits: 8})
	if err != nil {
		return 0, err
	}
	return byte(packed), nil
}
