package bitfield

// PTEFlags represents the per-page-table-entry flag bits used by the i386
// paging core (see spec §3: "PTE bits: P(0), R/W(1), U/S(2)"). The packed
// value is OR'd with a 4 KiB-aligned physical frame address by the caller;
// it is never a full PTE by itself.
type PTEFlags struct {
	// Present indicates the mapping is valid (bit 0).
	Present bool `bitfield:",1"`

	// Writable indicates the page may be written (bit 1).
	Writable bool `bitfield:",1"`

	// User indicates the page is accessible from ring 3 (bit 2, "U/S").
	User bool `bitfield:",1"`

	// Reserved covers the remaining available/OS-defined bits up to bit 31;
	// the frame address itself is layered on top by the caller, not here.
	Reserved uint32 `bitfield:",29"`
}

// PackPTEFlags packs f into the low-order flag bits of a PTE.
func PackPTEFlags(f PTEFlags) (uint32, error) {
	packed, err := Pack(f, &Config{NumBits: 32})
	if err != nil {
		return 0, err
	}
	return uint32(packed), nil
}

// UnpackPTEFlags extracts the flag bits from a PTE's low-order bits.
func UnpackPTEFlags(packed uint32) PTEFlags {
	var f PTEFlags
	_ = Unpack(&f, uint64(packed), &Config{NumBits: 32})
	return f
}
