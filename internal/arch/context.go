package arch

import _ "unsafe" // for go:linkname

// savedKernelContext holds the kernel's callee-saved registers and stack
// pointer across a ring transition, so SYS_EXIT can unwind straight back to
// EnterUserModeAndWait's caller instead of threading state through a
// scheduler (spec §2: "SYS_EXIT diverges: it restores the kernel
// callee-saved registers previously stashed at the ring transition and
// returns to the kernel caller of the transition function"). Laid out to
// match the MOVL offsets resumeKernelAfterExit and enterUserMode use
// directly.
type savedKernelContextT struct {
	esp uint32
	ebp uint32
	edi uint32
	esi uint32
	ebx uint32
}

var savedKernelContext savedKernelContextT

// enterUserMode builds an IRET frame for entry/userStack with the user
// data/code selectors (spec §6 "Ring transition contract": DS/ES/FS/GS/SS =
// 0x23, CS = 0x1B, IF set) and performs the ring 3 transition. It does not
// return through the normal call/return path: control comes back only via
// resumeKernelAfterExit when the user process issues SYS_EXIT, which leaves
// the exit code in AX rather than a Go return slot.
//
//go:linkname enterUserMode enterUserMode
//go:nosplit
func enterUserMode(entry, userStack uint32)

// EnterUserModeAndWait performs the ring 3 transition and blocks until the
// user process issues SYS_EXIT, returning its exit code. The asm wrapper
// calls enterUserMode and, when resumeKernelAfterExit's RET lands back here,
// copies AX into the normal Go return slot (spec §4.7: "returns to the
// original caller of the transition function as if it had returned
// normally (its return value is the exit code)").
//
//go:linkname EnterUserModeAndWait EnterUserModeAndWait
//go:nosplit
func EnterUserModeAndWait(entry, userStack uint32) int32
