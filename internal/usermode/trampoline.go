package usermode

import (
	"astraos/internal/arch"
	"astraos/internal/syscall"
)

// gate is the one syscall.Gate wired into arch's int 0x80 handler. It is
// set once by Init and referenced from the package-level handler function
// arch.RegisterSyscallHandler requires, since that registration point
// takes a bare function value rather than a bound method closure captured
// at call time.
var gate *syscall.Gate

// Init wires g as the syscall dispatcher for every int 0x80 trap. Call
// once during boot after the FAT16 filesystem and console are ready.
func Init(g *syscall.Gate) {
	gate = g
	arch.RegisterSyscallHandler(dispatch)
}

func dispatch(eax, ebx, ecx, edx uint32) (result int32, exit bool, exitCode int32) {
	res := gate.Dispatch(eax, ebx, ecx, edx)
	return res.Value, res.Exit, res.ExitCode
}

// enterAndWait performs the ring transition and blocks until the loaded
// program issues SYS_EXIT, per spec §4.7. It is the one call site for
// arch.EnterUserModeAndWait.
func enterAndWait(entry, userStack uint32) (int32, error) {
	return arch.EnterUserModeAndWait(entry, userStack), nil
}
