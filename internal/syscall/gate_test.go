package syscall

import (
	"testing"

	"astraos/internal/fat16"
)

// fakeMemory is a flat byte-slice standing in for the identity-mapped
// user address space, addressed the same way real physical memory would
// be (offsets below memlayout.UserMinVAddr are never touched in tests).
type fakeMemory struct {
	base uint32
	buf  []byte
}

func newFakeMemory(base uint32, size int) *fakeMemory {
	return &fakeMemory{base: base, buf: make([]byte, size)}
}

func (m *fakeMemory) ReadAt(addr uint32, out []byte) error {
	off := addr - m.base
	copy(out, m.buf[off:])
	return nil
}

func (m *fakeMemory) WriteAt(addr uint32, data []byte) error {
	off := addr - m.base
	copy(m.buf[off:], data)
	return nil
}

func (m *fakeMemory) putCString(addr uint32, s string) {
	off := addr - m.base
	copy(m.buf[off:], s)
	m.buf[off+uint32(len(s))] = 0
}

type fakeConsole struct {
	written []string
	cleared int
}

func (c *fakeConsole) WriteString(s string) { c.written = append(c.written, s) }
func (c *fakeConsole) Clear()               { c.cleared++ }

func newTestGate(t *testing.T) (*Gate, *fakeMemory, *fakeConsole) {
	t.Helper()
	dev := fat16.NewMemDevice(2880) // 1.44MB floppy geometry-ish sector count
	if err := fat16.FormatForTest(dev); err != nil {
		t.Fatalf("formatting test device: %v", err)
	}
	fs, err := fat16.Mount(dev)
	if err != nil {
		t.Fatalf("mounting: %v", err)
	}
	const base = 0x00200000
	mem := newFakeMemory(base, 0x00200000)
	console := &fakeConsole{}
	return &Gate{FS: fs, Console: console, Mem: mem}, mem, console
}

func TestSyscallRoundTrip(t *testing.T) {
	// E5: open(WRONLY|CREAT|TRUNC) -> writefd -> close -> open(RDONLY) -> read.
	gate, mem, _ := newTestGate(t)
	const pathPtr = 0x00200100
	const bufPtr = 0x00200200
	mem.putCString(pathPtr, "/H")

	openRes := gate.Dispatch(SysOpen, pathPtr, uint32(WRONLY|CREAT|TRUNC), 0)
	if openRes.Value < 0 {
		t.Fatalf("open: got %d", openRes.Value)
	}
	fd := uint32(openRes.Value)

	mem.putCString(bufPtr, "Hi")
	writeRes := gate.Dispatch(SysWritefd, fd, bufPtr, 2)
	if writeRes.Value != 2 {
		t.Fatalf("writefd: got %d, want 2", writeRes.Value)
	}

	closeRes := gate.Dispatch(SysClose, fd, 0, 0)
	if closeRes.Value != 0 {
		t.Fatalf("close: got %d", closeRes.Value)
	}

	openRes2 := gate.Dispatch(SysOpen, pathPtr, uint32(RDONLY), 0)
	if openRes2.Value < 0 {
		t.Fatalf("reopen: got %d", openRes2.Value)
	}
	fd2 := uint32(openRes2.Value)

	readRes := gate.Dispatch(SysRead, fd2, bufPtr, 16)
	if readRes.Value != 2 {
		t.Fatalf("read: got %d, want 2", readRes.Value)
	}
	got := make([]byte, 2)
	mem.ReadAt(bufPtr, got)
	if string(got) != "Hi" {
		t.Fatalf("read bytes = %q, want %q", got, "Hi")
	}
}

func TestSyscallFDIsolation(t *testing.T) {
	gate, mem, _ := newTestGate(t)
	const pathPtr = 0x00200100
	const bufPtr = 0x00200200
	mem.putCString(pathPtr, "/RO.TXT")

	openRes := gate.Dispatch(SysOpen, pathPtr, uint32(WRONLY|CREAT), 0)
	fd := uint32(openRes.Value)

	// READ on a write-only fd must fail without mutating the FD offset.
	if res := gate.Dispatch(SysRead, fd, bufPtr, 4); res.Value != -1 {
		t.Fatalf("read on write-only fd: got %d, want -1", res.Value)
	}

	gate.Dispatch(SysClose, fd, 0, 0)
	openRes2 := gate.Dispatch(SysOpen, pathPtr, uint32(RDONLY), 0)
	fd2 := uint32(openRes2.Value)

	// WRITEFD on a read-only fd must fail.
	if res := gate.Dispatch(SysWritefd, fd2, bufPtr, 4); res.Value != -1 {
		t.Fatalf("writefd on read-only fd: got %d, want -1", res.Value)
	}
}

func TestSyscallUnknownReturnsNegativeOne(t *testing.T) {
	gate, _, _ := newTestGate(t)
	if res := gate.Dispatch(99, 0, 0, 0); res.Value != -1 || res.Exit {
		t.Fatalf("unknown syscall: got %+v", res)
	}
}

func TestSyscallExit(t *testing.T) {
	gate, _, _ := newTestGate(t)
	res := gate.Dispatch(SysExit, 7, 0, 0)
	if !res.Exit || res.ExitCode != 7 {
		t.Fatalf("exit: got %+v", res)
	}
}

func TestSyscallListdir(t *testing.T) {
	gate, mem, _ := newTestGate(t)
	if err := gate.FS.Mkdir("/USR"); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := gate.FS.Touch("/A.TXT"); err != nil {
		t.Fatalf("touch: %v", err)
	}

	const pathPtr = 0x00200100
	const bufPtr = 0x00200200
	mem.putCString(pathPtr, "/")

	res := gate.Dispatch(SysListdir, pathPtr, bufPtr, 64)
	if res.Value < 0 {
		t.Fatalf("listdir: got %d", res.Value)
	}
	out := make([]byte, res.Value)
	mem.ReadAt(bufPtr, out)
	if string(out) != "USR\nA.TXT\n\x00" && string(out) != "A.TXT\nUSR\n\x00" {
		t.Fatalf("listdir output = %q", out)
	}
}
