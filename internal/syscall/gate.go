// Package syscall implements the software-interrupt 0x80 dispatch table,
// the open-file-descriptor table, and the bounded user-pointer
// copy-in/copy-out helpers (spec §4.8). It never touches hardware
// directly — arch's int 0x80 handler decodes the trap frame into
// (eax, ebx, ecx, edx) and internal/usermode forwards them to Gate.Dispatch.
package syscall

import (
	"astraos/internal/fat16"
)

// Syscall numbers (spec §6, stable and bit-compatible).
const (
	SysWrite    = 0
	SysClear    = 1
	SysExit     = 2
	SysOpen     = 3
	SysRead     = 4
	SysClose    = 5
	SysChdir    = 6
	SysGetcwd   = 7
	SysWritefd  = 8
	SysListdir  = 9
)

const (
	maxCString = 256 // bound on SYS_WRITE's console string
)

// Console is the minimal surface SYS_WRITE/SYS_CLEAR need from the VGA
// text driver.
type Console interface {
	WriteString(s string)
	Clear()
}

// Gate dispatches syscalls onto the FAT16 engine, the console, and the
// open-file table.
type Gate struct {
	FS      *fat16.Filesystem
	Console Console
	Mem     Memory

	fds fdTable
}

// Result is a syscall's outcome. Value is the eax return value for every
// syscall except SYS_EXIT, which never returns a value through eax — it
// is handled by the ring-transition trampoline unwinding to the kernel
// caller with ExitCode.
type Result struct {
	Value    int32
	Exit     bool
	ExitCode int32
}

func ok(v int32) Result  { return Result{Value: v} }
func fail() Result       { return Result{Value: -1} }

// Dispatch executes the syscall named by eax with arguments ebx/ecx/edx,
// as the trap stub would extract them from the saved registers.
func (g *Gate) Dispatch(eax, ebx, ecx, edx uint32) Result {
	switch eax {
	case SysWrite:
		return g.sysWrite(ebx)
	case SysClear:
		return g.sysClear()
	case SysExit:
		return Result{Exit: true, ExitCode: int32(ebx)}
	case SysOpen:
		return g.sysOpen(ebx, ecx)
	case SysRead:
		return g.sysRead(ebx, ecx, edx)
	case SysClose:
		return g.sysClose(ebx)
	case SysChdir:
		return g.sysChdir(ebx)
	case SysGetcwd:
		return g.sysGetcwd(ebx, ecx)
	case SysWritefd:
		return g.sysWritefd(ebx, ecx, edx)
	case SysListdir:
		return g.sysListdir(ebx, ecx, edx)
	default:
		// Unknown syscall: return -1 without halting (spec §4.9).
		return fail()
	}
}

func (g *Gate) sysWrite(ptr uint32) Result {
	s, err := ReadCString(g.Mem, UserPtr(ptr), maxCString)
	if err != nil {
		return fail()
	}
	g.Console.WriteString(s)
	return ok(0)
}

func (g *Gate) sysClear() Result {
	g.Console.Clear()
	return ok(0)
}

func (g *Gate) sysOpen(pathPtr, flags uint32) Result {
	path, err := ReadCString(g.Mem, UserPtr(pathPtr), MaxPathLen)
	if err != nil || len(path) > MaxPathLen {
		return fail()
	}

	entry, isDir, exists, err := g.FS.Stat(path)
	if err != nil {
		return fail()
	}
	if !exists {
		if flags&CREAT == 0 {
			return fail()
		}
		if err := g.FS.Touch(path); err != nil {
			return fail()
		}
		entry, isDir, exists, err = g.FS.Stat(path)
		if err != nil || !exists {
			return fail()
		}
	}
	if isDir {
		return fail()
	}
	if flags&TRUNC != 0 {
		if err := g.FS.WriteFile(path, nil); err != nil {
			return fail()
		}
		entry.Size = 0
	}

	fd, err := g.fds.alloc()
	if err != nil {
		return fail()
	}
	var offset uint32
	if flags&APPEND != 0 {
		offset = entry.Size
	}
	g.fds.entries[fd] = fileDescriptor{used: true, flags: flags, offset: offset, size: entry.Size, path: path}
	return ok(int32(fd))
}

func (g *Gate) sysRead(fd, bufPtr, n uint32) Result {
	desc, found := g.fds.get(int(fd))
	if !found {
		return fail()
	}
	if desc.flags&WRONLY != 0 {
		return fail()
	}

	buf := make([]byte, n)
	read, err := g.FS.ReadAt(desc.path, desc.offset, buf)
	if err != nil {
		return fail()
	}
	if err := CopyOut(g.Mem, UserPtr(bufPtr), buf[:read]); err != nil {
		return fail()
	}
	desc.offset += uint32(read)
	return ok(int32(read))
}

func (g *Gate) sysClose(fd uint32) Result {
	if _, found := g.fds.get(int(fd)); !found {
		return fail()
	}
	g.fds.release(int(fd))
	return ok(0)
}

func (g *Gate) sysChdir(pathPtr uint32) Result {
	path, err := ReadCString(g.Mem, UserPtr(pathPtr), MaxPathLen)
	if err != nil {
		return fail()
	}
	if err := g.FS.Chdir(path); err != nil {
		return fail()
	}
	return ok(0)
}

func (g *Gate) sysGetcwd(bufPtr, size uint32) Result {
	cwd := g.FS.Cwd()
	if uint32(len(cwd))+1 > size {
		return fail()
	}
	out := make([]byte, len(cwd)+1)
	copy(out, cwd)
	if err := CopyOut(g.Mem, UserPtr(bufPtr), out); err != nil {
		return fail()
	}
	return ok(0)
}

// sysWritefd implements the narrow WRITEFD contract (spec §4.8, §9):
// APPEND always appends; a TRUNC'd file's first write at offset 0
// replaces the whole file, after which TRUNC no longer applies;
// otherwise every write appends. There is no general positional write.
func (g *Gate) sysWritefd(fd, bufPtr, n uint32) Result {
	desc, found := g.fds.get(int(fd))
	if !found {
		return fail()
	}
	if desc.flags&(WRONLY|APPEND) == 0 {
		return fail() // opened read-only
	}

	data, err := CopyIn(g.Mem, UserPtr(bufPtr), int(n))
	if err != nil {
		return fail()
	}

	switch {
	case desc.flags&APPEND != 0:
		if err := g.FS.AppendFile(desc.path, data); err != nil {
			return fail()
		}
	case desc.flags&TRUNC != 0 && desc.offset == 0:
		if err := g.FS.WriteFile(desc.path, data); err != nil {
			return fail()
		}
		desc.flags &^= TRUNC
	default:
		if err := g.FS.AppendFile(desc.path, data); err != nil {
			return fail()
		}
	}
	desc.offset += uint32(len(data))
	desc.size += uint32(len(data))
	return ok(int32(len(data)))
}

func (g *Gate) sysListdir(pathPtr, bufPtr, size uint32) Result {
	path, err := ReadCString(g.Mem, UserPtr(pathPtr), MaxPathLen)
	if err != nil {
		return fail()
	}
	names, err := g.FS.ListDir(path)
	if err != nil {
		return fail()
	}
	out := fat16.FormatListing(names, int(size))
	if err := CopyOut(g.Mem, UserPtr(bufPtr), out); err != nil {
		return fail()
	}
	return ok(int32(len(out)))
}
