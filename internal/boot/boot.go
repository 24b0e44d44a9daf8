// Package boot sequences subsystem initialization (TSS and GDT, then IDT,
// PIC remap, paging, heap, console, PIT, FAT16 mount over ATA, and the
// syscall gate), loads /BIN/INIT.ELF, and falls back to
// the interactive shell or idle loop if that load fails (spec §4.9 failure
// class 4).
package boot

import (
	"astraos/internal/arch"
	"astraos/internal/ata"
	"astraos/internal/console"
	"astraos/internal/fat16"
	"astraos/internal/heap"
	"astraos/internal/pit"
	"astraos/internal/shell"
	"astraos/internal/syscall"
	"astraos/internal/usermode"
)

const (
	// kernelHeapStart and kernelHeapMaxSize bound the arena kmalloc can
	// grow into: the megabyte above the kernel's own code/data/page tables
	// and below memlayout.UserMinVAddr, so the heap never collides with a
	// loaded user image. kernelHeapInitialSize is committed up front;
	// Alloc extends the arena toward kernelHeapMaxSize on a miss, all
	// still inside the region ProtectKernel marks non-user.
	kernelHeapStart       = 0x00100000
	kernelHeapInitialSize = 0x00080000
	kernelHeapMaxSize     = 0x00100000

	pitFrequencyHz = 100

	initProgramPath = "/BIN/INIT.ELF"
)

// KernelMain runs the full boot sequence and never returns: either the init
// program's SYS_EXIT drops back here and boot falls into the shell, or the
// shell's own exit falls into the idle loop.
func KernelMain() {
	arch.BuildTSS()
	tssBase, tssLimit := arch.TSSBaseAndLimit()
	arch.BuildGDT(tssBase, tssLimit)
	arch.InitGDT()
	arch.LoadTaskRegister()

	arch.BuildIDT()
	arch.InitIDT()
	arch.RemapPIC()

	arch.InitPaging()
	arch.ProtectKernel(0, kernelHeapStart+kernelHeapMaxSize)

	heap.InitWithLimit(kernelHeapStart, kernelHeapInitialSize, kernelHeapMaxSize)

	con := console.New()
	con.Clear()
	arch.SetPanicConsole(con)
	heap.Panic = con.Panic

	pit.Init(pitFrequencyHz)
	arch.RegisterIRQHandler(0, pit.Tick)

	fs, err := fat16.Mount(ata.Primary)
	if err != nil {
		con.WriteString("PANIC: mounting filesystem: ")
		con.WriteString(err.Error())
		con.WriteString("\n")
		haltIdle()
	}

	gate := &syscall.Gate{FS: fs, Console: con, Mem: usermode.Mem}
	usermode.Init(gate)

	if code, err := usermode.Exec(fs, initProgramPath, []string{initProgramPath}); err != nil {
		con.WriteString("exec " + initProgramPath + " failed: " + err.Error() + "\n")
	} else {
		con.PutHex32(uint32(code))
		con.WriteString(" init exited\n")
	}

	shell.Run(fs, con)
	haltIdle()
}

// haltIdle is the boot idle loop spec §5 names as one of the two voluntary
// suspension points: sleep in short bursts so the timer interrupt can still
// fire and advance the tick counter.
func haltIdle() {
	for {
		pit.Sleep(1)
	}
}
