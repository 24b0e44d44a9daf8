// Package shell is the line-edited interactive shell spec.md §1 lists as a
// thin, out-of-scope-for-the-core consumer: it reads scancodes through
// internal/kbd, echoes through internal/console, and drives the FAT16
// engine and usermode.Exec the same way a user program would drive them
// through the syscall gate, just without the ring transition.
package shell

import (
	"strings"

	"astraos/internal/fat16"
	"astraos/internal/kbd"
	"astraos/internal/usermode"
)

// Console is the minimal output surface the shell prints through.
type Console interface {
	WriteString(s string)
}

const maxLine = 256

// Run reads and executes commands until the in-memory "exit" builtin is
// used; boot.KernelMain falls into its own idle loop once Run returns.
func Run(fs *fat16.Filesystem, con Console) {
	con.WriteString("astraos shell\n")
	for {
		con.WriteString(fs.Cwd() + "> ")
		line, ok := readLine(con)
		if !ok {
			continue
		}
		if execute(fs, con, line) {
			return
		}
	}
}

func readLine(con Console) (string, bool) {
	var buf [maxLine]byte
	n := 0
	for {
		b, ok := kbd.PollByte()
		if !ok {
			continue
		}
		switch b {
		case '\n':
			con.WriteString("\n")
			return string(buf[:n]), true
		case '\b':
			if n > 0 {
				n--
				con.WriteString("\b \b")
			}
		default:
			if n < maxLine {
				buf[n] = b
				n++
				con.WriteString(string(b))
			}
		}
	}
}

// execute runs one command line and reports whether the shell should stop.
func execute(fs *fat16.Filesystem, con Console, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "exit":
		return true
	case "pwd":
		con.WriteString(fs.Cwd() + "\n")
	case "cd":
		if len(args) != 1 {
			con.WriteString("usage: cd <path>\n")
			break
		}
		if err := fs.Chdir(args[0]); err != nil {
			con.WriteString(err.Error() + "\n")
		}
	case "ls":
		path := fs.Cwd()
		if len(args) == 1 {
			path = args[0]
		}
		entries, err := fs.ListDir(path)
		if err != nil {
			con.WriteString(err.Error() + "\n")
			break
		}
		for _, e := range entries {
			con.WriteString(e + "\n")
		}
	case "cat":
		if len(args) != 1 {
			con.WriteString("usage: cat <path>\n")
			break
		}
		catFile(fs, con, args[0])
	case "touch":
		runEach(fs, con, args, fs.Touch)
	case "mkdir":
		runEach(fs, con, args, fs.Mkdir)
	case "mkdir_p":
		runEach(fs, con, args, fs.MkdirP)
	case "rm":
		runEach(fs, con, args, fs.Remove)
	case "rmdir":
		runEach(fs, con, args, fs.Rmdir)
	case "rm_rf":
		runEach(fs, con, args, fs.RemoveAll)
	case "mv":
		if len(args) != 2 {
			con.WriteString("usage: mv <src> <dst>\n")
			break
		}
		if err := fs.Rename(args[0], args[1]); err != nil {
			con.WriteString(err.Error() + "\n")
		}
	case "cp":
		if len(args) != 2 {
			con.WriteString("usage: cp <src> <dst>\n")
			break
		}
		if err := fs.Copy(args[0], args[1]); err != nil {
			con.WriteString(err.Error() + "\n")
		}
	case "run":
		if len(args) < 1 {
			con.WriteString("usage: run <path> [args...]\n")
			break
		}
		code, err := usermode.Exec(fs, args[0], args)
		if err != nil {
			con.WriteString(err.Error() + "\n")
			break
		}
		con.WriteString(decimal(uint32(code)) + "\n")
	default:
		con.WriteString("unknown command: " + cmd + "\n")
	}
	return false
}

func runEach(fs *fat16.Filesystem, con Console, args []string, op func(string) error) {
	if len(args) == 0 {
		con.WriteString("usage: <cmd> <path>...\n")
		return
	}
	for _, a := range args {
		if err := op(a); err != nil {
			con.WriteString(err.Error() + "\n")
		}
	}
}

func catFile(fs *fat16.Filesystem, con Console, path string) {
	var buf [512]byte
	offset := uint32(0)
	for {
		n, err := fs.ReadAt(path, offset, buf[:])
		if err != nil {
			con.WriteString(err.Error() + "\n")
			return
		}
		if n == 0 {
			return
		}
		con.WriteString(string(buf[:n]))
		offset += uint32(n)
		if n < len(buf) {
			return
		}
	}
}

func decimal(n uint32) string {
	if n == 0 {
		return "0"
	}
	var digits [10]byte
	i := len(digits)
	for n > 0 {
		i--
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	return string(digits[i:])
}
