package fat16

import "errors"

// Sentinel errors returned by the engine. The syscall gate maps these to
// the small set of distinguished negative codes spec §4.9 describes
// ("-1 type mismatch, -2 destination exists / directory not empty").
var (
	ErrNotFound     = errors.New("fat16: not found")
	ErrExists       = errors.New("fat16: name already exists")
	ErrTypeMismatch = errors.New("fat16: not a file or not a directory")
	ErrNotEmpty     = errors.New("fat16: directory not empty")
	ErrRootRemoval  = errors.New("fat16: cannot remove root")
	ErrDirFull      = errors.New("fat16: root directory is full")
	ErrNoSpace      = errors.New("fat16: no free clusters")
)

// Code maps a fat16 error to the syscall-visible result code (spec §7
// class 3). A nil error maps to 0; callers translate that to the ABI's
// success value at the syscall boundary, and failures map to -1 or -2.
func Code(err error) int32 {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrTypeMismatch):
		return -1
	case errors.Is(err, ErrExists), errors.Is(err, ErrNotEmpty):
		return -2
	default:
		return -1
	}
}
