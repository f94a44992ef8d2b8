//go:build linux

package archive

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseSequential tells the kernel the archive is read front to back.
func adviseSequential(f *os.File) {
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
}
