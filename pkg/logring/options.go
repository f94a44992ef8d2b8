package logring

import "path/filepath"

const (
	DefaultDir  = "/dev/shm"
	DefaultName = "logshm"
)

// Options names the segment and lock files every cooperating process must
// agree on.
type Options struct {
	Dir  string
	Name string

	// ScrubOnClear also zeroes slot contents on Clear instead of only
	// resetting the counters.
	ScrubOnClear bool
}

func (o Options) withDefaults() Options {
	if o.Dir == "" {
		o.Dir = DefaultDir
	}
	if o.Name == "" {
		o.Name = DefaultName
	}
	return o
}

// SegmentPath is the well-known path of the shared segment file.
func (o Options) SegmentPath() string {
	o = o.withDefaults()
	return filepath.Join(o.Dir, o.Name+".shm")
}

// LockPath is the well-known path of the lock file.
func (o Options) LockPath() string {
	o = o.withDefaults()
	return filepath.Join(o.Dir, o.Name+".lock")
}
