//go:build !linux

package logring

// Thread ids are not exposed portably outside Linux.
func currentThreadID() uint32 {
	return 0
}
