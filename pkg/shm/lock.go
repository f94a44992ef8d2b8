package shm

// Initialization states stored in the lock's control word.
const (
	InitNone    uint32 = 0
	InitZeroing uint32 = 1
	InitReady   uint32 = 2
)

// ControlSize is the number of bytes of the lock file mapped as control area.
const ControlSize = 8
