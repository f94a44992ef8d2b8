package types

import (
	"fmt"
	"strings"
	"time"
)

const (
	// Capacity is the number of record slots in the shared ring.
	Capacity = 1024
	// TextMaxLen is the size of the text field, terminator included.
	TextMaxLen = 512
)

// Level is the severity code stored in a record slot.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", int32(l))
	}
}

// Valid reports whether l is one of the four known levels.
func (l Level) Valid() bool {
	return l >= LevelDebug && l <= LevelError
}

// ParseLevel maps a level name back to its code. It accepts the names
// produced by String in any case, plus "WARN".
func ParseLevel(s string) (Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarning, true
	case "ERROR":
		return LevelError, true
	}
	return LevelInfo, false
}

// Record is a single log entry as exchanged through the shared segment.
type Record struct {
	Timestamp int64 // milliseconds since the Unix epoch
	Level     Level
	Text      string
	ProcessID uint32
	ThreadID  uint32
}

// Time converts the millisecond timestamp to a local time.Time.
func (r Record) Time() time.Time {
	return time.UnixMilli(r.Timestamp)
}

func (r Record) String() string {
	return fmt.Sprintf("[%s] [%s] [PID:%d TID:%d] %s",
		r.Time().Format("2006-01-02 15:04:05.000"), r.Level, r.ProcessID, r.ThreadID, r.Text)
}

// NowMillis returns the current wall-clock time in milliseconds since the Unix epoch.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
