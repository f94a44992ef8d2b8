// Package archive persists consumed records as zstd-compressed JSON lines
// and reads them back for replay. Each Writer session appends one zstd
// frame to the file; the Reader decodes concatenated frames transparently.
package archive

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/klauspost/compress/zstd"
	"github.com/valyala/fastjson"

	"github.com/downfa11-org/logshm/pkg/types"
)

type Writer struct {
	mu      sync.Mutex
	file    *os.File
	encoder *zstd.Encoder
	arena   fastjson.Arena
	buf     []byte
	written int
	closed  bool
}

// Create opens path for appending, creating it if needed.
func Create(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	return &Writer{file: f, encoder: enc}, nil
}

// Write appends one record as a JSON line.
func (w *Writer) Write(r types.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return os.ErrClosed
	}

	w.arena.Reset()
	obj := w.arena.NewObject()
	obj.Set("timestamp", w.arena.NewNumberString(strconv.FormatInt(r.Timestamp, 10)))
	obj.Set("level", w.arena.NewString(r.Level.String()))
	obj.Set("level_code", w.arena.NewNumberInt(int(r.Level)))
	obj.Set("text", w.arena.NewString(jsonSafe(r.Text)))
	obj.Set("pid", w.arena.NewNumberString(strconv.FormatUint(uint64(r.ProcessID), 10)))
	obj.Set("tid", w.arena.NewNumberString(strconv.FormatUint(uint64(r.ThreadID), 10)))

	w.buf = obj.MarshalTo(w.buf[:0])
	w.buf = append(w.buf, '\n')
	if _, err := w.encoder.Write(w.buf); err != nil {
		return fmt.Errorf("write archive record: %w", err)
	}
	w.written++
	return nil
}

// Written returns the number of records written by this writer.
func (w *Writer) Written() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

// Flush pushes buffered records to the file without ending the frame.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return os.ErrClosed
	}
	return w.encoder.Flush()
}

// Close finishes the zstd frame and closes the file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	return errors.Join(w.encoder.Close(), w.file.Close())
}

// jsonSafe replaces what the JSON encoder would quote Go-style (\x or \U
// escapes) with U+FFFD: ASCII control characters other than tab, newline and
// carriage return, non-printable runes outside the BMP, and invalid UTF-8.
func jsonSafe(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "\uFFFD")
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
		case r < 0x20 || r == 0x7f:
			return utf8.RuneError
		case r > 0xffff && !strconv.IsPrint(r):
			return utf8.RuneError
		}
		return r
	}, s)
}
