package archive

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/valyala/fastjson"

	"github.com/downfa11-org/logshm/pkg/types"
)

const maxLineSize = 1 << 20

var ErrInvalidRecord = errors.New("archive: invalid record")

// Reader iterates over the records of an archive file.
type Reader struct {
	file    *os.File
	decoder *zstd.Decoder
	scanner *bufio.Scanner
	parser  fastjson.Parser

	line int
	curr types.Record
	err  error
}

func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	adviseSequential(f)

	dec, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	return &Reader{file: f, decoder: dec, scanner: sc}, nil
}

// Next advances to the next record. It returns false at the end of the
// archive or on the first error, which Err then reports.
func (r *Reader) Next() bool {
	if r.err != nil {
		return false
	}

	for r.scanner.Scan() {
		r.line++
		data := r.scanner.Bytes()
		if len(data) == 0 {
			continue
		}

		rec, err := r.decode(data)
		if err != nil {
			r.err = fmt.Errorf("line %d: %w", r.line, err)
			return false
		}
		r.curr = rec
		return true
	}

	if err := r.scanner.Err(); err != nil {
		r.err = fmt.Errorf("read archive: %w", err)
	}
	return false
}

func (r *Reader) decode(data []byte) (types.Record, error) {
	v, err := r.parser.ParseBytes(data)
	if err != nil {
		return types.Record{}, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	if v.Type() != fastjson.TypeObject {
		return types.Record{}, fmt.Errorf("%w: expected object, got %s", ErrInvalidRecord, v.Type())
	}

	rec := types.Record{
		Timestamp: v.GetInt64("timestamp"),
		Text:      string(v.GetStringBytes("text")),
		ProcessID: uint32(v.GetUint("pid")),
		ThreadID:  uint32(v.GetUint("tid")),
	}

	if v.Exists("level_code") {
		rec.Level = types.Level(v.GetInt("level_code"))
	} else {
		level, ok := types.ParseLevel(string(v.GetStringBytes("level")))
		if !ok {
			return types.Record{}, fmt.Errorf("%w: unknown level %q", ErrInvalidRecord, v.GetStringBytes("level"))
		}
		rec.Level = level
	}
	return rec, nil
}

// Record returns the record Next moved to.
func (r *Reader) Record() types.Record { return r.curr }

func (r *Reader) Err() error { return r.err }

func (r *Reader) Close() error {
	r.decoder.Close()
	return r.file.Close()
}
