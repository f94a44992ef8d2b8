package main

import (
	"context"
	"fmt"

	"github.com/downfa11-org/logshm/pkg/archive"
	"github.com/downfa11-org/logshm/util"
)

// replayArchive re-posts every record of an archive with its original
// timestamp and level.
func replayArchive(ctx context.Context, ring ringWriter, path string) (int, error) {
	r, err := archive.Open(path)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	n := 0
	for r.Next() {
		if ctx.Err() != nil {
			break
		}
		rec := r.Record()
		if err := ring.Post(rec.Timestamp, rec.Level, rec.Text); err != nil {
			return n, fmt.Errorf("replay record %d: %w", n+1, err)
		}
		n++
		util.Debug("[REPLAY] %s", rec)
	}
	if err := r.Err(); err != nil {
		return n, fmt.Errorf("replay %s: %w", path, err)
	}
	return n, nil
}
