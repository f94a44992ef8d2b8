package config_test

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/downfa11-org/logshm/pkg/config"
	"github.com/downfa11-org/logshm/util"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := &config.Config{LogLevel: util.LogLevel(42)}
	cfg.Normalize()

	if cfg.Dir != "/dev/shm" {
		t.Errorf("Dir default incorrect: %s", cfg.Dir)
	}
	if cfg.Name != "logshm" {
		t.Errorf("Name default incorrect: %s", cfg.Name)
	}
	if cfg.LogLevel != util.LogLevelInfo {
		t.Errorf("LogLevel default incorrect: %v", cfg.LogLevel)
	}
	if cfg.ExporterPort != 9100 {
		t.Errorf("ExporterPort default incorrect: %d", cfg.ExporterPort)
	}
	if cfg.Workers != 1 {
		t.Errorf("Workers default incorrect: %d", cfg.Workers)
	}
	if cfg.PollIntervalMS != 10 {
		t.Errorf("PollIntervalMS default incorrect: %d", cfg.PollIntervalMS)
	}
	if cfg.StatusIntervalMS != 5000 {
		t.Errorf("StatusIntervalMS default incorrect: %d", cfg.StatusIntervalMS)
	}
}

func TestNormalizeClamps(t *testing.T) {
	cfg := &config.Config{
		Name:         "a/b",
		Count:        -5,
		IntervalMS:   -1,
		BurstPercent: 250,
		MaxBatch:     -3,
	}
	cfg.Normalize()

	if cfg.Name != "logshm" {
		t.Errorf("Name with separator should be replaced, got %s", cfg.Name)
	}
	if cfg.Count != 0 || cfg.IntervalMS != 0 || cfg.MaxBatch != 0 {
		t.Errorf("negative values not clamped: %+v", cfg)
	}
	if cfg.BurstPercent != 100 {
		t.Errorf("BurstPercent not clamped: %d", cfg.BurstPercent)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LOGSHM_CONFIG_PATH", "")

	cfg, err := config.Load(newFlagSet(), nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Dir != "/dev/shm" || cfg.Name != "logshm" {
		t.Errorf("unexpected segment location: %s/%s", cfg.Dir, cfg.Name)
	}
	if cfg.IntervalMS != 1000 {
		t.Errorf("IntervalMS default incorrect: %d", cfg.IntervalMS)
	}
	opts := cfg.RingOptions()
	if opts.SegmentPath() != "/dev/shm/logshm.shm" {
		t.Errorf("SegmentPath incorrect: %s", opts.SegmentPath())
	}
	if opts.LockPath() != "/dev/shm/logshm.lock" {
		t.Errorf("LockPath incorrect: %s", opts.LockPath())
	}
}

func TestLoadYAML(t *testing.T) {
	t.Setenv("LOGSHM_CONFIG_PATH", "")
	path := writeFile(t, "logshm.yaml", `
dir: /tmp/ring
name: app
scrub_on_clear: true
log_level: warn
workers: 4
count: 20
interval_ms: 50
poll_interval_ms: 25
archive_path: /tmp/ring/archive.zst
`)

	cfg, err := config.Load(newFlagSet(), []string{"-config", path})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Dir != "/tmp/ring" || cfg.Name != "app" || !cfg.ScrubOnClear {
		t.Errorf("segment settings not loaded: %+v", cfg)
	}
	if cfg.LogLevel != util.LogLevelWarn {
		t.Errorf("LogLevel not loaded: %v", cfg.LogLevel)
	}
	if cfg.Workers != 4 || cfg.Count != 20 || cfg.IntervalMS != 50 {
		t.Errorf("writer settings not loaded: %+v", cfg)
	}
	if cfg.PollIntervalMS != 25 || cfg.ArchivePath != "/tmp/ring/archive.zst" {
		t.Errorf("reader settings not loaded: %+v", cfg)
	}
	if !cfg.RingOptions().ScrubOnClear {
		t.Errorf("RingOptions lost ScrubOnClear")
	}
}

func TestLoadJSONFromEnvPath(t *testing.T) {
	path := writeFile(t, "logshm.json", `{"name":"jsonring","log_level":3,"exporter_port":9300}`)
	t.Setenv("LOGSHM_CONFIG_PATH", path)

	cfg, err := config.Load(newFlagSet(), nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Name != "jsonring" {
		t.Errorf("Name not loaded: %s", cfg.Name)
	}
	if cfg.LogLevel != util.LogLevelError {
		t.Errorf("LogLevel not loaded: %v", cfg.LogLevel)
	}
	if cfg.ExporterPort != 9300 {
		t.Errorf("ExporterPort not loaded: %d", cfg.ExporterPort)
	}
}

func TestLoadPrecedence(t *testing.T) {
	path := writeFile(t, "logshm.yaml", "name: fromfile\nworkers: 2\ncount: 7\n")
	t.Setenv("LOGSHM_CONFIG_PATH", path)
	t.Setenv("LOGSHM_WORKERS", "6")
	t.Setenv("LOGSHM_COUNT", "9")
	t.Setenv("LOGSHM_INTERVAL", "2s")

	cfg, err := config.Load(newFlagSet(), []string{"-count", "11"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Name != "fromfile" {
		t.Errorf("file value lost: %s", cfg.Name)
	}
	if cfg.Workers != 6 {
		t.Errorf("env should override file, got %d", cfg.Workers)
	}
	if cfg.Count != 11 {
		t.Errorf("explicit flag should override env, got %d", cfg.Count)
	}
	if cfg.IntervalMS != 2000 {
		t.Errorf("duration env not parsed, got %d", cfg.IntervalMS)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Setenv("LOGSHM_CONFIG_PATH", "")

	if _, err := config.Load(newFlagSet(), []string{"-config", filepath.Join(t.TempDir(), "missing.yaml")}); err == nil {
		t.Errorf("expected error for missing config file")
	}

	bad := writeFile(t, "bad.json", "{not json")
	if _, err := config.Load(newFlagSet(), []string{"-config", bad}); err == nil {
		t.Errorf("expected error for malformed JSON")
	}

	if _, err := config.Load(newFlagSet(), []string{"-workers", "many"}); err == nil {
		t.Errorf("expected error for bad flag value")
	}
}
