package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/downfa11-org/logshm/pkg/logring"
	"github.com/downfa11-org/logshm/util"
)

// Config is shared by the writer and reader programs. Fields a program does
// not use are simply ignored.
type Config struct {
	// Shared segment
	Dir          string `yaml:"dir" json:"dir"`
	Name         string `yaml:"name" json:"name"`
	ScrubOnClear bool   `yaml:"scrub_on_clear" json:"scrub_on_clear"`

	LogLevel       util.LogLevel `yaml:"log_level" json:"log_level"`
	EnableExporter bool          `yaml:"enable_exporter" json:"enable_exporter"`
	ExporterPort   int           `yaml:"exporter_port" json:"exporter_port"`

	// Writer
	Workers      int  `yaml:"workers" json:"workers"`
	Count        int  `yaml:"count" json:"count"`
	IntervalMS   int  `yaml:"interval_ms" json:"interval_ms"`
	BurstPercent int  `yaml:"burst_percent" json:"burst_percent"`
	TestSequence bool `yaml:"test_sequence" json:"test_sequence"`

	// Reader
	PollIntervalMS   int    `yaml:"poll_interval_ms" json:"poll_interval_ms"`
	StatusIntervalMS int    `yaml:"status_interval_ms" json:"status_interval_ms"`
	MaxBatch         int    `yaml:"max_batch" json:"max_batch"`
	ArchivePath      string `yaml:"archive_path" json:"archive_path"`
}

// Default returns the configuration used when nothing else is given.
func Default() *Config {
	return &Config{
		Dir:              logring.DefaultDir,
		Name:             logring.DefaultName,
		LogLevel:         util.LogLevelInfo,
		ExporterPort:     9100,
		Workers:          1,
		Count:            0,
		IntervalMS:       1000,
		BurstPercent:     1,
		PollIntervalMS:   10,
		StatusIntervalMS: 5000,
		MaxBatch:         0,
	}
}

// Load builds a Config from, in increasing precedence: defaults, a YAML or
// JSON file (-config or LOGSHM_CONFIG_PATH), LOGSHM_* environment variables,
// and flags given explicitly on the command line. Callers may register
// program-specific flags on fs before calling Load.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := Default()

	configPath := fs.String("config", "", "Path to YAML/JSON config file")
	fs.StringVar(&cfg.Dir, "dir", cfg.Dir, "Directory holding the shared segment and lock files")
	fs.StringVar(&cfg.Name, "name", cfg.Name, "Well-known name of the shared segment")
	fs.BoolVar(&cfg.ScrubOnClear, "scrub-on-clear", cfg.ScrubOnClear, "Also zero slot contents on clear")
	fs.Var(&cfg.LogLevel, "log-level", "Log level (debug, info, warn, error)")
	fs.BoolVar(&cfg.EnableExporter, "exporter", cfg.EnableExporter, "Enable Prometheus exporter")
	fs.IntVar(&cfg.ExporterPort, "exporter-port", cfg.ExporterPort, "Exporter port")

	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Number of concurrent posting workers")
	fs.IntVar(&cfg.Count, "count", cfg.Count, "Records per worker (0 = until interrupted)")
	fs.IntVar(&cfg.IntervalMS, "interval", cfg.IntervalMS, "Upper bound of the random delay between posts in milliseconds")
	fs.IntVar(&cfg.BurstPercent, "burst-percent", cfg.BurstPercent, "Chance in percent of sending a burst after a post")
	fs.BoolVar(&cfg.TestSequence, "test-sequence", cfg.TestSequence, "Send one record per level before sampling")

	fs.IntVar(&cfg.PollIntervalMS, "poll-interval", cfg.PollIntervalMS, "Reader poll interval in milliseconds")
	fs.IntVar(&cfg.StatusIntervalMS, "status-interval", cfg.StatusIntervalMS, "Idle status report interval in milliseconds")
	fs.IntVar(&cfg.MaxBatch, "max-batch", cfg.MaxBatch, "Maximum records drained per poll (0 = until empty)")
	fs.StringVar(&cfg.ArchivePath, "archive", cfg.ArchivePath, "Append consumed records to this zstd JSONL archive")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Remember what was set explicitly before the file overwrites the fields.
	explicit := make(map[string]string)
	fs.Visit(func(f *flag.Flag) {
		explicit[f.Name] = f.Value.String()
	})

	path := *configPath
	if path == "" {
		path = os.Getenv("LOGSHM_CONFIG_PATH")
	}
	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	for name, value := range explicit {
		if name == "config" {
			continue
		}
		if err := fs.Set(name, value); err != nil {
			return nil, fmt.Errorf("reapply flag -%s: %w", name, err)
		}
	}

	cfg.Normalize()
	util.SetLevel(cfg.LogLevel)
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if strings.HasSuffix(path, ".json") {
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse JSON config %s: %w", path, err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse YAML config %s: %w", path, err)
	}
	return nil
}

// RingOptions maps the segment settings onto logring options.
func (cfg *Config) RingOptions() logring.Options {
	return logring.Options{
		Dir:          cfg.Dir,
		Name:         cfg.Name,
		ScrubOnClear: cfg.ScrubOnClear,
	}
}
