package config

import (
	"os"
	"strings"

	"github.com/downfa11-org/logshm/pkg/logring"
	"github.com/downfa11-org/logshm/util"
)

func (cfg *Config) Normalize() {
	if strings.TrimSpace(cfg.Dir) == "" {
		cfg.Dir = logring.DefaultDir
	}
	if strings.TrimSpace(cfg.Name) == "" {
		cfg.Name = logring.DefaultName
	}
	if strings.ContainsAny(cfg.Name, `/\`) {
		util.Warn("Invalid segment name '%s', defaulting to '%s'", cfg.Name, logring.DefaultName)
		cfg.Name = logring.DefaultName
	}
	if cfg.LogLevel < util.LogLevelDebug || cfg.LogLevel > util.LogLevelError {
		cfg.LogLevel = util.LogLevelInfo
	}
	if cfg.ExporterPort <= 0 {
		cfg.ExporterPort = 9100
	}

	// writer
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Count < 0 {
		cfg.Count = 0
	}
	if cfg.IntervalMS < 0 {
		cfg.IntervalMS = 0
	}
	if cfg.BurstPercent < 0 {
		cfg.BurstPercent = 0
	}
	if cfg.BurstPercent > 100 {
		cfg.BurstPercent = 100
	}

	// reader
	if cfg.PollIntervalMS <= 0 {
		cfg.PollIntervalMS = 10
	}
	if cfg.StatusIntervalMS <= 0 {
		cfg.StatusIntervalMS = 5000
	}
	if cfg.MaxBatch < 0 {
		cfg.MaxBatch = 0
	}
}

func applyEnv(cfg *Config) {
	overrideEnvString(&cfg.Dir, "LOGSHM_DIR")
	overrideEnvString(&cfg.Name, "LOGSHM_NAME")
	overrideEnvBool(&cfg.ScrubOnClear, "LOGSHM_SCRUB_ON_CLEAR")
	if v := os.Getenv("LOGSHM_LOG_LEVEL"); v != "" {
		cfg.LogLevel = util.ParseLogLevel(v)
	}
	overrideEnvBool(&cfg.EnableExporter, "LOGSHM_EXPORTER")
	overrideEnvInt(&cfg.ExporterPort, "LOGSHM_EXPORTER_PORT")
	overrideEnvInt(&cfg.Workers, "LOGSHM_WORKERS")
	overrideEnvInt(&cfg.Count, "LOGSHM_COUNT")
	overrideEnvMillis(&cfg.IntervalMS, "LOGSHM_INTERVAL")
	overrideEnvMillis(&cfg.PollIntervalMS, "LOGSHM_POLL_INTERVAL")
	overrideEnvMillis(&cfg.StatusIntervalMS, "LOGSHM_STATUS_INTERVAL")
	overrideEnvString(&cfg.ArchivePath, "LOGSHM_ARCHIVE")
}

func overrideEnvInt(target *int, key string) {
	if v := os.Getenv(key); v != "" {
		*target = util.ParseInt(v, *target)
	}
}

func overrideEnvMillis(target *int, key string) {
	if v := os.Getenv(key); v != "" {
		*target = util.ParseMillis(v, *target)
	}
}

func overrideEnvBool(target *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*target = util.ParseBool(v, *target)
	}
}

func overrideEnvString(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}
