package main

import (
	"bytes"
	"fmt"
	"io"

	"github.com/c2h5oh/datasize"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/pavanmanishd/region"
)

// Config sizes the region and slot table the commands work with.
type Config struct {
	Capacity  datasize.ByteSize `yaml:"capacity"`
	Backing   region.Backing    `yaml:"backing"`
	SlotLimit int               `yaml:"slot_limit"`
	LogLevel  zapcore.Level     `yaml:"log_level"`
	LogFormat string            `yaml:"log_format"`
}

// DefaultConfig returns the configuration used when no file or flag says otherwise.
func DefaultConfig() Config {
	return Config{
		Capacity:  16 * datasize.MB,
		Backing:   region.Heap,
		SlotLimit: 256,
		LogLevel:  zapcore.InfoLevel,
		LogFormat: "console",
	}
}

// LoadConfig reads a YAML config from path over the defaults. Unknown keys
// are rejected.
func LoadConfig(fs afero.Fs, path string) (Config, error) {
	cfg := DefaultConfig()
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, errors.Wrapf(err, "parse config %q", path)
	}
	return cfg, nil
}

// overrides carries flag values; empty strings and zero ints leave the
// config untouched.
type overrides struct {
	capacity  string
	backing   string
	slotLimit int
	logLevel  string
	logFormat string
}

func (o overrides) apply(cfg *Config) error {
	if o.capacity != "" {
		if err := cfg.Capacity.UnmarshalText([]byte(o.capacity)); err != nil {
			return errors.Wrapf(err, "invalid --capacity %q", o.capacity)
		}
	}
	if o.backing != "" {
		b, err := region.ParseBacking(o.backing)
		if err != nil {
			return errors.Wrap(err, "invalid --backing")
		}
		cfg.Backing = b
	}
	if o.slotLimit != 0 {
		cfg.SlotLimit = o.slotLimit
	}
	if o.logLevel != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(o.logLevel)); err != nil {
			return errors.Wrapf(err, "invalid --log.level %q", o.logLevel)
		}
	}
	if o.logFormat != "" {
		cfg.LogFormat = o.logFormat
	}
	return nil
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	maxInt := uint64(^uint(0) >> 1)
	switch {
	case c.Capacity.Bytes() == 0:
		return errors.New("capacity must be positive")
	case c.Capacity.Bytes() > maxInt:
		return errors.Errorf("capacity %s exceeds the address space", c.Capacity.HR())
	case c.SlotLimit <= 0:
		return errors.Errorf("slot_limit must be positive, got %d", c.SlotLimit)
	case c.Backing != region.Heap && c.Backing != region.Mmap:
		return errors.Errorf("unknown backing %d", c.Backing)
	case c.LogFormat != "console" && c.LogFormat != "json":
		return errors.Errorf("log_format must be console or json, got %q", c.LogFormat)
	}
	return nil
}

// NewLogger builds the process logger for the configured level and format.
func (c Config) NewLogger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.LogFormat == "console" {
		zc = zap.NewDevelopmentConfig()
		zc.Development = false
	}
	zc.Level = zap.NewAtomicLevelAt(c.LogLevel)
	zc.DisableStacktrace = true
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
