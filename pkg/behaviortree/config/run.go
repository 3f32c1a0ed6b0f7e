package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/behaviortree/pkg/behaviortree"
	"github.com/randalmurphal/behaviortree/pkg/behaviortree/snapshot"
)

// Format is the encoding of a settings document.
type Format string

// Supported settings formats.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Snapshot drivers accepted under snapshots.driver.
const (
	DriverNone   = "none"
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Load reads the settings file at path and validates it. The format
// follows the extension: .yaml, .yml or .json.
func Load(path string) (Config, error) {
	var format Format
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		format = FormatYAML
	case ".json":
		format = FormatJSON
	default:
		return Config{}, fmt.Errorf("unsupported config file extension: %q", ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	cfg, err := Parse(data, format)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a settings document and validates it.
func Parse(data []byte, format Format) (Config, error) {
	var m map[string]any
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &m)
	case FormatJSON:
		err = json.Unmarshal(data, &m)
	default:
		return Config{}, fmt.Errorf("unsupported config format %q", format)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", format, err)
	}

	cfg := New(m)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks log_level and the snapshots section without opening
// anything, so a bad file fails at load rather than at the first run.
func (c Config) Validate() error {
	if _, _, err := c.logLevel(); err != nil {
		return err
	}
	_, _, err := c.snapshotDriver()
	return err
}

// RunOptions converts the document into run options:
//
//	run_id: nightly-greeting    # behaviortree.WithRunID
//	tree_name: greeter          # behaviortree.WithTreeName
//	metrics: true               # behaviortree.WithMetrics
//	tracing: true               # behaviortree.WithTracing
//	log_level: debug            # engine logs to logOut (JSON); omit to disable
//	snapshots:
//	  driver: sqlite            # none | memory | sqlite
//	  path: ./snapshots.db
//
// The returned store is nil when snapshots are disabled; otherwise the
// caller owns it and must Close it.
func (c Config) RunOptions(logOut io.Writer) ([]behaviortree.RunOption, snapshot.Store, error) {
	var opts []behaviortree.RunOption

	if id := c.String("run_id", ""); id != "" {
		opts = append(opts, behaviortree.WithRunID(id))
	}
	if name := c.String("tree_name", ""); name != "" {
		opts = append(opts, behaviortree.WithTreeName(name))
	}
	opts = append(opts,
		behaviortree.WithMetrics(c.Bool("metrics", false)),
		behaviortree.WithTracing(c.Bool("tracing", false)),
	)

	logger, err := c.Logger(logOut)
	if err != nil {
		return nil, nil, err
	}
	if logger != nil {
		opts = append(opts, behaviortree.WithObservabilityLogger(logger))
	}

	store, err := c.SnapshotStore()
	if err != nil {
		return nil, nil, err
	}
	if store != nil {
		opts = append(opts, behaviortree.WithSnapshots(store))
	}

	return opts, store, nil
}

// Logger builds a JSON logger writing to w at log_level.
// Returns nil when log_level is unset or w is nil.
func (c Config) Logger(w io.Writer) (*slog.Logger, error) {
	level, set, err := c.logLevel()
	if err != nil || !set || w == nil {
		return nil, err
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})), nil
}

// logLevel parses log_level. set is false when the key is absent or empty.
func (c Config) logLevel() (level slog.Level, set bool, err error) {
	raw := c.String("log_level", "")
	if raw == "" {
		return level, false, nil
	}
	if err := level.UnmarshalText([]byte(strings.ToUpper(raw))); err != nil {
		return level, false, fmt.Errorf("log_level: %w", err)
	}
	return level, true, nil
}

// SnapshotStore opens the store described by the snapshots section.
func (c Config) SnapshotStore() (snapshot.Store, error) {
	driver, path, err := c.snapshotDriver()
	if err != nil {
		return nil, err
	}
	switch driver {
	case DriverMemory:
		return snapshot.NewMemoryStore(), nil
	case DriverSQLite:
		store, err := snapshot.NewSQLiteStore(path)
		if err != nil {
			return nil, fmt.Errorf("open snapshot store: %w", err)
		}
		return store, nil
	}
	return nil, nil
}

// snapshotDriver reads the snapshots section. An empty driver means none.
func (c Config) snapshotDriver() (driver, path string, err error) {
	section := c.Sub("snapshots")
	driver = section.String("driver", DriverNone)
	path = section.String("path", "")
	switch driver {
	case DriverNone, "":
		return DriverNone, "", nil
	case DriverMemory:
		return driver, "", nil
	case DriverSQLite:
		if path == "" {
			return "", "", fmt.Errorf("snapshots.path is required for driver %q", driver)
		}
		return driver, path, nil
	}
	return "", "", fmt.Errorf("unknown snapshot driver %q", driver)
}
