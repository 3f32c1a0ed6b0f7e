/*
Package config loads behavior tree run settings from YAML or JSON.

# Overview

Config wraps a map[string]any and provides typed accessor methods that handle
missing keys and type mismatches gracefully by returning default values.
RunOptions turns a document into behaviortree.RunOption values.

# Basic Usage

	cfg, err := config.Load("greeter.yaml") // also validates the engine keys
	if err != nil {
	    log.Fatal(err)
	}

	opts, store, err := cfg.RunOptions(os.Stderr)
	if err != nil {
	    log.Fatal(err)
	}
	if store != nil {
	    defer store.Close()
	}

	result, err := behaviortree.RunSync(ctx, root, frame, opts...)

Application settings sit alongside the engine's:

	delay := cfg.Duration("compute_delay", time.Second)

# Type Coercion

Duration handles multiple input types:
  - string: parsed with time.ParseDuration ("30s", "1h30m")
  - int/float64: interpreted as seconds
  - time.Duration: used directly

Int accepts float64 values only when they have no fractional part, since
JSON decodes every number as float64.

# Thread Safety

Config is safe for concurrent read access. The underlying map is not
modified after creation.
*/
package config
