// Package config loads, normalizes, and validates batchsim configuration.
//
// Values come from three layers applied in order: built-in defaults, an
// optional TOML file, then BATCHSIM_* environment variables. Durations are
// written as Go duration strings ("300ms", "15s") and resolved once by
// normalize so callers read typed values from the accessor methods.
package config
