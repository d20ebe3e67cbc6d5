// Package config loads service settings from defaults, an optional YAML
// file and VIDSCRIBE_ environment variables, and validates the result
// before any component is constructed.
package config
