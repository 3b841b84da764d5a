// Package config defines launcher settings and provides helpers to load,
// validate and save them in YAML format.
//
// A missing settings file is not an error: the first run works with defaults
// and CLI flags override whatever was loaded.
package config
