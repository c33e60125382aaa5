// Package config defines the YAML settings of the proximity binaries and
// provides helpers to load, validate and save them.
//
// Validate fills defaults for every optional field, so a minimal file only
// names the sensor source.
package config
