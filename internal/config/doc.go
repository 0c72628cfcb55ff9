// Package config loads, normalizes, and validates docket's TOML
// configuration.
package config
