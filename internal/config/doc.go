// Package config loads, normalizes, and validates the TOML configuration
// shared by the docforge daemon and CLI.
package config
