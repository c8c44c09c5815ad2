// Package config loads, normalizes, and validates pdftriage configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PDFTRIAGE_GCS_BUCKET. The Config type centralizes every knob the scan
// pipeline and CLI need so discovery, classification, and persistence settings
// are resolved in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
