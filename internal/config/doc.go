// Package config loads, normalizes, and validates vid2manga configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// VID2MANGA_BACKEND_URL. The Config type centralizes every knob the CLI and
// the conversion workflow need, so the backend address, polling cadence and
// state directories are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
