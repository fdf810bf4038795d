// Package config loads, normalizes, and validates cutroom configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CUTROOM_SERVICE_URL. The Config type centralizes every knob the CLI and the
// render simulator need, allowing project directories and the render service
// endpoint to be discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
