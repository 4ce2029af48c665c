// Package config loads, normalizes, and validates Podcaster configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// GUARDIAN_API_KEY and LLM_API_KEY. The Config type centralizes every knob the
// daemon and CLI need: record store driver, artifact backend, transport retry
// policy, and provider endpoints.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical driver names, and clear validation errors.
package config
