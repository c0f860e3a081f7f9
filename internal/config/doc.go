// Package config loads, normalizes, and validates studyhall configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files plus optional .env files, and honours
// environment fallbacks such as STUDYHALL_API_TOKEN. The Config type
// centralizes every knob the CLI, the review TUI, and the development backend
// need, so the API endpoint, cache location, and backend credentials are
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
