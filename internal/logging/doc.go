// Package logging configures the process-wide zerolog logger.
//
// Ownership boundary:
// - runtime and test logging profiles
// - environment overrides
// - per-component child loggers
package logging
