// Package logging assembles structured slog loggers and formatting helpers used
// across pfbverify.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so runner and stage code tags
// log lines with stage names, verification cases, and run identifiers. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
package logging
