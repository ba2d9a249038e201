// Package services defines shared utilities consumed by the tool runners,
// pipeline stages, and verification driver.
//
// Key responsibilities:
//   - Context helpers that stamp stage names, verification case labels, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     (configuration, external tool, arithmetic domain, missing artifact).
//
// Use these helpers when wiring new stage logic so failure classification and
// observability stay uniform across every external tool invocation.
package services
