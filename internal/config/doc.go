// Package config loads, normalizes, and validates pfbverify configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, applies named filterbank profiles, and honours
// the DSPSR_BIN environment override. The Config type is built once at process
// start and passed to every runner and stage constructor; nothing in the
// module reads configuration from package-level state.
//
// Validation failures are tagged with services.ErrConfiguration so callers can
// treat them as fatal startup errors.
package config
