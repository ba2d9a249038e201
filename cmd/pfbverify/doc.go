// Package main hosts the pfbverify CLI entrypoint and command graph.
//
// The Cobra-based command tree exposes the verification driver, the
// individual dspsr tool runners, test vector processing, report history and
// configuration scaffolding. It centralizes configuration resolution, profile
// selection and structured logging setup so subcommands can focus on their
// own flags and output.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
