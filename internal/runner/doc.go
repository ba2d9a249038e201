// Package runner provides the shared plumbing for invoking external tools.
//
// A Base owns the per-call scratch State (output directory, output base
// name, extra arguments), derives deterministic output names from input
// paths, and executes CommandSpec values through an Executor that captures
// stdout and stderr into a log file. State is reset after every call and a
// Base refuses concurrent reentry with services.ErrRunnerBusy.
//
// Registry hands out exactly one instance per runner type. It is built once
// at process start and passed to the components that need runners.
package runner
