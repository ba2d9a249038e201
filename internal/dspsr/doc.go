// Package dspsr drives the dspsr, psrdiff and psrtxt command line tools.
//
// Folding is a two-phase invocation. FoldRunner.Start executes dspsr and
// leaves the Invocation awaiting a follow-up; Invocation.Finish runs the
// follow-up only when dspsr exited 0, then always sweeps stray *.dat files
// from the work directory. dspsr writes stage dumps to a fixed file name in
// its working directory, so an advisory lock on the work directory is held
// from Start to Finish and concurrent invocations fail fast with
// services.ErrRunnerBusy.
package dspsr
