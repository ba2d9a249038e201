// Package preflight provides readiness checks for the tools and filesystem
// paths pfbverify depends on.
//
// The verify command runs RunAll before starting and refuses to run when a
// required check fails, so a missing binary is reported up front rather than
// after an hour of data generation. The doctor command renders every result.
package preflight
