// Package deps reports whether the external tools a run shells out to can
// be found.
package deps
