// Package reportstore keeps the history of verification runs in SQLite so
// results can be compared across filterbank configurations and over time.
package reportstore
