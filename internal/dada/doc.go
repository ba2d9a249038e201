// Package dada reads and writes DADA dump files, the on-disk format shared by
// the MATLAB stage tools and dspsr.
package dada
