// Package verify checks that the reference filterbank model and dspsr invert
// the polyphase filterbank identically, within single precision.
//
// Each case generates a signal, channelizes and synthesizes it with the
// reference tools, runs dspsr on the channelized data with a dump just before
// detection, and compares the synthesized samples with the dump. Intermediate
// files are disposed of unless output is being saved.
package verify
