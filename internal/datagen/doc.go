// Package datagen wraps the MATLAB-compiled data generation tools: the test
// vector generator, the polyphase channelizer and the inverse filterbank
// synthesizer.
//
// Every tool writes a DADA file into its output directory and a log named
// after the output base. A nonzero exit is reported as services.ErrExternalTool
// and an absent output after a clean exit as services.ErrMissingArtifact. The
// Stage helpers adapt each runner to the pipeline package.
package datagen
