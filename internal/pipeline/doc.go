// Package pipeline composes stage functions: Chain threads forwarded paths
// through arbitrary stages and Pipeline runs the fixed generate, channelize,
// synthesize sequence with stage-prefixed output names.
package pipeline
