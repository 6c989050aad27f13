// Package progress defines the progress-reporting collaborator for
// stage runs.
//
// Reporters are purely observational: the mapper tells them how far a
// stage has come, and nothing they do can affect control flow or record
// ordering. The default Log reporter emits periodic zerolog lines;
// Nop discards everything.
package progress
