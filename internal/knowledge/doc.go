// Package knowledge implements the knowledge-base query tool. A query is
// POSTed to the knowledge-base service and each returned document is
// republished to the host as a citation event. Failures are reported through
// the emitter and an empty result is returned; the workflow never errors out
// to its caller.
package knowledge
