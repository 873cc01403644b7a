// Package progress provides the event primitives and the emitter that tool
// workflows use to report progress back to the hosting assistant. Events are
// delivered to a pluggable sink one at a time, in the exact order they were
// emitted; the emitter never propagates sink failures to the workflow.
package progress
