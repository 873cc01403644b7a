// Package sinks contains host-side Sink implementations: a structured-log
// sink for development and audits, and a Prometheus sink that counts the
// event stream. The NDJSON streaming sink lives in the api package because it
// is bound to an HTTP response.
package sinks
