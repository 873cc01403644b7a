// Package api exposes the tool adapters over HTTP. Each tool endpoint
// streams progress events to the caller as NDJSON lines in emission order,
// terminated by a single result line.
package api
