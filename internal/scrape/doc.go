// Package scrape implements the web-scrape tool: it extracts URLs from free
// text, fetches each one through a content-extraction reader service, and
// returns the concatenated per-URL blocks. A failing URL never aborts the
// batch and the workflow never returns an error to its caller.
package scrape
