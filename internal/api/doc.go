// Package api exposes policy imports and scheduled messages over HTTP. It
// decodes and validates requests, calls the ingester and the scheduler, and
// maps their errors to status codes and safe client messages.
package api
