// Package task runs work off the request path.
//
// TaskQueue and WorkerPool execute queued Tasks on a fixed set of worker
// goroutines; policy file imports use them. Scheduler fires durable one-shot
// messages at their scheduled instant and restores its triggers from storage
// after a restart.
package task
