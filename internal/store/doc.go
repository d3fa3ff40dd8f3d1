// Package store defines the persistence interfaces for policy entities and
// scheduled messages, and the errors every implementation returns.
package store
