// Package ingest implements bulk policy import.
//
// Rows decoded from CSV or spreadsheet uploads are normalized into canonical
// field groups, their reference entities (agent, user, account, category,
// carrier) are resolved idempotently against the stores, and a policy is
// created for every new policy number. Failures are isolated per row and
// collected in a Report; only an undecodable file fails the whole batch.
//
// Imports run on the background worker pool in package task so that large
// files never block request handling.
package ingest
