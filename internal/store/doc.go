// Package store defines the persistence interfaces for job records and the
// sentinel errors shared by all store implementations. The durable postgres
// implementation lives in internal/platform/postgres; an in-memory
// implementation in this package backs tests and database-less runs.
package store
