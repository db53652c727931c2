// Package postgres implements the store interfaces against PostgreSQL and
// maps driver errors to the store package's sentinel errors.
package postgres
