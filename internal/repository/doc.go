// Package repository defines the data access interface for wanlens.
//
// A correlation pass is fully derived from its input snapshot, so nothing
// here is a source of truth. The store keeps a history of runs: summary
// counts for trend listing and the full result so a previous pass can be
// served again after a restart.
//
// The sqlite subpackage implements the interface on modernc.org/sqlite
// with WAL mode. Tests use in-memory databases.
package repository
