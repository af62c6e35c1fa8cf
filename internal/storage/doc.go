// Package storage provides knowledge.Store implementations: SQLite for
// persistence and an in-memory store for tests and ephemeral runs.
package storage
