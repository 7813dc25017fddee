// Package store defines the aggregate persistence interface. The role and
// permission subsystems define their own store interfaces; the composite
// Store composes them. Backends: Postgres, SQLite, MongoDB and Memory.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/xraph/grant/permission"
	"github.com/xraph/grant/role"
)

// ErrNotFound is wrapped by every backend when a lookup matches nothing.
var ErrNotFound = errors.New("store: not found")

// Store is the aggregate persistence interface.
// A single backend (postgres, sqlite, mongo, memory) implements all of it.
type Store interface {
	role.Store
	permission.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}

// LikePrefix turns a literal prefix into a LIKE pattern, escaping the LIKE
// wildcards with a backslash.
func LikePrefix(prefix string) string {
	return likeEscaper.Replace(prefix) + "%"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
