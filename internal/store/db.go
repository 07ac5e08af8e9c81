package store

import (
	"context"
	"database/sql"
)

// The stores take the narrowest slice of sqlx they need so tests can stub
// them without a database.

type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Getter interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

type Selecter interface {
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// DB is what read paths run against; writes go through an Execer bound to a
// transaction.
type DB interface {
	Execer
	Getter
	Selecter
}
