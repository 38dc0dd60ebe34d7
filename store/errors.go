package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/icco/gobang"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// transient reports whether the database rejected the transaction for a
// reason that a rerun can fix.
func transient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// serialization_failure, deadlock_detected
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked
	}

	return false
}

// notFound maps gorm's record-not-found onto the gobang taxonomy.
func notFound(err error, entity string, id int64) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return gobang.NotFound(entity, id)
	}
	return fmt.Errorf("find %s %d: %w", entity, id, err)
}

// writeErr maps a failed insert or update. Unique index violations that slip
// past the explicit checks (a concurrent insert won) surface as validation
// errors on the named field.
func writeErr(err error, entity, field string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(strings.ToLower(err.Error()), "unique") {
		return gobang.Invalid(entity, field, "is already taken")
	}
	return fmt.Errorf("write %s: %w", entity, err)
}

// outcome names the result of an operation for metrics.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}

	var (
		ve *gobang.ValidationError
		fk *gobang.ForeignKeyError
		nf *gobang.NotFoundError
		se *gobang.StateError
		ce *gobang.ConflictError
	)
	switch {
	case errors.As(err, &ve):
		return "validation"
	case errors.As(err, &fk):
		return "foreign_key"
	case errors.As(err, &nf):
		return "not_found"
	case errors.As(err, &se):
		return "state"
	case errors.As(err, &ce):
		return "conflict"
	}
	return "error"
}
