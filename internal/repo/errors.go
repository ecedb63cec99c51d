// Package repo implements one repository per aggregate (§4.2, C2): typed
// CRUD wrapped in a transaction, with low-level store errors mapped into
// the §7 domain error taxonomy. Grounded on the teacher's internal/db
// package shape (one file per aggregate, Params structs for multi-field
// writes) with the Postgres-specific error inspection replaced by SQLite
// equivalents.
package repo

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/pinggolf/replenish-engine/internal/domain"
)

// classify maps a raw *sql driver error into the domain taxonomy. msg
// should describe the operation that failed (e.g. "insert sku").
func classify(msg string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound(msg, err)
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrConstraint:
			switch sqliteErr.ExtendedCode {
			case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
				return domain.DuplicateKey(msg, err)
			case sqlite3.ErrConstraintForeignKey:
				return domain.ForeignKey(msg, err)
			case sqlite3.ErrConstraintCheck:
				return domain.BusinessRule(msg, err)
			default:
				return domain.BusinessRule(msg, err)
			}
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return domain.Transient(msg, err)
		}
	}
	if strings.Contains(strings.ToLower(err.Error()), "unique") {
		return domain.DuplicateKey(msg, err)
	}
	if strings.Contains(strings.ToLower(err.Error()), "foreign key") {
		return domain.ForeignKey(msg, err)
	}
	return err
}
