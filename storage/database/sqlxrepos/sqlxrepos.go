// Package sqlxrepos implements the core repositories with sqlx over postgres or sqlite.
// Queries use `?` placeholders, rebound for the executing driver.
package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/syllabix/syllabix/core"
)

type baseRepository struct {
	db core.DB
}

// executor returns the transaction given by a caller, if any, or the database.
func (repo baseRepository) executor(exec []core.DBExecutor) core.DBExecutor {
	if len(exec) > 0 && exec[0] != nil {
		return exec[0]
	}
	return repo.db
}

func newID() string {
	return uuid.NewString()
}

// mapErr translates driver constraint errors into core errors.
func mapErr(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgerrcode.UniqueViolation:
			return errors.Wrap(core.ErrUniqueViolation, pqErr.Message)
		case pgerrcode.ForeignKeyViolation:
			return errors.Wrap(core.ErrForeignKeyViolation, pqErr.Message)
		}
		return err
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return errors.Wrap(core.ErrUniqueViolation, liteErr.Error())
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return errors.Wrap(core.ErrForeignKeyViolation, liteErr.Error())
		}
	}
	return err
}

// exec runs a write query, mapping constraint errors.
func execQuery(ctx context.Context, exec core.DBExecutor, query string, args ...interface{}) (sql.Result, error) {
	res, err := exec.ExecContext(ctx, exec.Rebind(query), args...)
	return res, mapErr(err)
}

// execAffecting runs a write query and returns notFound when no row was affected.
func execAffecting(ctx context.Context, exec core.DBExecutor, notFound error, query string, args ...interface{}) error {
	res, err := execQuery(ctx, exec, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "getting affected rows")
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// get scans a single row into dest, returning notFound when there is none.
func get(ctx context.Context, exec core.DBExecutor, dest interface{}, notFound error, query string, args ...interface{}) error {
	query, args, err := expand(exec, query, args...)
	if err != nil {
		return err
	}
	if err = exec.GetContext(ctx, dest, query, args...); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return notFound
		}
		return err
	}
	return nil
}

// selectRows scans every row into dest, a pointer to a slice.
func selectRows(ctx context.Context, exec core.DBExecutor, dest interface{}, query string, args ...interface{}) error {
	query, args, err := expand(exec, query, args...)
	if err != nil {
		return err
	}
	return exec.SelectContext(ctx, dest, query, args...)
}

// expand expands slice arguments of IN clauses then rebinds the query.
func expand(exec core.DBExecutor, query string, args ...interface{}) (string, []interface{}, error) {
	for _, arg := range args {
		if _, ok := arg.([]string); ok {
			q, a, err := sqlx.In(query, args...)
			if err != nil {
				return "", nil, errors.Wrap(err, "expanding query")
			}
			return exec.Rebind(q), a, nil
		}
	}
	return exec.Rebind(query), args, nil
}

// conditions accumulates the AND-ed clauses of a WHERE.
type conditions struct {
	clauses []string
	args    []interface{}
}

func (c *conditions) add(clause string, args ...interface{}) {
	c.clauses = append(c.clauses, clause)
	c.args = append(c.args, args...)
}

// search matches term case-insensitively on any of columns.
func (c *conditions) search(term string, columns ...string) {
	if term == "" {
		return
	}
	like := "%" + strings.ToLower(term) + "%"
	ors := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns))
	for _, col := range columns {
		ors = append(ors, "LOWER("+col+") LIKE ?")
		args = append(args, like)
	}
	c.add("("+strings.Join(ors, " OR ")+")", args...)
}

func (c *conditions) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

// orderBy builds an ORDER BY clause from the whitelisted fields only; columns maps API fields to SQL columns.
func orderBy(ordering []core.DBOrdering, columns map[string]string, fallback string) string {
	parts := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		col, ok := columns[ord.Field]
		if !ok {
			continue
		}
		parts = append(parts, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
	}
	if len(parts) == 0 {
		return " ORDER BY " + fallback
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

// pruneAdoptions drops the adoptions of items that no longer exist.
func pruneAdoptions(ctx context.Context, exec core.DBExecutor) error {
	_, err := execQuery(ctx, exec, `
		DELETE FROM adoption WHERE
			(kind IN ('PEO', 'PO', 'PSO', 'MISSION', 'VISION') AND item_id NOT IN (SELECT id FROM statement))
			OR (kind = 'SEMESTER' AND item_id NOT IN (SELECT id FROM semester))
			OR (kind = 'COURSE' AND item_id NOT IN (SELECT id FROM course))`)
	return errors.Wrap(err, "pruning adoptions")
}

// inTx runs fn in the caller's transaction when there is one, or in a new transaction.
func (repo baseRepository) inTx(ctx context.Context, exec []core.DBExecutor, fn func(tx core.DBExecutor) error) error {
	if len(exec) > 0 && exec[0] != nil {
		return fn(exec[0])
	}
	return core.RunInTx(ctx, repo.db, fn)
}
