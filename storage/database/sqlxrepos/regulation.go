package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/syllabix/syllabix/core"
	"github.com/syllabix/syllabix/core/regulation"
)

type regulationRow struct {
	ID           string    `db:"id"`
	DepartmentID string    `db:"department_id"`
	Code         string    `db:"code"`
	Name         string    `db:"name"`
	Year         int       `db:"year"`
	Status       string    `db:"status"`
	MinCredits   float64   `db:"min_credits"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r regulationRow) toRegulation() regulation.Regulation {
	return regulation.Regulation{
		ID:           r.ID,
		DepartmentID: r.DepartmentID,
		Code:         r.Code,
		Name:         r.Name,
		Year:         r.Year,
		Status:       r.Status,
		MinCredits:   r.MinCredits,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

type statementRow struct {
	ID           string    `db:"id"`
	RegulationID string    `db:"regulation_id"`
	Kind         string    `db:"kind"`
	Number       int       `db:"number"`
	Body         string    `db:"body"`
	Visibility   string    `db:"visibility"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r statementRow) toStatement() regulation.Statement {
	return regulation.Statement{
		ID:           r.ID,
		RegulationID: r.RegulationID,
		Kind:         r.Kind,
		Number:       r.Number,
		Body:         r.Body,
		Visibility:   r.Visibility,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

const (
	regulationColumns = `id, department_id, code, name, year, status, min_credits, created_at, updated_at`
	statementColumns  = `id, regulation_id, kind, number, body, visibility, created_at, updated_at`
)

var regulationOrdering = map[string]string{
	"code":       "code",
	"name":       "name",
	"year":       "year",
	"status":     "status",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

type regulationRepository struct {
	baseRepository
}

var _ regulation.Repository = (*regulationRepository)(nil)

func NewRegulationRepository(db core.DB) *regulationRepository {
	return &regulationRepository{baseRepository{db: db}}
}

func (repo *regulationRepository) CreateRegulation(ctx context.Context, reg regulation.Regulation, exec ...core.DBExecutor) (regulation.Regulation, error) {
	reg.ID = newID()
	_, err := execQuery(ctx, repo.executor(exec), `
		INSERT INTO regulation (`+regulationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		reg.ID, reg.DepartmentID, reg.Code, reg.Name, reg.Year, reg.Status, reg.MinCredits, reg.CreatedAt.UTC(), reg.UpdatedAt.UTC(),
	)
	if err != nil {
		return regulation.Regulation{}, errors.Wrap(err, "inserting regulation")
	}
	return reg, nil
}

func (repo *regulationRepository) QueryRegulations(ctx context.Context, filter *regulation.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]regulation.Regulation, error) {
	var conds conditions
	if filter != nil {
		conds.search(filter.Search, "code", "name")
		if filter.DepartmentID != "" {
			conds.add("department_id = ?", filter.DepartmentID)
		}
		if len(filter.Status) > 0 {
			conds.add("status IN (?)", filter.Status)
		}
		if filter.Year != 0 {
			conds.add("year = ?", filter.Year)
		}
	}

	var rows []regulationRow
	q := `SELECT ` + regulationColumns + ` FROM regulation` + conds.where() + orderBy(ordering, regulationOrdering, "year DESC, code ASC")
	if err := selectRows(ctx, repo.executor(exec), &rows, q, conds.args...); err != nil {
		return nil, errors.Wrap(err, "selecting regulations")
	}
	regs := make([]regulation.Regulation, 0, len(rows))
	for _, r := range rows {
		regs = append(regs, r.toRegulation())
	}
	return regs, nil
}

func (repo *regulationRepository) GetRegulation(ctx context.Context, id string, exec ...core.DBExecutor) (regulation.Regulation, error) {
	var r regulationRow
	q := `SELECT ` + regulationColumns + ` FROM regulation WHERE id = ?`
	if err := get(ctx, repo.executor(exec), &r, regulation.ErrNotFound, q, id); err != nil {
		return regulation.Regulation{}, err
	}
	return r.toRegulation(), nil
}

func (repo *regulationRepository) UpdateRegulation(ctx context.Context, reg regulation.Regulation, exec ...core.DBExecutor) (regulation.Regulation, error) {
	err := execAffecting(ctx, repo.executor(exec), regulation.ErrNotFound, `
		UPDATE regulation SET code = ?, name = ?, year = ?, status = ?, min_credits = ?, updated_at = ? WHERE id = ?`,
		reg.Code, reg.Name, reg.Year, reg.Status, reg.MinCredits, reg.UpdatedAt.UTC(), reg.ID,
	)
	if err != nil {
		return regulation.Regulation{}, err
	}
	return reg, nil
}

func (repo *regulationRepository) DeleteRegulation(ctx context.Context, id string, exec ...core.DBExecutor) error {
	return repo.inTx(ctx, exec, func(tx core.DBExecutor) error {
		if err := execAffecting(ctx, tx, regulation.ErrNotFound, `DELETE FROM regulation WHERE id = ?`, id); err != nil {
			return err
		}
		return pruneAdoptions(ctx, tx)
	})
}

func (repo *regulationRepository) CreateStatement(ctx context.Context, stmt regulation.Statement, exec ...core.DBExecutor) (regulation.Statement, error) {
	stmt.ID = newID()
	_, err := execQuery(ctx, repo.executor(exec), `
		INSERT INTO statement (`+statementColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		stmt.ID, stmt.RegulationID, stmt.Kind, stmt.Number, stmt.Body, stmt.Visibility, stmt.CreatedAt.UTC(), stmt.UpdatedAt.UTC(),
	)
	if err != nil {
		return regulation.Statement{}, errors.Wrap(err, "inserting statement")
	}
	return stmt, nil
}

func (repo *regulationRepository) MaxStatementNumber(ctx context.Context, regulationID, kind string, exec ...core.DBExecutor) (int, error) {
	var n int
	err := get(ctx, repo.executor(exec), &n, nil,
		`SELECT COALESCE(MAX(number), 0) FROM statement WHERE regulation_id = ? AND kind = ?`, regulationID, kind)
	return n, err
}

func (repo *regulationRepository) QueryStatements(ctx context.Context, regulationID string, kinds []string, exec ...core.DBExecutor) ([]regulation.Statement, error) {
	var conds conditions
	conds.add("regulation_id = ?", regulationID)
	if len(kinds) > 0 {
		conds.add("kind IN (?)", kinds)
	}

	var rows []statementRow
	q := `SELECT ` + statementColumns + ` FROM statement` + conds.where() + ` ORDER BY kind ASC, number ASC`
	if err := selectRows(ctx, repo.executor(exec), &rows, q, conds.args...); err != nil {
		return nil, errors.Wrap(err, "selecting statements")
	}
	stmts := make([]regulation.Statement, 0, len(rows))
	for _, r := range rows {
		stmts = append(stmts, r.toStatement())
	}
	return stmts, nil
}

func (repo *regulationRepository) GetStatement(ctx context.Context, id string, exec ...core.DBExecutor) (regulation.Statement, error) {
	var r statementRow
	q := `SELECT ` + statementColumns + ` FROM statement WHERE id = ?`
	if err := get(ctx, repo.executor(exec), &r, regulation.ErrStatementNotFound, q, id); err != nil {
		return regulation.Statement{}, err
	}
	return r.toStatement(), nil
}

func (repo *regulationRepository) UpdateStatement(ctx context.Context, stmt regulation.Statement, exec ...core.DBExecutor) (regulation.Statement, error) {
	err := execAffecting(ctx, repo.executor(exec), regulation.ErrStatementNotFound, `
		UPDATE statement SET number = ?, body = ?, updated_at = ? WHERE id = ?`,
		stmt.Number, stmt.Body, stmt.UpdatedAt.UTC(), stmt.ID,
	)
	if err != nil {
		return regulation.Statement{}, err
	}
	return stmt, nil
}

func (repo *regulationRepository) DeleteStatement(ctx context.Context, id string, exec ...core.DBExecutor) error {
	return repo.inTx(ctx, exec, func(tx core.DBExecutor) error {
		if err := execAffecting(ctx, tx, regulation.ErrStatementNotFound, `DELETE FROM statement WHERE id = ?`, id); err != nil {
			return err
		}
		return pruneAdoptions(ctx, tx)
	})
}
