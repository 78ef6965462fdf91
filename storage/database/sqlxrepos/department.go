package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/syllabix/syllabix/core"
	"github.com/syllabix/syllabix/core/department"
)

type departmentRow struct {
	ID        string      `db:"id"`
	Code      string      `db:"code"`
	Name      string      `db:"name"`
	ClusterID null.String `db:"cluster_id"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func (r departmentRow) toDepartment() department.Department {
	return department.Department{
		ID:        r.ID,
		Code:      r.Code,
		Name:      r.Name,
		ClusterID: r.ClusterID.String,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

const departmentColumns = `id, code, name, cluster_id, created_at, updated_at`

var departmentOrdering = map[string]string{
	"code":       "code",
	"name":       "name",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

type departmentRepository struct {
	baseRepository
}

var _ department.Repository = (*departmentRepository)(nil)

func NewDepartmentRepository(db core.DB) *departmentRepository {
	return &departmentRepository{baseRepository{db: db}}
}

func (repo *departmentRepository) CreateDepartment(ctx context.Context, dept department.Department, exec ...core.DBExecutor) (department.Department, error) {
	dept.ID = newID()
	_, err := execQuery(ctx, repo.executor(exec), `
		INSERT INTO department (id, code, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		dept.ID, dept.Code, dept.Name, dept.CreatedAt.UTC(), dept.UpdatedAt.UTC(),
	)
	if err != nil {
		return department.Department{}, errors.Wrap(err, "inserting department")
	}
	return dept, nil
}

func (repo *departmentRepository) QueryDepartments(ctx context.Context, filter *department.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]department.Department, error) {
	var conds conditions
	if filter != nil {
		conds.search(filter.Search, "code", "name")
		if filter.ClusterID != "" {
			conds.add("cluster_id = ?", filter.ClusterID)
		}
		if filter.NoCluster {
			conds.add("cluster_id IS NULL")
		}
	}

	var rows []departmentRow
	q := `SELECT ` + departmentColumns + ` FROM department` + conds.where() + orderBy(ordering, departmentOrdering, "code ASC")
	if err := selectRows(ctx, repo.executor(exec), &rows, q, conds.args...); err != nil {
		return nil, errors.Wrap(err, "selecting departments")
	}
	depts := make([]department.Department, 0, len(rows))
	for _, r := range rows {
		depts = append(depts, r.toDepartment())
	}
	return depts, nil
}

func (repo *departmentRepository) GetDepartment(ctx context.Context, id string, exec ...core.DBExecutor) (department.Department, error) {
	var r departmentRow
	q := `SELECT ` + departmentColumns + ` FROM department WHERE id = ?`
	if err := get(ctx, repo.executor(exec), &r, department.ErrNotFound, q, id); err != nil {
		return department.Department{}, err
	}
	return r.toDepartment(), nil
}

func (repo *departmentRepository) UpdateDepartment(ctx context.Context, dept department.Department, exec ...core.DBExecutor) (department.Department, error) {
	err := execAffecting(ctx, repo.executor(exec), department.ErrNotFound, `
		UPDATE department SET code = ?, name = ?, updated_at = ? WHERE id = ?`,
		dept.Code, dept.Name, dept.UpdatedAt.UTC(), dept.ID,
	)
	if err != nil {
		return department.Department{}, err
	}
	return dept, nil
}

func (repo *departmentRepository) DeleteDepartment(ctx context.Context, id string, exec ...core.DBExecutor) error {
	return execAffecting(ctx, repo.executor(exec), department.ErrNotFound, `DELETE FROM department WHERE id = ?`, id)
}

func (repo *departmentRepository) CountRegulations(ctx context.Context, id string, exec ...core.DBExecutor) (int, error) {
	var n int
	err := get(ctx, repo.executor(exec), &n, nil, `SELECT COUNT(*) FROM regulation WHERE department_id = ?`, id)
	return n, err
}
