package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/syllabix/syllabix/core"
	"github.com/syllabix/syllabix/core/cluster"
)

type clusterRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r clusterRow) toCluster(deptIDs []string) cluster.Cluster {
	if deptIDs == nil {
		deptIDs = []string{}
	}
	return cluster.Cluster{
		ID:            r.ID,
		Name:          r.Name,
		Description:   r.Description,
		DepartmentIDs: deptIDs,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

type itemRow struct {
	ID               string `db:"id"`
	RegulationID     string `db:"regulation_id"`
	DepartmentID     string `db:"department_id"`
	Number           int    `db:"number"`
	Label            string `db:"label"`
	Visibility       string `db:"visibility"`
	RegulationStatus string `db:"regulation_status"`
}

func (r itemRow) toItem(kind string) cluster.Item {
	return cluster.Item{
		Kind:             kind,
		ID:               r.ID,
		RegulationID:     r.RegulationID,
		DepartmentID:     r.DepartmentID,
		Number:           r.Number,
		Label:            r.Label,
		Visibility:       r.Visibility,
		RegulationStatus: r.RegulationStatus,
	}
}

type adoptionRow struct {
	ID                 string    `db:"id"`
	Kind               string    `db:"kind"`
	ItemID             string    `db:"item_id"`
	SourceDepartmentID string    `db:"source_department_id"`
	RegulationID       string    `db:"regulation_id"`
	CreatedAt          time.Time `db:"created_at"`
}

func (r adoptionRow) toAdoption() cluster.Adoption {
	return cluster.Adoption{
		ID:                 r.ID,
		Kind:               r.Kind,
		ItemID:             r.ItemID,
		SourceDepartmentID: r.SourceDepartmentID,
		RegulationID:       r.RegulationID,
		CreatedAt:          r.CreatedAt.UTC(),
	}
}

const (
	clusterColumns  = `id, name, description, created_at, updated_at`
	adoptionColumns = `id, kind, item_id, source_department_id, regulation_id, created_at`
)

var clusterOrdering = map[string]string{
	"name":       "name",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

// itemSource describes where the items of a kind live.
type itemSource struct {
	table  string
	sel    string // selects itemRow columns, aliasing the item table as "i"
	filter string // extra condition on the item table
}

func sourceOf(kind string) (itemSource, error) {
	const regJoin = ` JOIN regulation r ON r.id = i.regulation_id`
	switch {
	case cluster.IsStatementKind(kind):
		return itemSource{
			table: "statement",
			sel: `SELECT i.id, i.regulation_id, r.department_id, i.number, i.body AS label, i.visibility, r.status AS regulation_status
				FROM statement i` + regJoin,
			filter: "i.kind = ?",
		}, nil
	case kind == cluster.KindSemester:
		return itemSource{
			table: "semester",
			sel: `SELECT i.id, i.regulation_id, r.department_id, i.number, i.name AS label, i.visibility, r.status AS regulation_status
				FROM semester i` + regJoin,
		}, nil
	case kind == cluster.KindCourse:
		return itemSource{
			table: "course",
			sel: `SELECT i.id, i.regulation_id, r.department_id, s.number, i.code || ' ' || i.title AS label, i.visibility, r.status AS regulation_status
				FROM course i JOIN semester s ON s.id = i.semester_id` + regJoin,
		}, nil
	}
	return itemSource{}, errors.Errorf("unknown item kind %q", kind)
}

type clusterRepository struct {
	baseRepository
}

var _ cluster.Repository = (*clusterRepository)(nil)

func NewClusterRepository(db core.DB) *clusterRepository {
	return &clusterRepository{baseRepository{db: db}}
}

func (repo *clusterRepository) CreateCluster(ctx context.Context, cl cluster.Cluster, exec ...core.DBExecutor) (cluster.Cluster, error) {
	cl.ID = newID()
	_, err := execQuery(ctx, repo.executor(exec), `
		INSERT INTO cluster (`+clusterColumns+`) VALUES (?, ?, ?, ?, ?)`,
		cl.ID, cl.Name, cl.Description, cl.CreatedAt.UTC(), cl.UpdatedAt.UTC(),
	)
	if err != nil {
		return cluster.Cluster{}, errors.Wrap(err, "inserting cluster")
	}
	cl.DepartmentIDs = []string{}
	return cl, nil
}

// members maps cluster IDs to their department IDs, ordered by department code.
func (repo *clusterRepository) members(ctx context.Context, ex core.DBExecutor, clusterIDs []string) (map[string][]string, error) {
	members := make(map[string][]string, len(clusterIDs))
	if len(clusterIDs) == 0 {
		return members, nil
	}
	var rows []struct {
		ID        string `db:"id"`
		ClusterID string `db:"cluster_id"`
	}
	q := `SELECT id, cluster_id FROM department WHERE cluster_id IN (?) ORDER BY code ASC`
	if err := selectRows(ctx, ex, &rows, q, clusterIDs); err != nil {
		return nil, errors.Wrap(err, "selecting cluster members")
	}
	for _, r := range rows {
		members[r.ClusterID] = append(members[r.ClusterID], r.ID)
	}
	return members, nil
}

func (repo *clusterRepository) QueryClusters(ctx context.Context, filter *cluster.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]cluster.Cluster, error) {
	ex := repo.executor(exec)
	var conds conditions
	if filter != nil {
		conds.search(filter.Search, "name")
	}

	var rows []clusterRow
	q := `SELECT ` + clusterColumns + ` FROM cluster` + conds.where() + orderBy(ordering, clusterOrdering, "name ASC")
	if err := selectRows(ctx, ex, &rows, q, conds.args...); err != nil {
		return nil, errors.Wrap(err, "selecting clusters")
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	members, err := repo.members(ctx, ex, ids)
	if err != nil {
		return nil, err
	}
	clusters := make([]cluster.Cluster, 0, len(rows))
	for _, r := range rows {
		clusters = append(clusters, r.toCluster(members[r.ID]))
	}
	return clusters, nil
}

func (repo *clusterRepository) GetCluster(ctx context.Context, id string, exec ...core.DBExecutor) (cluster.Cluster, error) {
	ex := repo.executor(exec)
	var r clusterRow
	q := `SELECT ` + clusterColumns + ` FROM cluster WHERE id = ?`
	if err := get(ctx, ex, &r, cluster.ErrNotFound, q, id); err != nil {
		return cluster.Cluster{}, err
	}
	members, err := repo.members(ctx, ex, []string{id})
	if err != nil {
		return cluster.Cluster{}, err
	}
	return r.toCluster(members[id]), nil
}

func (repo *clusterRepository) UpdateCluster(ctx context.Context, cl cluster.Cluster, exec ...core.DBExecutor) (cluster.Cluster, error) {
	err := execAffecting(ctx, repo.executor(exec), cluster.ErrNotFound, `
		UPDATE cluster SET name = ?, description = ?, updated_at = ? WHERE id = ?`,
		cl.Name, cl.Description, cl.UpdatedAt.UTC(), cl.ID,
	)
	if err != nil {
		return cluster.Cluster{}, err
	}
	return cl, nil
}

func (repo *clusterRepository) DeleteCluster(ctx context.Context, id string, exec ...core.DBExecutor) error {
	return execAffecting(ctx, repo.executor(exec), cluster.ErrNotFound, `DELETE FROM cluster WHERE id = ?`, id)
}

func (repo *clusterRepository) DepartmentClusters(ctx context.Context, ids []string, exec ...core.DBExecutor) (map[string]string, error) {
	clusters := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return clusters, nil
	}
	var rows []struct {
		ID        string      `db:"id"`
		ClusterID null.String `db:"cluster_id"`
	}
	if err := selectRows(ctx, repo.executor(exec), &rows, `SELECT id, cluster_id FROM department WHERE id IN (?)`, ids); err != nil {
		return nil, errors.Wrap(err, "selecting department clusters")
	}
	for _, r := range rows {
		clusters[r.ID] = r.ClusterID.String
	}
	return clusters, nil
}

func (repo *clusterRepository) SetDepartmentsCluster(ctx context.Context, ids []string, clusterID string, exec ...core.DBExecutor) error {
	if len(ids) == 0 {
		return nil
	}
	ex := repo.executor(exec)
	q, args, err := expand(ex, `UPDATE department SET cluster_id = ?, updated_at = ? WHERE id IN (?)`,
		null.NewString(clusterID, clusterID != ""), core.Now(), ids)
	if err != nil {
		return err
	}
	_, err = ex.ExecContext(ctx, q, args...)
	return errors.Wrap(mapErr(err), "updating department cluster")
}

func (repo *clusterRepository) ResetDepartmentVisibility(ctx context.Context, departmentID string, exec ...core.DBExecutor) error {
	ex := repo.executor(exec)
	for _, table := range []string{"statement", "semester", "course"} {
		_, err := execQuery(ctx, ex, `
			UPDATE `+table+` SET visibility = ?
			WHERE visibility = ? AND regulation_id IN (SELECT id FROM regulation WHERE department_id = ?)`,
			core.VisibilityUnique, core.VisibilityCluster, departmentID,
		)
		if err != nil {
			return errors.Wrapf(err, "resetting %s visibility", table)
		}
	}
	return nil
}

func (repo *clusterRepository) RegulationDepartment(ctx context.Context, regulationID string, exec ...core.DBExecutor) (string, string, error) {
	var r struct {
		DepartmentID string `db:"department_id"`
		Status       string `db:"status"`
	}
	q := `SELECT department_id, status FROM regulation WHERE id = ?`
	if err := get(ctx, repo.executor(exec), &r, cluster.ErrRegulationNotFound, q, regulationID); err != nil {
		return "", "", err
	}
	return r.DepartmentID, r.Status, nil
}

func (repo *clusterRepository) GetItem(ctx context.Context, kind, id string, exec ...core.DBExecutor) (cluster.Item, error) {
	src, err := sourceOf(kind)
	if err != nil {
		return cluster.Item{}, cluster.ErrItemNotFound
	}
	var conds conditions
	conds.add("i.id = ?", id)
	if src.filter != "" {
		conds.add(src.filter, kind)
	}

	var r itemRow
	if err = get(ctx, repo.executor(exec), &r, cluster.ErrItemNotFound, src.sel+conds.where(), conds.args...); err != nil {
		return cluster.Item{}, err
	}
	return r.toItem(kind), nil
}

func (repo *clusterRepository) SetItemVisibility(ctx context.Context, kind, id, visibility string, exec ...core.DBExecutor) error {
	src, err := sourceOf(kind)
	if err != nil {
		return cluster.ErrItemNotFound
	}
	return execAffecting(ctx, repo.executor(exec), cluster.ErrItemNotFound,
		`UPDATE `+src.table+` SET visibility = ?, updated_at = ? WHERE id = ?`, visibility, core.Now(), id)
}

func (repo *clusterRepository) QueryClusterItems(ctx context.Context, kind string, departmentIDs []string, exec ...core.DBExecutor) ([]cluster.Item, error) {
	items := make([]cluster.Item, 0)
	if len(departmentIDs) == 0 {
		return items, nil
	}
	src, err := sourceOf(kind)
	if err != nil {
		return nil, err
	}
	var conds conditions
	conds.add("i.visibility = ?", core.VisibilityCluster)
	conds.add("r.department_id IN (?)", departmentIDs)
	if src.filter != "" {
		conds.add(src.filter, kind)
	}

	var rows []itemRow
	q := src.sel + conds.where() + ` ORDER BY r.department_id ASC, r.code ASC, number ASC, label ASC`
	if err = selectRows(ctx, repo.executor(exec), &rows, q, conds.args...); err != nil {
		return nil, errors.Wrap(err, "selecting cluster items")
	}
	for _, r := range rows {
		items = append(items, r.toItem(kind))
	}
	return items, nil
}

func (repo *clusterRepository) CreateAdoption(ctx context.Context, adoption cluster.Adoption, exec ...core.DBExecutor) (cluster.Adoption, error) {
	adoption.ID = newID()
	_, err := execQuery(ctx, repo.executor(exec), `
		INSERT INTO adoption (`+adoptionColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		adoption.ID, adoption.Kind, adoption.ItemID, adoption.SourceDepartmentID, adoption.RegulationID, adoption.CreatedAt.UTC(),
	)
	if err != nil {
		return cluster.Adoption{}, errors.Wrap(err, "inserting adoption")
	}
	return adoption, nil
}

func (repo *clusterRepository) QueryAdoptions(ctx context.Context, regulationID, kind string, exec ...core.DBExecutor) ([]cluster.Adoption, error) {
	var conds conditions
	conds.add("regulation_id = ?", regulationID)
	if kind != "" {
		conds.add("kind = ?", kind)
	}

	var rows []adoptionRow
	q := `SELECT ` + adoptionColumns + ` FROM adoption` + conds.where() + ` ORDER BY kind ASC, created_at ASC, id ASC`
	if err := selectRows(ctx, repo.executor(exec), &rows, q, conds.args...); err != nil {
		return nil, errors.Wrap(err, "selecting adoptions")
	}
	adoptions := make([]cluster.Adoption, 0, len(rows))
	for _, r := range rows {
		adoptions = append(adoptions, r.toAdoption())
	}
	return adoptions, nil
}

func (repo *clusterRepository) DeleteAdoptions(ctx context.Context, regulationID, kind string, itemIDs []string, exec ...core.DBExecutor) error {
	ex := repo.executor(exec)
	var conds conditions
	conds.add("regulation_id = ?", regulationID)
	conds.add("kind = ?", kind)
	if itemIDs != nil {
		if len(itemIDs) == 0 {
			return nil
		}
		conds.add("item_id IN (?)", itemIDs)
	}
	q, args, err := expand(ex, `DELETE FROM adoption`+conds.where(), conds.args...)
	if err != nil {
		return err
	}
	_, err = ex.ExecContext(ctx, q, args...)
	return errors.Wrap(mapErr(err), "deleting adoptions")
}

func (repo *clusterRepository) DeleteItemAdoptions(ctx context.Context, kind, itemID string, exec ...core.DBExecutor) error {
	_, err := execQuery(ctx, repo.executor(exec), `DELETE FROM adoption WHERE kind = ? AND item_id = ?`, kind, itemID)
	return errors.Wrap(err, "deleting item adoptions")
}

func (repo *clusterRepository) DeleteDepartmentAdoptions(ctx context.Context, departmentID string, exec ...core.DBExecutor) error {
	_, err := execQuery(ctx, repo.executor(exec), `
		DELETE FROM adoption
		WHERE source_department_id = ? OR regulation_id IN (SELECT id FROM regulation WHERE department_id = ?)`,
		departmentID, departmentID,
	)
	return errors.Wrap(err, "deleting department adoptions")
}
