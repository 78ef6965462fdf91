package cluster_test

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syllabix/syllabix/core"
	"github.com/syllabix/syllabix/core/cluster"
	"github.com/syllabix/syllabix/core/course"
	"github.com/syllabix/syllabix/core/department"
	"github.com/syllabix/syllabix/core/regulation"
	"github.com/syllabix/syllabix/storage/database/sqlxrepos"
	testutil "github.com/syllabix/syllabix/tests"
)

type recorder struct {
	calls []string
}

func (r *recorder) SharingChanged(operation, kind, mode string) {
	r.calls = append(r.calls, operation+":"+kind+":"+mode)
}

type fixture struct {
	db  *sqlx.DB
	svc *cluster.Service
	obs *recorder

	cse, ece, mech, eee department.Department
	cl                  cluster.Cluster
	regCSE, regECE      regulation.Regulation
	regEEE              regulation.Regulation

	peo1, peo2 regulation.Statement // CSE, CLUSTER
	po         regulation.Statement // CSE, UNIQUE
	sem        course.Semester      // CSE, CLUSTER
	crs        course.Course        // CSE, CLUSTER
	eeePEO     regulation.Statement // EEE, UNIQUE
}

func newFixture(t *testing.T) *fixture {
	db := testutil.PrepareDB(t)
	f := &fixture{db: db, obs: &recorder{}}
	f.svc = cluster.NewService(db, sqlxrepos.NewClusterRepository(db), f.obs)

	f.cse = testutil.CreateDepartment(t, db, "CSE", "Computer Science")
	f.ece = testutil.CreateDepartment(t, db, "ECE", "Electronics")
	f.mech = testutil.CreateDepartment(t, db, "MECH", "Mechanical")
	f.eee = testutil.CreateDepartment(t, db, "EEE", "Electrical")
	f.cl = testutil.CreateCluster(t, db, "Circuits & Code", f.cse.ID, f.ece.ID, f.mech.ID)

	f.regCSE = testutil.CreateRegulation(t, db, f.cse.ID, "R2024")
	f.regECE = testutil.CreateRegulation(t, db, f.ece.ID, "R2024")
	f.regEEE = testutil.CreateRegulation(t, db, f.eee.ID, "R2024")

	f.peo1 = testutil.CreateStatement(t, db, f.regCSE.ID, regulation.KindPEO, 1, "Graduates will excel", core.VisibilityCluster)
	f.peo2 = testutil.CreateStatement(t, db, f.regCSE.ID, regulation.KindPEO, 2, "Graduates will lead", core.VisibilityCluster)
	f.po = testutil.CreateStatement(t, db, f.regCSE.ID, regulation.KindPO, 1, "Engineering knowledge", core.VisibilityUnique)
	f.sem = testutil.CreateSemester(t, db, f.regCSE.ID, 1, core.VisibilityCluster)
	f.crs = testutil.CreateCourse(t, db, f.sem, "MA3151", "Matrices and Calculus", 3, 1, 0, core.VisibilityCluster)
	f.eeePEO = testutil.CreateStatement(t, db, f.regEEE.ID, regulation.KindPEO, 1, "Power to the people", core.VisibilityUnique)
	return f
}

func fieldErrors(t *testing.T, err error) []core.FieldError {
	t.Helper()
	verr, ok := errors.Cause(err).(*core.ValidationError)
	require.True(t, ok, "expected a validation error, got %v", err)
	return verr.Fields
}

func adoptedIDs(items []cluster.AdoptedItem) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

func TestService_Available(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	avail, err := f.svc.Available(ctx, f.regECE.ID, cluster.KindPEO)
	require.NoError(t, err)
	require.Len(t, avail, 2)
	assert.Equal(t, f.peo1.ID, avail[0].ID)
	assert.Equal(t, f.cse.ID, avail[0].DepartmentID)
	assert.Equal(t, f.peo1.Body, avail[0].Label)
	assert.False(t, avail[0].Adopted)

	// own items are never offered
	avail, err = f.svc.Available(ctx, f.regCSE.ID, cluster.KindPEO)
	require.NoError(t, err)
	assert.Empty(t, avail)

	// departments outside of any cluster see nothing
	avail, err = f.svc.Available(ctx, f.regEEE.ID, cluster.KindPEO)
	require.NoError(t, err)
	assert.Empty(t, avail)

	// UNIQUE items are never offered
	avail, err = f.svc.Available(ctx, f.regECE.ID, cluster.KindPO)
	require.NoError(t, err)
	assert.Empty(t, avail)

	avail, err = f.svc.Available(ctx, f.regECE.ID, cluster.KindCourse)
	require.NoError(t, err)
	require.Len(t, avail, 1)
	assert.Equal(t, "MA3151 Matrices and Calculus", avail[0].Label)
	assert.Equal(t, 1, avail[0].Number)

	_, err = f.svc.Available(ctx, "00000000-0000-0000-0000-000000000000", cluster.KindPEO)
	assert.Equal(t, cluster.ErrRegulationNotFound, err)
}

func TestService_ChangeAdoptions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	change := func(mode, kind string, ids ...string) ([]cluster.AdoptedItem, error) {
		return f.svc.ChangeAdoptions(ctx, f.regECE.ID, cluster.AdoptionChange{Mode: mode, Kind: kind, ItemIDs: ids})
	}

	items, err := change(cluster.ModeAdd, cluster.KindPEO, f.peo1.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{f.peo1.ID}, adoptedIDs(items))
	assert.Equal(t, f.cse.ID, items[0].DepartmentID)

	// adding twice is a no-op
	items, err = change(cluster.ModeAdd, cluster.KindPEO, f.peo1.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	avail, err := f.svc.Available(ctx, f.regECE.ID, cluster.KindPEO)
	require.NoError(t, err)
	require.Len(t, avail, 2)
	assert.True(t, avail[0].Adopted)
	assert.False(t, avail[1].Adopted)

	// an invalid item aborts the whole change
	_, err = change(cluster.ModeAdd, cluster.KindPEO, f.peo2.ID, f.eeePEO.ID)
	flds := fieldErrors(t, err)
	require.Len(t, flds, 1)
	assert.Equal(t, "item_ids", flds[0].Field)
	items, err = f.svc.Adopted(ctx, f.regECE.ID, cluster.KindPEO)
	require.NoError(t, err)
	assert.Equal(t, []string{f.peo1.ID}, adoptedIDs(items))

	// UNIQUE item
	_, err = change(cluster.ModeAdd, cluster.KindPO, f.po.ID)
	assert.Len(t, fieldErrors(t, err), 1)

	// kind mismatch
	_, err = change(cluster.ModeAdd, cluster.KindPSO, f.peo2.ID)
	assert.Len(t, fieldErrors(t, err), 1)

	// own item
	_, err = f.svc.ChangeAdoptions(ctx, f.regCSE.ID, cluster.AdoptionChange{Mode: cluster.ModeAdd, Kind: cluster.KindPEO, ItemIDs: []string{f.peo1.ID}})
	assert.Len(t, fieldErrors(t, err), 1)

	// replace
	items, err = change(cluster.ModeReplace, cluster.KindPEO, f.peo2.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{f.peo2.ID}, adoptedIDs(items))

	// other kinds are untouched by a replace
	_, err = change(cluster.ModeAdd, cluster.KindCourse, f.crs.ID)
	require.NoError(t, err)
	items, err = change(cluster.ModeReplace, cluster.KindPEO, f.peo1.ID, f.peo2.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{f.peo1.ID, f.peo2.ID}, adoptedIDs(items))
	all, err := f.svc.Adopted(ctx, f.regECE.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// remove
	items, err = change(cluster.ModeRemove, cluster.KindPEO, f.peo1.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{f.peo2.ID}, adoptedIDs(items))

	// replace with nothing
	items, err = change(cluster.ModeReplace, cluster.KindPEO)
	require.NoError(t, err)
	assert.Empty(t, items)

	assert.Contains(t, f.obs.calls, "adoption:PEO:replace")
}

func TestService_ChangeAdoptions_ArchivedRegulation(t *testing.T) {
	f := newFixture(t)
	reg := testutil.CreateRegulation(t, f.db, f.ece.ID, "R2017", regulation.StatusArchived)

	_, err := f.svc.ChangeAdoptions(context.Background(), reg.ID, cluster.AdoptionChange{
		Mode: cluster.ModeAdd, Kind: cluster.KindPEO, ItemIDs: []string{f.peo1.ID},
	})
	require.Error(t, err)
	assert.Equal(t, core.ErrRegulationArchived, errors.Cause(err).(*core.ValidationError).Err)
}

func TestService_SetVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	testutil.Adopt(t, f.db, f.regECE.ID, cluster.KindSemester, f.sem.ID, f.cse.ID)

	// back to UNIQUE revokes adoptions
	item, err := f.svc.SetVisibility(ctx, cluster.KindSemester, f.sem.ID, cluster.VisibilityChange{Visibility: core.VisibilityUnique})
	require.NoError(t, err)
	assert.Equal(t, core.VisibilityUnique, item.Visibility)
	items, err := f.svc.Adopted(ctx, f.regECE.ID, cluster.KindSemester)
	require.NoError(t, err)
	assert.Empty(t, items)

	// CLUSTER again
	item, err = f.svc.SetVisibility(ctx, cluster.KindPO, f.po.ID, cluster.VisibilityChange{Visibility: core.VisibilityCluster})
	require.NoError(t, err)
	assert.Equal(t, core.VisibilityCluster, item.Visibility)
	avail, err := f.svc.Available(ctx, f.regECE.ID, cluster.KindPO)
	require.NoError(t, err)
	assert.Len(t, avail, 1)

	// owner outside of any cluster
	_, err = f.svc.SetVisibility(ctx, cluster.KindPEO, f.eeePEO.ID, cluster.VisibilityChange{Visibility: core.VisibilityCluster})
	flds := fieldErrors(t, err)
	require.Len(t, flds, 1)
	assert.Equal(t, "visibility", flds[0].Field)

	// wrong kind for the item
	_, err = f.svc.SetVisibility(ctx, cluster.KindPSO, f.po.ID, cluster.VisibilityChange{Visibility: core.VisibilityUnique})
	assert.Equal(t, cluster.ErrItemNotFound, err)
}

func TestService_ChangeMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	testutil.Adopt(t, f.db, f.regECE.ID, cluster.KindPEO, f.peo1.ID, f.cse.ID)
	testutil.Adopt(t, f.db, f.regECE.ID, cluster.KindCourse, f.crs.ID, f.cse.ID)

	// removing CSE revokes its adoptions and resets its items
	cl, err := f.svc.ChangeMembership(ctx, f.cl.ID, cluster.MembershipChange{Mode: cluster.ModeRemove, DepartmentIDs: []string{f.cse.ID}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{f.ece.ID, f.mech.ID}, cl.DepartmentIDs)

	items, err := f.svc.Adopted(ctx, f.regECE.ID, "")
	require.NoError(t, err)
	assert.Empty(t, items)

	repo := sqlxrepos.NewClusterRepository(f.db)
	for _, it := range []struct{ kind, id string }{
		{cluster.KindPEO, f.peo1.ID},
		{cluster.KindSemester, f.sem.ID},
		{cluster.KindCourse, f.crs.ID},
	} {
		item, err := repo.GetItem(ctx, it.kind, it.id)
		require.NoError(t, err)
		assert.Equal(t, core.VisibilityUnique, item.Visibility, it.kind)
	}

	// add EEE & CSE back
	cl, err = f.svc.ChangeMembership(ctx, f.cl.ID, cluster.MembershipChange{Mode: cluster.ModeAdd, DepartmentIDs: []string{f.eee.ID, f.cse.ID, f.ece.ID}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{f.cse.ID, f.ece.ID, f.mech.ID, f.eee.ID}, cl.DepartmentIDs)

	// a department of another cluster cannot be added
	other := testutil.CreateDepartment(t, f.db, "CIVIL", "Civil")
	testutil.CreateCluster(t, f.db, "Structures", other.ID)
	_, err = f.svc.ChangeMembership(ctx, f.cl.ID, cluster.MembershipChange{Mode: cluster.ModeAdd, DepartmentIDs: []string{other.ID}})
	flds := fieldErrors(t, err)
	require.Len(t, flds, 1)
	assert.Equal(t, "department_ids", flds[0].Field)

	// unknown department
	_, err = f.svc.ChangeMembership(ctx, f.cl.ID, cluster.MembershipChange{Mode: cluster.ModeAdd, DepartmentIDs: []string{"00000000-0000-0000-0000-000000000000"}})
	assert.Len(t, fieldErrors(t, err), 1)

	// replace
	testutil.Adopt(t, f.db, f.regEEE.ID, cluster.KindCourse, f.crs.ID, f.cse.ID)
	cl, err = f.svc.ChangeMembership(ctx, f.cl.ID, cluster.MembershipChange{Mode: cluster.ModeReplace, DepartmentIDs: []string{f.cse.ID, f.ece.ID}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{f.cse.ID, f.ece.ID}, cl.DepartmentIDs)
	items, err = f.svc.Adopted(ctx, f.regEEE.ID, "")
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = f.svc.ChangeMembership(ctx, "00000000-0000-0000-0000-000000000000", cluster.MembershipChange{Mode: cluster.ModeAdd})
	assert.Equal(t, cluster.ErrNotFound, err)
}

func TestService_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.Adopt(t, f.db, f.regECE.ID, cluster.KindPEO, f.peo1.ID, f.cse.ID)

	require.NoError(t, f.svc.Delete(ctx, f.cl.ID))

	_, err := f.svc.GetByID(ctx, f.cl.ID)
	assert.Equal(t, cluster.ErrNotFound, err)

	items, err := f.svc.Adopted(ctx, f.regECE.ID, "")
	require.NoError(t, err)
	assert.Empty(t, items)

	depts, err := sqlxrepos.NewDepartmentRepository(f.db).QueryDepartments(ctx, &department.QueryFilter{NoCluster: true}, nil)
	require.NoError(t, err)
	assert.Len(t, depts, 4)

	assert.Equal(t, cluster.ErrNotFound, f.svc.Delete(ctx, f.cl.ID))
}

func TestService_CreateUpdate(t *testing.T) {
	db := testutil.PrepareDB(t)
	svc := cluster.NewService(db, sqlxrepos.NewClusterRepository(db), nil)
	ctx := context.Background()
	a := testutil.CreateDepartment(t, db, "CSE", "Computer Science")

	cl, err := svc.Create(ctx, cluster.NewCluster{Name: "Computing", DepartmentIDs: []string{a.ID}})
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, cl.DepartmentIDs)

	_, err = svc.Create(ctx, cluster.NewCluster{Name: "Computing"})
	flds := fieldErrors(t, err)
	require.Len(t, flds, 1)
	assert.Equal(t, "name", flds[0].Field)

	desc := "Computing departments"
	cl, err = svc.Update(ctx, cl, cluster.UpdateCluster{Name: "Computing & IT", Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "Computing & IT", cl.Name)
	assert.Equal(t, desc, cl.Description)

	cls, err := svc.Query(ctx, &cluster.QueryFilter{Search: "it"}, nil)
	require.NoError(t, err)
	require.Len(t, cls, 1)
	assert.Equal(t, []string{a.ID}, cls[0].DepartmentIDs)
}
