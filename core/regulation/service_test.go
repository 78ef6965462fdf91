package regulation_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syllabix/syllabix/core"
	"github.com/syllabix/syllabix/core/regulation"
	"github.com/syllabix/syllabix/storage/database/sqlxrepos"
	testutil "github.com/syllabix/syllabix/tests"
)

func validationError(t *testing.T, err error) *core.ValidationError {
	t.Helper()
	verr, ok := errors.Cause(err).(*core.ValidationError)
	require.True(t, ok, "expected a validation error, got %v", err)
	return verr
}

func TestService_CreateStatement(t *testing.T) {
	db := testutil.PrepareDB(t)
	svc := regulation.NewService(db, sqlxrepos.NewRegulationRepository(db))
	ctx := context.Background()

	dept := testutil.CreateDepartment(t, db, "CSE", "Computer Science")
	reg := testutil.CreateRegulation(t, db, dept.ID, "R2024")

	tests := []struct {
		name       string
		ns         regulation.NewStatement
		wantNumber int
	}{
		{"first of its kind", regulation.NewStatement{Kind: regulation.KindPEO, Body: "Excel"}, 1},
		{"next of its kind", regulation.NewStatement{Kind: regulation.KindPEO, Body: "Lead"}, 2},
		{"explicit number", regulation.NewStatement{Kind: regulation.KindPEO, Number: 5, Body: "Learn"}, 5},
		{"after the explicit one", regulation.NewStatement{Kind: regulation.KindPEO, Body: "Serve"}, 6},
		{"other kind starts over", regulation.NewStatement{Kind: regulation.KindPO, Body: "Knowledge"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := svc.CreateStatement(ctx, reg.ID, tt.ns)
			require.NoError(t, err)
			assert.Equal(t, tt.wantNumber, stmt.Number)
			assert.Equal(t, core.VisibilityUnique, stmt.Visibility)
			assert.Equal(t, reg.ID, stmt.RegulationID)
		})
	}

	_, err := svc.CreateStatement(ctx, reg.ID, regulation.NewStatement{Kind: regulation.KindPEO, Number: 2, Body: "Again"})
	verr := validationError(t, err)
	assert.Equal(t, []core.FieldError{{Field: "number", Error: regulation.ErrNumberExists.Error()}}, verr.Fields)

	_, err = svc.CreateStatement(ctx, "missing", regulation.NewStatement{Kind: regulation.KindPEO, Body: "Orphan"})
	assert.Equal(t, regulation.ErrNotFound, err)

	stmts, err := svc.QueryStatements(ctx, reg.ID, "peo")
	require.NoError(t, err)
	assert.Len(t, stmts, 4)
}

func TestService_archived(t *testing.T) {
	db := testutil.PrepareDB(t)
	svc := regulation.NewService(db, sqlxrepos.NewRegulationRepository(db))
	ctx := context.Background()

	dept := testutil.CreateDepartment(t, db, "CSE", "Computer Science")
	published := testutil.CreateRegulation(t, db, dept.ID, "R2021", regulation.StatusPublished)
	archived := testutil.CreateRegulation(t, db, dept.ID, "R2017", regulation.StatusArchived)

	stmt, err := svc.CreateStatement(ctx, published.ID, regulation.NewStatement{Kind: regulation.KindVision, Body: "Be good"})
	require.NoError(t, err, "published regulations stay writable")

	_, err = svc.CreateStatement(ctx, archived.ID, regulation.NewStatement{Kind: regulation.KindVision, Body: "Be good"})
	assert.Equal(t, core.ErrRegulationArchived, validationError(t, err).Err)

	_, err = svc.Update(ctx, archived, regulation.UpdateRegulation{
		Code: archived.Code, Name: "Renamed", Year: archived.Year, Status: regulation.StatusArchived,
	})
	assert.Equal(t, core.ErrRegulationArchived, validationError(t, err).Err)

	reg, err := svc.Update(ctx, archived, regulation.UpdateRegulation{
		Code: archived.Code, Name: archived.Name, Year: archived.Year, Status: regulation.StatusDraft,
	})
	require.NoError(t, err)
	assert.Equal(t, regulation.StatusDraft, reg.Status)

	_, err = svc.Update(ctx, published, regulation.UpdateRegulation{
		Code: "R2017", Name: published.Name, Year: published.Year, Status: regulation.StatusArchived,
	})
	assert.Equal(t, []core.FieldError{{Field: "code", Error: regulation.ErrCodeExists.Error()}}, validationError(t, err).Fields)

	reg, err = svc.Update(ctx, published, regulation.UpdateRegulation{
		Code: published.Code, Name: published.Name, Year: published.Year, Status: regulation.StatusArchived,
	})
	require.NoError(t, err)
	err = svc.DeleteStatement(ctx, stmt)
	assert.Equal(t, core.ErrRegulationArchived, validationError(t, err).Err)
	assert.Equal(t, regulation.StatusArchived, reg.Status)
}
