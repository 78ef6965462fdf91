package roster_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syllabix/syllabix/core"
	"github.com/syllabix/syllabix/core/roster"
	"github.com/syllabix/syllabix/storage/database/sqlxrepos"
	testutil "github.com/syllabix/syllabix/tests"
)

func newValidator() *validator.Validate {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	roster.InitValidators(validate, translator)
	return validate
}

func fieldErrors(t *testing.T, err error) []core.FieldError {
	t.Helper()
	verr, ok := errors.Cause(err).(*core.ValidationError)
	require.True(t, ok, "expected a validation error, got %v", err)
	return verr.Fields
}

func TestNewAllocation_Validate(t *testing.T) {
	validate := newValidator()
	id := "4a3b1b5e-32f4-4bd4-9d0f-3c6d5d1f7e10"

	tests := []struct {
		year    string
		wantErr bool
	}{
		{"2024-25", false},
		{" 2099-00 ", false},
		{"2024-26", true},
		{"2024-2025", true},
		{"24-25", true},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(tt.year, func(t *testing.T) {
			na := roster.NewAllocation{TeacherID: id, CourseID: id, AcademicYear: tt.year, Section: " a "}
			err := na.Validate(validate)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "A", na.Section)
		})
	}
}

func TestService_students(t *testing.T) {
	db := testutil.PrepareDB(t)
	svc := roster.NewService(sqlxrepos.NewRosterRepository(db))
	validate := newValidator()
	ctx := context.Background()

	cse := testutil.CreateDepartment(t, db, "CSE", "Computer Science")
	ece := testutil.CreateDepartment(t, db, "ECE", "Electronics")
	reg := testutil.CreateRegulation(t, db, cse.ID, "R2024")

	ns := roster.NewStudent{RegisterNumber: " 8115 2410 4001 ", Name: "Anitha", Email: "Anitha@Example.com", DepartmentID: cse.ID, RegulationID: reg.ID, Batch: 2024}
	require.NoError(t, ns.Validate(validate))
	st, err := svc.CreateStudent(ctx, ns)
	require.NoError(t, err)
	assert.Equal(t, "811524104001", st.RegisterNumber)
	assert.Equal(t, "anitha@example.com", st.Email)
	assert.Equal(t, 1, st.CurrentSemester)

	_, err = svc.CreateStudent(ctx, roster.NewStudent{RegisterNumber: "811524104001", Name: "Again", DepartmentID: cse.ID, Batch: 2024, CurrentSemester: 1})
	assert.Equal(t, []core.FieldError{{Field: "register_number", Error: roster.ErrRegisterNumExists.Error()}}, fieldErrors(t, err))

	testutil.CreateStudent(t, db, cse.ID, reg.ID, "811523104001", "Bala", 2023)
	testutil.CreateStudent(t, db, ece.ID, "", "811524106001", "Charu", 2024)

	tests := []struct {
		name   string
		filter *roster.StudentFilter
		want   []string
	}{
		{"all", nil, []string{"811523104001", "811524104001", "811524106001"}},
		{"by department", &roster.StudentFilter{DepartmentID: cse.ID}, []string{"811523104001", "811524104001"}},
		{"by batch", &roster.StudentFilter{Batch: 2024}, []string{"811524104001", "811524106001"}},
		{"by regulation", &roster.StudentFilter{RegulationID: reg.ID, Batch: 2023}, []string{"811523104001"}},
		{"search", &roster.StudentFilter{Search: " chAru "}, []string{"811524106001"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			students, err := svc.QueryStudents(ctx, tt.filter, nil)
			require.NoError(t, err)
			got := make([]string, 0, len(students))
			for _, s := range students {
				got = append(got, s.RegisterNumber)
			}
			assert.Equal(t, tt.want, got)
		})
	}

	ns.Name = "Anitha R"
	ns.CurrentSemester = 3
	updated, err := svc.UpdateStudent(ctx, st, ns)
	require.NoError(t, err)
	assert.Equal(t, st.CreatedAt, updated.CreatedAt)
	got, err := svc.GetStudent(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, "Anitha R", got.Name)
	assert.Equal(t, 3, got.CurrentSemester)

	require.NoError(t, svc.DeleteStudent(ctx, st.ID))
	_, err = svc.GetStudent(ctx, st.ID)
	assert.Equal(t, roster.ErrStudentNotFound, errors.Cause(err))
	_, err = svc.GetStudent(ctx, "")
	assert.Equal(t, roster.ErrStudentNotFound, err)
}

func TestService_allocations(t *testing.T) {
	db := testutil.PrepareDB(t)
	svc := roster.NewService(sqlxrepos.NewRosterRepository(db))
	ctx := context.Background()

	dept := testutil.CreateDepartment(t, db, "CSE", "Computer Science")
	reg := testutil.CreateRegulation(t, db, dept.ID, "R2024")
	sem := testutil.CreateSemester(t, db, reg.ID, 1, core.VisibilityUnique)
	crs := testutil.CreateCourse(t, db, sem, "CS3151", "Problem Solving", 3, 0, 0, core.VisibilityUnique)

	tch, err := svc.CreateTeacher(ctx, roster.NewTeacher{StaffID: "CSE042", Name: "Dr. Kumar", DepartmentID: dept.ID})
	require.NoError(t, err)
	_, err = svc.CreateTeacher(ctx, roster.NewTeacher{StaffID: "CSE042", Name: "Someone", DepartmentID: dept.ID})
	assert.Equal(t, []core.FieldError{{Field: "staff_id", Error: roster.ErrStaffIDExists.Error()}}, fieldErrors(t, err))

	na := roster.NewAllocation{TeacherID: tch.ID, CourseID: crs.ID, AcademicYear: "2024-25", Section: "A"}
	alloc, err := svc.CreateAllocation(ctx, na)
	require.NoError(t, err)
	assert.Equal(t, "A", alloc.Section)

	_, err = svc.CreateAllocation(ctx, na)
	assert.Equal(t, []core.FieldError{{Field: "course_id", Error: roster.ErrAllocationExists.Error()}}, fieldErrors(t, err))

	na.Section = "B"
	_, err = svc.CreateAllocation(ctx, na)
	require.NoError(t, err, "another section is a separate allocation")

	na.TeacherID = "4a3b1b5e-32f4-4bd4-9d0f-3c6d5d1f7e10"
	_, err = svc.CreateAllocation(ctx, na)
	assert.Equal(t, []core.FieldError{{Field: "teacher_id", Error: roster.ErrTeacherNotFound.Error()}}, fieldErrors(t, err))

	allocs, err := svc.QueryAllocations(ctx, roster.AllocationFilter{TeacherID: tch.ID, AcademicYear: "2024-25"})
	require.NoError(t, err)
	require.Len(t, allocs, 2)
	assert.Equal(t, []string{"A", "B"}, []string{allocs[0].Section, allocs[1].Section})

	require.NoError(t, svc.DeleteTeacher(ctx, tch.ID))
	allocs, err = svc.QueryAllocations(ctx, roster.AllocationFilter{CourseID: crs.ID})
	require.NoError(t, err)
	assert.Empty(t, allocs)
}
