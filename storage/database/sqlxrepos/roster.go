package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/syllabix/syllabix/core"
	"github.com/syllabix/syllabix/core/roster"
)

type studentRow struct {
	ID              string      `db:"id"`
	RegisterNumber  string      `db:"register_number"`
	Name            string      `db:"name"`
	Email           string      `db:"email"`
	DepartmentID    string      `db:"department_id"`
	RegulationID    null.String `db:"regulation_id"`
	Batch           int         `db:"batch"`
	CurrentSemester int         `db:"current_semester"`
	UserID          null.String `db:"user_id"`
	CreatedAt       time.Time   `db:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at"`
}

func (r studentRow) toStudent() roster.Student {
	return roster.Student{
		ID:              r.ID,
		RegisterNumber:  r.RegisterNumber,
		Name:            r.Name,
		Email:           r.Email,
		DepartmentID:    r.DepartmentID,
		RegulationID:    r.RegulationID.String,
		Batch:           r.Batch,
		CurrentSemester: r.CurrentSemester,
		UserID:          r.UserID.String,
		CreatedAt:       r.CreatedAt.UTC(),
		UpdatedAt:       r.UpdatedAt.UTC(),
	}
}

type teacherRow struct {
	ID           string      `db:"id"`
	StaffID      string      `db:"staff_id"`
	Name         string      `db:"name"`
	Email        string      `db:"email"`
	DepartmentID string      `db:"department_id"`
	Designation  string      `db:"designation"`
	UserID       null.String `db:"user_id"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

func (r teacherRow) toTeacher() roster.Teacher {
	return roster.Teacher{
		ID:           r.ID,
		StaffID:      r.StaffID,
		Name:         r.Name,
		Email:        r.Email,
		DepartmentID: r.DepartmentID,
		Designation:  r.Designation,
		UserID:       r.UserID.String,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

type allocationRow struct {
	ID           string    `db:"id"`
	TeacherID    string    `db:"teacher_id"`
	CourseID     string    `db:"course_id"`
	AcademicYear string    `db:"academic_year"`
	Section      string    `db:"section"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r allocationRow) toAllocation() roster.Allocation {
	return roster.Allocation{
		ID:           r.ID,
		TeacherID:    r.TeacherID,
		CourseID:     r.CourseID,
		AcademicYear: r.AcademicYear,
		Section:      r.Section,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

const (
	studentColumns    = `id, register_number, name, email, department_id, regulation_id, batch, current_semester, user_id, created_at, updated_at`
	teacherColumns    = `id, staff_id, name, email, department_id, designation, user_id, created_at, updated_at`
	allocationColumns = `id, teacher_id, course_id, academic_year, section, created_at`
)

var (
	studentOrdering = map[string]string{
		"register_number":  "register_number",
		"name":             "name",
		"batch":            "batch",
		"current_semester": "current_semester",
		"created_at":       "created_at",
	}
	teacherOrdering = map[string]string{
		"staff_id":    "staff_id",
		"name":        "name",
		"designation": "designation",
		"created_at":  "created_at",
	}
)

func optional(s string) null.String {
	return null.NewString(s, s != "")
}

type rosterRepository struct {
	baseRepository
}

var _ roster.Repository = (*rosterRepository)(nil)

func NewRosterRepository(db core.DB) *rosterRepository {
	return &rosterRepository{baseRepository{db: db}}
}

func (repo *rosterRepository) CreateStudent(ctx context.Context, st roster.Student, exec ...core.DBExecutor) (roster.Student, error) {
	st.ID = newID()
	_, err := execQuery(ctx, repo.executor(exec), `
		INSERT INTO student (`+studentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.RegisterNumber, st.Name, st.Email, st.DepartmentID, optional(st.RegulationID),
		st.Batch, st.CurrentSemester, optional(st.UserID), st.CreatedAt.UTC(), st.UpdatedAt.UTC(),
	)
	if err != nil {
		return roster.Student{}, errors.Wrap(err, "inserting student")
	}
	return st, nil
}

func (repo *rosterRepository) QueryStudents(ctx context.Context, filter *roster.StudentFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]roster.Student, error) {
	var conds conditions
	if filter != nil {
		conds.search(filter.Search, "name", "register_number", "email")
		if filter.DepartmentID != "" {
			conds.add("department_id = ?", filter.DepartmentID)
		}
		if filter.RegulationID != "" {
			conds.add("regulation_id = ?", filter.RegulationID)
		}
		if filter.Batch != 0 {
			conds.add("batch = ?", filter.Batch)
		}
		if filter.Semester != 0 {
			conds.add("current_semester = ?", filter.Semester)
		}
	}

	var rows []studentRow
	q := `SELECT ` + studentColumns + ` FROM student` + conds.where() + orderBy(ordering, studentOrdering, "register_number ASC")
	if err := selectRows(ctx, repo.executor(exec), &rows, q, conds.args...); err != nil {
		return nil, errors.Wrap(err, "selecting students")
	}
	students := make([]roster.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, r.toStudent())
	}
	return students, nil
}

func (repo *rosterRepository) GetStudent(ctx context.Context, id string, exec ...core.DBExecutor) (roster.Student, error) {
	var r studentRow
	q := `SELECT ` + studentColumns + ` FROM student WHERE id = ?`
	if err := get(ctx, repo.executor(exec), &r, roster.ErrStudentNotFound, q, id); err != nil {
		return roster.Student{}, err
	}
	return r.toStudent(), nil
}

func (repo *rosterRepository) UpdateStudent(ctx context.Context, st roster.Student, exec ...core.DBExecutor) (roster.Student, error) {
	err := execAffecting(ctx, repo.executor(exec), roster.ErrStudentNotFound, `
		UPDATE student SET register_number = ?, name = ?, email = ?, department_id = ?, regulation_id = ?, batch = ?,
			current_semester = ?, user_id = ?, updated_at = ?
		WHERE id = ?`,
		st.RegisterNumber, st.Name, st.Email, st.DepartmentID, optional(st.RegulationID), st.Batch,
		st.CurrentSemester, optional(st.UserID), st.UpdatedAt.UTC(), st.ID,
	)
	if err != nil {
		return roster.Student{}, err
	}
	return st, nil
}

func (repo *rosterRepository) DeleteStudent(ctx context.Context, id string, exec ...core.DBExecutor) error {
	return execAffecting(ctx, repo.executor(exec), roster.ErrStudentNotFound, `DELETE FROM student WHERE id = ?`, id)
}

func (repo *rosterRepository) CreateTeacher(ctx context.Context, tch roster.Teacher, exec ...core.DBExecutor) (roster.Teacher, error) {
	tch.ID = newID()
	_, err := execQuery(ctx, repo.executor(exec), `
		INSERT INTO teacher (`+teacherColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tch.ID, tch.StaffID, tch.Name, tch.Email, tch.DepartmentID, tch.Designation, optional(tch.UserID),
		tch.CreatedAt.UTC(), tch.UpdatedAt.UTC(),
	)
	if err != nil {
		return roster.Teacher{}, errors.Wrap(err, "inserting teacher")
	}
	return tch, nil
}

func (repo *rosterRepository) QueryTeachers(ctx context.Context, filter *roster.TeacherFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]roster.Teacher, error) {
	var conds conditions
	if filter != nil {
		conds.search(filter.Search, "name", "staff_id", "email")
		if filter.DepartmentID != "" {
			conds.add("department_id = ?", filter.DepartmentID)
		}
	}

	var rows []teacherRow
	q := `SELECT ` + teacherColumns + ` FROM teacher` + conds.where() + orderBy(ordering, teacherOrdering, "name ASC")
	if err := selectRows(ctx, repo.executor(exec), &rows, q, conds.args...); err != nil {
		return nil, errors.Wrap(err, "selecting teachers")
	}
	teachers := make([]roster.Teacher, 0, len(rows))
	for _, r := range rows {
		teachers = append(teachers, r.toTeacher())
	}
	return teachers, nil
}

func (repo *rosterRepository) GetTeacher(ctx context.Context, id string, exec ...core.DBExecutor) (roster.Teacher, error) {
	var r teacherRow
	q := `SELECT ` + teacherColumns + ` FROM teacher WHERE id = ?`
	if err := get(ctx, repo.executor(exec), &r, roster.ErrTeacherNotFound, q, id); err != nil {
		return roster.Teacher{}, err
	}
	return r.toTeacher(), nil
}

func (repo *rosterRepository) UpdateTeacher(ctx context.Context, tch roster.Teacher, exec ...core.DBExecutor) (roster.Teacher, error) {
	err := execAffecting(ctx, repo.executor(exec), roster.ErrTeacherNotFound, `
		UPDATE teacher SET staff_id = ?, name = ?, email = ?, department_id = ?, designation = ?, user_id = ?, updated_at = ?
		WHERE id = ?`,
		tch.StaffID, tch.Name, tch.Email, tch.DepartmentID, tch.Designation, optional(tch.UserID), tch.UpdatedAt.UTC(), tch.ID,
	)
	if err != nil {
		return roster.Teacher{}, err
	}
	return tch, nil
}

func (repo *rosterRepository) DeleteTeacher(ctx context.Context, id string, exec ...core.DBExecutor) error {
	return execAffecting(ctx, repo.executor(exec), roster.ErrTeacherNotFound, `DELETE FROM teacher WHERE id = ?`, id)
}

func (repo *rosterRepository) CreateAllocation(ctx context.Context, alloc roster.Allocation, exec ...core.DBExecutor) (roster.Allocation, error) {
	alloc.ID = newID()
	_, err := execQuery(ctx, repo.executor(exec), `
		INSERT INTO allocation (`+allocationColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		alloc.ID, alloc.TeacherID, alloc.CourseID, alloc.AcademicYear, alloc.Section, alloc.CreatedAt.UTC(),
	)
	if err != nil {
		return roster.Allocation{}, errors.Wrap(err, "inserting allocation")
	}
	return alloc, nil
}

func (repo *rosterRepository) QueryAllocations(ctx context.Context, filter roster.AllocationFilter, exec ...core.DBExecutor) ([]roster.Allocation, error) {
	var conds conditions
	if filter.TeacherID != "" {
		conds.add("teacher_id = ?", filter.TeacherID)
	}
	if filter.CourseID != "" {
		conds.add("course_id = ?", filter.CourseID)
	}
	if filter.AcademicYear != "" {
		conds.add("academic_year = ?", filter.AcademicYear)
	}

	var rows []allocationRow
	q := `SELECT ` + allocationColumns + ` FROM allocation` + conds.where() + ` ORDER BY academic_year DESC, section ASC, created_at ASC`
	if err := selectRows(ctx, repo.executor(exec), &rows, q, conds.args...); err != nil {
		return nil, errors.Wrap(err, "selecting allocations")
	}
	allocs := make([]roster.Allocation, 0, len(rows))
	for _, r := range rows {
		allocs = append(allocs, r.toAllocation())
	}
	return allocs, nil
}

func (repo *rosterRepository) GetAllocation(ctx context.Context, id string, exec ...core.DBExecutor) (roster.Allocation, error) {
	var r allocationRow
	q := `SELECT ` + allocationColumns + ` FROM allocation WHERE id = ?`
	if err := get(ctx, repo.executor(exec), &r, roster.ErrAllocationNotFound, q, id); err != nil {
		return roster.Allocation{}, err
	}
	return r.toAllocation(), nil
}

func (repo *rosterRepository) DeleteAllocation(ctx context.Context, id string, exec ...core.DBExecutor) error {
	return execAffecting(ctx, repo.executor(exec), roster.ErrAllocationNotFound, `DELETE FROM allocation WHERE id = ?`, id)
}
