package roster

import (
	"context"

	"github.com/pkg/errors"

	"github.com/syllabix/syllabix/core"
)

var (
	// errors
	ErrStudentNotFound    = core.NewNotFoundError("student not found")
	ErrTeacherNotFound    = core.NewNotFoundError("teacher not found")
	ErrAllocationNotFound = core.NewNotFoundError("allocation not found")
	ErrRegisterNumExists  = errors.New("a student with this register number already exists")
	ErrStaffIDExists      = errors.New("a teacher with this staff ID already exists")
	ErrAllocationExists   = errors.New("this course is already allocated to the teacher for this year and section")
)

type (
	Repository interface {
		CreateStudent(ctx context.Context, st Student, exec ...core.DBExecutor) (Student, error)
		QueryStudents(ctx context.Context, filter *StudentFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Student, error)
		GetStudent(ctx context.Context, id string, exec ...core.DBExecutor) (Student, error)
		UpdateStudent(ctx context.Context, st Student, exec ...core.DBExecutor) (Student, error)
		DeleteStudent(ctx context.Context, id string, exec ...core.DBExecutor) error

		CreateTeacher(ctx context.Context, tch Teacher, exec ...core.DBExecutor) (Teacher, error)
		QueryTeachers(ctx context.Context, filter *TeacherFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Teacher, error)
		GetTeacher(ctx context.Context, id string, exec ...core.DBExecutor) (Teacher, error)
		UpdateTeacher(ctx context.Context, tch Teacher, exec ...core.DBExecutor) (Teacher, error)
		DeleteTeacher(ctx context.Context, id string, exec ...core.DBExecutor) error

		CreateAllocation(ctx context.Context, alloc Allocation, exec ...core.DBExecutor) (Allocation, error)
		QueryAllocations(ctx context.Context, filter AllocationFilter, exec ...core.DBExecutor) ([]Allocation, error)
		GetAllocation(ctx context.Context, id string, exec ...core.DBExecutor) (Allocation, error)
		DeleteAllocation(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CreateStudent(ctx context.Context, ns NewStudent) (Student, error) {
	now := core.Now()
	st := studentFrom(Student{CreatedAt: now}, ns)
	st.UpdatedAt = now
	st, err := svc.repo.CreateStudent(ctx, st)
	return st, core.ConflictAsFieldError(err, "register_number", ErrRegisterNumExists.Error())
}

func studentFrom(st Student, ns NewStudent) Student {
	st.RegisterNumber = ns.RegisterNumber
	st.Name = ns.Name
	st.Email = ns.Email
	st.DepartmentID = ns.DepartmentID
	st.RegulationID = ns.RegulationID
	st.Batch = ns.Batch
	st.CurrentSemester = ns.CurrentSemester
	st.UserID = ns.UserID
	return st
}

func (svc *Service) QueryStudents(ctx context.Context, filter *StudentFilter, ordering []core.DBOrdering) ([]Student, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryStudents(ctx, filter, ordering)
}

func (svc *Service) GetStudent(ctx context.Context, id string) (Student, error) {
	if id == "" {
		return Student{}, ErrStudentNotFound
	}
	return svc.repo.GetStudent(ctx, id)
}

func (svc *Service) UpdateStudent(ctx context.Context, st Student, ns NewStudent) (Student, error) {
	st = studentFrom(st, ns)
	st.UpdatedAt = core.Now()
	st, err := svc.repo.UpdateStudent(ctx, st)
	return st, core.ConflictAsFieldError(err, "register_number", ErrRegisterNumExists.Error())
}

func (svc *Service) DeleteStudent(ctx context.Context, id string) error {
	return svc.repo.DeleteStudent(ctx, id)
}

func (svc *Service) CreateTeacher(ctx context.Context, nt NewTeacher) (Teacher, error) {
	now := core.Now()
	tch := teacherFrom(Teacher{CreatedAt: now}, nt)
	tch.UpdatedAt = now
	tch, err := svc.repo.CreateTeacher(ctx, tch)
	return tch, core.ConflictAsFieldError(err, "staff_id", ErrStaffIDExists.Error())
}

func teacherFrom(tch Teacher, nt NewTeacher) Teacher {
	tch.StaffID = nt.StaffID
	tch.Name = nt.Name
	tch.Email = nt.Email
	tch.DepartmentID = nt.DepartmentID
	tch.Designation = nt.Designation
	tch.UserID = nt.UserID
	return tch
}

func (svc *Service) QueryTeachers(ctx context.Context, filter *TeacherFilter, ordering []core.DBOrdering) ([]Teacher, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryTeachers(ctx, filter, ordering)
}

func (svc *Service) GetTeacher(ctx context.Context, id string) (Teacher, error) {
	if id == "" {
		return Teacher{}, ErrTeacherNotFound
	}
	return svc.repo.GetTeacher(ctx, id)
}

func (svc *Service) UpdateTeacher(ctx context.Context, tch Teacher, nt NewTeacher) (Teacher, error) {
	tch = teacherFrom(tch, nt)
	tch.UpdatedAt = core.Now()
	tch, err := svc.repo.UpdateTeacher(ctx, tch)
	return tch, core.ConflictAsFieldError(err, "staff_id", ErrStaffIDExists.Error())
}

func (svc *Service) DeleteTeacher(ctx context.Context, id string) error {
	return svc.repo.DeleteTeacher(ctx, id)
}

func (svc *Service) CreateAllocation(ctx context.Context, na NewAllocation) (Allocation, error) {
	if _, err := svc.GetTeacher(ctx, na.TeacherID); err != nil {
		if core.IsNotFound(err) {
			return Allocation{}, core.NewValidationError(err, core.FieldError{Field: "teacher_id", Error: err.Error()})
		}
		return Allocation{}, err
	}
	alloc, err := svc.repo.CreateAllocation(ctx, Allocation{
		TeacherID:    na.TeacherID,
		CourseID:     na.CourseID,
		AcademicYear: na.AcademicYear,
		Section:      na.Section,
		CreatedAt:    core.Now(),
	})
	return alloc, core.ConflictAsFieldError(err, "course_id", ErrAllocationExists.Error())
}

func (svc *Service) QueryAllocations(ctx context.Context, filter AllocationFilter) ([]Allocation, error) {
	return svc.repo.QueryAllocations(ctx, filter)
}

func (svc *Service) GetAllocation(ctx context.Context, id string) (Allocation, error) {
	if id == "" {
		return Allocation{}, ErrAllocationNotFound
	}
	return svc.repo.GetAllocation(ctx, id)
}

func (svc *Service) DeleteAllocation(ctx context.Context, id string) error {
	return svc.repo.DeleteAllocation(ctx, id)
}
