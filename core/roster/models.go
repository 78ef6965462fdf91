package roster

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/syllabix/syllabix/core"
)

type Student struct {
	ID              string    `json:"id"`
	RegisterNumber  string    `json:"register_number"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	DepartmentID    string    `json:"department_id"`
	RegulationID    string    `json:"regulation_id"`
	Batch           int       `json:"batch"` // admission year
	CurrentSemester int       `json:"current_semester"`
	UserID          string    `json:"user_id"`
	CreatedAt       time.Time `json:"created_at"` // UTC
	UpdatedAt       time.Time `json:"updated_at"` // UTC
}

// NewStudent is also used to replace a student record on PUT.
type NewStudent struct {
	RegisterNumber  string `json:"register_number" validate:"required,max=32,alphanum"`
	Name            string `json:"name" validate:"required,max=128"`
	Email           string `json:"email" validate:"omitempty,email"`
	DepartmentID    string `json:"department_id" validate:"required,uuid"`
	RegulationID    string `json:"regulation_id" validate:"omitempty,uuid"`
	Batch           int    `json:"batch" validate:"required,min=1950,max=2200"`
	CurrentSemester int    `json:"current_semester" validate:"omitempty,min=1,max=12"`
	UserID          string `json:"user_id" validate:"omitempty,uuid"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.RegisterNumber = core.CleanCode(ns.RegisterNumber)
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	if ns.CurrentSemester == 0 {
		ns.CurrentSemester = 1
	}
	return validate.Struct(ns)
}

type StudentFilter struct {
	Search       string // name, register number or email
	DepartmentID string
	RegulationID string
	Batch        int
	Semester     int
}

func (sf *StudentFilter) Clean() {
	sf.Search = core.CleanString(sf.Search)
}

type Teacher struct {
	ID           string    `json:"id"`
	StaffID      string    `json:"staff_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	DepartmentID string    `json:"department_id"`
	Designation  string    `json:"designation"`
	UserID       string    `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// NewTeacher is also used to replace a teacher record on PUT.
type NewTeacher struct {
	StaffID      string `json:"staff_id" validate:"required,max=32,code"`
	Name         string `json:"name" validate:"required,max=128"`
	Email        string `json:"email" validate:"omitempty,email"`
	DepartmentID string `json:"department_id" validate:"required,uuid"`
	Designation  string `json:"designation" validate:"max=64"`
	UserID       string `json:"user_id" validate:"omitempty,uuid"`
}

func (nt *NewTeacher) Validate(validate *validator.Validate) error {
	nt.StaffID = core.CleanCode(nt.StaffID)
	nt.Name = core.CleanString(nt.Name)
	nt.Email = core.CleanString(nt.Email, true /* lower */)
	nt.Designation = core.CleanString(nt.Designation)
	return validate.Struct(nt)
}

type TeacherFilter struct {
	Search       string // name, staff ID or email
	DepartmentID string
}

func (tf *TeacherFilter) Clean() {
	tf.Search = core.CleanString(tf.Search)
}

// Allocation assigns a course to a teacher for an academic year and section.
type Allocation struct {
	ID           string    `json:"id"`
	TeacherID    string    `json:"teacher_id"`
	CourseID     string    `json:"course_id"`
	AcademicYear string    `json:"academic_year"` // e.g. 2024-25
	Section      string    `json:"section"`
	CreatedAt    time.Time `json:"created_at"` // UTC
}

type NewAllocation struct {
	TeacherID    string `json:"teacher_id" validate:"required,uuid"`
	CourseID     string `json:"course_id" validate:"required,uuid"`
	AcademicYear string `json:"academic_year" validate:"required,acadyear"`
	Section      string `json:"section" validate:"max=8"`
}

func (na *NewAllocation) Validate(validate *validator.Validate) error {
	na.AcademicYear = core.CleanString(na.AcademicYear)
	na.Section = core.CleanCode(na.Section)
	return validate.Struct(na)
}

type AllocationFilter struct {
	TeacherID    string
	CourseID     string
	AcademicYear string
}
