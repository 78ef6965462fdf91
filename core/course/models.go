package course

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/syllabix/syllabix/core"
)

// Course categories
const (
	CategoryHS  = "HS"  // humanities & social sciences
	CategoryBS  = "BS"  // basic sciences
	CategoryES  = "ES"  // engineering sciences
	CategoryPC  = "PC"  // professional core
	CategoryPE  = "PE"  // professional elective
	CategoryOE  = "OE"  // open elective
	CategoryEEC = "EEC" // employability enhancement
	CategoryMC  = "MC"  // mandatory course
)

var Categories = []string{CategoryHS, CategoryBS, CategoryES, CategoryPC, CategoryPE, CategoryOE, CategoryEEC, CategoryMC}

const MaxSemesters = 12

type Semester struct {
	ID           string    `json:"id"`
	RegulationID string    `json:"regulation_id"`
	Number       int       `json:"number"`
	Name         string    `json:"name"`
	Visibility   string    `json:"visibility"`
	Credits      float64   `json:"credits"`    // sum of the semester's course credits
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

func semesterName(number int) string {
	return fmt.Sprintf("Semester %d", number)
}

type NewSemester struct {
	Number int    `json:"number" validate:"required,min=1,max=12"`
	Name   string `json:"name" validate:"max=64"`
}

func (ns *NewSemester) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	if ns.Name == "" && ns.Number > 0 {
		ns.Name = semesterName(ns.Number)
	}
	return validate.Struct(ns)
}

// UpdateSemester keeps the original values of empty fields.
type UpdateSemester struct {
	Number int    `json:"number" validate:"omitempty,min=1,max=12"`
	Name   string `json:"name" validate:"max=64"`
}

func (us *UpdateSemester) Validate(orig Semester, validate *validator.Validate) error {
	if us.Number == 0 {
		us.Number = orig.Number
	}
	if name := core.CleanString(us.Name); name != "" {
		us.Name = name
	} else if orig.Name == semesterName(orig.Number) {
		us.Name = semesterName(us.Number)
	} else {
		us.Name = orig.Name
	}
	return validate.Struct(us)
}

type Course struct {
	ID           string    `json:"id"`
	SemesterID   string    `json:"semester_id"`
	RegulationID string    `json:"regulation_id"`
	Code         string    `json:"code"`
	Title        string    `json:"title"`
	Category     string    `json:"category"`
	Lecture      int       `json:"lecture"`
	Tutorial     int       `json:"tutorial"`
	Practical    int       `json:"practical"`
	Credits      float64   `json:"credits"`
	Visibility   string    `json:"visibility"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// NewCourse is also used to replace a course on PUT; SemesterID moves the course within its regulation.
type NewCourse struct {
	SemesterID string  `json:"semester_id" validate:"omitempty,uuid"`
	Code       string  `json:"code" validate:"required,max=16,code"`
	Title      string  `json:"title" validate:"required,max=256"`
	Category   string  `json:"category" validate:"required,category"`
	Lecture    int     `json:"lecture" validate:"min=0,max=20"`
	Tutorial   int     `json:"tutorial" validate:"min=0,max=20"`
	Practical  int     `json:"practical" validate:"min=0,max=40"`
	Credits    float64 `json:"credits" validate:"min=0,max=40"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Code = core.CleanCode(nc.Code)
	nc.Title = core.CleanString(nc.Title)
	nc.Category = core.CleanCode(nc.Category)
	if nc.Credits == 0 {
		nc.Credits = core.Credits(nc.Lecture, nc.Tutorial, nc.Practical)
	}
	return validate.Struct(nc)
}

type QueryFilter struct {
	RegulationID string
	SemesterID   string
	Search       string
	Categories   []string
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	for i := range qf.Categories {
		qf.Categories[i] = core.CleanCode(qf.Categories[i])
	}
}

type Unit struct {
	ID      string `json:"id"`
	Number  int    `json:"number" validate:"min=0"`
	Title   string `json:"title" validate:"required"`
	Content string `json:"content"`
	Hours   int    `json:"hours" validate:"min=0"`
}

type Outcome struct {
	ID        string `json:"id"`
	Number    int    `json:"number" validate:"min=0"`
	Statement string `json:"statement" validate:"required"`
}

// Syllabus of a course; PUT replaces it as a whole.
type Syllabus struct {
	CourseID       string    `json:"course_id"`
	Objectives     string    `json:"objectives"`
	Units          []Unit    `json:"units" validate:"dive"`
	Outcomes       []Outcome `json:"outcomes" validate:"dive"`
	TextBooks      []string  `json:"text_books"`
	ReferenceBooks []string  `json:"reference_books"`
	UpdatedAt      time.Time `json:"updated_at"` // UTC
}

// Validate cleans the syllabus, numbering units and outcomes by position when unnumbered.
func (s *Syllabus) Validate(validate *validator.Validate) error {
	s.Objectives = core.CleanString(s.Objectives)
	for i := range s.Units {
		s.Units[i].Title = core.CleanString(s.Units[i].Title)
		s.Units[i].Content = core.CleanString(s.Units[i].Content)
		if s.Units[i].Number == 0 {
			s.Units[i].Number = i + 1
		}
	}
	for i := range s.Outcomes {
		s.Outcomes[i].Statement = core.CleanString(s.Outcomes[i].Statement)
		if s.Outcomes[i].Number == 0 {
			s.Outcomes[i].Number = i + 1
		}
	}
	s.TextBooks = cleanList(s.TextBooks)
	s.ReferenceBooks = cleanList(s.ReferenceBooks)
	if err := validate.Struct(s); err != nil {
		return err
	}

	units := make(map[int]bool, len(s.Units))
	for _, u := range s.Units {
		if units[u.Number] {
			return core.NewValidationError(nil, core.FieldError{Field: "units", Error: fmt.Sprintf("duplicate unit number %d", u.Number)})
		}
		units[u.Number] = true
	}
	outcomes := make(map[int]bool, len(s.Outcomes))
	for _, o := range s.Outcomes {
		if outcomes[o.Number] {
			return core.NewValidationError(nil, core.FieldError{Field: "outcomes", Error: fmt.Sprintf("duplicate outcome number %d", o.Number)})
		}
		outcomes[o.Number] = true
	}
	return nil
}

func cleanList(values []string) []string {
	res := make([]string, 0, len(values))
	for _, v := range values {
		if v = core.CleanString(v); v != "" {
			res = append(res, v)
		}
	}
	return res
}
