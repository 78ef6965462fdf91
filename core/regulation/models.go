package regulation

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/syllabix/syllabix/core"
)

// Regulation statuses
const (
	StatusDraft     = "DRAFT"
	StatusPublished = "PUBLISHED"
	StatusArchived  = "ARCHIVED"
)

// Statement kinds
const (
	KindVision  = "VISION"
	KindMission = "MISSION"
	KindPEO     = "PEO" // programme educational objective
	KindPO      = "PO"  // programme outcome
	KindPSO     = "PSO" // programme specific outcome
)

var (
	Statuses       = []string{StatusDraft, StatusPublished, StatusArchived}
	StatementKinds = []string{KindVision, KindMission, KindPEO, KindPO, KindPSO}
)

// Regulation is a named curriculum version of a department, e.g. "R2024 CSE".
type Regulation struct {
	ID           string    `json:"id"`
	DepartmentID string    `json:"department_id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Year         int       `json:"year"`
	Status       string    `json:"status"`
	MinCredits   float64   `json:"min_credits"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

func (r Regulation) IsArchived() bool {
	return r.Status == StatusArchived
}

type NewRegulation struct {
	DepartmentID string  `json:"department_id" validate:"required,uuid"`
	Code         string  `json:"code" validate:"required,max=16,code"`
	Name         string  `json:"name" validate:"required,max=128"`
	Year         int     `json:"year" validate:"required,min=1950,max=2200"`
	Status       string  `json:"status" validate:"omitempty,regstatus"`
	MinCredits   float64 `json:"min_credits" validate:"min=0"`
}

func (nr *NewRegulation) Validate(validate *validator.Validate) error {
	nr.Code = core.CleanCode(nr.Code)
	nr.Name = core.CleanString(nr.Name)
	nr.Status = core.CleanCode(nr.Status)
	if nr.Status == "" {
		nr.Status = StatusDraft
	}
	return validate.Struct(nr)
}

// UpdateRegulation keeps the original values of empty fields.
type UpdateRegulation struct {
	Code       string   `json:"code" validate:"omitempty,max=16,code"`
	Name       string   `json:"name" validate:"max=128"`
	Year       int      `json:"year" validate:"omitempty,min=1950,max=2200"`
	Status     string   `json:"status" validate:"omitempty,regstatus"`
	MinCredits *float64 `json:"min_credits" validate:"omitempty,min=0"`
}

func (ur *UpdateRegulation) Validate(orig Regulation, validate *validator.Validate) error {
	if code := core.CleanCode(ur.Code); code != "" {
		ur.Code = code
	} else {
		ur.Code = orig.Code
	}
	if name := core.CleanString(ur.Name); name != "" {
		ur.Name = name
	} else {
		ur.Name = orig.Name
	}
	if status := core.CleanCode(ur.Status); status != "" {
		ur.Status = status
	} else {
		ur.Status = orig.Status
	}
	if ur.Year == 0 {
		ur.Year = orig.Year
	}
	return validate.Struct(ur)
}

type QueryFilter struct {
	Search       string
	DepartmentID string
	Status       []string
	Year         int
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	for i := range qf.Status {
		qf.Status[i] = core.CleanCode(qf.Status[i])
	}
}

// Statement is a vision, mission, PEO, PO or PSO of a regulation.
type Statement struct {
	ID           string    `json:"id"`
	RegulationID string    `json:"regulation_id"`
	Kind         string    `json:"kind"`
	Number       int       `json:"number"`
	Body         string    `json:"body"`
	Visibility   string    `json:"visibility"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

type NewStatement struct {
	Kind   string `json:"kind" validate:"required,stmtkind"`
	Number int    `json:"number" validate:"min=0"` // 0: next number of the kind
	Body   string `json:"body" validate:"required"`
}

func (ns *NewStatement) Validate(validate *validator.Validate) error {
	ns.Kind = core.CleanCode(ns.Kind)
	ns.Body = core.CleanString(ns.Body)
	return validate.Struct(ns)
}

type UpdateStatement struct {
	Number int    `json:"number" validate:"min=0"`
	Body   string `json:"body"`
}

func (us *UpdateStatement) Validate(orig Statement, validate *validator.Validate) error {
	if us.Number == 0 {
		us.Number = orig.Number
	}
	if body := core.CleanString(us.Body); body != "" {
		us.Body = body
	} else {
		us.Body = orig.Body
	}
	return validate.Struct(us)
}
