package cluster

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/syllabix/syllabix/core"
)

// Shareable item kinds
const (
	KindPEO      = "PEO"
	KindPO       = "PO"
	KindPSO      = "PSO"
	KindMission  = "MISSION"
	KindVision   = "VISION"
	KindSemester = "SEMESTER"
	KindCourse   = "COURSE"
)

// Modes of membership and adoption changes
const (
	ModeAdd     = "add"
	ModeRemove  = "remove"
	ModeReplace = "replace"
)

var (
	ItemKinds      = []string{KindPEO, KindPO, KindPSO, KindMission, KindVision, KindSemester, KindCourse}
	StatementKinds = []string{KindPEO, KindPO, KindPSO, KindMission, KindVision}
	Visibilities   = []string{core.VisibilityUnique, core.VisibilityCluster}
	Modes          = []string{ModeAdd, ModeRemove, ModeReplace}
)

// IsStatementKind reports whether kind designates a regulation statement.
func IsStatementKind(kind string) bool {
	for _, k := range StatementKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Cluster groups departments sharing content with each other.
type Cluster struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	DepartmentIDs []string  `json:"department_ids"`
	CreatedAt     time.Time `json:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at"` // UTC
}

type NewCluster struct {
	Name          string   `json:"name" validate:"required,max=128"`
	Description   string   `json:"description"`
	DepartmentIDs []string `json:"department_ids" validate:"omitempty,dive,uuid"`
}

func (nc *NewCluster) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)
	nc.DepartmentIDs = uniqueStrings(nc.DepartmentIDs)
	return validate.Struct(nc)
}

// UpdateCluster keeps the original name when empty.
type UpdateCluster struct {
	Name        string  `json:"name" validate:"max=128"`
	Description *string `json:"description"`
}

func (uc *UpdateCluster) Validate(orig Cluster, validate *validator.Validate) error {
	if name := core.CleanString(uc.Name); name != "" {
		uc.Name = name
	} else {
		uc.Name = orig.Name
	}
	if uc.Description != nil {
		desc := core.CleanString(*uc.Description)
		uc.Description = &desc
	}
	return validate.Struct(uc)
}

// MembershipChange adds, removes or replaces the departments of a cluster.
type MembershipChange struct {
	Mode          string   `json:"mode" validate:"required,sharemode"`
	DepartmentIDs []string `json:"department_ids" validate:"dive,uuid"`
}

func (mc *MembershipChange) Validate(validate *validator.Validate) error {
	mc.Mode = core.CleanString(mc.Mode, true /* lower */)
	mc.DepartmentIDs = uniqueStrings(mc.DepartmentIDs)
	return validate.Struct(mc)
}

type QueryFilter struct {
	Search string
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// Item is a shareable statement, semester or course, with its owning department.
type Item struct {
	Kind             string `json:"kind"`
	ID               string `json:"id"`
	RegulationID     string `json:"regulation_id"`
	DepartmentID     string `json:"department_id"`
	Number           int    `json:"number"`
	Label            string `json:"label"`
	Visibility       string `json:"visibility"`
	RegulationStatus string `json:"-"`
}

type VisibilityChange struct {
	Visibility string `json:"visibility" validate:"required,visibility"`
}

func (vc *VisibilityChange) Validate(validate *validator.Validate) error {
	vc.Visibility = core.CleanCode(vc.Visibility)
	return validate.Struct(vc)
}

// AvailableItem is a CLUSTER item offered to a regulation.
type AvailableItem struct {
	Item
	Adopted bool `json:"adopted"`
}

// Adoption is a regulation's reference to a CLUSTER item owned by another department of its cluster.
type Adoption struct {
	ID                 string    `json:"id"`
	Kind               string    `json:"kind"`
	ItemID             string    `json:"item_id"`
	SourceDepartmentID string    `json:"source_department_id"`
	RegulationID       string    `json:"regulation_id"`
	CreatedAt          time.Time `json:"created_at"` // UTC
}

// AdoptedItem is an adopted item with its source department.
type AdoptedItem struct {
	Item
	AdoptionID string    `json:"adoption_id"`
	AdoptedAt  time.Time `json:"adopted_at"` // UTC
}

// AdoptionChange adds, removes or replaces the adopted items of one kind.
type AdoptionChange struct {
	Mode    string   `json:"mode" validate:"required,sharemode"`
	Kind    string   `json:"kind" validate:"required,itemkind"`
	ItemIDs []string `json:"item_ids" validate:"dive,uuid"`
}

func (ac *AdoptionChange) Validate(validate *validator.Validate) error {
	ac.Mode = core.CleanString(ac.Mode, true /* lower */)
	ac.Kind = core.CleanCode(ac.Kind)
	ac.ItemIDs = uniqueStrings(ac.ItemIDs)
	return validate.Struct(ac)
}

func uniqueStrings(values []string) []string {
	if values == nil {
		return nil
	}
	seen := make(map[string]bool, len(values))
	res := make([]string, 0, len(values))
	for _, v := range values {
		v = core.CleanString(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		res = append(res, v)
	}
	return res
}
