package department

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/syllabix/syllabix/core"
)

type Department struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	ClusterID string    `json:"cluster_id"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type NewDepartment struct {
	Code string `json:"code" validate:"required,max=16,code"`
	Name string `json:"name" validate:"required,max=128"`
}

func (nd *NewDepartment) Validate(validate *validator.Validate) error {
	nd.Code = core.CleanCode(nd.Code)
	nd.Name = core.CleanString(nd.Name)
	return validate.Struct(nd)
}

// UpdateDepartment keeps the original values of empty fields.
type UpdateDepartment struct {
	Code string `json:"code" validate:"omitempty,max=16,code"`
	Name string `json:"name" validate:"max=128"`
}

func (ud *UpdateDepartment) Validate(orig Department, validate *validator.Validate) error {
	if code := core.CleanCode(ud.Code); code != "" {
		ud.Code = code
	} else {
		ud.Code = orig.Code
	}
	if name := core.CleanString(ud.Name); name != "" {
		ud.Name = name
	} else {
		ud.Name = orig.Name
	}
	return validate.Struct(ud)
}

type QueryFilter struct {
	Search    string
	ClusterID string
	// NoCluster selects departments outside of any cluster.
	NoCluster bool
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.ClusterID = core.CleanString(qf.ClusterID)
}
