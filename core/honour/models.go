package honour

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/syllabix/syllabix/core"
)

// Card is an honours programme of a regulation, made of verticals of courses.
type Card struct {
	ID           string     `json:"id"`
	RegulationID string     `json:"regulation_id"`
	Title        string     `json:"title"`
	MinCredits   float64    `json:"min_credits"`
	Verticals    []Vertical `json:"verticals"`
	CreatedAt    time.Time  `json:"created_at"` // UTC
	UpdatedAt    time.Time  `json:"updated_at"` // UTC
}

type Vertical struct {
	ID      string   `json:"id"`
	CardID  string   `json:"honour_card_id"`
	Name    string   `json:"name"`
	Courses []Course `json:"courses"`
	Credits float64  `json:"credits"` // sum of the vertical's course credits
}

type Course struct {
	ID         string  `json:"id"`
	VerticalID string  `json:"vertical_id"`
	Code       string  `json:"code"`
	Title      string  `json:"title"`
	Lecture    int     `json:"lecture"`
	Tutorial   int     `json:"tutorial"`
	Practical  int     `json:"practical"`
	Credits    float64 `json:"credits"`
}

// NewCard is also used to update a card; empty fields keep their original values.
type NewCard struct {
	Title      string   `json:"title" validate:"required,max=128"`
	MinCredits *float64 `json:"min_credits" validate:"omitempty,min=0"`
}

func (nc *NewCard) Validate(validate *validator.Validate, orig ...Card) error {
	nc.Title = core.CleanString(nc.Title)
	if len(orig) > 0 && nc.Title == "" {
		nc.Title = orig[0].Title
	}
	return validate.Struct(nc)
}

type NewVertical struct {
	Name string `json:"name" validate:"required,max=128"`
}

func (nv *NewVertical) Validate(validate *validator.Validate) error {
	nv.Name = core.CleanString(nv.Name)
	return validate.Struct(nv)
}

// NewCourse is also used to replace an honour course.
type NewCourse struct {
	Code      string  `json:"code" validate:"required,max=16,code"`
	Title     string  `json:"title" validate:"required,max=256"`
	Lecture   int     `json:"lecture" validate:"min=0,max=20"`
	Tutorial  int     `json:"tutorial" validate:"min=0,max=20"`
	Practical int     `json:"practical" validate:"min=0,max=40"`
	Credits   float64 `json:"credits" validate:"min=0,max=40"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Code = core.CleanCode(nc.Code)
	nc.Title = core.CleanString(nc.Title)
	if nc.Credits == 0 {
		nc.Credits = core.Credits(nc.Lecture, nc.Tutorial, nc.Practical)
	}
	return validate.Struct(nc)
}
