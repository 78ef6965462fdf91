package honour

import (
	"context"

	"github.com/pkg/errors"

	"github.com/syllabix/syllabix/core"
	"github.com/syllabix/syllabix/core/regulation"
)

var (
	// errors
	ErrNotFound         = core.NewNotFoundError("honour card not found")
	ErrVerticalNotFound = core.NewNotFoundError("vertical not found")
	ErrCourseNotFound   = core.NewNotFoundError("honour course not found")
	ErrTitleExists      = errors.New("the regulation already has an honour card with this title")
	ErrNameExists       = errors.New("the honour card already has a vertical with this name")
	ErrCodeExists       = errors.New("the vertical already has a course with this code")
)

type (
	Repository interface {
		CreateCard(ctx context.Context, card Card, exec ...core.DBExecutor) (Card, error)
		QueryCards(ctx context.Context, regulationID string, exec ...core.DBExecutor) ([]Card, error)
		// GetCard returns the card without its verticals.
		GetCard(ctx context.Context, id string, exec ...core.DBExecutor) (Card, error)
		UpdateCard(ctx context.Context, card Card, exec ...core.DBExecutor) (Card, error)
		DeleteCard(ctx context.Context, id string, exec ...core.DBExecutor) error

		CreateVertical(ctx context.Context, vert Vertical, exec ...core.DBExecutor) (Vertical, error)
		QueryVerticals(ctx context.Context, cardIDs []string, exec ...core.DBExecutor) ([]Vertical, error)
		GetVertical(ctx context.Context, id string, exec ...core.DBExecutor) (Vertical, error)
		UpdateVertical(ctx context.Context, vert Vertical, exec ...core.DBExecutor) (Vertical, error)
		DeleteVertical(ctx context.Context, id string, exec ...core.DBExecutor) error

		CreateCourse(ctx context.Context, crs Course, exec ...core.DBExecutor) (Course, error)
		QueryCourses(ctx context.Context, verticalIDs []string, exec ...core.DBExecutor) ([]Course, error)
		GetCourse(ctx context.Context, id string, exec ...core.DBExecutor) (Course, error)
		UpdateCourse(ctx context.Context, crs Course, exec ...core.DBExecutor) (Course, error)
		DeleteCourse(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	regulationGetter interface {
		GetWritable(ctx context.Context, id string) (regulation.Regulation, error)
	}

	Service struct {
		repo   Repository
		regSvc regulationGetter
	}
)

func NewService(repo Repository, regSvc regulationGetter) *Service {
	return &Service{repo: repo, regSvc: regSvc}
}

func (svc *Service) CreateCard(ctx context.Context, regulationID string, nc NewCard) (Card, error) {
	if _, err := svc.regSvc.GetWritable(ctx, regulationID); err != nil {
		return Card{}, err
	}
	now := core.Now()
	card := Card{
		RegulationID: regulationID,
		Title:        nc.Title,
		Verticals:    []Vertical{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if nc.MinCredits != nil {
		card.MinCredits = *nc.MinCredits
	}
	card, err := svc.repo.CreateCard(ctx, card)
	return card, core.ConflictAsFieldError(err, "title", ErrTitleExists.Error())
}

// QueryCards lists the cards of a regulation with their verticals and courses.
func (svc *Service) QueryCards(ctx context.Context, regulationID string) ([]Card, error) {
	cards, err := svc.repo.QueryCards(ctx, regulationID)
	if err != nil {
		return nil, err
	}
	if err = svc.fill(ctx, cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// GetCard returns a card with its verticals, their courses and credits.
func (svc *Service) GetCard(ctx context.Context, id string) (Card, error) {
	if id == "" {
		return Card{}, ErrNotFound
	}
	card, err := svc.repo.GetCard(ctx, id)
	if err != nil {
		return Card{}, err
	}
	cards := []Card{card}
	if err = svc.fill(ctx, cards); err != nil {
		return Card{}, err
	}
	return cards[0], nil
}

func (svc *Service) fill(ctx context.Context, cards []Card) error {
	if len(cards) == 0 {
		return nil
	}
	cardIDs := make([]string, 0, len(cards))
	for _, c := range cards {
		cardIDs = append(cardIDs, c.ID)
	}
	verts, err := svc.repo.QueryVerticals(ctx, cardIDs)
	if err != nil {
		return errors.Wrap(err, "querying verticals")
	}
	vertIDs := make([]string, 0, len(verts))
	for _, v := range verts {
		vertIDs = append(vertIDs, v.ID)
	}
	var courses []Course
	if len(vertIDs) > 0 {
		if courses, err = svc.repo.QueryCourses(ctx, vertIDs); err != nil {
			return errors.Wrap(err, "querying honour courses")
		}
	}

	byVert := make(map[string][]Course, len(verts))
	for _, crs := range courses {
		byVert[crs.VerticalID] = append(byVert[crs.VerticalID], crs)
	}
	byCard := make(map[string][]Vertical, len(cards))
	for _, v := range verts {
		v.Courses = byVert[v.ID]
		if v.Courses == nil {
			v.Courses = []Course{}
		}
		v.Credits = 0
		for _, crs := range v.Courses {
			v.Credits += crs.Credits
		}
		byCard[v.CardID] = append(byCard[v.CardID], v)
	}
	for i := range cards {
		cards[i].Verticals = byCard[cards[i].ID]
		if cards[i].Verticals == nil {
			cards[i].Verticals = []Vertical{}
		}
	}
	return nil
}

func (svc *Service) UpdateCard(ctx context.Context, card Card, nc NewCard) (Card, error) {
	if _, err := svc.regSvc.GetWritable(ctx, card.RegulationID); err != nil {
		return Card{}, err
	}
	card.Title = nc.Title
	if nc.MinCredits != nil {
		card.MinCredits = *nc.MinCredits
	}
	card.UpdatedAt = core.Now()
	if _, err := svc.repo.UpdateCard(ctx, card); err != nil {
		return Card{}, core.ConflictAsFieldError(err, "title", ErrTitleExists.Error())
	}
	return svc.GetCard(ctx, card.ID)
}

func (svc *Service) DeleteCard(ctx context.Context, card Card) error {
	if _, err := svc.regSvc.GetWritable(ctx, card.RegulationID); err != nil {
		return err
	}
	return svc.repo.DeleteCard(ctx, card.ID)
}

func (svc *Service) CreateVertical(ctx context.Context, card Card, nv NewVertical) (Vertical, error) {
	if _, err := svc.regSvc.GetWritable(ctx, card.RegulationID); err != nil {
		return Vertical{}, err
	}
	vert, err := svc.repo.CreateVertical(ctx, Vertical{CardID: card.ID, Name: nv.Name, Courses: []Course{}})
	return vert, core.ConflictAsFieldError(err, "name", ErrNameExists.Error())
}

func (svc *Service) GetVertical(ctx context.Context, id string) (Vertical, error) {
	if id == "" {
		return Vertical{}, ErrVerticalNotFound
	}
	return svc.repo.GetVertical(ctx, id)
}

// UpdateVertical renames a vertical of card.
func (svc *Service) UpdateVertical(ctx context.Context, card Card, vert Vertical, nv NewVertical) (Vertical, error) {
	if _, err := svc.regSvc.GetWritable(ctx, card.RegulationID); err != nil {
		return Vertical{}, err
	}
	vert.Name = nv.Name
	vert, err := svc.repo.UpdateVertical(ctx, vert)
	return vert, core.ConflictAsFieldError(err, "name", ErrNameExists.Error())
}

func (svc *Service) DeleteVertical(ctx context.Context, card Card, vert Vertical) error {
	if _, err := svc.regSvc.GetWritable(ctx, card.RegulationID); err != nil {
		return err
	}
	return svc.repo.DeleteVertical(ctx, vert.ID)
}

func (svc *Service) CreateCourse(ctx context.Context, card Card, vert Vertical, nc NewCourse) (Course, error) {
	if _, err := svc.regSvc.GetWritable(ctx, card.RegulationID); err != nil {
		return Course{}, err
	}
	crs, err := svc.repo.CreateCourse(ctx, Course{
		VerticalID: vert.ID,
		Code:       nc.Code,
		Title:      nc.Title,
		Lecture:    nc.Lecture,
		Tutorial:   nc.Tutorial,
		Practical:  nc.Practical,
		Credits:    nc.Credits,
	})
	return crs, core.ConflictAsFieldError(err, "code", ErrCodeExists.Error())
}

func (svc *Service) GetCourse(ctx context.Context, id string) (Course, error) {
	if id == "" {
		return Course{}, ErrCourseNotFound
	}
	return svc.repo.GetCourse(ctx, id)
}

func (svc *Service) UpdateCourse(ctx context.Context, card Card, crs Course, nc NewCourse) (Course, error) {
	if _, err := svc.regSvc.GetWritable(ctx, card.RegulationID); err != nil {
		return Course{}, err
	}
	crs.Code = nc.Code
	crs.Title = nc.Title
	crs.Lecture = nc.Lecture
	crs.Tutorial = nc.Tutorial
	crs.Practical = nc.Practical
	crs.Credits = nc.Credits
	crs, err := svc.repo.UpdateCourse(ctx, crs)
	return crs, core.ConflictAsFieldError(err, "code", ErrCodeExists.Error())
}

func (svc *Service) DeleteCourse(ctx context.Context, card Card, crs Course) error {
	if _, err := svc.regSvc.GetWritable(ctx, card.RegulationID); err != nil {
		return err
	}
	return svc.repo.DeleteCourse(ctx, crs.ID)
}
