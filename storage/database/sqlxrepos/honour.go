package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/syllabix/syllabix/core"
	"github.com/syllabix/syllabix/core/honour"
)

type honourCardRow struct {
	ID           string    `db:"id"`
	RegulationID string    `db:"regulation_id"`
	Title        string    `db:"title"`
	MinCredits   float64   `db:"min_credits"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r honourCardRow) toCard() honour.Card {
	return honour.Card{
		ID:           r.ID,
		RegulationID: r.RegulationID,
		Title:        r.Title,
		MinCredits:   r.MinCredits,
		Verticals:    []honour.Vertical{},
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

type verticalRow struct {
	ID     string `db:"id"`
	CardID string `db:"honour_card_id"`
	Name   string `db:"name"`
}

func (r verticalRow) toVertical() honour.Vertical {
	return honour.Vertical{ID: r.ID, CardID: r.CardID, Name: r.Name, Courses: []honour.Course{}}
}

type honourCourseRow struct {
	ID         string  `db:"id"`
	VerticalID string  `db:"vertical_id"`
	Code       string  `db:"code"`
	Title      string  `db:"title"`
	Lecture    int     `db:"lecture"`
	Tutorial   int     `db:"tutorial"`
	Practical  int     `db:"practical"`
	Credits    float64 `db:"credits"`
}

func (r honourCourseRow) toCourse() honour.Course {
	return honour.Course(r)
}

const (
	honourCardColumns   = `id, regulation_id, title, min_credits, created_at, updated_at`
	verticalColumns     = `id, honour_card_id, name`
	honourCourseColumns = `id, vertical_id, code, title, lecture, tutorial, practical, credits`
)

type honourRepository struct {
	baseRepository
}

var _ honour.Repository = (*honourRepository)(nil)

func NewHonourRepository(db core.DB) *honourRepository {
	return &honourRepository{baseRepository{db: db}}
}

func (repo *honourRepository) CreateCard(ctx context.Context, card honour.Card, exec ...core.DBExecutor) (honour.Card, error) {
	card.ID = newID()
	_, err := execQuery(ctx, repo.executor(exec), `
		INSERT INTO honour_card (`+honourCardColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		card.ID, card.RegulationID, card.Title, card.MinCredits, card.CreatedAt.UTC(), card.UpdatedAt.UTC(),
	)
	if err != nil {
		return honour.Card{}, errors.Wrap(err, "inserting honour card")
	}
	return card, nil
}

func (repo *honourRepository) QueryCards(ctx context.Context, regulationID string, exec ...core.DBExecutor) ([]honour.Card, error) {
	var rows []honourCardRow
	q := `SELECT ` + honourCardColumns + ` FROM honour_card WHERE regulation_id = ? ORDER BY title ASC`
	if err := selectRows(ctx, repo.executor(exec), &rows, q, regulationID); err != nil {
		return nil, errors.Wrap(err, "selecting honour cards")
	}
	cards := make([]honour.Card, 0, len(rows))
	for _, r := range rows {
		cards = append(cards, r.toCard())
	}
	return cards, nil
}

func (repo *honourRepository) GetCard(ctx context.Context, id string, exec ...core.DBExecutor) (honour.Card, error) {
	var r honourCardRow
	q := `SELECT ` + honourCardColumns + ` FROM honour_card WHERE id = ?`
	if err := get(ctx, repo.executor(exec), &r, honour.ErrNotFound, q, id); err != nil {
		return honour.Card{}, err
	}
	return r.toCard(), nil
}

func (repo *honourRepository) UpdateCard(ctx context.Context, card honour.Card, exec ...core.DBExecutor) (honour.Card, error) {
	err := execAffecting(ctx, repo.executor(exec), honour.ErrNotFound, `
		UPDATE honour_card SET title = ?, min_credits = ?, updated_at = ? WHERE id = ?`,
		card.Title, card.MinCredits, card.UpdatedAt.UTC(), card.ID,
	)
	if err != nil {
		return honour.Card{}, err
	}
	return card, nil
}

func (repo *honourRepository) DeleteCard(ctx context.Context, id string, exec ...core.DBExecutor) error {
	return execAffecting(ctx, repo.executor(exec), honour.ErrNotFound, `DELETE FROM honour_card WHERE id = ?`, id)
}

func (repo *honourRepository) CreateVertical(ctx context.Context, vert honour.Vertical, exec ...core.DBExecutor) (honour.Vertical, error) {
	vert.ID = newID()
	_, err := execQuery(ctx, repo.executor(exec), `
		INSERT INTO honour_vertical (`+verticalColumns+`) VALUES (?, ?, ?)`, vert.ID, vert.CardID, vert.Name)
	if err != nil {
		return honour.Vertical{}, errors.Wrap(err, "inserting vertical")
	}
	return vert, nil
}

func (repo *honourRepository) QueryVerticals(ctx context.Context, cardIDs []string, exec ...core.DBExecutor) ([]honour.Vertical, error) {
	verts := make([]honour.Vertical, 0)
	if len(cardIDs) == 0 {
		return verts, nil
	}
	var rows []verticalRow
	q := `SELECT ` + verticalColumns + ` FROM honour_vertical WHERE honour_card_id IN (?) ORDER BY name ASC`
	if err := selectRows(ctx, repo.executor(exec), &rows, q, cardIDs); err != nil {
		return nil, errors.Wrap(err, "selecting verticals")
	}
	for _, r := range rows {
		verts = append(verts, r.toVertical())
	}
	return verts, nil
}

func (repo *honourRepository) GetVertical(ctx context.Context, id string, exec ...core.DBExecutor) (honour.Vertical, error) {
	var r verticalRow
	q := `SELECT ` + verticalColumns + ` FROM honour_vertical WHERE id = ?`
	if err := get(ctx, repo.executor(exec), &r, honour.ErrVerticalNotFound, q, id); err != nil {
		return honour.Vertical{}, err
	}
	return r.toVertical(), nil
}

func (repo *honourRepository) UpdateVertical(ctx context.Context, vert honour.Vertical, exec ...core.DBExecutor) (honour.Vertical, error) {
	err := execAffecting(ctx, repo.executor(exec), honour.ErrVerticalNotFound,
		`UPDATE honour_vertical SET name = ? WHERE id = ?`, vert.Name, vert.ID)
	if err != nil {
		return honour.Vertical{}, err
	}
	return vert, nil
}

func (repo *honourRepository) DeleteVertical(ctx context.Context, id string, exec ...core.DBExecutor) error {
	return execAffecting(ctx, repo.executor(exec), honour.ErrVerticalNotFound, `DELETE FROM honour_vertical WHERE id = ?`, id)
}

func (repo *honourRepository) CreateCourse(ctx context.Context, crs honour.Course, exec ...core.DBExecutor) (honour.Course, error) {
	crs.ID = newID()
	_, err := execQuery(ctx, repo.executor(exec), `
		INSERT INTO honour_course (`+honourCourseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		crs.ID, crs.VerticalID, crs.Code, crs.Title, crs.Lecture, crs.Tutorial, crs.Practical, crs.Credits,
	)
	if err != nil {
		return honour.Course{}, errors.Wrap(err, "inserting honour course")
	}
	return crs, nil
}

func (repo *honourRepository) QueryCourses(ctx context.Context, verticalIDs []string, exec ...core.DBExecutor) ([]honour.Course, error) {
	courses := make([]honour.Course, 0)
	if len(verticalIDs) == 0 {
		return courses, nil
	}
	var rows []honourCourseRow
	q := `SELECT ` + honourCourseColumns + ` FROM honour_course WHERE vertical_id IN (?) ORDER BY code ASC`
	if err := selectRows(ctx, repo.executor(exec), &rows, q, verticalIDs); err != nil {
		return nil, errors.Wrap(err, "selecting honour courses")
	}
	for _, r := range rows {
		courses = append(courses, r.toCourse())
	}
	return courses, nil
}

func (repo *honourRepository) GetCourse(ctx context.Context, id string, exec ...core.DBExecutor) (honour.Course, error) {
	var r honourCourseRow
	q := `SELECT ` + honourCourseColumns + ` FROM honour_course WHERE id = ?`
	if err := get(ctx, repo.executor(exec), &r, honour.ErrCourseNotFound, q, id); err != nil {
		return honour.Course{}, err
	}
	return r.toCourse(), nil
}

func (repo *honourRepository) UpdateCourse(ctx context.Context, crs honour.Course, exec ...core.DBExecutor) (honour.Course, error) {
	err := execAffecting(ctx, repo.executor(exec), honour.ErrCourseNotFound, `
		UPDATE honour_course SET code = ?, title = ?, lecture = ?, tutorial = ?, practical = ?, credits = ? WHERE id = ?`,
		crs.Code, crs.Title, crs.Lecture, crs.Tutorial, crs.Practical, crs.Credits, crs.ID,
	)
	if err != nil {
		return honour.Course{}, err
	}
	return crs, nil
}

func (repo *honourRepository) DeleteCourse(ctx context.Context, id string, exec ...core.DBExecutor) error {
	return execAffecting(ctx, repo.executor(exec), honour.ErrCourseNotFound, `DELETE FROM honour_course WHERE id = ?`, id)
}
