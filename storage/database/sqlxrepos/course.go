package sqlxrepos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/syllabix/syllabix/core"
	"github.com/syllabix/syllabix/core/course"
)

type semesterRow struct {
	ID           string    `db:"id"`
	RegulationID string    `db:"regulation_id"`
	Number       int       `db:"number"`
	Name         string    `db:"name"`
	Visibility   string    `db:"visibility"`
	Credits      float64   `db:"credits"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r semesterRow) toSemester() course.Semester {
	return course.Semester{
		ID:           r.ID,
		RegulationID: r.RegulationID,
		Number:       r.Number,
		Name:         r.Name,
		Visibility:   r.Visibility,
		Credits:      r.Credits,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

type courseRow struct {
	ID           string    `db:"id"`
	SemesterID   string    `db:"semester_id"`
	RegulationID string    `db:"regulation_id"`
	Code         string    `db:"code"`
	Title        string    `db:"title"`
	Category     string    `db:"category"`
	Lecture      int       `db:"lecture"`
	Tutorial     int       `db:"tutorial"`
	Practical    int       `db:"practical"`
	Credits      float64   `db:"credits"`
	Visibility   string    `db:"visibility"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r courseRow) toCourse() course.Course {
	return course.Course{
		ID:           r.ID,
		SemesterID:   r.SemesterID,
		RegulationID: r.RegulationID,
		Code:         r.Code,
		Title:        r.Title,
		Category:     r.Category,
		Lecture:      r.Lecture,
		Tutorial:     r.Tutorial,
		Practical:    r.Practical,
		Credits:      r.Credits,
		Visibility:   r.Visibility,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

type syllabusRow struct {
	CourseID       string    `db:"course_id"`
	Objectives     string    `db:"objectives"`
	TextBooks      string    `db:"text_books"`
	ReferenceBooks string    `db:"reference_books"`
	UpdatedAt      time.Time `db:"updated_at"`
}

const (
	semesterSelect = `
		SELECT s.id, s.regulation_id, s.number, s.name, s.visibility, s.created_at, s.updated_at,
			COALESCE((SELECT SUM(c.credits) FROM course c WHERE c.semester_id = s.id), 0) AS credits
		FROM semester s`
	courseColumns = `id, semester_id, regulation_id, code, title, category, lecture, tutorial, practical, credits, visibility, created_at, updated_at`
)

var courseOrdering = map[string]string{
	"code":       "code",
	"title":      "title",
	"category":   "category",
	"credits":    "credits",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

type courseRepository struct {
	baseRepository
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db core.DB) *courseRepository {
	return &courseRepository{baseRepository{db: db}}
}

func (repo *courseRepository) CreateSemester(ctx context.Context, sem course.Semester, exec ...core.DBExecutor) (course.Semester, error) {
	sem.ID = newID()
	_, err := execQuery(ctx, repo.executor(exec), `
		INSERT INTO semester (id, regulation_id, number, name, visibility, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sem.ID, sem.RegulationID, sem.Number, sem.Name, sem.Visibility, sem.CreatedAt.UTC(), sem.UpdatedAt.UTC(),
	)
	if err != nil {
		return course.Semester{}, errors.Wrap(err, "inserting semester")
	}
	return sem, nil
}

func (repo *courseRepository) QuerySemesters(ctx context.Context, regulationID string, exec ...core.DBExecutor) ([]course.Semester, error) {
	var rows []semesterRow
	q := semesterSelect + ` WHERE s.regulation_id = ? ORDER BY s.number ASC`
	if err := selectRows(ctx, repo.executor(exec), &rows, q, regulationID); err != nil {
		return nil, errors.Wrap(err, "selecting semesters")
	}
	sems := make([]course.Semester, 0, len(rows))
	for _, r := range rows {
		sems = append(sems, r.toSemester())
	}
	return sems, nil
}

func (repo *courseRepository) GetSemester(ctx context.Context, id string, exec ...core.DBExecutor) (course.Semester, error) {
	var r semesterRow
	if err := get(ctx, repo.executor(exec), &r, course.ErrSemesterNotFound, semesterSelect+` WHERE s.id = ?`, id); err != nil {
		return course.Semester{}, err
	}
	return r.toSemester(), nil
}

func (repo *courseRepository) UpdateSemester(ctx context.Context, sem course.Semester, exec ...core.DBExecutor) (course.Semester, error) {
	err := execAffecting(ctx, repo.executor(exec), course.ErrSemesterNotFound, `
		UPDATE semester SET number = ?, name = ?, updated_at = ? WHERE id = ?`,
		sem.Number, sem.Name, sem.UpdatedAt.UTC(), sem.ID,
	)
	if err != nil {
		return course.Semester{}, err
	}
	return sem, nil
}

func (repo *courseRepository) DeleteSemester(ctx context.Context, id string, exec ...core.DBExecutor) error {
	return repo.inTx(ctx, exec, func(tx core.DBExecutor) error {
		if err := execAffecting(ctx, tx, course.ErrSemesterNotFound, `DELETE FROM semester WHERE id = ?`, id); err != nil {
			return err
		}
		return pruneAdoptions(ctx, tx)
	})
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	crs.ID = newID()
	_, err := execQuery(ctx, repo.executor(exec), `
		INSERT INTO course (`+courseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		crs.ID, crs.SemesterID, crs.RegulationID, crs.Code, crs.Title, crs.Category,
		crs.Lecture, crs.Tutorial, crs.Practical, crs.Credits, crs.Visibility, crs.CreatedAt.UTC(), crs.UpdatedAt.UTC(),
	)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return crs, nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]course.Course, error) {
	var conds conditions
	if filter != nil {
		conds.search(filter.Search, "code", "title")
		if filter.RegulationID != "" {
			conds.add("regulation_id = ?", filter.RegulationID)
		}
		if filter.SemesterID != "" {
			conds.add("semester_id = ?", filter.SemesterID)
		}
		if len(filter.Categories) > 0 {
			conds.add("category IN (?)", filter.Categories)
		}
	}

	var rows []courseRow
	q := `SELECT ` + courseColumns + ` FROM course` + conds.where() + orderBy(ordering, courseOrdering, "code ASC")
	if err := selectRows(ctx, repo.executor(exec), &rows, q, conds.args...); err != nil {
		return nil, errors.Wrap(err, "selecting courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.toCourse())
	}
	return courses, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string, exec ...core.DBExecutor) (course.Course, error) {
	var r courseRow
	q := `SELECT ` + courseColumns + ` FROM course WHERE id = ?`
	if err := get(ctx, repo.executor(exec), &r, course.ErrNotFound, q, id); err != nil {
		return course.Course{}, err
	}
	return r.toCourse(), nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	err := execAffecting(ctx, repo.executor(exec), course.ErrNotFound, `
		UPDATE course SET semester_id = ?, code = ?, title = ?, category = ?, lecture = ?, tutorial = ?, practical = ?,
			credits = ?, updated_at = ?
		WHERE id = ?`,
		crs.SemesterID, crs.Code, crs.Title, crs.Category, crs.Lecture, crs.Tutorial, crs.Practical,
		crs.Credits, crs.UpdatedAt.UTC(), crs.ID,
	)
	if err != nil {
		return course.Course{}, err
	}
	return crs, nil
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id string, exec ...core.DBExecutor) error {
	return repo.inTx(ctx, exec, func(tx core.DBExecutor) error {
		if err := execAffecting(ctx, tx, course.ErrNotFound, `DELETE FROM course WHERE id = ?`, id); err != nil {
			return err
		}
		return pruneAdoptions(ctx, tx)
	})
}

func (repo *courseRepository) GetSyllabus(ctx context.Context, courseID string, exec ...core.DBExecutor) (course.Syllabus, error) {
	ex := repo.executor(exec)
	var r syllabusRow
	q := `SELECT course_id, objectives, text_books, reference_books, updated_at FROM syllabus WHERE course_id = ?`
	if err := get(ctx, ex, &r, course.ErrSyllabusNotFound, q, courseID); err != nil {
		return course.Syllabus{}, err
	}

	syl := course.Syllabus{
		CourseID:   r.CourseID,
		Objectives: r.Objectives,
		UpdatedAt:  r.UpdatedAt.UTC(),
		Units:      []course.Unit{},
		Outcomes:   []course.Outcome{},
	}
	if err := json.Unmarshal([]byte(r.TextBooks), &syl.TextBooks); err != nil {
		return course.Syllabus{}, errors.Wrap(err, "decoding text books")
	}
	if err := json.Unmarshal([]byte(r.ReferenceBooks), &syl.ReferenceBooks); err != nil {
		return course.Syllabus{}, errors.Wrap(err, "decoding reference books")
	}
	if err := selectRows(ctx, ex, &syl.Units,
		`SELECT id, number, title, content, hours FROM syllabus_unit WHERE course_id = ? ORDER BY number ASC`, courseID); err != nil {
		return course.Syllabus{}, errors.Wrap(err, "selecting units")
	}
	if err := selectRows(ctx, ex, &syl.Outcomes,
		`SELECT id, number, statement FROM course_outcome WHERE course_id = ? ORDER BY number ASC`, courseID); err != nil {
		return course.Syllabus{}, errors.Wrap(err, "selecting outcomes")
	}
	return syl, nil
}

func (repo *courseRepository) PutSyllabus(ctx context.Context, syl course.Syllabus, exec ...core.DBExecutor) (course.Syllabus, error) {
	textBooks, err := json.Marshal(nonNil(syl.TextBooks))
	if err != nil {
		return course.Syllabus{}, errors.Wrap(err, "encoding text books")
	}
	refBooks, err := json.Marshal(nonNil(syl.ReferenceBooks))
	if err != nil {
		return course.Syllabus{}, errors.Wrap(err, "encoding reference books")
	}

	err = repo.inTx(ctx, exec, func(tx core.DBExecutor) error {
		// units & outcomes cascade
		if _, err := execQuery(ctx, tx, `DELETE FROM syllabus WHERE course_id = ?`, syl.CourseID); err != nil {
			return errors.Wrap(err, "deleting syllabus")
		}
		if _, err := execQuery(ctx, tx, `
			INSERT INTO syllabus (course_id, objectives, text_books, reference_books, updated_at) VALUES (?, ?, ?, ?, ?)`,
			syl.CourseID, syl.Objectives, string(textBooks), string(refBooks), syl.UpdatedAt.UTC(),
		); err != nil {
			return errors.Wrap(err, "inserting syllabus")
		}
		for _, u := range syl.Units {
			if _, err := execQuery(ctx, tx, `
				INSERT INTO syllabus_unit (id, course_id, number, title, content, hours) VALUES (?, ?, ?, ?, ?, ?)`,
				newID(), syl.CourseID, u.Number, u.Title, u.Content, u.Hours,
			); err != nil {
				return errors.Wrap(err, "inserting unit")
			}
		}
		for _, o := range syl.Outcomes {
			if _, err := execQuery(ctx, tx, `
				INSERT INTO course_outcome (id, course_id, number, statement) VALUES (?, ?, ?, ?)`,
				newID(), syl.CourseID, o.Number, o.Statement,
			); err != nil {
				return errors.Wrap(err, "inserting outcome")
			}
		}
		return nil
	})
	if err != nil {
		if errors.Cause(err) == core.ErrForeignKeyViolation {
			return course.Syllabus{}, course.ErrNotFound
		}
		return course.Syllabus{}, err
	}
	return repo.GetSyllabus(ctx, syl.CourseID, exec...)
}

func (repo *courseRepository) DeleteSyllabus(ctx context.Context, courseID string, exec ...core.DBExecutor) error {
	return execAffecting(ctx, repo.executor(exec), course.ErrSyllabusNotFound, `DELETE FROM syllabus WHERE course_id = ?`, courseID)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
