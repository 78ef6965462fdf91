package course

import (
	"context"

	"github.com/pkg/errors"

	"github.com/syllabix/syllabix/core"
	"github.com/syllabix/syllabix/core/regulation"
)

var (
	// errors
	ErrSemesterNotFound = core.NewNotFoundError("semester not found")
	ErrNotFound         = core.NewNotFoundError("course not found")
	ErrSyllabusNotFound = core.NewNotFoundError("syllabus not found")
	ErrSemesterExists   = errors.New("the regulation already has a semester with this number")
	ErrCodeExists       = errors.New("the regulation already has a course with this code")
	ErrOtherRegulation  = errors.New("semester belongs to another regulation")
)

type (
	Repository interface {
		CreateSemester(ctx context.Context, sem Semester, exec ...core.DBExecutor) (Semester, error)
		// QuerySemesters lists the semesters of a regulation by number, with their total credits.
		QuerySemesters(ctx context.Context, regulationID string, exec ...core.DBExecutor) ([]Semester, error)
		GetSemester(ctx context.Context, id string, exec ...core.DBExecutor) (Semester, error)
		UpdateSemester(ctx context.Context, sem Semester, exec ...core.DBExecutor) (Semester, error)
		// DeleteSemester also deletes its courses and drops the adoptions of both.
		DeleteSemester(ctx context.Context, id string, exec ...core.DBExecutor) error

		CreateCourse(ctx context.Context, crs Course, exec ...core.DBExecutor) (Course, error)
		// QueryCourses does a case-insensitive match of QueryFilter.Search on Course.Code or Course.Title.
		QueryCourses(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Course, error)
		GetCourse(ctx context.Context, id string, exec ...core.DBExecutor) (Course, error)
		UpdateCourse(ctx context.Context, crs Course, exec ...core.DBExecutor) (Course, error)
		// DeleteCourse also drops the adoptions of the course.
		DeleteCourse(ctx context.Context, id string, exec ...core.DBExecutor) error

		GetSyllabus(ctx context.Context, courseID string, exec ...core.DBExecutor) (Syllabus, error)
		// PutSyllabus replaces the syllabus of a course, units and outcomes included.
		PutSyllabus(ctx context.Context, syl Syllabus, exec ...core.DBExecutor) (Syllabus, error)
		DeleteSyllabus(ctx context.Context, courseID string, exec ...core.DBExecutor) error
	}

	regulationGetter interface {
		GetWritable(ctx context.Context, id string) (regulation.Regulation, error)
	}

	Service struct {
		db     core.DB
		repo   Repository
		regSvc regulationGetter
	}
)

func NewService(db core.DB, repo Repository, regSvc regulationGetter) *Service {
	return &Service{db: db, repo: repo, regSvc: regSvc}
}

func (svc *Service) CreateSemester(ctx context.Context, regulationID string, ns NewSemester) (Semester, error) {
	if _, err := svc.regSvc.GetWritable(ctx, regulationID); err != nil {
		return Semester{}, err
	}
	now := core.Now()
	sem, err := svc.repo.CreateSemester(ctx, Semester{
		RegulationID: regulationID,
		Number:       ns.Number,
		Name:         ns.Name,
		Visibility:   core.VisibilityUnique,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	return sem, core.ConflictAsFieldError(err, "number", ErrSemesterExists.Error())
}

func (svc *Service) QuerySemesters(ctx context.Context, regulationID string) ([]Semester, error) {
	return svc.repo.QuerySemesters(ctx, regulationID)
}

func (svc *Service) GetSemester(ctx context.Context, id string) (Semester, error) {
	if id == "" {
		return Semester{}, ErrSemesterNotFound
	}
	return svc.repo.GetSemester(ctx, id)
}

func (svc *Service) UpdateSemester(ctx context.Context, sem Semester, us UpdateSemester) (Semester, error) {
	if _, err := svc.regSvc.GetWritable(ctx, sem.RegulationID); err != nil {
		return Semester{}, err
	}
	sem.Number = us.Number
	sem.Name = us.Name
	sem.UpdatedAt = core.Now()
	sem, err := svc.repo.UpdateSemester(ctx, sem)
	return sem, core.ConflictAsFieldError(err, "number", ErrSemesterExists.Error())
}

func (svc *Service) DeleteSemester(ctx context.Context, sem Semester) error {
	if _, err := svc.regSvc.GetWritable(ctx, sem.RegulationID); err != nil {
		return err
	}
	return svc.repo.DeleteSemester(ctx, sem.ID)
}

func (svc *Service) CreateCourse(ctx context.Context, sem Semester, nc NewCourse) (Course, error) {
	if _, err := svc.regSvc.GetWritable(ctx, sem.RegulationID); err != nil {
		return Course{}, err
	}
	now := core.Now()
	crs, err := svc.repo.CreateCourse(ctx, Course{
		SemesterID:   sem.ID,
		RegulationID: sem.RegulationID,
		Code:         nc.Code,
		Title:        nc.Title,
		Category:     nc.Category,
		Lecture:      nc.Lecture,
		Tutorial:     nc.Tutorial,
		Practical:    nc.Practical,
		Credits:      nc.Credits,
		Visibility:   core.VisibilityUnique,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	return crs, core.ConflictAsFieldError(err, "code", ErrCodeExists.Error())
}

func (svc *Service) QueryCourses(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryCourses(ctx, filter, ordering)
}

func (svc *Service) GetCourse(ctx context.Context, id string) (Course, error) {
	if id == "" {
		return Course{}, ErrNotFound
	}
	return svc.repo.GetCourse(ctx, id)
}

// UpdateCourse replaces crs with nc; a semester of the same regulation may be given to move the course.
func (svc *Service) UpdateCourse(ctx context.Context, crs Course, nc NewCourse) (Course, error) {
	if _, err := svc.regSvc.GetWritable(ctx, crs.RegulationID); err != nil {
		return Course{}, err
	}
	if nc.SemesterID != "" && nc.SemesterID != crs.SemesterID {
		sem, err := svc.repo.GetSemester(ctx, nc.SemesterID)
		if err != nil {
			if errors.Cause(err) == ErrSemesterNotFound {
				return Course{}, core.NewValidationError(err, core.FieldError{Field: "semester_id", Error: err.Error()})
			}
			return Course{}, errors.Wrap(err, "getting semester")
		}
		if sem.RegulationID != crs.RegulationID {
			return Course{}, core.NewValidationError(ErrOtherRegulation, core.FieldError{Field: "semester_id", Error: ErrOtherRegulation.Error()})
		}
		crs.SemesterID = sem.ID
	}

	crs.Code = nc.Code
	crs.Title = nc.Title
	crs.Category = nc.Category
	crs.Lecture = nc.Lecture
	crs.Tutorial = nc.Tutorial
	crs.Practical = nc.Practical
	crs.Credits = nc.Credits
	crs.UpdatedAt = core.Now()
	crs, err := svc.repo.UpdateCourse(ctx, crs)
	return crs, core.ConflictAsFieldError(err, "code", ErrCodeExists.Error())
}

func (svc *Service) DeleteCourse(ctx context.Context, crs Course) error {
	if _, err := svc.regSvc.GetWritable(ctx, crs.RegulationID); err != nil {
		return err
	}
	return svc.repo.DeleteCourse(ctx, crs.ID)
}

func (svc *Service) GetSyllabus(ctx context.Context, crs Course) (Syllabus, error) {
	return svc.repo.GetSyllabus(ctx, crs.ID)
}

// PutSyllabus atomically replaces the syllabus of crs.
func (svc *Service) PutSyllabus(ctx context.Context, crs Course, syl Syllabus) (Syllabus, error) {
	if _, err := svc.regSvc.GetWritable(ctx, crs.RegulationID); err != nil {
		return Syllabus{}, err
	}
	syl.CourseID = crs.ID
	syl.UpdatedAt = core.Now()

	var saved Syllabus
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		var err error
		saved, err = svc.repo.PutSyllabus(ctx, syl, tx)
		return err
	})
	return saved, err
}

func (svc *Service) DeleteSyllabus(ctx context.Context, crs Course) error {
	if _, err := svc.regSvc.GetWritable(ctx, crs.RegulationID); err != nil {
		return err
	}
	return svc.repo.DeleteSyllabus(ctx, crs.ID)
}
