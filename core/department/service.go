package department

import (
	"context"

	"github.com/pkg/errors"

	"github.com/syllabix/syllabix/core"
)

var (
	// errors
	ErrNotFound       = core.NewNotFoundError("department not found")
	ErrCodeExists     = errors.New("a department with this code already exists")
	ErrHasRegulations = errors.New("department still owns regulations")
)

type (
	Repository interface {
		CreateDepartment(ctx context.Context, dept Department, exec ...core.DBExecutor) (Department, error)
		// QueryDepartments does a case-insensitive match of QueryFilter.Search on Department.Code or Department.Name.
		QueryDepartments(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Department, error)
		GetDepartment(ctx context.Context, id string, exec ...core.DBExecutor) (Department, error)
		UpdateDepartment(ctx context.Context, dept Department, exec ...core.DBExecutor) (Department, error)
		DeleteDepartment(ctx context.Context, id string, exec ...core.DBExecutor) error
		CountRegulations(ctx context.Context, id string, exec ...core.DBExecutor) (int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nd NewDepartment) (Department, error) {
	now := core.Now()
	dept, err := svc.repo.CreateDepartment(ctx, Department{
		Code:      nd.Code,
		Name:      nd.Name,
		CreatedAt: now,
		UpdatedAt: now,
	})
	return dept, core.ConflictAsFieldError(err, "code", ErrCodeExists.Error())
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Department, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryDepartments(ctx, filter, ordering)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Department, error) {
	if id == "" {
		return Department{}, ErrNotFound
	}
	return svc.repo.GetDepartment(ctx, id)
}

func (svc *Service) Update(ctx context.Context, dept Department, ud UpdateDepartment) (Department, error) {
	dept.Code = ud.Code
	dept.Name = ud.Name
	dept.UpdatedAt = core.Now()
	dept, err := svc.repo.UpdateDepartment(ctx, dept)
	return dept, core.ConflictAsFieldError(err, "code", ErrCodeExists.Error())
}

// Delete removes a department that owns no regulation.
func (svc *Service) Delete(ctx context.Context, id string) error {
	n, err := svc.repo.CountRegulations(ctx, id)
	if err != nil {
		return errors.Wrap(err, "counting regulations")
	}
	if n > 0 {
		return core.NewValidationError(ErrHasRegulations)
	}
	return svc.repo.DeleteDepartment(ctx, id)
}
