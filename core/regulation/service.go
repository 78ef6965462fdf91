package regulation

import (
	"context"

	"github.com/pkg/errors"

	"github.com/syllabix/syllabix/core"
)

var (
	// errors
	ErrNotFound          = core.NewNotFoundError("regulation not found")
	ErrStatementNotFound = core.NewNotFoundError("statement not found")
	ErrCodeExists        = errors.New("the department already has a regulation with this code")
	ErrNumberExists      = errors.New("a statement of this kind already has this number")
)

type (
	Repository interface {
		CreateRegulation(ctx context.Context, reg Regulation, exec ...core.DBExecutor) (Regulation, error)
		// QueryRegulations does a case-insensitive match of QueryFilter.Search on Regulation.Code or Regulation.Name.
		QueryRegulations(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Regulation, error)
		GetRegulation(ctx context.Context, id string, exec ...core.DBExecutor) (Regulation, error)
		UpdateRegulation(ctx context.Context, reg Regulation, exec ...core.DBExecutor) (Regulation, error)
		// DeleteRegulation also drops the adoptions of the regulation's items.
		DeleteRegulation(ctx context.Context, id string, exec ...core.DBExecutor) error

		CreateStatement(ctx context.Context, stmt Statement, exec ...core.DBExecutor) (Statement, error)
		MaxStatementNumber(ctx context.Context, regulationID, kind string, exec ...core.DBExecutor) (int, error)
		// QueryStatements lists the statements of a regulation ordered by kind and number; kinds filters when not empty.
		QueryStatements(ctx context.Context, regulationID string, kinds []string, exec ...core.DBExecutor) ([]Statement, error)
		GetStatement(ctx context.Context, id string, exec ...core.DBExecutor) (Statement, error)
		UpdateStatement(ctx context.Context, stmt Statement, exec ...core.DBExecutor) (Statement, error)
		// DeleteStatement also drops the adoptions of the statement.
		DeleteStatement(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	Service struct {
		db   core.DB
		repo Repository
	}
)

func NewService(db core.DB, repo Repository) *Service {
	return &Service{db: db, repo: repo}
}

func (svc *Service) Create(ctx context.Context, nr NewRegulation) (Regulation, error) {
	now := core.Now()
	reg, err := svc.repo.CreateRegulation(ctx, Regulation{
		DepartmentID: nr.DepartmentID,
		Code:         nr.Code,
		Name:         nr.Name,
		Year:         nr.Year,
		Status:       nr.Status,
		MinCredits:   nr.MinCredits,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	return reg, core.ConflictAsFieldError(err, "code", ErrCodeExists.Error())
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Regulation, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryRegulations(ctx, filter, ordering)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Regulation, error) {
	if id == "" {
		return Regulation{}, ErrNotFound
	}
	return svc.repo.GetRegulation(ctx, id)
}

// GetWritable returns the regulation if its content may still be modified.
func (svc *Service) GetWritable(ctx context.Context, id string) (Regulation, error) {
	reg, err := svc.GetByID(ctx, id)
	if err != nil {
		return Regulation{}, err
	}
	if reg.IsArchived() {
		return Regulation{}, core.NewValidationError(core.ErrRegulationArchived)
	}
	return reg, nil
}

// Update applies ur to reg. An archived regulation is only updated when ur moves it out of ARCHIVED.
func (svc *Service) Update(ctx context.Context, reg Regulation, ur UpdateRegulation) (Regulation, error) {
	if reg.IsArchived() && ur.Status == StatusArchived {
		return Regulation{}, core.NewValidationError(core.ErrRegulationArchived)
	}
	reg.Code = ur.Code
	reg.Name = ur.Name
	reg.Year = ur.Year
	reg.Status = ur.Status
	if ur.MinCredits != nil {
		reg.MinCredits = *ur.MinCredits
	}
	reg.UpdatedAt = core.Now()
	reg, err := svc.repo.UpdateRegulation(ctx, reg)
	return reg, core.ConflictAsFieldError(err, "code", ErrCodeExists.Error())
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteRegulation(ctx, id)
}

// CreateStatement adds a statement to a writable regulation, numbering it after the last one of its kind when needed.
func (svc *Service) CreateStatement(ctx context.Context, regulationID string, ns NewStatement) (Statement, error) {
	if _, err := svc.GetWritable(ctx, regulationID); err != nil {
		return Statement{}, err
	}

	var stmt Statement
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		number := ns.Number
		if number == 0 {
			last, err := svc.repo.MaxStatementNumber(ctx, regulationID, ns.Kind, tx)
			if err != nil {
				return errors.Wrap(err, "getting last statement number")
			}
			number = last + 1
		}

		now := core.Now()
		var err error
		stmt, err = svc.repo.CreateStatement(ctx, Statement{
			RegulationID: regulationID,
			Kind:         ns.Kind,
			Number:       number,
			Body:         ns.Body,
			Visibility:   core.VisibilityUnique,
			CreatedAt:    now,
			UpdatedAt:    now,
		}, tx)
		return err
	})
	return stmt, core.ConflictAsFieldError(err, "number", ErrNumberExists.Error())
}

func (svc *Service) QueryStatements(ctx context.Context, regulationID string, kinds ...string) ([]Statement, error) {
	for i := range kinds {
		kinds[i] = core.CleanCode(kinds[i])
	}
	return svc.repo.QueryStatements(ctx, regulationID, kinds)
}

func (svc *Service) GetStatement(ctx context.Context, id string) (Statement, error) {
	if id == "" {
		return Statement{}, ErrStatementNotFound
	}
	return svc.repo.GetStatement(ctx, id)
}

func (svc *Service) UpdateStatement(ctx context.Context, stmt Statement, us UpdateStatement) (Statement, error) {
	if _, err := svc.GetWritable(ctx, stmt.RegulationID); err != nil {
		return Statement{}, err
	}
	stmt.Number = us.Number
	stmt.Body = us.Body
	stmt.UpdatedAt = core.Now()
	stmt, err := svc.repo.UpdateStatement(ctx, stmt)
	return stmt, core.ConflictAsFieldError(err, "number", ErrNumberExists.Error())
}

func (svc *Service) DeleteStatement(ctx context.Context, stmt Statement) error {
	if _, err := svc.GetWritable(ctx, stmt.RegulationID); err != nil {
		return err
	}
	return svc.repo.DeleteStatement(ctx, stmt.ID)
}
