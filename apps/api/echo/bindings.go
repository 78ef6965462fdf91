package echoapi

import (
	"context"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/syllabix/syllabix/core"
)

const (
	orderingParam = "ordering"
	objectKey     = "object"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind reads `?ordering=name,-created_at`; a leading "-" sorts descending.
func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}
	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

func bindOrdering(ctx echo.Context) []core.DBOrdering {
	ordering := new(Ordering)
	ordering.Bind(ctx)
	return ordering.Orderings
}

// boolParam parses an optional boolean query parameter.
func boolParam(ctx echo.Context, name string) (*bool, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return nil, core.NewValidationError(err, core.FieldError{Field: name, Error: invalidValue})
	}
	return &b, nil
}

// loadObject fetches the object named by the `param` path parameter and stores it in the context.
func loadObject[T any](param string, get func(context.Context, string) (T, error)) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			obj, err := get(ctx.Request().Context(), ctx.Param(param))
			if err != nil {
				if core.IsNotFound(err) {
					return err
				}
				return errors.Wrapf(err, "loading %s", param)
			}
			ctx.Set(objectKey+":"+param, obj)
			return next(ctx)
		}
	}
}

// contextObject returns the object stored by loadObject for `param`.
func contextObject[T any](ctx echo.Context, param string) (T, error) {
	obj, ok := ctx.Get(objectKey + ":" + param).(T)
	if !ok {
		var zero T
		return zero, errors.Errorf("%s object not found in echo.Context", param)
	}
	return obj, nil
}

func emptyIfNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
