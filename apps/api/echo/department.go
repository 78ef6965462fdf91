package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/syllabix/syllabix/core/department"
)

type departmentApi struct {
	svc      *department.Service
	validate *validator.Validate
}

func registerDepartmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *department.Service, validate *validator.Validate) {
	api := departmentApi{svc: svc, validate: validate}

	dg := g.Group("/departments", jwt)
	dg.GET("", api.query)
	dg.POST("", api.create, adminMiddleware())

	og := dg.Group("/:id", loadObject("id", svc.GetByID))
	og.GET("", api.retrieve)
	og.PUT("", api.update, adminMiddleware())
	og.DELETE("", api.destroy, adminMiddleware())
}

func (api *departmentApi) create(ctx echo.Context) error {
	var data department.NewDepartment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDepartment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	dept, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating department")
	}
	return ctx.JSON(http.StatusCreated, dept)
}

func (api *departmentApi) query(ctx echo.Context) error {
	filter := new(department.QueryFilter)
	err := echo.QueryParamsBinder(ctx).
		String("search", &filter.Search).
		String("cluster_id", &filter.ClusterID).
		Bool("no_cluster", &filter.NoCluster).
		BindError()
	if err != nil {
		return err
	}
	depts, err := api.svc.Query(ctx.Request().Context(), filter, bindOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying departments")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(depts))
}

func (api *departmentApi) retrieve(ctx echo.Context) error {
	dept, err := contextObject[department.Department](ctx, "id")
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, dept)
}

func (api *departmentApi) update(ctx echo.Context) error {
	dept, err := contextObject[department.Department](ctx, "id")
	if err != nil {
		return err
	}
	var data department.UpdateDepartment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateDepartment")
	}
	if err = data.Validate(dept, api.validate); err != nil {
		return err
	}
	dept, err = api.svc.Update(ctx.Request().Context(), dept, data)
	if err != nil {
		return errors.Wrap(err, "updating department")
	}
	return ctx.JSON(http.StatusOK, dept)
}

func (api *departmentApi) destroy(ctx echo.Context) error {
	dept, err := contextObject[department.Department](ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), dept.ID); err != nil {
		return errors.Wrap(err, "deleting department")
	}
	return ctx.NoContent(http.StatusNoContent)
}
