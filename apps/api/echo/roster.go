package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/syllabix/syllabix/core/roster"
)

type rosterApi struct {
	svc      *roster.Service
	validate *validator.Validate
}

func registerRosterAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *roster.Service, validate *validator.Validate) {
	api := rosterApi{svc: svc, validate: validate}

	sg := g.Group("/students", jwt)
	sg.GET("", api.queryStudents)
	sg.POST("", api.createStudent, adminMiddleware())
	sog := sg.Group("/:id", loadObject("id", svc.GetStudent))
	sog.GET("", api.retrieveStudent)
	sog.PUT("", api.updateStudent, adminMiddleware())
	sog.DELETE("", api.destroyStudent, adminMiddleware())

	tg := g.Group("/teachers", jwt)
	tg.GET("", api.queryTeachers)
	tg.POST("", api.createTeacher, adminMiddleware())
	tog := tg.Group("/:id", loadObject("id", svc.GetTeacher))
	tog.GET("", api.retrieveTeacher)
	tog.PUT("", api.updateTeacher, adminMiddleware())
	tog.DELETE("", api.destroyTeacher, adminMiddleware())

	ag := g.Group("/allocations", jwt)
	ag.GET("", api.queryAllocations)
	ag.POST("", api.createAllocation, adminMiddleware())
	aog := ag.Group("/:id", loadObject("id", svc.GetAllocation))
	aog.GET("", api.retrieveAllocation)
	aog.DELETE("", api.destroyAllocation, adminMiddleware())
}

// Students

func (api *rosterApi) createStudent(ctx echo.Context) error {
	var data roster.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	st, err := api.svc.CreateStudent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, st)
}

func (api *rosterApi) queryStudents(ctx echo.Context) error {
	filter := new(roster.StudentFilter)
	err := echo.QueryParamsBinder(ctx).
		String("search", &filter.Search).
		String("department_id", &filter.DepartmentID).
		String("regulation_id", &filter.RegulationID).
		Int("batch", &filter.Batch).
		Int("semester", &filter.Semester).
		BindError()
	if err != nil {
		return err
	}
	students, err := api.svc.QueryStudents(ctx.Request().Context(), filter, bindOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(students))
}

func (api *rosterApi) retrieveStudent(ctx echo.Context) error {
	st, err := contextObject[roster.Student](ctx, "id")
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *rosterApi) updateStudent(ctx echo.Context) error {
	st, err := contextObject[roster.Student](ctx, "id")
	if err != nil {
		return err
	}
	var data roster.NewStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	st, err = api.svc.UpdateStudent(ctx.Request().Context(), st, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *rosterApi) destroyStudent(ctx echo.Context) error {
	st, err := contextObject[roster.Student](ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteStudent(ctx.Request().Context(), st.ID); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Teachers

func (api *rosterApi) createTeacher(ctx echo.Context) error {
	var data roster.NewTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	tch, err := api.svc.CreateTeacher(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating teacher")
	}
	return ctx.JSON(http.StatusCreated, tch)
}

func (api *rosterApi) queryTeachers(ctx echo.Context) error {
	filter := new(roster.TeacherFilter)
	err := echo.QueryParamsBinder(ctx).
		String("search", &filter.Search).
		String("department_id", &filter.DepartmentID).
		BindError()
	if err != nil {
		return err
	}
	teachers, err := api.svc.QueryTeachers(ctx.Request().Context(), filter, bindOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(teachers))
}

func (api *rosterApi) retrieveTeacher(ctx echo.Context) error {
	tch, err := contextObject[roster.Teacher](ctx, "id")
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tch)
}

func (api *rosterApi) updateTeacher(ctx echo.Context) error {
	tch, err := contextObject[roster.Teacher](ctx, "id")
	if err != nil {
		return err
	}
	var data roster.NewTeacher
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	tch, err = api.svc.UpdateTeacher(ctx.Request().Context(), tch, data)
	if err != nil {
		return errors.Wrap(err, "updating teacher")
	}
	return ctx.JSON(http.StatusOK, tch)
}

func (api *rosterApi) destroyTeacher(ctx echo.Context) error {
	tch, err := contextObject[roster.Teacher](ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteTeacher(ctx.Request().Context(), tch.ID); err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Allocations

func (api *rosterApi) createAllocation(ctx echo.Context) error {
	var data roster.NewAllocation
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAllocation")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	alloc, err := api.svc.CreateAllocation(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating allocation")
	}
	return ctx.JSON(http.StatusCreated, alloc)
}

func (api *rosterApi) queryAllocations(ctx echo.Context) error {
	var filter roster.AllocationFilter
	err := echo.QueryParamsBinder(ctx).
		String("teacher_id", &filter.TeacherID).
		String("course_id", &filter.CourseID).
		String("academic_year", &filter.AcademicYear).
		BindError()
	if err != nil {
		return err
	}
	allocs, err := api.svc.QueryAllocations(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying allocations")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(allocs))
}

func (api *rosterApi) retrieveAllocation(ctx echo.Context) error {
	alloc, err := contextObject[roster.Allocation](ctx, "id")
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, alloc)
}

func (api *rosterApi) destroyAllocation(ctx echo.Context) error {
	alloc, err := contextObject[roster.Allocation](ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteAllocation(ctx.Request().Context(), alloc.ID); err != nil {
		return errors.Wrap(err, "deleting allocation")
	}
	return ctx.NoContent(http.StatusNoContent)
}
