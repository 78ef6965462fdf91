package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/syllabix/syllabix/core/course"
	"github.com/syllabix/syllabix/core/regulation"
)

type courseApi struct {
	svc      *course.Service
	validate *validator.Validate
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *course.Service, regSvc *regulation.Service, validate *validator.Validate) {
	api := courseApi{svc: svc, validate: validate}

	rg := g.Group("/regulations/:id", jwt, loadObject("id", regSvc.GetByID))
	rg.GET("/semesters", api.querySemesters)
	rg.POST("/semesters", api.createSemester, adminMiddleware())
	rg.GET("/courses", api.queryRegulationCourses)

	sg := g.Group("/semesters/:id", jwt, loadObject("id", svc.GetSemester))
	sg.GET("", api.retrieveSemester)
	sg.PUT("", api.updateSemester, adminMiddleware())
	sg.DELETE("", api.destroySemester, adminMiddleware())
	sg.GET("/courses", api.querySemesterCourses)
	sg.POST("/courses", api.createCourse, adminMiddleware())

	cg := g.Group("/courses/:id", jwt, loadObject("id", svc.GetCourse))
	cg.GET("", api.retrieveCourse)
	cg.PUT("", api.updateCourse, adminMiddleware())
	cg.DELETE("", api.destroyCourse, adminMiddleware())
	cg.GET("/syllabus", api.retrieveSyllabus)
	cg.PUT("/syllabus", api.putSyllabus, adminMiddleware())
	cg.DELETE("/syllabus", api.destroySyllabus, adminMiddleware())
}

// Semesters

func (api *courseApi) createSemester(ctx echo.Context) error {
	reg, err := contextObject[regulation.Regulation](ctx, "id")
	if err != nil {
		return err
	}
	var data course.NewSemester
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSemester")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	sem, err := api.svc.CreateSemester(ctx.Request().Context(), reg.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating semester")
	}
	return ctx.JSON(http.StatusCreated, sem)
}

func (api *courseApi) querySemesters(ctx echo.Context) error {
	reg, err := contextObject[regulation.Regulation](ctx, "id")
	if err != nil {
		return err
	}
	sems, err := api.svc.QuerySemesters(ctx.Request().Context(), reg.ID)
	if err != nil {
		return errors.Wrap(err, "querying semesters")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(sems))
}

func (api *courseApi) retrieveSemester(ctx echo.Context) error {
	sem, err := contextObject[course.Semester](ctx, "id")
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sem)
}

func (api *courseApi) updateSemester(ctx echo.Context) error {
	sem, err := contextObject[course.Semester](ctx, "id")
	if err != nil {
		return err
	}
	var data course.UpdateSemester
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSemester")
	}
	if err = data.Validate(sem, api.validate); err != nil {
		return err
	}
	sem, err = api.svc.UpdateSemester(ctx.Request().Context(), sem, data)
	if err != nil {
		return errors.Wrap(err, "updating semester")
	}
	return ctx.JSON(http.StatusOK, sem)
}

func (api *courseApi) destroySemester(ctx echo.Context) error {
	sem, err := contextObject[course.Semester](ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteSemester(ctx.Request().Context(), sem); err != nil {
		return errors.Wrap(err, "deleting semester")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Courses

func (api *courseApi) bindCourseFilter(ctx echo.Context, filter *course.QueryFilter) error {
	return echo.QueryParamsBinder(ctx).
		String("search", &filter.Search).
		Strings("category", &filter.Categories).
		BindError()
}

func (api *courseApi) queryRegulationCourses(ctx echo.Context) error {
	reg, err := contextObject[regulation.Regulation](ctx, "id")
	if err != nil {
		return err
	}
	filter := &course.QueryFilter{RegulationID: reg.ID}
	if err = api.bindCourseFilter(ctx, filter); err != nil {
		return err
	}
	if err = echo.QueryParamsBinder(ctx).String("semester_id", &filter.SemesterID).BindError(); err != nil {
		return err
	}
	return api.queryCourses(ctx, filter)
}

func (api *courseApi) querySemesterCourses(ctx echo.Context) error {
	sem, err := contextObject[course.Semester](ctx, "id")
	if err != nil {
		return err
	}
	filter := &course.QueryFilter{RegulationID: sem.RegulationID, SemesterID: sem.ID}
	if err = api.bindCourseFilter(ctx, filter); err != nil {
		return err
	}
	return api.queryCourses(ctx, filter)
}

func (api *courseApi) queryCourses(ctx echo.Context, filter *course.QueryFilter) error {
	courses, err := api.svc.QueryCourses(ctx.Request().Context(), filter, bindOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(courses))
}

func (api *courseApi) createCourse(ctx echo.Context) error {
	sem, err := contextObject[course.Semester](ctx, "id")
	if err != nil {
		return err
	}
	var data course.NewCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	crs, err := api.svc.CreateCourse(ctx.Request().Context(), sem, data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) retrieveCourse(ctx echo.Context) error {
	crs, err := contextObject[course.Course](ctx, "id")
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) updateCourse(ctx echo.Context) error {
	crs, err := contextObject[course.Course](ctx, "id")
	if err != nil {
		return err
	}
	var data course.NewCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	crs, err = api.svc.UpdateCourse(ctx.Request().Context(), crs, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) destroyCourse(ctx echo.Context) error {
	crs, err := contextObject[course.Course](ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteCourse(ctx.Request().Context(), crs); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Syllabus

func (api *courseApi) retrieveSyllabus(ctx echo.Context) error {
	crs, err := contextObject[course.Course](ctx, "id")
	if err != nil {
		return err
	}
	syl, err := api.svc.GetSyllabus(ctx.Request().Context(), crs)
	if err != nil {
		return errors.Wrap(err, "getting syllabus")
	}
	return ctx.JSON(http.StatusOK, syl)
}

func (api *courseApi) putSyllabus(ctx echo.Context) error {
	crs, err := contextObject[course.Course](ctx, "id")
	if err != nil {
		return err
	}
	var data course.Syllabus
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Syllabus")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	syl, err := api.svc.PutSyllabus(ctx.Request().Context(), crs, data)
	if err != nil {
		return errors.Wrap(err, "saving syllabus")
	}
	return ctx.JSON(http.StatusOK, syl)
}

func (api *courseApi) destroySyllabus(ctx echo.Context) error {
	crs, err := contextObject[course.Course](ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteSyllabus(ctx.Request().Context(), crs); err != nil {
		return errors.Wrap(err, "deleting syllabus")
	}
	return ctx.NoContent(http.StatusNoContent)
}
