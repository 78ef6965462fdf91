package echoapi

import (
	"net/http"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/syllabix/syllabix/core/cluster"
	"github.com/syllabix/syllabix/core/course"
	"github.com/syllabix/syllabix/core/honour"
	"github.com/syllabix/syllabix/core/regulation"
)

type regulationApi struct {
	svc        *regulation.Service
	courseSvc  *course.Service
	honourSvc  *honour.Service
	clusterSvc *cluster.Service
	validate   *validator.Validate
}

func registerRegulationAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := regulationApi{
		svc:        deps.RegulationSvc,
		courseSvc:  deps.CourseSvc,
		honourSvc:  deps.HonourSvc,
		clusterSvc: deps.ClusterSvc,
		validate:   deps.Validate,
	}

	rg := g.Group("/regulations", jwt)
	rg.GET("", api.query)
	rg.POST("", api.create, adminMiddleware())

	og := rg.Group("/:id", loadObject("id", api.svc.GetByID))
	og.GET("", api.retrieve)
	og.PUT("", api.update, adminMiddleware())
	og.DELETE("", api.destroy, adminMiddleware())
	og.GET("/overview", api.overview)
	og.GET("/statements", api.queryStatements)
	og.POST("/statements", api.createStatement, adminMiddleware())

	sg := g.Group("/statements/:id", jwt, loadObject("id", api.svc.GetStatement))
	sg.GET("", api.retrieveStatement)
	sg.PUT("", api.updateStatement, adminMiddleware())
	sg.DELETE("", api.destroyStatement, adminMiddleware())
}

func (api *regulationApi) create(ctx echo.Context) error {
	var data regulation.NewRegulation
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRegulation")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	reg, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating regulation")
	}
	return ctx.JSON(http.StatusCreated, reg)
}

func (api *regulationApi) query(ctx echo.Context) error {
	filter := new(regulation.QueryFilter)
	err := echo.QueryParamsBinder(ctx).
		String("search", &filter.Search).
		String("department_id", &filter.DepartmentID).
		Strings("status", &filter.Status).
		Int("year", &filter.Year).
		BindError()
	if err != nil {
		return err
	}
	regs, err := api.svc.Query(ctx.Request().Context(), filter, bindOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying regulations")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(regs))
}

func (api *regulationApi) retrieve(ctx echo.Context) error {
	reg, err := contextObject[regulation.Regulation](ctx, "id")
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, reg)
}

func (api *regulationApi) update(ctx echo.Context) error {
	reg, err := contextObject[regulation.Regulation](ctx, "id")
	if err != nil {
		return err
	}
	var data regulation.UpdateRegulation
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateRegulation")
	}
	if err = data.Validate(reg, api.validate); err != nil {
		return err
	}
	reg, err = api.svc.Update(ctx.Request().Context(), reg, data)
	if err != nil {
		return errors.Wrap(err, "updating regulation")
	}
	return ctx.JSON(http.StatusOK, reg)
}

func (api *regulationApi) destroy(ctx echo.Context) error {
	reg, err := contextObject[regulation.Regulation](ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), reg.ID); err != nil {
		return errors.Wrap(err, "deleting regulation")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type (
	semesterOverview struct {
		course.Semester
		Courses []course.Course `json:"courses"`
	}

	regulationOverview struct {
		regulation.Regulation
		Statements  []regulation.Statement `json:"statements"`
		Semesters   []semesterOverview     `json:"semesters"`
		HonourCards []honour.Card          `json:"honour_cards"`
		Adopted     []cluster.AdoptedItem  `json:"adopted"`
	}
)

// overview gathers everything a regulation is made of in one response.
func (api *regulationApi) overview(ctx echo.Context) error {
	reg, err := contextObject[regulation.Regulation](ctx, "id")
	if err != nil {
		return err
	}

	var (
		stmts     []regulation.Statement
		semesters []course.Semester
		courses   []course.Course
		cards     []honour.Card
		adopted   []cluster.AdoptedItem
	)
	g, gctx := errgroup.WithContext(ctx.Request().Context())
	g.Go(func() (err error) {
		stmts, err = api.svc.QueryStatements(gctx, reg.ID)
		return errors.Wrap(err, "querying statements")
	})
	g.Go(func() (err error) {
		semesters, err = api.courseSvc.QuerySemesters(gctx, reg.ID)
		return errors.Wrap(err, "querying semesters")
	})
	g.Go(func() (err error) {
		courses, err = api.courseSvc.QueryCourses(gctx, &course.QueryFilter{RegulationID: reg.ID}, nil)
		return errors.Wrap(err, "querying courses")
	})
	g.Go(func() (err error) {
		cards, err = api.honourSvc.QueryCards(gctx, reg.ID)
		return errors.Wrap(err, "querying honour cards")
	})
	g.Go(func() (err error) {
		adopted, err = api.clusterSvc.Adopted(gctx, reg.ID, "")
		return errors.Wrap(err, "querying adopted items")
	})
	if err = g.Wait(); err != nil {
		return err
	}

	bySemester := make(map[string][]course.Course, len(semesters))
	for _, crs := range courses {
		bySemester[crs.SemesterID] = append(bySemester[crs.SemesterID], crs)
	}
	sort.Slice(semesters, func(i, j int) bool { return semesters[i].Number < semesters[j].Number })
	overviews := make([]semesterOverview, 0, len(semesters))
	for _, sem := range semesters {
		overviews = append(overviews, semesterOverview{Semester: sem, Courses: emptyIfNil(bySemester[sem.ID])})
	}

	return ctx.JSON(http.StatusOK, regulationOverview{
		Regulation:  reg,
		Statements:  emptyIfNil(stmts),
		Semesters:   overviews,
		HonourCards: emptyIfNil(cards),
		Adopted:     emptyIfNil(adopted),
	})
}

// Statements

func (api *regulationApi) createStatement(ctx echo.Context) error {
	reg, err := contextObject[regulation.Regulation](ctx, "id")
	if err != nil {
		return err
	}
	var data regulation.NewStatement
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStatement")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	stmt, err := api.svc.CreateStatement(ctx.Request().Context(), reg.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating statement")
	}
	return ctx.JSON(http.StatusCreated, stmt)
}

func (api *regulationApi) queryStatements(ctx echo.Context) error {
	reg, err := contextObject[regulation.Regulation](ctx, "id")
	if err != nil {
		return err
	}
	var kinds []string
	if err = echo.QueryParamsBinder(ctx).Strings("kind", &kinds).BindError(); err != nil {
		return err
	}
	stmts, err := api.svc.QueryStatements(ctx.Request().Context(), reg.ID, kinds...)
	if err != nil {
		return errors.Wrap(err, "querying statements")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(stmts))
}

func (api *regulationApi) retrieveStatement(ctx echo.Context) error {
	stmt, err := contextObject[regulation.Statement](ctx, "id")
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stmt)
}

func (api *regulationApi) updateStatement(ctx echo.Context) error {
	stmt, err := contextObject[regulation.Statement](ctx, "id")
	if err != nil {
		return err
	}
	var data regulation.UpdateStatement
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStatement")
	}
	if err = data.Validate(stmt, api.validate); err != nil {
		return err
	}
	stmt, err = api.svc.UpdateStatement(ctx.Request().Context(), stmt, data)
	if err != nil {
		return errors.Wrap(err, "updating statement")
	}
	return ctx.JSON(http.StatusOK, stmt)
}

func (api *regulationApi) destroyStatement(ctx echo.Context) error {
	stmt, err := contextObject[regulation.Statement](ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteStatement(ctx.Request().Context(), stmt); err != nil {
		return errors.Wrap(err, "deleting statement")
	}
	return ctx.NoContent(http.StatusNoContent)
}
