package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/syllabix/syllabix/core"
	"github.com/syllabix/syllabix/core/cluster"
	"github.com/syllabix/syllabix/core/regulation"
)

type clusterApi struct {
	svc      *cluster.Service
	regSvc   *regulation.Service
	validate *validator.Validate
}

// kindParam names a shareable item kind taken from the path or the query string.
type kindParam struct {
	Kind string `json:"kind" validate:"required,itemkind"`
}

func (kp *kindParam) Validate(validate *validator.Validate) error {
	kp.Kind = core.CleanCode(kp.Kind)
	return validate.Struct(kp)
}

func registerClusterAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *cluster.Service, regSvc *regulation.Service, validate *validator.Validate) {
	api := clusterApi{svc: svc, regSvc: regSvc, validate: validate}

	cg := g.Group("/clusters", jwt)
	cg.GET("", api.query)
	cg.POST("", api.create, adminMiddleware())

	og := cg.Group("/:id", loadObject("id", svc.GetByID))
	og.GET("", api.retrieve)
	og.PUT("", api.update, adminMiddleware())
	og.DELETE("", api.destroy, adminMiddleware())
	og.PUT("/members", api.changeMembership, adminMiddleware())

	g.PUT("/items/:kind/:id/visibility", api.setVisibility, jwt, adminMiddleware())

	rg := g.Group("/regulations/:id", jwt, loadObject("id", regSvc.GetByID))
	rg.GET("/available", api.available)
	rg.GET("/adoptions", api.adopted)
	rg.POST("/adoptions", api.changeAdoptions, adminMiddleware())
}

func (api *clusterApi) create(ctx echo.Context) error {
	var data cluster.NewCluster
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCluster")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	cl, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating cluster")
	}
	return ctx.JSON(http.StatusCreated, cl)
}

func (api *clusterApi) query(ctx echo.Context) error {
	filter := new(cluster.QueryFilter)
	if err := echo.QueryParamsBinder(ctx).String("search", &filter.Search).BindError(); err != nil {
		return err
	}
	clusters, err := api.svc.Query(ctx.Request().Context(), filter, bindOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying clusters")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(clusters))
}

func (api *clusterApi) retrieve(ctx echo.Context) error {
	cl, err := contextObject[cluster.Cluster](ctx, "id")
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cl)
}

func (api *clusterApi) update(ctx echo.Context) error {
	cl, err := contextObject[cluster.Cluster](ctx, "id")
	if err != nil {
		return err
	}
	var data cluster.UpdateCluster
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCluster")
	}
	if err = data.Validate(cl, api.validate); err != nil {
		return err
	}
	cl, err = api.svc.Update(ctx.Request().Context(), cl, data)
	if err != nil {
		return errors.Wrap(err, "updating cluster")
	}
	return ctx.JSON(http.StatusOK, cl)
}

func (api *clusterApi) destroy(ctx echo.Context) error {
	cl, err := contextObject[cluster.Cluster](ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), cl.ID); err != nil {
		return errors.Wrap(err, "deleting cluster")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *clusterApi) changeMembership(ctx echo.Context) error {
	cl, err := contextObject[cluster.Cluster](ctx, "id")
	if err != nil {
		return err
	}
	var data cluster.MembershipChange
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MembershipChange")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	cl, err = api.svc.ChangeMembership(ctx.Request().Context(), cl.ID, data)
	if err != nil {
		return errors.Wrap(err, "changing cluster membership")
	}
	return ctx.JSON(http.StatusOK, cl)
}

func (api *clusterApi) setVisibility(ctx echo.Context) error {
	kp := kindParam{Kind: ctx.Param("kind")}
	if err := kp.Validate(api.validate); err != nil {
		return err
	}
	var data cluster.VisibilityChange
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to VisibilityChange")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	item, err := api.svc.SetVisibility(ctx.Request().Context(), kp.Kind, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "setting item visibility")
	}
	return ctx.JSON(http.StatusOK, item)
}

func (api *clusterApi) available(ctx echo.Context) error {
	reg, err := contextObject[regulation.Regulation](ctx, "id")
	if err != nil {
		return err
	}
	kp := kindParam{Kind: ctx.QueryParam("kind")}
	if err = kp.Validate(api.validate); err != nil {
		return err
	}
	items, err := api.svc.Available(ctx.Request().Context(), reg.ID, kp.Kind)
	if err != nil {
		return errors.Wrap(err, "querying available items")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(items))
}

func (api *clusterApi) adopted(ctx echo.Context) error {
	reg, err := contextObject[regulation.Regulation](ctx, "id")
	if err != nil {
		return err
	}
	kp := kindParam{Kind: ctx.QueryParam("kind")}
	if kp.Kind != "" {
		if err = kp.Validate(api.validate); err != nil {
			return err
		}
	}
	items, err := api.svc.Adopted(ctx.Request().Context(), reg.ID, kp.Kind)
	if err != nil {
		return errors.Wrap(err, "querying adopted items")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(items))
}

func (api *clusterApi) changeAdoptions(ctx echo.Context) error {
	reg, err := contextObject[regulation.Regulation](ctx, "id")
	if err != nil {
		return err
	}
	var data cluster.AdoptionChange
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AdoptionChange")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	items, err := api.svc.ChangeAdoptions(ctx.Request().Context(), reg.ID, data)
	if err != nil {
		return errors.Wrap(err, "changing adoptions")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(items))
}
