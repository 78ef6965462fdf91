package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/syllabix/syllabix/core/honour"
	"github.com/syllabix/syllabix/core/regulation"
)

type honourApi struct {
	svc      *honour.Service
	validate *validator.Validate
}

func registerHonourAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *honour.Service, regSvc *regulation.Service, validate *validator.Validate) {
	api := honourApi{svc: svc, validate: validate}

	rg := g.Group("/regulations/:id", jwt, loadObject("id", regSvc.GetByID))
	rg.GET("/honour-cards", api.queryCards)
	rg.POST("/honour-cards", api.createCard, adminMiddleware())

	cg := g.Group("/honour-cards/:id", jwt, loadObject("id", svc.GetCard))
	cg.GET("", api.retrieveCard)
	cg.PUT("", api.updateCard, adminMiddleware())
	cg.DELETE("", api.destroyCard, adminMiddleware())
	cg.POST("/verticals", api.createVertical, adminMiddleware())

	vg := cg.Group("/verticals/:vid", adminMiddleware(), loadObject("vid", svc.GetVertical), api.verticalOfCard)
	vg.PUT("", api.updateVertical)
	vg.DELETE("", api.destroyVertical)
	vg.POST("/courses", api.createCourse)

	crg := cg.Group("/courses/:cid", adminMiddleware(), loadObject("cid", svc.GetCourse), api.courseOfCard)
	crg.PUT("", api.updateCourse)
	crg.DELETE("", api.destroyCourse)
}

// verticalOfCard hides verticals that belong to another card.
func (api *honourApi) verticalOfCard(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		card, err := contextObject[honour.Card](ctx, "id")
		if err != nil {
			return err
		}
		vert, err := contextObject[honour.Vertical](ctx, "vid")
		if err != nil {
			return err
		}
		if vert.CardID != card.ID {
			return honour.ErrVerticalNotFound
		}
		return next(ctx)
	}
}

// courseOfCard hides honour courses that belong to another card.
func (api *honourApi) courseOfCard(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		card, err := contextObject[honour.Card](ctx, "id")
		if err != nil {
			return err
		}
		crs, err := contextObject[honour.Course](ctx, "cid")
		if err != nil {
			return err
		}
		for _, vert := range card.Verticals {
			if vert.ID == crs.VerticalID {
				return next(ctx)
			}
		}
		return honour.ErrCourseNotFound
	}
}

// Cards

func (api *honourApi) createCard(ctx echo.Context) error {
	reg, err := contextObject[regulation.Regulation](ctx, "id")
	if err != nil {
		return err
	}
	var data honour.NewCard
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCard")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	card, err := api.svc.CreateCard(ctx.Request().Context(), reg.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating honour card")
	}
	return ctx.JSON(http.StatusCreated, card)
}

func (api *honourApi) queryCards(ctx echo.Context) error {
	reg, err := contextObject[regulation.Regulation](ctx, "id")
	if err != nil {
		return err
	}
	cards, err := api.svc.QueryCards(ctx.Request().Context(), reg.ID)
	if err != nil {
		return errors.Wrap(err, "querying honour cards")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(cards))
}

func (api *honourApi) retrieveCard(ctx echo.Context) error {
	card, err := contextObject[honour.Card](ctx, "id")
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, card)
}

func (api *honourApi) updateCard(ctx echo.Context) error {
	card, err := contextObject[honour.Card](ctx, "id")
	if err != nil {
		return err
	}
	var data honour.NewCard
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCard")
	}
	if err = data.Validate(api.validate, card); err != nil {
		return err
	}
	card, err = api.svc.UpdateCard(ctx.Request().Context(), card, data)
	if err != nil {
		return errors.Wrap(err, "updating honour card")
	}
	return ctx.JSON(http.StatusOK, card)
}

func (api *honourApi) destroyCard(ctx echo.Context) error {
	card, err := contextObject[honour.Card](ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteCard(ctx.Request().Context(), card); err != nil {
		return errors.Wrap(err, "deleting honour card")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Verticals

func (api *honourApi) createVertical(ctx echo.Context) error {
	card, err := contextObject[honour.Card](ctx, "id")
	if err != nil {
		return err
	}
	var data honour.NewVertical
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewVertical")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	vert, err := api.svc.CreateVertical(ctx.Request().Context(), card, data)
	if err != nil {
		return errors.Wrap(err, "creating vertical")
	}
	return ctx.JSON(http.StatusCreated, vert)
}

func (api *honourApi) updateVertical(ctx echo.Context) error {
	card, vert, err := api.cardAndVertical(ctx)
	if err != nil {
		return err
	}
	var data honour.NewVertical
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewVertical")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	vert, err = api.svc.UpdateVertical(ctx.Request().Context(), card, vert, data)
	if err != nil {
		return errors.Wrap(err, "updating vertical")
	}
	return ctx.JSON(http.StatusOK, vert)
}

func (api *honourApi) destroyVertical(ctx echo.Context) error {
	card, vert, err := api.cardAndVertical(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteVertical(ctx.Request().Context(), card, vert); err != nil {
		return errors.Wrap(err, "deleting vertical")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *honourApi) cardAndVertical(ctx echo.Context) (honour.Card, honour.Vertical, error) {
	card, err := contextObject[honour.Card](ctx, "id")
	if err != nil {
		return honour.Card{}, honour.Vertical{}, err
	}
	vert, err := contextObject[honour.Vertical](ctx, "vid")
	return card, vert, err
}

// Courses

func (api *honourApi) createCourse(ctx echo.Context) error {
	card, vert, err := api.cardAndVertical(ctx)
	if err != nil {
		return err
	}
	var data honour.NewCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	crs, err := api.svc.CreateCourse(ctx.Request().Context(), card, vert, data)
	if err != nil {
		return errors.Wrap(err, "creating honour course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *honourApi) updateCourse(ctx echo.Context) error {
	card, crs, err := api.cardAndCourse(ctx)
	if err != nil {
		return err
	}
	var data honour.NewCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	crs, err = api.svc.UpdateCourse(ctx.Request().Context(), card, crs, data)
	if err != nil {
		return errors.Wrap(err, "updating honour course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *honourApi) destroyCourse(ctx echo.Context) error {
	card, crs, err := api.cardAndCourse(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteCourse(ctx.Request().Context(), card, crs); err != nil {
		return errors.Wrap(err, "deleting honour course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *honourApi) cardAndCourse(ctx echo.Context) (honour.Card, honour.Course, error) {
	card, err := contextObject[honour.Card](ctx, "id")
	if err != nil {
		return honour.Card{}, honour.Course{}, err
	}
	crs, err := contextObject[honour.Course](ctx, "cid")
	return card, crs, err
}
