package echoapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/session"
)

type sessionApi struct {
	svc      session.Service
	validate *validator.Validate
}

func registerSessionAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc session.Service, validate *validator.Validate) {
	api := sessionApi{
		svc:      svc,
		validate: validate,
	}

	sg := g.Group("/sessions", jwt, staffMiddleware())
	sg.POST("", api.create)
	sg.GET("", api.query)
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.reschedule)
	sg.POST("/:id/start", api.start)
	sg.POST("/:id/end", api.end)
	sg.POST("/:id/cancel", api.cancel)
}

// Handlers

func (api *sessionApi) create(ctx echo.Context) error {
	var data session.NewSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSession")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sess, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sess)
}

func (api *sessionApi) query(ctx echo.Context) error {
	filter, err := bindSessionFilter(ctx)
	if err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	sessions, err := api.svc.Filter(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sessions)
}

func (api *sessionApi) retrieve(ctx echo.Context) error {
	sess, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *sessionApi) reschedule(ctx echo.Context) error {
	var data session.RescheduleSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RescheduleSession")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sess, err := api.svc.Reschedule(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *sessionApi) start(ctx echo.Context) error {
	sess, err := api.svc.Start(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *sessionApi) end(ctx echo.Context) error {
	sess, err := api.svc.End(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *sessionApi) cancel(ctx echo.Context) error {
	sess, err := api.svc.Cancel(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess)
}

// bindSessionFilter parses the calendar query params; `from` and `to` are RFC 3339.
func bindSessionFilter(ctx echo.Context) (session.QueryFilter, error) {
	var filter session.QueryFilter

	filter.OwnerID = ctx.QueryParam("owner")
	if statuses := ctx.QueryParam("status"); statuses != "" {
		filter.Statuses = strings.Split(statuses, ",")
	}
	for param, dest := range map[string]*time.Time{"from": &filter.From, "to": &filter.To} {
		if val := ctx.QueryParam(param); val != "" {
			t, err := time.Parse(time.RFC3339, val)
			if err != nil {
				return filter, core.NewValidationError(nil, core.FieldError{Field: param, Error: "must be a valid RFC 3339 timestamp"})
			}
			*dest = t.UTC()
		}
	}
	return filter, nil
}
