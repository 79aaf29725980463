package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/enrollment"
)

type enrollmentApi struct {
	svc      enrollment.Service
	validate *validator.Validate
}

func registerEnrollmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc enrollment.Service, validate *validator.Validate) {
	api := enrollmentApi{
		svc:      svc,
		validate: validate,
	}

	cg := g.Group("/cohorts", jwt, staffMiddleware())
	cg.POST("/:id/distribute", api.distribute)
}

// Handlers

func (api *enrollmentApi) distribute(ctx echo.Context) error {
	var data enrollment.DistributeCohort
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DistributeCohort")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.svc.Distribute(ctx.Request().Context(), ctx.Param("id"), data.MaxPerGroup)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}
