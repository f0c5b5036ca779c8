package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/base/delivery"
	hcdomain "github.com/x-xyz/nftmarket/domain/healthcheck"
)

type healthCheckHandler struct {
	healthCheck hcdomain.HealthCheckUsecase
}

func New(e *echo.Echo, us hcdomain.HealthCheckUsecase) {
	handler := &healthCheckHandler{
		healthCheck: us,
	}
	e.GET("/health", handler.check)
}

// check
//
//	@Summary		Health of the storage backends
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	object{data=healthcheck.Status}
//	@Failure		503	{object}	object{data=healthcheck.Status}
//	@Router			/health [get]
func (h *healthCheckHandler) check(c echo.Context) error {
	status := h.healthCheck.Check(c.Get("ctx").(ctx.Ctx))
	if !status.Healthy {
		return delivery.MakeJsonResp(c, http.StatusServiceUnavailable, status)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, status)
}
