package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nftprophet/goapi/base/ctx"
	"github.com/nftprophet/goapi/base/delivery"
	hcdomain "github.com/nftprophet/goapi/domain/healthcheck"
)

type handler struct {
	healthCheck hcdomain.HealthCheckUsecase
}

func New(e *echo.Echo, healthCheck hcdomain.HealthCheckUsecase) {
	h := &handler{healthCheck: healthCheck}

	e.GET("/health", h.check)
}

func (h *handler) check(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	if err := h.healthCheck.Check(ctx); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	return delivery.MakeJsonResp(c, http.StatusOK, map[string]string{"healthy": "ok"})
}
