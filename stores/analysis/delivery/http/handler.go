package http

import (
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nftprophet/goapi/base/ctx"
	"github.com/nftprophet/goapi/base/delivery"
	"github.com/nftprophet/goapi/domain"
	"github.com/nftprophet/goapi/domain/analysis"
	"github.com/nftprophet/goapi/middleware"
)

// maxImageSize caps uploaded image payloads at 8 MiB
const maxImageSize = 8 << 20

type handler struct {
	analysis analysis.Usecase
}

func New(e *echo.Echo, analysis analysis.Usecase) {
	h := &handler{analysis: analysis}

	g := e.Group("/analysis")

	g.GET("/name", h.analyzeByName, middleware.CacheHttp(1*time.Minute))

	g.GET("/asset/:contract/:tokenId", h.analyzeByContract, middleware.IsValidAddress("contract"), middleware.CacheHttp(1*time.Minute))

	g.GET("/url", h.analyzeByURL, middleware.CacheHttp(1*time.Minute))

	g.POST("/image", h.analyzeByImage)
}

func (h *handler) analyzeByName(c echo.Context) error {
	type params struct {
		Query string `query:"query" validate:"required"`
	}

	p := &params{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	ctx := c.Get("ctx").(ctx.Ctx)

	if res, err := h.analysis.AnalyzeByName(ctx, p.Query); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	} else {
		return delivery.MakeJsonResp(c, http.StatusOK, res)
	}
}

func (h *handler) analyzeByContract(c echo.Context) error {
	type params struct {
		Contract domain.Address `param:"contract" validate:"required"`
		TokenId  domain.TokenId `param:"tokenId" validate:"required"`
	}

	p := &params{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	ctx := c.Get("ctx").(ctx.Ctx)

	if res, err := h.analysis.AnalyzeByContract(ctx, p.Contract, p.TokenId); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	} else {
		return delivery.MakeJsonResp(c, http.StatusOK, res)
	}
}

func (h *handler) analyzeByURL(c echo.Context) error {
	type params struct {
		Url string `query:"url" validate:"required"`
	}

	p := &params{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	ctx := c.Get("ctx").(ctx.Ctx)

	if res, err := h.analysis.AnalyzeByURL(ctx, p.Url); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	} else {
		return delivery.MakeJsonResp(c, http.StatusOK, res)
	}
}

func (h *handler) analyzeByImage(c echo.Context) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "missing image")
	}

	if fh.Size > maxImageSize {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "image too large")
	}

	f, err := fh.Open()
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "unreadable image")
	}
	defer f.Close()

	image, err := io.ReadAll(io.LimitReader(f, maxImageSize))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "unreadable image")
	}

	ctx := c.Get("ctx").(ctx.Ctx)

	if res, err := h.analysis.AnalyzeByImage(ctx, image); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	} else {
		return delivery.MakeJsonResp(c, http.StatusOK, res)
	}
}
