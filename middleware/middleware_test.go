package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/domain"
)

func TestAddContextAndLogger(t *testing.T) {
	req := require.New(t)
	m := InitMiddleware()
	e := echo.New()
	e.Use(m.ResponseLogger(), m.AddContext())

	var got ctx.Ctx
	e.GET("/ok", func(c echo.Context) error {
		got = c.Get("ctx").(ctx.Ctx)
		c.Set("address", domain.Address("0x00000000000000000000000000000000000000a1"))
		return c.NoContent(http.StatusNoContent)
	})
	e.GET("/fail", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	req.Equal(http.StatusNoContent, rec.Code)
	req.NotNil(got.Context)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))
	req.Equal(http.StatusTeapot, rec.Code)
}

func TestIsValidAddress(t *testing.T) {
	req := require.New(t)
	e := echo.New()
	e.GET("/accounts/:address", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, IsValidAddress("address"))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/accounts/0x00000000000000000000000000000000000000a1", nil))
	req.Equal(http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/accounts/0x1234", nil))
	req.Equal(http.StatusBadRequest, rec.Code)
	req.Contains(rec.Body.String(), domain.ErrInvalidAddress.Error())
}

func TestStatusClass(t *testing.T) {
	require.Equal(t, "2xx", statusClass(http.StatusCreated))
	require.Equal(t, "5xx", statusClass(http.StatusBadGateway))
}
