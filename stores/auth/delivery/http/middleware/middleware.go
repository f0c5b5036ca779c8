package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/base/delivery"
	"github.com/x-xyz/nftmarket/domain"
)

// PrivilegeChecker tells whether an address may run admin operations
type PrivilegeChecker interface {
	IsPrivileged(address domain.Address) bool
}

type AuthMiddleware struct {
	auth       domain.AuthUsecase
	privileged PrivilegeChecker
}

func New(auth domain.AuthUsecase, privileged PrivilegeChecker) *AuthMiddleware {
	return &AuthMiddleware{
		auth:       auth,
		privileged: privileged,
	}
}

// Auth requires a bearer token and stores its address under "address"
func (m *AuthMiddleware) Auth() echo.MiddlewareFunc {
	return middleware.KeyAuth(m.validateAuthToken)
}

func (m *AuthMiddleware) IsPrivileged() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			address := c.Get("address").(domain.Address)
			if !m.privileged.IsPrivileged(address) {
				return delivery.MakeJsonResp(c, http.StatusForbidden, domain.ErrRequirePrivilege)
			}
			return next(c)
		}
	}
}

func (m *AuthMiddleware) validateAuthToken(key string, c echo.Context) (bool, error) {
	cont := c.Get("ctx").(ctx.Ctx)
	ads, err := m.auth.ParseToken(cont, key)
	if err != nil {
		cont.WithField("err", err).Info("auth.ParseToken failed")
		return false, nil
	}
	c.Set("address", ads)
	c.Set("ctx", ctx.WithValue(cont, "caller", ads))
	return true, nil
}
