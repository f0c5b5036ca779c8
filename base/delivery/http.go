package delivery

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/x-xyz/nftmarket/domain"
)

type JsonResponseStatus string

const (
	JsonResponseStatusSuccess JsonResponseStatus = "success"
	JsonResponseStatusFail    JsonResponseStatus = "fail"
)

type JsonResponse struct {
	Data   interface{}        `json:"data"`
	Status JsonResponseStatus `json:"status"`
}

var kindStatus = map[error]int{
	domain.ErrNotFound:          http.StatusNotFound,
	domain.ErrInvalidState:      http.StatusConflict,
	domain.ErrUnauthorized:      http.StatusForbidden,
	domain.ErrValidation:        http.StatusBadRequest,
	domain.ErrInsufficientFunds: http.StatusPaymentRequired,
	domain.ErrTransferFailure:   http.StatusBadGateway,
	domain.ErrNothingToWithdraw: http.StatusConflict,
}

// StatusOf maps an error to its http status, fallback is used for errors without a known kind
func StatusOf(err error, fallback int) int {
	if status, ok := kindStatus[domain.KindOf(err)]; ok {
		return status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return fallback
}

func MakeJsonResp(c echo.Context, status int, data interface{}) error {
	if err, ok := data.(error); ok {
		status = StatusOf(err, status)
		data = err.Error()
	}

	if status >= 400 {
		return c.JSON(status, JsonResponse{data, JsonResponseStatusFail})
	}

	if status >= 200 && status < 300 {
		return c.JSON(status, JsonResponse{data, JsonResponseStatusSuccess})
	}

	return c.JSON(status, data)
}
