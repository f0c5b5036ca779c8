package delivery

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"

	"github.com/x-xyz/nftmarket/domain"
)

func TestStatusOf(t *testing.T) {
	req := require.New(t)
	req.Equal(http.StatusNotFound, StatusOf(domain.ErrListingNotFound, 500))
	req.Equal(http.StatusConflict, StatusOf(domain.ErrSellerCannotBuy, 500))
	req.Equal(http.StatusForbidden, StatusOf(domain.ErrNotOwnerOrUnapproved, 500))
	req.Equal(http.StatusBadRequest, StatusOf(domain.ErrBidTooLow, 500))
	req.Equal(http.StatusPaymentRequired, StatusOf(domain.ErrInsufficientPayment, 500))
	req.Equal(http.StatusBadGateway, StatusOf(xerrors.Errorf("ledger: %w", domain.ErrTransferFailure), 500))
	req.Equal(http.StatusConflict, StatusOf(domain.ErrNothingToWithdraw, 500))
	req.Equal(http.StatusUnsupportedMediaType, StatusOf(echo.ErrUnsupportedMediaType, 500))
	req.Equal(http.StatusInternalServerError, StatusOf(errors.New("boom"), http.StatusInternalServerError))
}

func TestMakeJsonResp(t *testing.T) {
	req := require.New(t)
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	req.NoError(MakeJsonResp(c, http.StatusInternalServerError, domain.ErrAuctionNotFound))
	req.Equal(http.StatusNotFound, rec.Code)

	res := JsonResponse{}
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &res))
	req.Equal(JsonResponseStatusFail, res.Status)
	req.Equal("auction not found", res.Data)

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	req.NoError(MakeJsonResp(c, http.StatusOK, map[string]int{"id": 1}))
	req.Equal(http.StatusOK, rec.Code)
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &res))
	req.Equal(JsonResponseStatusSuccess, res.Status)
}
