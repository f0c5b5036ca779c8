package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/base/delivery"
	"github.com/x-xyz/nftmarket/base/ptr"
	"github.com/x-xyz/nftmarket/domain"
	"github.com/x-xyz/nftmarket/domain/asset"
	"github.com/x-xyz/nftmarket/domain/auction"
	"github.com/x-xyz/nftmarket/domain/bank"
	"github.com/x-xyz/nftmarket/domain/listing"
	"github.com/x-xyz/nftmarket/domain/marketplace"
	"github.com/x-xyz/nftmarket/middleware"
	authMiddleware "github.com/x-xyz/nftmarket/stores/auth/delivery/http/middleware"
)

const browseCacheTtl = 3 * time.Second

type handler struct {
	market marketplace.Usecase
	bank   bank.Bank
	admin  asset.Admin
}

type HandlerCfg struct {
	Market         marketplace.Usecase
	Bank           bank.Bank
	AuthMiddleware *authMiddleware.AuthMiddleware
	// HttpCache is optional, browse endpoints are cached briefly when set
	HttpCache *middleware.HttpCache
	// Admin is set when the marketplace hosts the asset ledger itself
	Admin asset.Admin
}

type page struct {
	Items interface{} `json:"items"`
	Count int         `json:"count"`
}

func New(e *echo.Echo, cfg *HandlerCfg) {
	h := &handler{
		market: cfg.Market,
		bank:   cfg.Bank,
		admin:  cfg.Admin,
	}
	auth := cfg.AuthMiddleware

	ls := e.Group("/listings")
	ls.GET("", h.findListings, cfg.HttpCache.Cache(browseCacheTtl))
	ls.GET("/:id", h.getListing)
	ls.POST("", h.listForSale, auth.Auth())
	ls.POST("/:id/buy", h.buy, auth.Auth())
	ls.POST("/:id/cancel", h.cancelListing, auth.Auth())

	as := e.Group("/auctions")
	as.GET("", h.findAuctions, cfg.HttpCache.Cache(browseCacheTtl))
	as.GET("/:id", h.getAuction)
	as.GET("/:id/bids", h.getBids)
	as.POST("", h.listForAuction, auth.Auth())
	as.POST("/:id/bids", h.bid, auth.Auth())
	as.POST("/:id/withdraw", h.withdrawAuction, auth.Auth())

	es := e.Group("/escrow")
	es.GET("/:address", h.getEscrow, middleware.IsValidAddress("address"))
	es.POST("/withdraw", h.withdrawEscrow, auth.Auth())

	e.GET("/accounts/:address/activities", h.getActivities, middleware.IsValidAddress("address"))

	bs := e.Group("/bank")
	bs.GET("/:address", h.getBalance, middleware.IsValidAddress("address"))
	bs.POST("/deposit", h.deposit, auth.Auth(), auth.IsPrivileged())

	ad := e.Group("/admin", auth.Auth(), auth.IsPrivileged())
	ad.GET("/solvency", h.solvency)
	if h.admin != nil {
		ad.POST("/assets/mint", h.mint)
	}
}

func bindAndValidate(c echo.Context, p interface{}) error {
	if err := c.Bind(p); err != nil {
		c.Get("ctx").(ctx.Ctx).WithField("err", err).Info("bind failed")
		return domain.ErrBadParamInput
	}
	return c.Validate(p)
}

func caller(c echo.Context) domain.Address {
	return c.Get("address").(domain.Address)
}

func canonicalTokenId(id *domain.TokenId) *domain.TokenId {
	if id == nil {
		return nil
	}
	return ptr.TokenId(id.Canonical())
}

// findListings
//
//	@Summary		Browse listings
//	@Tags			listings
//	@Produce		json
//	@Param			seller		query		string	false	"seller address"
//	@Param			nftAddress	query		string	false	"collection address"
//	@Param			tokenId		query		string	false	"token id"
//	@Param			isActive	query		bool	false	"only open or closed listings"
//	@Param			offset		query		int		false	"paging offset"
//	@Param			limit		query		int		false	"paging size"
//	@Success		200			{object}	object{data=object{items=[]listing.Listing,count=int}}
//	@Failure		400
//	@Router			/listings [get]
func (h *handler) findListings(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Seller     *domain.Address `query:"seller"`
		Collection *domain.Address `query:"nftAddress"`
		TokenId    *domain.TokenId `query:"tokenId"`
		IsActive   *bool           `query:"isActive"`
		Offset     int             `query:"offset" validate:"min=0"`
		Limit      int             `query:"limit" validate:"min=0"`
	}

	p := &params{}
	if err := bindAndValidate(c, p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	res, count, err := h.market.FindListings(ctx, listing.Filter{
		Seller:     p.Seller,
		Collection: p.Collection,
		TokenId:    canonicalTokenId(p.TokenId),
		IsActive:   p.IsActive,
		Offset:     p.Offset,
		Limit:      p.Limit,
	})
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, page{res, count})
}

func (h *handler) getListing(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Id int64 `param:"id" validate:"min=1"`
	}

	p := &params{}
	if err := bindAndValidate(c, p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	res, err := h.market.GetNFTListing(ctx, p.Id)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

// listForSale
//
//	@Summary		List an nft for sale
//	@Description	Moves the nft into marketplace custody and opens a fixed price listing
//	@Tags			listings
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			params	body		http.listForSale.params	true	"params"
//	@Success		201		{object}	object{data=listing.Listing}
//	@Failure		400
//	@Failure		403
//	@Failure		409
//	@Router			/listings [post]
func (h *handler) listForSale(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Collection domain.Address `json:"nftAddress" validate:"required,address"`
		TokenId    domain.TokenId `json:"tokenId" validate:"required,tokenid"`
		Price      string         `json:"price" validate:"required,amount"`
	}

	p := &params{}
	if err := bindAndValidate(c, p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	res, err := h.market.ListNFTForSale(ctx, caller(c), marketplace.ListParams{
		Collection: p.Collection,
		TokenId:    p.TokenId.Canonical(),
		Price:      decimal.RequireFromString(p.Price),
	})
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusCreated, res)
}

// buy
//
//	@Summary		Buy a listed nft
//	@Description	Pays exactly the listing price from the caller's bank balance
//	@Tags			listings
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			id		path		int				true	"listing id"
//	@Param			params	body		http.buy.params	true	"params"
//	@Success		200		{object}	object{data=listing.Listing}
//	@Failure		400
//	@Failure		402
//	@Failure		404
//	@Failure		409
//	@Router			/listings/{id}/buy [post]
func (h *handler) buy(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Id   int64  `param:"id" validate:"min=1"`
		Paid string `json:"paid" validate:"required,amount"`
	}

	p := &params{}
	if err := bindAndValidate(c, p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	res, err := h.market.BuyNFT(ctx, caller(c), p.Id, decimal.RequireFromString(p.Paid))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) cancelListing(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Id int64 `param:"id" validate:"min=1"`
	}

	p := &params{}
	if err := bindAndValidate(c, p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	res, err := h.market.CancelListing(ctx, caller(c), p.Id)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) findAuctions(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Seller     *domain.Address `query:"seller"`
		Collection *domain.Address `query:"nftAddress"`
		TokenId    *domain.TokenId `query:"tokenId"`
		IsActive   *bool           `query:"isActive"`
		Offset     int             `query:"offset" validate:"min=0"`
		Limit      int             `query:"limit" validate:"min=0"`
	}

	p := &params{}
	if err := bindAndValidate(c, p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	res, count, err := h.market.FindAuctions(ctx, auction.Filter{
		Seller:     p.Seller,
		Collection: p.Collection,
		TokenId:    canonicalTokenId(p.TokenId),
		IsActive:   p.IsActive,
		Offset:     p.Offset,
		Limit:      p.Limit,
	})
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, page{res, count})
}

func (h *handler) getAuction(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Id int64 `param:"id" validate:"min=1"`
	}

	p := &params{}
	if err := bindAndValidate(c, p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	res, err := h.market.GetNFTAuction(ctx, p.Id)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) getBids(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Id int64 `param:"id" validate:"min=1"`
	}

	p := &params{}
	if err := bindAndValidate(c, p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	res, err := h.market.GetBids(ctx, p.Id)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

// listForAuction
//
//	@Summary		Put an nft up for auction
//	@Tags			auctions
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			params	body		http.listForAuction.params	true	"params"
//	@Success		201		{object}	object{data=auction.Auction}
//	@Failure		400
//	@Failure		403
//	@Failure		409
//	@Router			/auctions [post]
func (h *handler) listForAuction(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Collection      domain.Address `json:"nftAddress" validate:"required,address"`
		TokenId         domain.TokenId `json:"tokenId" validate:"required,tokenid"`
		ReservePrice    string         `json:"reservePrice" validate:"required,amount"`
		DurationSeconds int64          `json:"durationSeconds" validate:"required,min=1"`
	}

	p := &params{}
	if err := bindAndValidate(c, p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	res, err := h.market.ListForAuction(ctx, caller(c), marketplace.AuctionParams{
		Collection:      p.Collection,
		TokenId:         p.TokenId.Canonical(),
		ReservePrice:    decimal.RequireFromString(p.ReservePrice),
		DurationSeconds: p.DurationSeconds,
	})
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusCreated, res)
}

// bid
//
//	@Summary		Bid on an auction
//	@Description	The bid has to exceed both the reserve price and the highest bid, the outbid amount is credited to its bidder's escrow
//	@Tags			auctions
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			id		path		int				true	"auction id"
//	@Param			params	body		http.bid.params	true	"params"
//	@Success		200		{object}	object{data=auction.Auction}
//	@Failure		400
//	@Failure		402
//	@Failure		404
//	@Failure		409
//	@Router			/auctions/{id}/bids [post]
func (h *handler) bid(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Id     int64  `param:"id" validate:"min=1"`
		Amount string `json:"amount" validate:"required,amount"`
	}

	p := &params{}
	if err := bindAndValidate(c, p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	res, err := h.market.Bid(ctx, caller(c), p.Id, decimal.RequireFromString(p.Amount))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) withdrawAuction(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Id int64 `param:"id" validate:"min=1"`
	}

	p := &params{}
	if err := bindAndValidate(c, p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	res, err := h.market.WithdrawAuctionNFT(ctx, caller(c), p.Id)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) getEscrow(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	res, err := h.market.GetEscrowAccount(ctx, domain.Address(c.Param("address")))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) withdrawEscrow(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	amount, err := h.market.WithdrawEscrow(ctx, caller(c))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, map[string]decimal.Decimal{"amount": amount})
}

func (h *handler) getActivities(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Address domain.Address `param:"address"`
		Offset  int            `query:"offset" validate:"min=0"`
		Limit   int            `query:"limit" validate:"min=0"`
	}

	p := &params{}
	if err := bindAndValidate(c, p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	res, err := h.market.GetActivities(ctx, p.Address, p.Offset, p.Limit)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) getBalance(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	address := domain.Address(c.Param("address"))
	balance, err := h.bank.BalanceOf(ctx, address)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, bank.Account{Address: address.ToLower(), Balance: balance})
}

// deposit
//
//	@Summary		Fund an account
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			params	body	http.deposit.params	true	"params"
//	@Success		200
//	@Failure		400
//	@Failure		403
//	@Router			/bank/deposit [post]
func (h *handler) deposit(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Address domain.Address `json:"address" validate:"required,address"`
		Amount  string         `json:"amount" validate:"required,amount"`
	}

	p := &params{}
	if err := bindAndValidate(c, p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	if err := h.bank.Deposit(ctx, p.Address, decimal.RequireFromString(p.Amount)); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	ctx.WithField("address", p.Address).WithField("amount", p.Amount).WithField("by", caller(c)).Info("deposit")
	return delivery.MakeJsonResp(c, http.StatusOK, nil)
}

func (h *handler) solvency(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	res, err := h.market.CheckSolvency(ctx)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) mint(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Collection domain.Address `json:"nftAddress" validate:"required,address"`
		TokenId    domain.TokenId `json:"tokenId" validate:"required,tokenid"`
		To         domain.Address `json:"to" validate:"required,address"`
	}

	p := &params{}
	if err := bindAndValidate(c, p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	if err := h.admin.Mint(ctx, p.Collection, p.TokenId.Canonical(), p.To); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusCreated, nil)
}
