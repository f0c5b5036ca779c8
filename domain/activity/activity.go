package activity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/domain"
)

type Type string

const (
	TypeList            Type = "list"
	TypeBuy             Type = "buy"
	TypeSold            Type = "sold"
	TypeCancelListing   Type = "cancelListing"
	TypeCreateAuction   Type = "createAuction"
	TypePlaceBid        Type = "placeBid"
	TypeBidRefunded     Type = "bidRefunded"
	TypeResultAuction   Type = "resultAuction"
	TypeWonAuction      Type = "wonAuction"
	TypeWithdrawAuction Type = "withdrawAuction"
	TypeEscrowWithdraw  Type = "escrowWithdraw"
)

type Activity struct {
	Seq          int64           `json:"seq" bson:"seq"`
	Type         Type            `json:"type" bson:"type"`
	Account      domain.Address  `json:"account" bson:"account"`
	Collection   domain.Address  `json:"nftAddress,omitempty" bson:"collection,omitempty"`
	TokenId      domain.TokenId  `json:"tokenId,omitempty" bson:"tokenId,omitempty"`
	SaleId       int64           `json:"saleId,omitempty" bson:"saleId,omitempty"`
	Price        decimal.Decimal `json:"price" bson:"price"`
	Counterparty domain.Address  `json:"counterparty,omitempty" bson:"counterparty,omitempty"`
	Time         time.Time       `json:"time" bson:"time"`
}

type Repo interface {
	Insert(c ctx.Ctx, a *Activity) error
	// FindByAccount returns the newest activities first
	FindByAccount(c ctx.Ctx, account domain.Address, offset, limit int) ([]*Activity, error)
}
