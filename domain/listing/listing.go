package listing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/domain"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusSold      Status = "sold"
	StatusCancelled Status = "cancelled"
)

type Listing struct {
	Id         int64           `json:"id" bson:"id"`
	Collection domain.Address  `json:"nftAddress" bson:"collection"`
	TokenId    domain.TokenId  `json:"tokenId" bson:"tokenId"`
	Seller     domain.Address  `json:"seller" bson:"seller"`
	Price      decimal.Decimal `json:"price" bson:"price"`
	IsActive   bool            `json:"isActive" bson:"isActive"`
	Status     Status          `json:"status" bson:"status"`
	Buyer      domain.Address  `json:"buyer,omitempty" bson:"buyer,omitempty"`
	CreatedAt  time.Time       `json:"createdAt" bson:"createdAt"`
	ClosedAt   *time.Time      `json:"closedAt,omitempty" bson:"closedAt,omitempty"`
}

type Filter struct {
	Seller     *domain.Address
	Collection *domain.Address
	TokenId    *domain.TokenId
	IsActive   *bool
	Offset     int
	Limit      int
}

type Repo interface {
	NextId(c ctx.Ctx) (int64, error)
	Create(c ctx.Ctx, l *Listing) error
	// Get returns domain.ErrListingNotFound for unknown ids
	Get(c ctx.Ctx, id int64) (*Listing, error)
	Update(c ctx.Ctx, l *Listing) error
	Find(c ctx.Ctx, f Filter) ([]*Listing, error)
	Count(c ctx.Ctx, f Filter) (int, error)
}
