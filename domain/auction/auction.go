package auction

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/domain"
)

type Status string

const (
	StatusActive Status = "active"
	// StatusSettled means the asset went to the highest bidder
	StatusSettled Status = "settled"
	// StatusWithdrawn means the asset went back to the seller without bids
	StatusWithdrawn Status = "withdrawn"
)

type Auction struct {
	Id            int64           `json:"id" bson:"id"`
	Collection    domain.Address  `json:"nftAddress" bson:"collection"`
	TokenId       domain.TokenId  `json:"tokenId" bson:"tokenId"`
	Seller        domain.Address  `json:"seller" bson:"seller"`
	ReservePrice  decimal.Decimal `json:"reservePrice" bson:"reservePrice"`
	StartTime     time.Time       `json:"startTime" bson:"startTime"`
	EndTime       time.Time       `json:"endTime" bson:"endTime"`
	HighestBidder domain.Address  `json:"highestBidder,omitempty" bson:"highestBidder,omitempty"`
	HighestBid    decimal.Decimal `json:"highestBid" bson:"highestBid"`
	BidCount      int             `json:"bidCount" bson:"bidCount"`
	IsActive      bool            `json:"isActive" bson:"isActive"`
	Status        Status          `json:"status" bson:"status"`
	ClosedAt      *time.Time      `json:"closedAt,omitempty" bson:"closedAt,omitempty"`
}

func (a *Auction) HasBids() bool {
	return !a.HighestBidder.IsEmpty()
}

// Floor is the amount a new bid has to exceed
func (a *Auction) Floor() decimal.Decimal {
	return decimal.Max(a.HighestBid, a.ReservePrice)
}

// Ended reports whether bidding is closed at now
func (a *Auction) Ended(now time.Time) bool {
	return !now.Before(a.EndTime)
}

type Bid struct {
	AuctionId int64           `json:"auctionId" bson:"auctionId"`
	Seq       int             `json:"seq" bson:"seq"`
	Bidder    domain.Address  `json:"bidder" bson:"bidder"`
	Amount    decimal.Decimal `json:"amount" bson:"amount"`
	Time      time.Time       `json:"time" bson:"time"`
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
	Create(c ctx.Ctx, a *Auction) error
	// Get returns domain.ErrAuctionNotFound for unknown ids
	Get(c ctx.Ctx, id int64) (*Auction, error)
	Update(c ctx.Ctx, a *Auction) error
	Find(c ctx.Ctx, f Filter) ([]*Auction, error)
	Count(c ctx.Ctx, f Filter) (int, error)

	AddBid(c ctx.Ctx, bid *Bid) error
	// GetBids returns bids in placing order
	GetBids(c ctx.Ctx, auctionId int64) ([]*Bid, error)
}
