package notifier

import (
	"github.com/shopspring/decimal"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/domain"
)

type EventType string

const (
	EventItemSold       EventType = "itemSold"
	EventAuctionSettled EventType = "auctionSettled"
	EventNewListing     EventType = "newListing"
	EventNewAuction     EventType = "newAuction"
)

// Event is published after a marketplace operation commits
type Event struct {
	Type       EventType
	SaleId     int64
	Collection domain.Address
	TokenId    domain.TokenId
	Seller     domain.Address
	Buyer      domain.Address
	Price      decimal.Decimal
}

type Notifier interface {
	Notify(c ctx.Ctx, evt Event) error
}
