package marketplace

import (
	"github.com/shopspring/decimal"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/domain"
	"github.com/x-xyz/nftmarket/domain/activity"
	"github.com/x-xyz/nftmarket/domain/auction"
	"github.com/x-xyz/nftmarket/domain/escrow"
	"github.com/x-xyz/nftmarket/domain/listing"
)

type ListParams struct {
	Collection domain.Address
	TokenId    domain.TokenId
	Price      decimal.Decimal
}

type AuctionParams struct {
	Collection      domain.Address
	TokenId         domain.TokenId
	ReservePrice    decimal.Decimal
	DurationSeconds int64
}

// Solvency compares what the marketplace owes with what it holds
type Solvency struct {
	Held            decimal.Decimal `json:"held"`
	EscrowTotal     decimal.Decimal `json:"escrowTotal"`
	ActiveBidsTotal decimal.Decimal `json:"activeBidsTotal"`
	Liabilities     decimal.Decimal `json:"liabilities"`
	Solvent         bool            `json:"solvent"`
}

// Usecase is the marketplace orchestrator. Mutating methods take the caller
// explicitly and are all-or-nothing: on error no state change is retained.
type Usecase interface {
	ListNFTForSale(c ctx.Ctx, caller domain.Address, p ListParams) (*listing.Listing, error)
	GetNFTListing(c ctx.Ctx, id int64) (*listing.Listing, error)
	FindListings(c ctx.Ctx, f listing.Filter) ([]*listing.Listing, int, error)
	// BuyNFT requires paid to match the listing price exactly
	BuyNFT(c ctx.Ctx, caller domain.Address, id int64, paid decimal.Decimal) (*listing.Listing, error)
	CancelListing(c ctx.Ctx, caller domain.Address, id int64) (*listing.Listing, error)

	ListForAuction(c ctx.Ctx, caller domain.Address, p AuctionParams) (*auction.Auction, error)
	GetNFTAuction(c ctx.Ctx, id int64) (*auction.Auction, error)
	FindAuctions(c ctx.Ctx, f auction.Filter) ([]*auction.Auction, int, error)
	GetBids(c ctx.Ctx, id int64) ([]*auction.Bid, error)
	Bid(c ctx.Ctx, caller domain.Address, id int64, amount decimal.Decimal) (*auction.Auction, error)
	// WithdrawAuctionNFT settles an auction to its highest bidder or returns the asset to the seller
	WithdrawAuctionNFT(c ctx.Ctx, caller domain.Address, id int64) (*auction.Auction, error)

	GetEscrowAccount(c ctx.Ctx, address domain.Address) (*escrow.Account, error)
	// WithdrawEscrow sends the whole escrow balance of caller out of custody
	WithdrawEscrow(c ctx.Ctx, caller domain.Address) (decimal.Decimal, error)

	GetActivities(c ctx.Ctx, address domain.Address, offset, limit int) ([]*activity.Activity, error)
	CheckSolvency(c ctx.Ctx) (*Solvency, error)
	// ReconcileTransfers settles transfers still pending when their operation committed,
	// it returns how many reached a final status
	ReconcileTransfers(c ctx.Ctx) (int, error)
	IsPrivileged(address domain.Address) bool
}
