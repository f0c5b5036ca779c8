package asset

import (
	"time"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/domain"
)

// Ledger is the external registry of asset ownership, ERC-721 alike
type Ledger interface {
	OwnerOf(c ctx.Ctx, collection domain.Address, tokenId domain.TokenId) (domain.Address, error)
	// IsApprovedOrOwner reports whether spender may transfer the token on behalf of its owner
	IsApprovedOrOwner(c ctx.Ctx, spender, collection domain.Address, tokenId domain.TokenId) (bool, error)
	// TransferFrom moves the token, failures wrap domain.ErrTransferFailure
	TransferFrom(c ctx.Ctx, from, to, collection domain.Address, tokenId domain.TokenId) error
}

// Tracker is implemented by ledgers whose transfers may complete after TransferFrom returns.
// Such a TransferFrom returns a *PendingError once the transfer is out.
type Tracker interface {
	// TransferStatus returns TransferPending until the transfer sent in txHash is final
	TransferStatus(c ctx.Ctx, txHash string) (TransferStatus, error)
}

// PendingError reports a transfer handed to the ledger whose outcome is not known yet
type PendingError struct {
	TxHash string
}

func (e *PendingError) Error() string {
	return "transfer pending in " + e.TxHash
}

func (e *PendingError) Unwrap() error {
	return domain.ErrTransferPending
}

// Admin is implemented by ledgers the marketplace hosts itself
type Admin interface {
	Mint(c ctx.Ctx, collection domain.Address, tokenId domain.TokenId, to domain.Address) error
	// Approve lets spender transfer one token of owner
	Approve(c ctx.Ctx, owner, spender, collection domain.Address, tokenId domain.TokenId) error
	SetApprovalForAll(c ctx.Ctx, owner, operator, collection domain.Address, approved bool) error
}

type SaleKind string

const (
	SaleKindListing SaleKind = "listing"
	SaleKindAuction SaleKind = "auction"
)

// Lock records which sale holds an asset, at most one per asset is active
type Lock struct {
	Collection domain.Address `json:"nftAddress" bson:"collection"`
	TokenId    domain.TokenId `json:"tokenId" bson:"tokenId"`
	Kind       SaleKind       `json:"kind" bson:"kind"`
	SaleId     int64          `json:"saleId" bson:"saleId"`
	IsActive   bool           `json:"isActive" bson:"isActive"`
	UpdatedAt  time.Time      `json:"updatedAt" bson:"updatedAt"`
}

type LockRepo interface {
	// Acquire fails with domain.ErrAssetAlreadyListed if an active lock exists
	Acquire(c ctx.Ctx, collection domain.Address, tokenId domain.TokenId, kind SaleKind, saleId int64) error
	Release(c ctx.Ctx, collection domain.Address, tokenId domain.TokenId) error
	// Get returns domain.ErrNotFound if the asset was never locked
	Get(c ctx.Ctx, collection domain.Address, tokenId domain.TokenId) (*Lock, error)
}

type TransferStatus string

const (
	TransferPending   TransferStatus = "pending"
	TransferConfirmed TransferStatus = "confirmed"
	TransferFailed    TransferStatus = "failed"
)

// Transfer is a committed asset transfer the ledger had not confirmed at commit time.
// Id is the hash of the first attempt, TxHash the one of the latest.
type Transfer struct {
	Id         string         `json:"id" bson:"id"`
	TxHash     string         `json:"txHash" bson:"txHash"`
	Op         string         `json:"op" bson:"op"`
	Collection domain.Address `json:"nftAddress" bson:"collection"`
	TokenId    domain.TokenId `json:"tokenId" bson:"tokenId"`
	From       domain.Address `json:"from" bson:"from"`
	To         domain.Address `json:"to" bson:"to"`
	Status     TransferStatus `json:"status" bson:"status"`
	Attempts   int            `json:"attempts" bson:"attempts"`
	CreatedAt  time.Time      `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt" bson:"updatedAt"`
}

type TransferRepo interface {
	Create(c ctx.Ctx, t *Transfer) error
	Update(c ctx.Ctx, t *Transfer) error
	// FindPending returns pending transfers, oldest first
	FindPending(c ctx.Ctx) ([]*Transfer, error)
	// HasPending reports whether a transfer of the asset is still pending
	HasPending(c ctx.Ctx, collection domain.Address, tokenId domain.TokenId) (bool, error)
}
