package escrow

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/domain"
)

// Account holds the refundable and withdrawable balance of an address
type Account struct {
	Address        domain.Address  `json:"address" bson:"address"`
	Balance        decimal.Decimal `json:"balance" bson:"balance"`
	TotalCredited  decimal.Decimal `json:"totalCredited" bson:"totalCredited"`
	TotalWithdrawn decimal.Decimal `json:"totalWithdrawn" bson:"totalWithdrawn"`
	UpdatedAt      time.Time       `json:"updatedAt" bson:"updatedAt"`
}

func NewAccount(address domain.Address) *Account {
	return &Account{
		Address:        address,
		Balance:        decimal.Zero,
		TotalCredited:  decimal.Zero,
		TotalWithdrawn: decimal.Zero,
	}
}

type Repo interface {
	// Get returns an empty account for unknown addresses
	Get(c ctx.Ctx, address domain.Address) (*Account, error)
	Credit(c ctx.Ctx, address domain.Address, amount decimal.Decimal) (*Account, error)
	// Drain zeroes the balance and returns it, domain.ErrNothingToWithdraw if it is zero
	Drain(c ctx.Ctx, address domain.Address) (decimal.Decimal, error)
	// Total sums the balance of every account
	Total(c ctx.Ctx) (decimal.Decimal, error)
}
