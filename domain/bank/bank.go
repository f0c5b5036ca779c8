package bank

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/domain"
)

// Account is the spendable native balance of an address outside marketplace custody
type Account struct {
	Address   domain.Address  `json:"address" bson:"address"`
	Balance   decimal.Decimal `json:"balance" bson:"balance"`
	UpdatedAt time.Time       `json:"updatedAt" bson:"updatedAt"`
}

// Bank moves native currency between accounts and marketplace custody
type Bank interface {
	// Deposit funds an account from outside, used by operators and tests
	Deposit(c ctx.Ctx, account domain.Address, amount decimal.Decimal) error
	BalanceOf(c ctx.Ctx, account domain.Address) (decimal.Decimal, error)
	// Collect moves amount from account into custody, domain.ErrBalanceNotEnough if short
	Collect(c ctx.Ctx, from domain.Address, amount decimal.Decimal) error
	// Send moves amount from custody to account, failures wrap domain.ErrTransferFailure
	Send(c ctx.Ctx, to domain.Address, amount decimal.Decimal) error
	// Held returns the funds in custody
	Held(c ctx.Ctx) (decimal.Decimal, error)
}
