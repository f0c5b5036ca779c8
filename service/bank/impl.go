package bank

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/xerrors"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/base/log"
	"github.com/x-xyz/nftmarket/domain"
	"github.com/x-xyz/nftmarket/domain/bank"
	"github.com/x-xyz/nftmarket/service/query"
)

var timeNow = time.Now

type impl struct {
	query   query.Mongo
	custody domain.Address
}

// New returns a Bank keeping native balances in the store, custody is the
// account holding the funds of the marketplace. Every movement joins the
// transaction of the given ctx.
func New(q query.Mongo, custody domain.Address) bank.Bank {
	return &impl{
		query:   q,
		custody: custody.ToLower(),
	}
}

func Indexes() []query.Index {
	return []query.Index{
		{Table: domain.TableBankAccounts, Fields: []string{"address"}, Unique: true},
	}
}

func (im *impl) get(c ctx.Ctx, address domain.Address) (*bank.Account, error) {
	a := &bank.Account{}
	if err := im.query.FindOne(c, domain.TableBankAccounts, bson.M{"address": address.ToLower()}, a); err == query.ErrNotFound {
		return &bank.Account{Address: address.ToLower(), Balance: decimal.Zero}, nil
	} else if err != nil {
		c.WithFields(log.Fields{
			"address": address,
			"err":     err,
		}).Error("find bank account failed")
		return nil, err
	}
	return a, nil
}

func (im *impl) add(c ctx.Ctx, address domain.Address, delta decimal.Decimal) error {
	a, err := im.get(c, address)
	if err != nil {
		return err
	}
	a.Balance = a.Balance.Add(delta)
	a.UpdatedAt = timeNow()
	if err := im.query.Upsert(c, domain.TableBankAccounts, bson.M{"address": a.Address}, a); err != nil {
		c.WithFields(log.Fields{
			"address": address,
			"err":     err,
		}).Error("upsert bank account failed")
		return err
	}
	return nil
}

func (im *impl) move(c ctx.Ctx, from, to domain.Address, amount decimal.Decimal, short error) error {
	if !amount.IsPositive() || !domain.IsExact(amount) {
		return domain.ErrInvalidAmount
	}
	return im.query.RunWithTransaction(c, func(c ctx.Ctx) error {
		src, err := im.get(c, from)
		if err != nil {
			return err
		}
		if src.Balance.LessThan(amount) {
			return short
		}
		if err := im.add(c, from, amount.Neg()); err != nil {
			return err
		}
		return im.add(c, to, amount)
	})
}

func (im *impl) Deposit(c ctx.Ctx, account domain.Address, amount decimal.Decimal) error {
	if !amount.IsPositive() || !domain.IsExact(amount) {
		return domain.ErrInvalidAmount
	}
	return im.add(c, account, amount)
}

func (im *impl) BalanceOf(c ctx.Ctx, account domain.Address) (decimal.Decimal, error) {
	a, err := im.get(c, account)
	if err != nil {
		return decimal.Zero, err
	}
	return a.Balance, nil
}

func (im *impl) Collect(c ctx.Ctx, from domain.Address, amount decimal.Decimal) error {
	return im.move(c, from, im.custody, amount, domain.ErrBalanceNotEnough)
}

func (im *impl) Send(c ctx.Ctx, to domain.Address, amount decimal.Decimal) error {
	if err := im.move(c, im.custody, to, amount, domain.ErrCustodyBalanceTooLow); err != nil {
		if err == domain.ErrInvalidAmount || err == domain.ErrCustodyBalanceTooLow {
			return err
		}
		return xerrors.Errorf("send %s to %s: %w: %v", amount, to, domain.ErrTransferFailure, err)
	}
	return nil
}

func (im *impl) Held(c ctx.Ctx) (decimal.Decimal, error) {
	return im.BalanceOf(c, im.custody)
}
