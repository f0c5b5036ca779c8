package repository

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/base/log"
	"github.com/x-xyz/nftmarket/domain"
	"github.com/x-xyz/nftmarket/domain/escrow"
	"github.com/x-xyz/nftmarket/service/query"
)

var timeNow = time.Now

type impl struct {
	query query.Mongo
}

func New(q query.Mongo) escrow.Repo {
	return &impl{q}
}

func Indexes() []query.Index {
	return []query.Index{
		{Table: domain.TableEscrowAccounts, Fields: []string{"address"}, Unique: true},
	}
}

func (im *impl) Get(c ctx.Ctx, address domain.Address) (*escrow.Account, error) {
	address = address.ToLower()
	a := &escrow.Account{}
	if err := im.query.FindOne(c, domain.TableEscrowAccounts, bson.M{"address": address}, a); err == query.ErrNotFound {
		return escrow.NewAccount(address), nil
	} else if err != nil {
		c.WithFields(log.Fields{
			"address": address,
			"err":     err,
		}).Error("find escrow account failed")
		return nil, err
	}
	return a, nil
}

func (im *impl) save(c ctx.Ctx, a *escrow.Account) error {
	a.UpdatedAt = timeNow()
	if err := im.query.Upsert(c, domain.TableEscrowAccounts, bson.M{"address": a.Address}, a); err != nil {
		c.WithFields(log.Fields{
			"address": a.Address,
			"err":     err,
		}).Error("upsert escrow account failed")
		return err
	}
	return nil
}

func (im *impl) Credit(c ctx.Ctx, address domain.Address, amount decimal.Decimal) (*escrow.Account, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	a, err := im.Get(c, address)
	if err != nil {
		return nil, err
	}
	a.Balance = a.Balance.Add(amount)
	a.TotalCredited = a.TotalCredited.Add(amount)
	if err := im.save(c, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (im *impl) Drain(c ctx.Ctx, address domain.Address) (decimal.Decimal, error) {
	a, err := im.Get(c, address)
	if err != nil {
		return decimal.Zero, err
	}
	if !a.Balance.IsPositive() {
		return decimal.Zero, domain.ErrNothingToWithdraw
	}

	amount := a.Balance
	a.Balance = decimal.Zero
	a.TotalWithdrawn = a.TotalWithdrawn.Add(amount)
	if err := im.save(c, a); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

func (im *impl) Total(c ctx.Ctx) (decimal.Decimal, error) {
	accounts := []*escrow.Account{}
	if err := im.query.Search(c, domain.TableEscrowAccounts, 0, 0, "", bson.M{}, &accounts); err != nil {
		c.WithField("err", err).Error("failed to q.Search")
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}
	return total, nil
}
