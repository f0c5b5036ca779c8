package usecase

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/base/log"
	"github.com/x-xyz/nftmarket/base/metrics"
	"github.com/x-xyz/nftmarket/base/ptr"
	"github.com/x-xyz/nftmarket/domain"
	"github.com/x-xyz/nftmarket/domain/activity"
	"github.com/x-xyz/nftmarket/domain/asset"
	"github.com/x-xyz/nftmarket/domain/auction"
	"github.com/x-xyz/nftmarket/domain/bank"
	"github.com/x-xyz/nftmarket/domain/escrow"
	"github.com/x-xyz/nftmarket/domain/listing"
	"github.com/x-xyz/nftmarket/domain/marketplace"
	"github.com/x-xyz/nftmarket/domain/notifier"
	"github.com/x-xyz/nftmarket/service/lock"
)

// every mutating operation of a marketplace shares one lock
const lockKey = "marketplace"

var timeNow = time.Now

// Transactor runs a function in a store transaction, query.Mongo satisfies it
type Transactor interface {
	RunWithTransaction(c ctx.Ctx, run func(ctx.Ctx) error) error
}

type MarketplaceUseCaseCfg struct {
	Transactor   Transactor
	Locker       lock.Locker
	ListingRepo  listing.Repo
	AuctionRepo  auction.Repo
	EscrowRepo   escrow.Repo
	LockRepo     asset.LockRepo
	TransferRepo asset.TransferRepo
	ActivityRepo activity.Repo
	Bank         bank.Bank
	Ledger       asset.Ledger
	Notifier     notifier.Notifier
	// Custody is the marketplace account holding listed assets and escrowed funds
	Custody domain.Address
	// Owner and Operators may cancel listings and withdraw auctions of anyone
	Owner     domain.Address
	Operators []domain.Address
	// AssertSolvency checks liabilities against held funds before every commit
	AssertSolvency bool
}

type impl struct {
	tx             Transactor
	locker         lock.Locker
	listingRepo    listing.Repo
	auctionRepo    auction.Repo
	escrowRepo     escrow.Repo
	lockRepo       asset.LockRepo
	transferRepo   asset.TransferRepo
	activityRepo   activity.Repo
	bank           bank.Bank
	ledger         asset.Ledger
	notifier       notifier.Notifier
	custody        domain.Address
	privileged     map[domain.Address]bool
	assertSolvency bool
	metrics        metrics.Service
}

func New(cfg *MarketplaceUseCaseCfg) marketplace.Usecase {
	privileged := map[domain.Address]bool{}
	if !cfg.Owner.IsEmpty() {
		privileged[cfg.Owner.ToLower()] = true
	}
	for _, op := range cfg.Operators {
		privileged[op.ToLower()] = true
	}

	return &impl{
		tx:             cfg.Transactor,
		locker:         cfg.Locker,
		listingRepo:    cfg.ListingRepo,
		auctionRepo:    cfg.AuctionRepo,
		escrowRepo:     cfg.EscrowRepo,
		lockRepo:       cfg.LockRepo,
		transferRepo:   cfg.TransferRepo,
		activityRepo:   cfg.ActivityRepo,
		bank:           cfg.Bank,
		ledger:         cfg.Ledger,
		notifier:       cfg.Notifier,
		custody:        cfg.Custody.ToLower(),
		privileged:     privileged,
		assertSolvency: cfg.AssertSolvency,
		metrics:        metrics.New("marketplace"),
	}
}

func (im *impl) IsPrivileged(address domain.Address) bool {
	return im.privileged[address.ToLower()]
}

// assetTransfer is the only side effect of an operation that may live outside the store
type assetTransfer struct {
	from       domain.Address
	to         domain.Address
	collection domain.Address
	tokenId    domain.TokenId
}

// effects collects what an operation does besides store writes
type effects struct {
	transfer *assetTransfer
	events   []notifier.Event
}

func (e *effects) moveAsset(from, to, collection domain.Address, tokenId domain.TokenId) {
	e.transfer = &assetTransfer{from: from, to: to, collection: collection, tokenId: tokenId}
}

func (e *effects) notify(evt notifier.Event) {
	e.events = append(e.events, evt)
}

// mutate runs one state-changing operation. Everything run writes is staged in a store
// transaction. After run come the solvency assertion and then the asset transfer, and
// the transaction commits only if all of them succeed. A transfer the ledger reports as
// pending is already out, so it commits along with a pending transfer record.
func (im *impl) mutate(c ctx.Ctx, op string, run func(ctx.Ctx, *effects) error) error {
	if running := ctx.Operation(c); running != "" {
		c.WithFields(log.Fields{
			"op":      op,
			"running": running,
		}).Error("reentrant call")
		im.metrics.BumpSum(op+".err", 1, "kind", "reentrant")
		return domain.ErrReentrantCall
	}
	defer im.metrics.BumpTime(op + ".time").End()

	c = ctx.WithOperation(c, op)
	unlock, err := im.locker.Lock(c, lockKey)
	if err != nil {
		c.WithField("err", err).Error("locker.Lock failed")
		return err
	}
	defer unlock()

	eff := &effects{}
	err = im.tx.RunWithTransaction(c, func(tc ctx.Ctx) error {
		if err := run(tc, eff); err != nil {
			return err
		}
		if im.assertSolvency {
			if err := im.ensureSolvent(tc); err != nil {
				return err
			}
		}
		if t := eff.transfer; t != nil {
			return im.transfer(tc, op, t)
		}
		return nil
	})
	if err != nil {
		im.metrics.BumpSum(op+".err", 1, "kind", domain.KindOf(err).Error())
		return err
	}

	if im.notifier == nil {
		return nil
	}
	for _, evt := range eff.events {
		if err := im.notifier.Notify(c, evt); err != nil {
			c.WithFields(log.Fields{
				"event": evt.Type,
				"err":   err,
			}).Warn("notifier.Notify failed")
		}
	}
	return nil
}

func (im *impl) transfer(c ctx.Ctx, op string, t *assetTransfer) error {
	pending, err := im.transferRepo.HasPending(c, t.collection, t.tokenId)
	if err != nil {
		return err
	} else if pending {
		return domain.ErrTransferPending
	}

	err = im.ledger.TransferFrom(c, t.from, t.to, t.collection, t.tokenId)
	fields := log.Fields{
		"op":         op,
		"from":       t.from,
		"to":         t.to,
		"collection": t.collection,
		"tokenId":    t.tokenId,
		"err":        err,
	}
	pendingErr := &asset.PendingError{}
	if errors.As(err, &pendingErr) {
		c.WithFields(fields).Warn("transfer pending, commit with pending record")
		im.metrics.BumpSum("transfer.pending", 1, "op", op)
		return im.transferRepo.Create(c, &asset.Transfer{
			Id:         pendingErr.TxHash,
			TxHash:     pendingErr.TxHash,
			Op:         op,
			Collection: t.collection,
			TokenId:    t.tokenId,
			From:       t.from,
			To:         t.to,
			Status:     asset.TransferPending,
			Attempts:   1,
			CreatedAt:  timeNow(),
		})
	} else if err != nil {
		c.WithFields(fields).Error("ledger.TransferFrom failed")
		return err
	}
	return nil
}

// checkCustodyRights ensures seller owns the asset and the marketplace may pull it
func (im *impl) checkCustodyRights(c ctx.Ctx, seller, collection domain.Address, tokenId domain.TokenId) error {
	owner, err := im.ledger.OwnerOf(c, collection, tokenId)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrNotOwnerOrUnapproved
	} else if err != nil {
		c.WithFields(log.Fields{
			"collection": collection,
			"tokenId":    tokenId,
			"err":        err,
		}).Error("ledger.OwnerOf failed")
		return err
	}
	if !owner.Equals(seller) {
		return domain.ErrNotOwnerOrUnapproved
	}

	ok, err := im.ledger.IsApprovedOrOwner(c, im.custody, collection, tokenId)
	if err != nil {
		c.WithFields(log.Fields{
			"collection": collection,
			"tokenId":    tokenId,
			"err":        err,
		}).Error("ledger.IsApprovedOrOwner failed")
		return err
	}
	if !ok {
		return domain.ErrNotOwnerOrUnapproved
	}
	return nil
}

// validateAsset returns the canonical token id of a valid asset
func validateAsset(collection domain.Address, tokenId domain.TokenId) (domain.TokenId, error) {
	if !collection.IsHex() || collection.IsEmpty() || !tokenId.IsValid() {
		return "", domain.ErrInvalidAsset
	}
	return tokenId.Canonical(), nil
}

func (im *impl) record(c ctx.Ctx, acts ...*activity.Activity) error {
	now := timeNow()
	for _, a := range acts {
		a.Time = now
		if err := im.activityRepo.Insert(c, a); err != nil {
			c.WithFields(log.Fields{
				"type": a.Type,
				"err":  err,
			}).Error("activityRepo.Insert failed")
			return err
		}
	}
	return nil
}

func (im *impl) GetEscrowAccount(c ctx.Ctx, address domain.Address) (*escrow.Account, error) {
	a, err := im.escrowRepo.Get(c, address.ToLower())
	if err != nil {
		c.WithFields(log.Fields{
			"address": address,
			"err":     err,
		}).Error("escrowRepo.Get failed")
		return nil, err
	}
	return a, nil
}

func (im *impl) WithdrawEscrow(c ctx.Ctx, caller domain.Address) (decimal.Decimal, error) {
	caller = caller.ToLower()
	var amount decimal.Decimal
	err := im.mutate(c, "withdrawEscrow", func(tc ctx.Ctx, _ *effects) error {
		var err error
		// balance is zeroed before funds leave custody
		if amount, err = im.escrowRepo.Drain(tc, caller); err != nil {
			return err
		}
		if err := im.bank.Send(tc, caller, amount); err != nil {
			tc.WithFields(log.Fields{
				"to":     caller,
				"amount": amount,
				"err":    err,
			}).Error("bank.Send failed")
			return err
		}
		return im.record(tc, &activity.Activity{
			Type:    activity.TypeEscrowWithdraw,
			Account: caller,
			Price:   amount,
		})
	})
	if err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

func (im *impl) GetActivities(c ctx.Ctx, address domain.Address, offset, limit int) ([]*activity.Activity, error) {
	res, err := im.activityRepo.FindByAccount(c, address.ToLower(), offset, limit)
	if err != nil {
		c.WithFields(log.Fields{
			"address": address,
			"err":     err,
		}).Error("activityRepo.FindByAccount failed")
		return nil, err
	}
	return res, nil
}

// CheckSolvency reads funds and liabilities from one snapshot
func (im *impl) CheckSolvency(c ctx.Ctx) (*marketplace.Solvency, error) {
	var res *marketplace.Solvency
	err := im.tx.RunWithTransaction(c, func(tc ctx.Ctx) error {
		var err error
		res, err = im.solvency(tc)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (im *impl) solvency(c ctx.Ctx) (*marketplace.Solvency, error) {
	held, err := im.bank.Held(c)
	if err != nil {
		c.WithField("err", err).Error("bank.Held failed")
		return nil, err
	}
	escrowTotal, err := im.escrowRepo.Total(c)
	if err != nil {
		c.WithField("err", err).Error("escrowRepo.Total failed")
		return nil, err
	}

	auctions, err := im.auctionRepo.Find(c, auction.Filter{IsActive: ptr.Bool(true)})
	if err != nil {
		c.WithField("err", err).Error("auctionRepo.Find failed")
		return nil, err
	}
	bids := decimal.Zero
	for _, a := range auctions {
		if a.HasBids() {
			bids = bids.Add(a.HighestBid)
		}
	}

	liabilities := escrowTotal.Add(bids)
	return &marketplace.Solvency{
		Held:            held,
		EscrowTotal:     escrowTotal,
		ActiveBidsTotal: bids,
		Liabilities:     liabilities,
		Solvent:         liabilities.LessThanOrEqual(held),
	}, nil
}

func (im *impl) ensureSolvent(c ctx.Ctx) error {
	s, err := im.solvency(c)
	if err != nil {
		return err
	}
	if !s.Solvent {
		c.WithFields(log.Fields{
			"held":        s.Held,
			"liabilities": s.Liabilities,
		}).Error("marketplace insolvent")
		return domain.ErrInsolvent
	}
	return nil
}
