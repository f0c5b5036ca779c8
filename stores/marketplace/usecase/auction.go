package usecase

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/base/log"
	"github.com/x-xyz/nftmarket/base/ptr"
	"github.com/x-xyz/nftmarket/domain"
	"github.com/x-xyz/nftmarket/domain/activity"
	"github.com/x-xyz/nftmarket/domain/asset"
	"github.com/x-xyz/nftmarket/domain/auction"
	"github.com/x-xyz/nftmarket/domain/marketplace"
	"github.com/x-xyz/nftmarket/domain/notifier"
)

func (im *impl) ListForAuction(c ctx.Ctx, caller domain.Address, p marketplace.AuctionParams) (*auction.Auction, error) {
	caller = caller.ToLower()
	collection := p.Collection.ToLower()
	tokenId, err := validateAsset(collection, p.TokenId)
	if err != nil {
		return nil, err
	}
	p.TokenId = tokenId
	if err := domain.ValidatePrice(p.ReservePrice, domain.ErrInvalidReserve); err != nil {
		return nil, err
	}
	if p.DurationSeconds <= 0 {
		return nil, domain.ErrInvalidDuration
	}

	var a *auction.Auction
	err = im.mutate(c, "listForAuction", func(tc ctx.Ctx, eff *effects) error {
		if err := im.checkCustodyRights(tc, caller, collection, p.TokenId); err != nil {
			return err
		}

		id, err := im.auctionRepo.NextId(tc)
		if err != nil {
			tc.WithField("err", err).Error("auctionRepo.NextId failed")
			return err
		}
		if err := im.lockRepo.Acquire(tc, collection, p.TokenId, asset.SaleKindAuction, id); err != nil {
			return err
		}

		now := timeNow()
		a = &auction.Auction{
			Id:           id,
			Collection:   collection,
			TokenId:      p.TokenId,
			Seller:       caller,
			ReservePrice: p.ReservePrice,
			StartTime:    now,
			EndTime:      now.Add(time.Duration(p.DurationSeconds) * time.Second),
			HighestBid:   decimal.Zero,
			IsActive:     true,
			Status:       auction.StatusActive,
		}
		if err := im.auctionRepo.Create(tc, a); err != nil {
			tc.WithFields(log.Fields{
				"auction": a,
				"err":     err,
			}).Error("auctionRepo.Create failed")
			return err
		}
		if err := im.record(tc, &activity.Activity{
			Type:       activity.TypeCreateAuction,
			Account:    caller,
			Collection: collection,
			TokenId:    p.TokenId,
			SaleId:     id,
			Price:      p.ReservePrice,
		}); err != nil {
			return err
		}

		eff.moveAsset(caller, im.custody, collection, p.TokenId)
		eff.notify(notifier.Event{
			Type:       notifier.EventNewAuction,
			SaleId:     id,
			Collection: collection,
			TokenId:    p.TokenId,
			Seller:     caller,
			Price:      p.ReservePrice,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (im *impl) GetNFTAuction(c ctx.Ctx, id int64) (*auction.Auction, error) {
	a, err := im.auctionRepo.Get(c, id)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (im *impl) FindAuctions(c ctx.Ctx, f auction.Filter) ([]*auction.Auction, int, error) {
	if f.Seller != nil {
		s := f.Seller.ToLower()
		f.Seller = &s
	}
	if f.Collection != nil {
		col := f.Collection.ToLower()
		f.Collection = &col
	}
	if f.TokenId != nil {
		f.TokenId = ptr.TokenId(f.TokenId.Canonical())
	}
	var (
		res   []*auction.Auction
		count int
	)
	err := im.tx.RunWithTransaction(c, func(tc ctx.Ctx) error {
		var err error
		if res, err = im.auctionRepo.Find(tc, f); err != nil {
			tc.WithField("err", err).Error("auctionRepo.Find failed")
			return err
		}
		if count, err = im.auctionRepo.Count(tc, f); err != nil {
			tc.WithField("err", err).Error("auctionRepo.Count failed")
			return err
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return res, count, nil
}

func (im *impl) GetBids(c ctx.Ctx, id int64) ([]*auction.Bid, error) {
	if _, err := im.auctionRepo.Get(c, id); err != nil {
		return nil, err
	}
	bids, err := im.auctionRepo.GetBids(c, id)
	if err != nil {
		c.WithFields(log.Fields{
			"id":  id,
			"err": err,
		}).Error("auctionRepo.GetBids failed")
		return nil, err
	}
	return bids, nil
}

func (im *impl) Bid(c ctx.Ctx, caller domain.Address, id int64, amount decimal.Decimal) (*auction.Auction, error) {
	caller = caller.ToLower()
	if !domain.IsExact(amount) {
		return nil, domain.ErrInvalidAmount
	}

	var a *auction.Auction
	err := im.mutate(c, "bid", func(tc ctx.Ctx, _ *effects) error {
		var err error
		if a, err = im.auctionRepo.Get(tc, id); err != nil {
			return err
		}
		now := timeNow()
		if !a.IsActive {
			return domain.ErrAuctionInactive
		}
		if a.Ended(now) {
			return domain.ErrAuctionExpired
		}
		if a.Seller.Equals(caller) {
			return domain.ErrSellerCannotBid
		}
		if !amount.GreaterThan(a.Floor()) {
			return domain.ErrBidTooLow
		}

		if err := im.bank.Collect(tc, caller, amount); err != nil {
			tc.WithFields(log.Fields{
				"from":   caller,
				"amount": amount,
				"err":    err,
			}).Error("bank.Collect failed")
			return err
		}

		// the outbid leader pulls the refund from escrow later
		if a.HasBids() {
			if _, err := im.escrowRepo.Credit(tc, a.HighestBidder, a.HighestBid); err != nil {
				tc.WithFields(log.Fields{
					"bidder": a.HighestBidder,
					"err":    err,
				}).Error("escrowRepo.Credit failed")
				return err
			}
			if err := im.record(tc, &activity.Activity{
				Type:         activity.TypeBidRefunded,
				Account:      a.HighestBidder,
				Collection:   a.Collection,
				TokenId:      a.TokenId,
				SaleId:       a.Id,
				Price:        a.HighestBid,
				Counterparty: caller,
			}); err != nil {
				return err
			}
		}

		a.HighestBidder = caller
		a.HighestBid = amount
		a.BidCount++
		if err := im.auctionRepo.Update(tc, a); err != nil {
			tc.WithFields(log.Fields{
				"id":  a.Id,
				"err": err,
			}).Error("auctionRepo.Update failed")
			return err
		}
		if err := im.auctionRepo.AddBid(tc, &auction.Bid{
			AuctionId: a.Id,
			Seq:       a.BidCount,
			Bidder:    caller,
			Amount:    amount,
			Time:      now,
		}); err != nil {
			tc.WithFields(log.Fields{
				"id":  a.Id,
				"err": err,
			}).Error("auctionRepo.AddBid failed")
			return err
		}
		return im.record(tc, &activity.Activity{
			Type:       activity.TypePlaceBid,
			Account:    caller,
			Collection: a.Collection,
			TokenId:    a.TokenId,
			SaleId:     a.Id,
			Price:      amount,
		})
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// authorizeWithdraw decides who may close an auction and when
func (im *impl) authorizeWithdraw(caller domain.Address, a *auction.Auction, now time.Time) error {
	if im.IsPrivileged(caller) {
		return nil
	}
	if !a.Seller.Equals(caller) {
		return domain.ErrNotSellerOrPrivileged
	}
	if a.HasBids() && !a.Ended(now) {
		return domain.ErrAuctionNotEnded
	}
	return nil
}

func (im *impl) WithdrawAuctionNFT(c ctx.Ctx, caller domain.Address, id int64) (*auction.Auction, error) {
	caller = caller.ToLower()

	var a *auction.Auction
	err := im.mutate(c, "withdrawAuctionNFT", func(tc ctx.Ctx, eff *effects) error {
		var err error
		if a, err = im.auctionRepo.Get(tc, id); err != nil {
			return err
		}
		if !a.IsActive {
			return domain.ErrAuctionInactive
		}
		now := timeNow()
		if err := im.authorizeWithdraw(caller, a, now); err != nil {
			return err
		}

		a.IsActive = false
		a.ClosedAt = &now
		if a.HasBids() {
			a.Status = auction.StatusSettled
		} else {
			a.Status = auction.StatusWithdrawn
		}
		if err := im.auctionRepo.Update(tc, a); err != nil {
			tc.WithFields(log.Fields{
				"id":  a.Id,
				"err": err,
			}).Error("auctionRepo.Update failed")
			return err
		}
		if err := im.lockRepo.Release(tc, a.Collection, a.TokenId); err != nil {
			tc.WithFields(log.Fields{
				"id":  a.Id,
				"err": err,
			}).Error("lockRepo.Release failed")
			return err
		}

		if !a.HasBids() {
			if err := im.record(tc, &activity.Activity{
				Type:       activity.TypeWithdrawAuction,
				Account:    a.Seller,
				Collection: a.Collection,
				TokenId:    a.TokenId,
				SaleId:     a.Id,
				Price:      decimal.Zero,
			}); err != nil {
				return err
			}
			eff.moveAsset(im.custody, a.Seller, a.Collection, a.TokenId)
			return nil
		}

		if _, err := im.escrowRepo.Credit(tc, a.Seller, a.HighestBid); err != nil {
			tc.WithFields(log.Fields{
				"seller": a.Seller,
				"err":    err,
			}).Error("escrowRepo.Credit failed")
			return err
		}
		if err := im.record(tc, &activity.Activity{
			Type:         activity.TypeResultAuction,
			Account:      a.Seller,
			Collection:   a.Collection,
			TokenId:      a.TokenId,
			SaleId:       a.Id,
			Price:        a.HighestBid,
			Counterparty: a.HighestBidder,
		}, &activity.Activity{
			Type:         activity.TypeWonAuction,
			Account:      a.HighestBidder,
			Collection:   a.Collection,
			TokenId:      a.TokenId,
			SaleId:       a.Id,
			Price:        a.HighestBid,
			Counterparty: a.Seller,
		}); err != nil {
			return err
		}

		eff.moveAsset(im.custody, a.HighestBidder, a.Collection, a.TokenId)
		eff.notify(notifier.Event{
			Type:       notifier.EventAuctionSettled,
			SaleId:     a.Id,
			Collection: a.Collection,
			TokenId:    a.TokenId,
			Seller:     a.Seller,
			Buyer:      a.HighestBidder,
			Price:      a.HighestBid,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}
