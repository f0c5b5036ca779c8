package usecase

import (
	"github.com/shopspring/decimal"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/base/log"
	"github.com/x-xyz/nftmarket/base/ptr"
	"github.com/x-xyz/nftmarket/domain"
	"github.com/x-xyz/nftmarket/domain/activity"
	"github.com/x-xyz/nftmarket/domain/asset"
	"github.com/x-xyz/nftmarket/domain/listing"
	"github.com/x-xyz/nftmarket/domain/marketplace"
	"github.com/x-xyz/nftmarket/domain/notifier"
)

func (im *impl) ListNFTForSale(c ctx.Ctx, caller domain.Address, p marketplace.ListParams) (*listing.Listing, error) {
	caller = caller.ToLower()
	collection := p.Collection.ToLower()
	tokenId, err := validateAsset(collection, p.TokenId)
	if err != nil {
		return nil, err
	}
	p.TokenId = tokenId
	if err := domain.ValidatePrice(p.Price, domain.ErrInvalidPrice); err != nil {
		return nil, err
	}

	var l *listing.Listing
	err = im.mutate(c, "listNFTForSale", func(tc ctx.Ctx, eff *effects) error {
		if err := im.checkCustodyRights(tc, caller, collection, p.TokenId); err != nil {
			return err
		}

		id, err := im.listingRepo.NextId(tc)
		if err != nil {
			tc.WithField("err", err).Error("listingRepo.NextId failed")
			return err
		}
		if err := im.lockRepo.Acquire(tc, collection, p.TokenId, asset.SaleKindListing, id); err != nil {
			return err
		}

		l = &listing.Listing{
			Id:         id,
			Collection: collection,
			TokenId:    p.TokenId,
			Seller:     caller,
			Price:      p.Price,
			IsActive:   true,
			Status:     listing.StatusActive,
			CreatedAt:  timeNow(),
		}
		if err := im.listingRepo.Create(tc, l); err != nil {
			tc.WithFields(log.Fields{
				"listing": l,
				"err":     err,
			}).Error("listingRepo.Create failed")
			return err
		}
		if err := im.record(tc, &activity.Activity{
			Type:       activity.TypeList,
			Account:    caller,
			Collection: collection,
			TokenId:    p.TokenId,
			SaleId:     id,
			Price:      p.Price,
		}); err != nil {
			return err
		}

		eff.moveAsset(caller, im.custody, collection, p.TokenId)
		eff.notify(notifier.Event{
			Type:       notifier.EventNewListing,
			SaleId:     id,
			Collection: collection,
			TokenId:    p.TokenId,
			Seller:     caller,
			Price:      p.Price,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (im *impl) GetNFTListing(c ctx.Ctx, id int64) (*listing.Listing, error) {
	l, err := im.listingRepo.Get(c, id)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func normalizeListingFilter(f listing.Filter) listing.Filter {
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
	return f
}

func (im *impl) FindListings(c ctx.Ctx, f listing.Filter) ([]*listing.Listing, int, error) {
	f = normalizeListingFilter(f)
	var (
		res   []*listing.Listing
		count int
	)
	// items and count come from the same snapshot
	err := im.tx.RunWithTransaction(c, func(tc ctx.Ctx) error {
		var err error
		if res, err = im.listingRepo.Find(tc, f); err != nil {
			tc.WithField("err", err).Error("listingRepo.Find failed")
			return err
		}
		if count, err = im.listingRepo.Count(tc, f); err != nil {
			tc.WithField("err", err).Error("listingRepo.Count failed")
			return err
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return res, count, nil
}

func (im *impl) BuyNFT(c ctx.Ctx, caller domain.Address, id int64, paid decimal.Decimal) (*listing.Listing, error) {
	caller = caller.ToLower()
	if !domain.IsExact(paid) {
		return nil, domain.ErrInvalidAmount
	}

	var l *listing.Listing
	err := im.mutate(c, "buyNFT", func(tc ctx.Ctx, eff *effects) error {
		var err error
		if l, err = im.listingRepo.Get(tc, id); err != nil {
			return err
		}
		if !l.IsActive {
			return domain.ErrListingInactive
		}
		if l.Seller.Equals(caller) {
			return domain.ErrSellerCannotBuy
		}
		if paid.LessThan(l.Price) {
			return domain.ErrInsufficientPayment
		}
		if paid.GreaterThan(l.Price) {
			return domain.ErrExcessPayment
		}

		if err := im.closeListing(tc, l, listing.StatusSold, caller); err != nil {
			return err
		}
		if err := im.bank.Collect(tc, caller, l.Price); err != nil {
			tc.WithFields(log.Fields{
				"from":   caller,
				"amount": l.Price,
				"err":    err,
			}).Error("bank.Collect failed")
			return err
		}
		if _, err := im.escrowRepo.Credit(tc, l.Seller, l.Price); err != nil {
			tc.WithFields(log.Fields{
				"seller": l.Seller,
				"err":    err,
			}).Error("escrowRepo.Credit failed")
			return err
		}
		if err := im.record(tc, &activity.Activity{
			Type:         activity.TypeBuy,
			Account:      caller,
			Collection:   l.Collection,
			TokenId:      l.TokenId,
			SaleId:       l.Id,
			Price:        l.Price,
			Counterparty: l.Seller,
		}, &activity.Activity{
			Type:         activity.TypeSold,
			Account:      l.Seller,
			Collection:   l.Collection,
			TokenId:      l.TokenId,
			SaleId:       l.Id,
			Price:        l.Price,
			Counterparty: caller,
		}); err != nil {
			return err
		}

		eff.moveAsset(im.custody, caller, l.Collection, l.TokenId)
		eff.notify(notifier.Event{
			Type:       notifier.EventItemSold,
			SaleId:     l.Id,
			Collection: l.Collection,
			TokenId:    l.TokenId,
			Seller:     l.Seller,
			Buyer:      caller,
			Price:      l.Price,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (im *impl) CancelListing(c ctx.Ctx, caller domain.Address, id int64) (*listing.Listing, error) {
	caller = caller.ToLower()

	var l *listing.Listing
	err := im.mutate(c, "cancelListing", func(tc ctx.Ctx, eff *effects) error {
		var err error
		if l, err = im.listingRepo.Get(tc, id); err != nil {
			return err
		}
		if !l.IsActive {
			return domain.ErrListingInactive
		}
		if !l.Seller.Equals(caller) && !im.IsPrivileged(caller) {
			return domain.ErrNotSellerOrPrivileged
		}

		if err := im.closeListing(tc, l, listing.StatusCancelled, ""); err != nil {
			return err
		}
		if err := im.record(tc, &activity.Activity{
			Type:       activity.TypeCancelListing,
			Account:    l.Seller,
			Collection: l.Collection,
			TokenId:    l.TokenId,
			SaleId:     l.Id,
			Price:      l.Price,
		}); err != nil {
			return err
		}

		eff.moveAsset(im.custody, l.Seller, l.Collection, l.TokenId)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (im *impl) closeListing(c ctx.Ctx, l *listing.Listing, status listing.Status, buyer domain.Address) error {
	now := timeNow()
	l.IsActive = false
	l.Status = status
	l.Buyer = buyer
	l.ClosedAt = &now
	if err := im.listingRepo.Update(c, l); err != nil {
		c.WithFields(log.Fields{
			"id":  l.Id,
			"err": err,
		}).Error("listingRepo.Update failed")
		return err
	}
	if err := im.lockRepo.Release(c, l.Collection, l.TokenId); err != nil {
		c.WithFields(log.Fields{
			"id":  l.Id,
			"err": err,
		}).Error("lockRepo.Release failed")
		return err
	}
	return nil
}
