package repository

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/base/log"
	"github.com/x-xyz/nftmarket/domain"
	"github.com/x-xyz/nftmarket/domain/asset"
	"github.com/x-xyz/nftmarket/service/query"
)

var timeNow = time.Now

type lockRepo struct {
	query query.Mongo
}

// NewLockRepo keeps one document per asset recording the sale holding it
func NewLockRepo(q query.Mongo) asset.LockRepo {
	return &lockRepo{q}
}

func Indexes() []query.Index {
	return []query.Index{
		{Table: domain.TableAssetLocks, Fields: []string{"collection", "tokenId"}, Unique: true},
	}
}

func selector(collection domain.Address, tokenId domain.TokenId) bson.M {
	return bson.M{"collection": collection.ToLower(), "tokenId": tokenId}
}

func (im *lockRepo) Get(c ctx.Ctx, collection domain.Address, tokenId domain.TokenId) (*asset.Lock, error) {
	l := &asset.Lock{}
	if err := im.query.FindOne(c, domain.TableAssetLocks, selector(collection, tokenId), l); err == query.ErrNotFound {
		return nil, domain.ErrNotFound
	} else if err != nil {
		c.WithFields(log.Fields{
			"collection": collection,
			"tokenId":    tokenId,
			"err":        err,
		}).Error("find asset lock failed")
		return nil, err
	}
	return l, nil
}

func (im *lockRepo) Acquire(c ctx.Ctx, collection domain.Address, tokenId domain.TokenId, kind asset.SaleKind, saleId int64) error {
	cur, err := im.Get(c, collection, tokenId)
	if err != nil && err != domain.ErrNotFound {
		return err
	} else if err == nil && cur.IsActive {
		return domain.ErrAssetAlreadyListed
	}

	l := &asset.Lock{
		Collection: collection.ToLower(),
		TokenId:    tokenId,
		Kind:       kind,
		SaleId:     saleId,
		IsActive:   true,
		UpdatedAt:  timeNow(),
	}
	if err := im.query.Upsert(c, domain.TableAssetLocks, selector(collection, tokenId), l); err != nil {
		c.WithFields(log.Fields{
			"collection": collection,
			"tokenId":    tokenId,
			"err":        err,
		}).Error("upsert asset lock failed")
		return err
	}
	return nil
}

func (im *lockRepo) Release(c ctx.Ctx, collection domain.Address, tokenId domain.TokenId) error {
	update := bson.M{"isActive": false, "updatedAt": timeNow()}
	if err := im.query.Patch(c, domain.TableAssetLocks, selector(collection, tokenId), update); err == query.ErrNotFound {
		return domain.ErrNotFound
	} else if err != nil {
		c.WithFields(log.Fields{
			"collection": collection,
			"tokenId":    tokenId,
			"err":        err,
		}).Error("patch asset lock failed")
		return err
	}
	return nil
}
