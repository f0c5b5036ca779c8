package repository

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/base/log"
	"github.com/x-xyz/nftmarket/domain"
	"github.com/x-xyz/nftmarket/domain/asset"
	"github.com/x-xyz/nftmarket/service/query"
)

type transferRepo struct {
	query query.Mongo
}

// NewTransferRepo keeps the transfers whose outcome was unknown when their operation committed
func NewTransferRepo(q query.Mongo) asset.TransferRepo {
	return &transferRepo{q}
}

func TransferIndexes() []query.Index {
	return []query.Index{
		{Table: domain.TableAssetTransfers, Fields: []string{"id"}, Unique: true},
		{Table: domain.TableAssetTransfers, Fields: []string{"status", "createdAt"}},
		{Table: domain.TableAssetTransfers, Fields: []string{"collection", "tokenId", "status"}},
	}
}

func (im *transferRepo) Create(c ctx.Ctx, t *asset.Transfer) error {
	t.Collection = t.Collection.ToLower()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = timeNow()
	}
	t.UpdatedAt = t.CreatedAt
	if err := im.query.Insert(c, domain.TableAssetTransfers, t); err != nil {
		c.WithFields(log.Fields{
			"id":  t.Id,
			"err": err,
		}).Error("insert asset transfer failed")
		return err
	}
	return nil
}

func (im *transferRepo) Update(c ctx.Ctx, t *asset.Transfer) error {
	t.UpdatedAt = timeNow()
	update := bson.M{
		"txHash":    t.TxHash,
		"status":    t.Status,
		"attempts":  t.Attempts,
		"updatedAt": t.UpdatedAt,
	}
	if err := im.query.Patch(c, domain.TableAssetTransfers, bson.M{"id": t.Id}, update); err == query.ErrNotFound {
		return domain.ErrNotFound
	} else if err != nil {
		c.WithFields(log.Fields{
			"id":  t.Id,
			"err": err,
		}).Error("patch asset transfer failed")
		return err
	}
	return nil
}

func (im *transferRepo) FindPending(c ctx.Ctx) ([]*asset.Transfer, error) {
	res := []*asset.Transfer{}
	q := bson.M{"status": asset.TransferPending}
	if err := im.query.Search(c, domain.TableAssetTransfers, 0, 0, "createdAt", q, &res); err != nil {
		c.WithField("err", err).Error("search pending transfers failed")
		return nil, err
	}
	return res, nil
}

func (im *transferRepo) HasPending(c ctx.Ctx, collection domain.Address, tokenId domain.TokenId) (bool, error) {
	q := bson.M{"collection": collection.ToLower(), "tokenId": tokenId, "status": asset.TransferPending}
	n, err := im.query.Count(c, domain.TableAssetTransfers, q)
	if err != nil {
		c.WithFields(log.Fields{
			"collection": collection,
			"tokenId":    tokenId,
			"err":        err,
		}).Error("count pending transfers failed")
		return false, err
	}
	return n > 0, nil
}
