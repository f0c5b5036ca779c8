package repository

import (
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/base/log"
	"github.com/x-xyz/nftmarket/domain"
	"github.com/x-xyz/nftmarket/domain/auction"
	"github.com/x-xyz/nftmarket/domain/keys"
	"github.com/x-xyz/nftmarket/service/cache"
	"github.com/x-xyz/nftmarket/service/cache/provider"
	"github.com/x-xyz/nftmarket/service/cache/provider/compound"
	"github.com/x-xyz/nftmarket/service/cache/provider/primitive"
	redisCache "github.com/x-xyz/nftmarket/service/cache/provider/redis"
	"github.com/x-xyz/nftmarket/service/query"
	"github.com/x-xyz/nftmarket/service/redis"
)

type sequence struct {
	Name  string `bson:"name"`
	Value int64  `bson:"value"`
}

type impl struct {
	query       query.Mongo
	closedCache cache.Service
}

// New creates the auction repo, settled and withdrawn auctions are cached
func New(q query.Mongo, redis redis.Service) auction.Repo {
	cacheProviders := []provider.Provider{
		primitive.NewPrimitive(keys.PfxAuction, 32),
	}

	if redis != nil {
		cacheProviders = append(cacheProviders, redisCache.NewRedis(redis))
	}

	return &impl{
		query: q,
		closedCache: cache.New(cache.ServiceConfig{
			Ttl:   24 * time.Hour,
			Pfx:   keys.PfxAuction,
			Cache: compound.NewCompound(cacheProviders),
		}),
	}
}

func Indexes() []query.Index {
	return []query.Index{
		{Table: domain.TableAuctions, Fields: []string{"id"}, Unique: true},
		{Table: domain.TableAuctions, Fields: []string{"seller", "isActive"}},
		{Table: domain.TableAuctions, Fields: []string{"collection", "tokenId"}},
		{Table: domain.TableAuctionBids, Fields: []string{"auctionId", "seq"}, Unique: true},
	}
}

func (im *impl) NextId(c ctx.Ctx) (int64, error) {
	seq := &sequence{}
	if err := im.query.Increment(c, domain.TableSequences, bson.M{"name": string(domain.TableAuctions)}, seq, "value", int64(1)); err != nil {
		c.WithField("err", err).Error("query.Increment failed")
		return 0, err
	}
	return seq.Value, nil
}

func (im *impl) Create(c ctx.Ctx, a *auction.Auction) error {
	if err := im.query.Insert(c, domain.TableAuctions, a); err != nil {
		c.WithFields(log.Fields{
			"id":  a.Id,
			"err": err,
		}).Error("insert auction failed")
		return err
	}
	return nil
}

func (im *impl) Get(c ctx.Ctx, id int64) (*auction.Auction, error) {
	if im.query.InTransaction(c) {
		return im.get(c, id)
	}

	key := strconv.FormatInt(id, 10)
	res := &auction.Auction{}
	if err := im.closedCache.Get(c, key, res); err == nil {
		return res, nil
	} else if err != cache.ErrNotFound {
		c.WithField("err", err).Warn("closedCache.Get failed")
	}

	a, err := im.get(c, id)
	if err != nil {
		return nil, err
	}
	if !a.IsActive {
		if err := im.closedCache.Set(c, key, a); err != nil {
			c.WithField("err", err).Warn("closedCache.Set failed")
		}
	}
	return a, nil
}

func (im *impl) get(c ctx.Ctx, id int64) (*auction.Auction, error) {
	a := &auction.Auction{}
	if err := im.query.FindOne(c, domain.TableAuctions, bson.M{"id": id}, a); err == query.ErrNotFound {
		return nil, domain.ErrAuctionNotFound
	} else if err != nil {
		c.WithFields(log.Fields{
			"id":  id,
			"err": err,
		}).Error("find auction failed")
		return nil, err
	}
	return a, nil
}

func (im *impl) Update(c ctx.Ctx, a *auction.Auction) error {
	if err := im.query.Upsert(c, domain.TableAuctions, bson.M{"id": a.Id}, a); err != nil {
		c.WithFields(log.Fields{
			"id":  a.Id,
			"err": err,
		}).Error("update auction failed")
		return err
	}
	return nil
}

func makeQuery(f auction.Filter) bson.M {
	q := bson.M{}
	if f.Seller != nil {
		q["seller"] = f.Seller.ToLower()
	}
	if f.Collection != nil {
		q["collection"] = f.Collection.ToLower()
	}
	if f.TokenId != nil {
		q["tokenId"] = *f.TokenId
	}
	if f.IsActive != nil {
		q["isActive"] = *f.IsActive
	}
	return q
}

func (im *impl) Find(c ctx.Ctx, f auction.Filter) ([]*auction.Auction, error) {
	res := []*auction.Auction{}
	q := makeQuery(f)
	if err := im.query.Search(c, domain.TableAuctions, f.Offset, f.Limit, "-id", q, &res); err != nil {
		c.WithFields(log.Fields{
			"query": q,
			"err":   err,
		}).Error("failed to q.Search")
		return nil, err
	}
	return res, nil
}

func (im *impl) Count(c ctx.Ctx, f auction.Filter) (int, error) {
	q := makeQuery(f)
	n, err := im.query.Count(c, domain.TableAuctions, q)
	if err != nil {
		c.WithFields(log.Fields{
			"query": q,
			"err":   err,
		}).Error("failed to q.Count")
		return 0, err
	}
	return n, nil
}

func (im *impl) AddBid(c ctx.Ctx, bid *auction.Bid) error {
	if err := im.query.Insert(c, domain.TableAuctionBids, bid); err != nil {
		c.WithFields(log.Fields{
			"auctionId": bid.AuctionId,
			"seq":       bid.Seq,
			"err":       err,
		}).Error("insert bid failed")
		return err
	}
	return nil
}

func (im *impl) GetBids(c ctx.Ctx, auctionId int64) ([]*auction.Bid, error) {
	res := []*auction.Bid{}
	if err := im.query.Search(c, domain.TableAuctionBids, 0, 0, "seq", bson.M{"auctionId": auctionId}, &res); err != nil {
		c.WithFields(log.Fields{
			"auctionId": auctionId,
			"err":       err,
		}).Error("failed to q.Search")
		return nil, err
	}
	return res, nil
}
