package repository

import (
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/base/log"
	"github.com/x-xyz/nftmarket/domain"
	"github.com/x-xyz/nftmarket/domain/keys"
	"github.com/x-xyz/nftmarket/domain/listing"
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

// New creates the listing repo, closed listings never change so they are cached
func New(q query.Mongo, redis redis.Service) listing.Repo {
	cacheProviders := []provider.Provider{
		primitive.NewPrimitive(keys.PfxListing, 32),
	}

	if redis != nil {
		cacheProviders = append(cacheProviders, redisCache.NewRedis(redis))
	}

	return &impl{
		query: q,
		closedCache: cache.New(cache.ServiceConfig{
			Ttl:   24 * time.Hour,
			Pfx:   keys.PfxListing,
			Cache: compound.NewCompound(cacheProviders),
		}),
	}
}

func Indexes() []query.Index {
	return []query.Index{
		{Table: domain.TableListings, Fields: []string{"id"}, Unique: true},
		{Table: domain.TableListings, Fields: []string{"seller", "isActive"}},
		{Table: domain.TableListings, Fields: []string{"collection", "tokenId"}},
	}
}

func (im *impl) NextId(c ctx.Ctx) (int64, error) {
	seq := &sequence{}
	if err := im.query.Increment(c, domain.TableSequences, bson.M{"name": string(domain.TableListings)}, seq, "value", int64(1)); err != nil {
		c.WithField("err", err).Error("query.Increment failed")
		return 0, err
	}
	return seq.Value, nil
}

func (im *impl) Create(c ctx.Ctx, l *listing.Listing) error {
	if err := im.query.Insert(c, domain.TableListings, l); err != nil {
		c.WithFields(log.Fields{
			"id":  l.Id,
			"err": err,
		}).Error("insert listing failed")
		return err
	}
	return nil
}

func (im *impl) Get(c ctx.Ctx, id int64) (*listing.Listing, error) {
	// reads inside a transaction must see staged writes
	if im.query.InTransaction(c) {
		return im.get(c, id)
	}

	res := &listing.Listing{}
	if err := im.closedCache.Get(c, toKey(id), res); err == nil {
		return res, nil
	} else if err != cache.ErrNotFound {
		c.WithField("err", err).Warn("closedCache.Get failed")
	}

	l, err := im.get(c, id)
	if err != nil {
		return nil, err
	}
	if !l.IsActive {
		if err := im.closedCache.Set(c, toKey(id), l); err != nil {
			c.WithField("err", err).Warn("closedCache.Set failed")
		}
	}
	return l, nil
}

func (im *impl) get(c ctx.Ctx, id int64) (*listing.Listing, error) {
	l := &listing.Listing{}
	if err := im.query.FindOne(c, domain.TableListings, bson.M{"id": id}, l); err == query.ErrNotFound {
		return nil, domain.ErrListingNotFound
	} else if err != nil {
		c.WithFields(log.Fields{
			"id":  id,
			"err": err,
		}).Error("find listing failed")
		return nil, err
	}
	return l, nil
}

func (im *impl) Update(c ctx.Ctx, l *listing.Listing) error {
	if err := im.query.Upsert(c, domain.TableListings, bson.M{"id": l.Id}, l); err != nil {
		c.WithFields(log.Fields{
			"id":  l.Id,
			"err": err,
		}).Error("update listing failed")
		return err
	}
	return nil
}

func makeQuery(f listing.Filter) bson.M {
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

func (im *impl) Find(c ctx.Ctx, f listing.Filter) ([]*listing.Listing, error) {
	res := []*listing.Listing{}
	q := makeQuery(f)
	if err := im.query.Search(c, domain.TableListings, f.Offset, f.Limit, "-id", q, &res); err != nil {
		c.WithFields(log.Fields{
			"query": q,
			"err":   err,
		}).Error("failed to q.Search")
		return nil, err
	}
	return res, nil
}

func (im *impl) Count(c ctx.Ctx, f listing.Filter) (int, error) {
	q := makeQuery(f)
	n, err := im.query.Count(c, domain.TableListings, q)
	if err != nil {
		c.WithFields(log.Fields{
			"query": q,
			"err":   err,
		}).Error("failed to q.Count")
		return 0, err
	}
	return n, nil
}

func toKey(id int64) string {
	return strconv.FormatInt(id, 10)
}
