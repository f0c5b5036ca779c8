package repository

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/base/log"
	"github.com/x-xyz/nftmarket/domain"
	"github.com/x-xyz/nftmarket/domain/activity"
	"github.com/x-xyz/nftmarket/service/query"
)

type sequence struct {
	Name  string `bson:"name"`
	Value int64  `bson:"value"`
}

type impl struct {
	query query.Mongo
}

func New(q query.Mongo) activity.Repo {
	return &impl{q}
}

func Indexes() []query.Index {
	return []query.Index{
		{Table: domain.TableActivities, Fields: []string{"seq"}, Unique: true},
		{Table: domain.TableActivities, Fields: []string{"account", "-seq"}},
	}
}

func (im *impl) Insert(c ctx.Ctx, a *activity.Activity) error {
	seq := &sequence{}
	if err := im.query.Increment(c, domain.TableSequences, bson.M{"name": string(domain.TableActivities)}, seq, "value", int64(1)); err != nil {
		c.WithField("err", err).Error("query.Increment failed")
		return err
	}
	a.Seq = seq.Value
	a.Account = a.Account.ToLower()
	if err := im.query.Insert(c, domain.TableActivities, a); err != nil {
		c.WithFields(log.Fields{
			"activity": a,
			"err":      err,
		}).Error("insert activity failed")
		return err
	}
	return nil
}

func (im *impl) FindByAccount(c ctx.Ctx, account domain.Address, offset, limit int) ([]*activity.Activity, error) {
	res := []*activity.Activity{}
	q := bson.M{"account": account.ToLower()}
	if err := im.query.Search(c, domain.TableActivities, offset, limit, "-seq", q, &res); err != nil {
		c.WithFields(log.Fields{
			"query": q,
			"err":   err,
		}).Error("failed to q.Search")
		return nil, err
	}
	return res, nil
}
