package repository

import (
	"time"

	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/base/database/mongoclient"
	hcdomain "github.com/x-xyz/nftmarket/domain/healthcheck"
	"github.com/x-xyz/nftmarket/domain/keys"
	"github.com/x-xyz/nftmarket/service/redis"
)

const pingTimeout = 2 * time.Second

type impl struct {
	mgoClient  *mongoclient.Client
	redisCache redis.Service
}

// New returns a HealthCheckRepo pinging the given backends. Either may be nil
// when the api runs on the in-memory store or without redis.
func New(mgoClient *mongoclient.Client, redisCache redis.Service) hcdomain.HealthCheckRepo {
	return &impl{
		mgoClient:  mgoClient,
		redisCache: redisCache,
	}
}

func (im *impl) Ping(context ctx.Ctx) map[string]error {
	c, cancel := ctx.WithTimeout(context, pingTimeout)
	defer cancel()

	res := map[string]error{}
	if im.mgoClient != nil {
		err := im.mgoClient.Ping(c, readpref.Primary())
		if err != nil {
			context.WithField("err", err).Error("ping mongo error")
		}
		res["mongo"] = err
	}

	if im.redisCache != nil {
		err := im.redisCache.Set(c, keys.RedisKey(keys.PfxHealthCheck, "testset"), []byte("1"), 30*time.Second)
		if err != nil {
			context.WithField("err", err).Error("test redis set failed")
		}
		res["redis"] = err
	}
	return res
}
