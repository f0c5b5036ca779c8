package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/x-xyz/nftmarket/base/backoff"
	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/base/log"
	"github.com/x-xyz/nftmarket/domain/keys"
	"github.com/x-xyz/nftmarket/service/redis"
)

const (
	defaultTTL      = 30 * time.Second
	backoffStart    = 10 * time.Millisecond
	backoffLimit    = 500 * time.Millisecond
	releaseDeadline = 5 * time.Second
)

type redisImpl struct {
	redis redis.Service
	ttl   time.Duration
}

// NewRedis returns a Locker shared by every replica connected to the same redis.
// A holder that dies keeps the key until ttl expires, ttl <= 0 uses 30 seconds.
func NewRedis(r redis.Service, ttl time.Duration) Locker {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &redisImpl{redis: r, ttl: ttl}
}

func (im *redisImpl) Lock(c ctx.Ctx, key string) (Unlock, error) {
	k := keys.RedisKey(keys.PfxLock, key)
	token := []byte(uuid.NewString())

	b := backoff.NewExponential(backoffStart, backoffLimit)
	err := backoff.Retry(c, b, 0, func() (bool, error) {
		err := im.redis.SetNX(c, k, token, im.ttl)
		if err == redis.ErrNotSet {
			return true, err
		}
		return false, err
	})
	if err == redis.ErrNotSet && c.Err() != nil {
		return nil, c.Err()
	} else if err != nil {
		c.WithFields(log.Fields{
			"key": k,
			"err": err,
		}).Error("redis.SetNX failed")
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// release even if the caller's context is already cancelled
			rc, cancel := ctx.WithTimeout(ctx.From(c, context.Background()), releaseDeadline)
			defer cancel()
			if _, err := im.redis.CompareAndDel(rc, k, token); err != nil {
				c.WithFields(log.Fields{
					"key": k,
					"err": err,
				}).Error("redis.CompareAndDel failed")
			}
		})
	}, nil
}
