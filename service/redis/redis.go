package redis

import (
	"errors"
	"time"

	"github.com/x-xyz/nftmarket/base/ctx"
)

const (
	// Forever means the key never expires
	Forever = time.Duration(-1)
)

var (
	// ErrNotFound is returned if the key does not exist
	ErrNotFound = errors.New("redis key not found")
	// ErrNoTTL is returned by TTL if the key exists without an expire
	ErrNoTTL = errors.New("redis key has no ttl")
	// ErrNotSet is returned by SetNX if the key already exists
	ErrNotSet = errors.New("redis key already exists")
)

// Service is the subset of redis commands the marketplace relies on
type Service interface {
	Get(context ctx.Ctx, key string) ([]byte, error)
	Set(context ctx.Ctx, key string, val []byte, expire time.Duration) error
	// SetNX sets the key only if it does not exist, ErrNotSet otherwise
	SetNX(context ctx.Ctx, key string, val []byte, expire time.Duration) error
	Del(context ctx.Ctx, ks ...string) (int, error)
	Exists(context ctx.Ctx, key string) (bool, error)
	Incrby(context ctx.Ctx, key string, val int) (int64, error)
	// TTL returns the remaining seconds of the key
	TTL(context ctx.Ctx, key string) (int, error)
	// CompareAndDel deletes the key only if its value equals val
	CompareAndDel(context ctx.Ctx, key string, val []byte) (bool, error)
	Ping(context ctx.Ctx) error
}
