package cache

import (
	"errors"
	"time"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/service/cache/provider"
)

var (
	ErrNotFound = errors.New("cache not found")
)

// Loader returns the value to fill a missing key with, the value must be a pointer
type Loader func() (interface{}, error)

type Serializer func(interface{}) ([]byte, error)

type Deserializer func([]byte, interface{}) error

// Service stores serialized values under a prefix on top of a provider
type Service interface {
	// GetOrLoad reads key into container, calling load and caching its result on a miss
	GetOrLoad(c ctx.Ctx, key string, container interface{}, load Loader) error
	Get(c ctx.Ctx, key string, container interface{}) error
	Set(c ctx.Ctx, key string, value interface{}) error
	Del(c ctx.Ctx, key string) error
}

type ServiceConfig struct {
	Ttl   time.Duration
	Pfx   string
	Cache provider.Provider
	// Serialize and Deserialize default to json
	Serialize   Serializer
	Deserialize Deserializer
}
