package provider

import (
	"errors"
	"time"

	"github.com/x-xyz/nftmarket/base/ctx"
)

var (
	ErrNotFound = errors.New("cache not found")
)

// Provider is a raw byte cache with per key ttl
type Provider interface {
	// Get returns the value and its remaining ttl
	Get(c ctx.Ctx, key string) ([]byte, time.Duration, error)
	Set(c ctx.Ctx, key string, value []byte, ttl time.Duration) error
	Del(c ctx.Ctx, key string) error
}
