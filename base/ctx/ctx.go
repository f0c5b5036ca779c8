package ctx

import (
	"context"
	"time"

	log "github.com/x-xyz/nftmarket/base/log"
)

type Ctx struct {
	context.Context
	log.Logger
}

type operationKey struct{}

func Background() Ctx {
	return Ctx{
		Context: context.Background(),
		Logger:  log.Log(),
	}
}

func Todo() Ctx {
	return Ctx{
		Context: context.TODO(),
		Logger:  log.Log(),
	}
}

// From wraps a plain context with the logger of parent
func From(parent Ctx, c context.Context) Ctx {
	return Ctx{
		Context: c,
		Logger:  parent.Logger,
	}
}

func WithValue(parent Ctx, key string, val interface{}) Ctx {
	return Ctx{
		Context: context.WithValue(parent, key, val),
		Logger:  parent.Logger.WithField(key, val),
	}
}

func WithValues(parent Ctx, kvs map[string]interface{}) Ctx {
	c := parent
	for k, v := range kvs {
		c = WithValue(c, k, v)
	}
	return c
}

func WithCancel(parent Ctx) (Ctx, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	return Ctx{
		Context: ctx,
		Logger:  parent.Logger,
	}, cancel
}

func WithTimeout(parent Ctx, timeout time.Duration) (Ctx, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return Ctx{
		Context: ctx,
		Logger:  parent.Logger,
	}, cancel
}

// WithOperation marks the context as running inside a state-mutating operation
func WithOperation(parent Ctx, op string) Ctx {
	return Ctx{
		Context: context.WithValue(parent, operationKey{}, op),
		Logger:  parent.Logger.WithField("op", op),
	}
}

// Operation returns the running operation, or empty string if none
func Operation(c context.Context) string {
	op, _ := c.Value(operationKey{}).(string)
	return op
}
