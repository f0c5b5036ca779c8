package lock

import (
	"github.com/x-xyz/nftmarket/base/ctx"
)

// Unlock releases a lock acquired by Locker.Lock, calling it more than once is a no-op
type Unlock func()

// Locker serializes critical sections sharing the same key
type Locker interface {
	// Lock blocks until the key is acquired or c is done
	Lock(c ctx.Ctx, key string) (Unlock, error)
}
