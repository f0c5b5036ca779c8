package lock

import (
	"sync"

	"github.com/x-xyz/nftmarket/base/ctx"
)

type localImpl struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewLocal returns a Locker for a single process
func NewLocal() Locker {
	return &localImpl{slots: make(map[string]chan struct{})}
}

func (im *localImpl) slot(key string) chan struct{} {
	im.mu.Lock()
	defer im.mu.Unlock()
	s, ok := im.slots[key]
	if !ok {
		s = make(chan struct{}, 1)
		im.slots[key] = s
	}
	return s
}

func (im *localImpl) Lock(c ctx.Ctx, key string) (Unlock, error) {
	s := im.slot(key)
	select {
	case s <- struct{}{}:
	case <-c.Done():
		return nil, c.Err()
	}
	var once sync.Once
	return func() {
		once.Do(func() { <-s })
	}, nil
}
