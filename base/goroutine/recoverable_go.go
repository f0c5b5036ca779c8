package goroutine

import (
	"runtime/debug"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/base/log"
)

type PanicEvent struct {
	Panic interface{}
	Stack []byte
}

type options struct {
	afterRecovered func(panic interface{}, stack []byte)
}

type Option func(*options)

func WithAfterRecovered(f func(panic interface{}, stack []byte)) Option {
	return func(o *options) {
		o.afterRecovered = f
	}
}

// Recover runs f and turns a panic into a logged PanicEvent, nil if f returned normally
func Recover(c ctx.Ctx, name string, f func(), opts ...Option) (evt *PanicEvent) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	defer func() {
		if p := recover(); p != nil {
			stack := debug.Stack()
			c.WithFields(log.Fields{
				"err":       p,
				"goroutine": name,
				"stack":     string(stack),
			}).Error("panic")

			if o.afterRecovered != nil {
				o.afterRecovered(p, stack)
			}
			evt = &PanicEvent{p, stack}
		}
	}()

	f()
	return nil
}

// RecoverableGo runs f in a new goroutine. The returned channel receives the
// PanicEvent if f panics, or is closed when f returns.
func RecoverableGo(c ctx.Ctx, name string, f func(), opts ...Option) <-chan *PanicEvent {
	panicChan := make(chan *PanicEvent, 1)
	go func() {
		if evt := Recover(c, name, f, opts...); evt != nil {
			panicChan <- evt
			return
		}
		close(panicChan)
	}()
	return panicChan
}
