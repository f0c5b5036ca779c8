package goroutine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/x-xyz/nftmarket/base/ctx"
)

func TestRecoverableGo(t *testing.T) {
	res := []string{}

	evt := <-RecoverableGo(ctx.Background(), "test",
		func() {
			res = append(res, "run task")
			panic("panic")
		},
		WithAfterRecovered(func(p interface{}, stack []byte) {
			res = append(res, "after recovered")
			res = append(res, p.(string))
		}),
	)

	assert.Equal(t, []string{
		"run task",
		"after recovered",
		"panic",
	}, res)
	assert.NotNil(t, evt)
	assert.Equal(t, "panic", evt.Panic)
	assert.NotEmpty(t, evt.Stack)
}

func TestRecoverableGoReturns(t *testing.T) {
	done := false
	evt, ok := <-RecoverableGo(ctx.Background(), "test", func() { done = true })
	assert.False(t, ok)
	assert.Nil(t, evt)
	assert.True(t, done)
}
