package primitive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/service/cache/provider"
)

var (
	mockCtx = ctx.Background()
)

type testsuite struct {
	suite.Suite
	im *impl
}

func (ts *testsuite) SetupTest() {
	ts.im = NewPrimitive("", 1).(*impl)
}

func Test(t *testing.T) {
	suite.Run(t, new(testsuite))
}

func (ts *testsuite) TestSetGet() {
	ts.NoError(ts.im.Set(mockCtx, "key", []byte("value"), 10*time.Second))

	v, ttl, err := ts.im.Get(mockCtx, "key")
	ts.NoError(err)
	ts.Equal([]byte("value"), v)
	ts.True(ttl > 8*time.Second && ttl <= 10*time.Second, ttl)

	_, _, err = ts.im.Get(mockCtx, "missing")
	ts.Equal(provider.ErrNotFound, err)
}

func (ts *testsuite) TestNoExpire() {
	ts.NoError(ts.im.Set(mockCtx, "key", []byte("value"), 0))
	_, ttl, err := ts.im.Get(mockCtx, "key")
	ts.NoError(err)
	ts.Equal(time.Duration(0), ttl)
}

func (ts *testsuite) TestDel() {
	ts.NoError(ts.im.Set(mockCtx, "key", []byte("value"), time.Minute))
	ts.NoError(ts.im.Del(mockCtx, "key"))
	_, _, err := ts.im.Get(mockCtx, "key")
	ts.Equal(provider.ErrNotFound, err)
}
