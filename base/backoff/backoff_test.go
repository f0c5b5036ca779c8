package backoff

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExponential(t *testing.T) {
	req := require.New(t)
	b := NewExponential(time.Millisecond, 4*time.Millisecond)
	req.Equal(time.Millisecond, b.NextDuration)
	req.NoError(b.Backoff(context.Background()))
	req.Equal(2*time.Millisecond, b.NextDuration)
	req.NoError(b.Backoff(context.Background()))
	req.NoError(b.Backoff(context.Background()))
	req.Equal(4*time.Millisecond, b.NextDuration)
	b.Reset()
	req.Equal(time.Millisecond, b.NextDuration)
}

func TestBackoffCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := NewLinear(time.Second, 0)
	require.Equal(t, context.Canceled, b.Backoff(ctx))
}

func TestRetry(t *testing.T) {
	req := require.New(t)
	errTemp := errors.New("temporary")

	calls := 0
	err := Retry(context.Background(), NewExponential(time.Millisecond, time.Millisecond), 0, func() (bool, error) {
		calls++
		if calls < 3 {
			return true, errTemp
		}
		return false, nil
	})
	req.NoError(err)
	req.Equal(3, calls)

	calls = 0
	err = Retry(context.Background(), NewExponential(time.Millisecond, time.Millisecond), 2, func() (bool, error) {
		calls++
		return true, errTemp
	})
	req.Equal(errTemp, err)
	req.Equal(2, calls)

	calls = 0
	errPermanent := errors.New("permanent")
	err = Retry(context.Background(), NewExponential(time.Millisecond, time.Millisecond), 0, func() (bool, error) {
		calls++
		return false, errPermanent
	})
	req.Equal(errPermanent, err)
	req.Equal(1, calls)
}
