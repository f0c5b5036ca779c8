package healthcheck

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewStatus(t *testing.T) {
	req := require.New(t)

	s := NewStatus(map[string]error{})
	req.True(s.Healthy)
	req.Empty(s.Components)

	s = NewStatus(map[string]error{"mongo": nil, "redis": errors.New("i/o timeout")})
	req.False(s.Healthy)
	req.Equal(map[string]string{"mongo": "ok", "redis": "i/o timeout"}, s.Components)
}
