package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenIdCanonical(t *testing.T) {
	req := require.New(t)

	req.Equal(TokenId("1"), TokenId("01").Canonical())
	req.Equal(TokenId("1"), TokenId("+1").Canonical())
	req.Equal(TokenId("0"), TokenId("000").Canonical())
	req.Equal(TokenId("42"), TokenId("42").Canonical())
	// invalid ids stay as they are
	req.Equal(TokenId("x"), TokenId("x").Canonical())

	// token ids are uint256
	maxId := "115792089237316195423570985008687907853269984665640564039457584007913129639935"
	req.True(TokenId(maxId).IsValid())
	req.False(TokenId("115792089237316195423570985008687907853269984665640564039457584007913129639936").IsValid())
	req.False(TokenId("1" + strings.Repeat("0", 100)).IsValid())
	req.False(TokenId("-1").IsValid())
}
