package domain

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/xerrors"
)

type SortDir int8

const (
	SortDirAsc  = 1
	SortDirDesc = -1
)

type Address string

const EmptyAddress = Address("0x0000000000000000000000000000000000000000")

func (a Address) ToLower() Address {
	return Address(strings.ToLower(string(a)))
}

func (a Address) ToLowerStr() string {
	return strings.ToLower(string(a))
}

func (a Address) IsEmpty() bool {
	return len(a) == 0 || a.Equals(EmptyAddress)
}

func (a Address) Equals(b Address) bool {
	return a.ToLowerStr() == b.ToLowerStr()
}

// IsHex reports whether the address is a 20 bytes hex string with 0x prefix
func (a Address) IsHex() bool {
	return common.IsHexAddress(string(a)) && strings.HasPrefix(string(a), "0x")
}

func (a Address) ToCommon() common.Address {
	return common.HexToAddress(string(a))
}

type TokenId string

func (i TokenId) String() string {
	return string(i)
}

// BigInt parses token id as a base 10 uint256
func (i TokenId) BigInt() (*big.Int, error) {
	id, ok := new(big.Int).SetString(i.String(), 10)
	if !ok || id.Sign() < 0 || id.BitLen() > 256 {
		return nil, xerrors.Errorf("invalid token id %s", i)
	}
	return id, nil
}

func (i TokenId) IsValid() bool {
	_, err := i.BigInt()
	return err == nil
}

// Canonical drops leading zeros and signs so "007" and "7" name the same token.
// Invalid ids are returned as is.
func (i TokenId) Canonical() TokenId {
	id, err := i.BigInt()
	if err != nil {
		return i
	}
	return TokenId(id.String())
}
