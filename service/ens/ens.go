package ens

import (
	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/domain"
)

type ENS interface {
	Resolve(ctx ctx.Ctx, name string) (domain.Address, error)
	// ReverseResolve returns the primary name of address, empty if it has none
	ReverseResolve(ctx ctx.Ctx, address domain.Address) (string, error)
}
