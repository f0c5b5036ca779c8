package ens

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	goens "github.com/wealdtech/go-ens/v3"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/base/log"
	"github.com/x-xyz/nftmarket/domain"
	"github.com/x-xyz/nftmarket/domain/keys"
	"github.com/x-xyz/nftmarket/service/cache"
)

type impl struct {
	backend bind.ContractBackend
	cache   cache.Service

	resolve        func(bind.ContractBackend, string) (common.Address, error)
	reverseResolve func(bind.ContractBackend, common.Address) (string, error)
}

// New resolves names against the ENS registry reachable through backend, an
// ethereum mainnet client. Results, including misses, are kept in cache.
func New(backend bind.ContractBackend, cache cache.Service) ENS {
	return &impl{
		backend:        backend,
		cache:          cache,
		resolve:        goens.Resolve,
		reverseResolve: goens.ReverseResolve,
	}
}

func (im *impl) Resolve(ctx ctx.Ctx, name string) (domain.Address, error) {
	res := domain.Address("")
	key := keys.RedisKey("resolve", name)
	err := im.cache.GetOrLoad(ctx, key, &res, func() (interface{}, error) {
		addr, err := im.resolve(im.backend, name)
		if fmt.Sprint(err) == "unregistered name" {
			val := domain.Address("")
			return &val, nil
		}
		if err != nil {
			ctx.WithFields(log.Fields{
				"name": name,
				"err":  err,
			}).Error("failed to goens.Resolve")
			return nil, err
		}
		val := domain.Address(addr.Hex()).ToLower()
		return &val, nil
	})
	if err != nil {
		return "", err
	}
	return res, nil
}

func (im *impl) ReverseResolve(ctx ctx.Ctx, address domain.Address) (string, error) {
	res := ""
	key := keys.RedisKey("reverse-resolve", address.ToLowerStr())
	err := im.cache.GetOrLoad(ctx, key, &res, func() (interface{}, error) {
		name, err := im.reverseResolve(im.backend, address.ToCommon())
		if fmt.Sprint(err) == "not a resolver" || fmt.Sprint(err) == "no resolution" {
			val := ""
			return &val, nil
		}
		if err != nil {
			ctx.WithFields(log.Fields{
				"address": address,
				"err":     err,
			}).Error("failed to goens.ReverseResolve")
			return nil, err
		}
		return &name, nil
	})
	if err != nil {
		return "", err
	}
	return res, nil
}
