package contract

import (
	"errors"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/xerrors"

	baseabi "github.com/x-xyz/nftmarket/base/abi"
	bCtx "github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/base/log"
	"github.com/x-xyz/nftmarket/domain"
	"github.com/x-xyz/nftmarket/domain/asset"
	"github.com/x-xyz/nftmarket/service/chain"
)

// Erc721 reads and moves ERC-721 tokens on chain. Transfers are sent by the
// chain client key, which has to be the marketplace custody account.
type Erc721 struct {
	chainService      chain.Client
	abi               ethabi.ABI
	erc721InterfaceId [4]byte
}

var (
	_ asset.Ledger  = (*Erc721)(nil)
	_ asset.Tracker = (*Erc721)(nil)
)

func NewErc721(chainService chain.Client) *Erc721 {
	var interfaceId [4]byte
	copy(interfaceId[:], common.Hex2Bytes("80ac58cd"))
	return &Erc721{
		abi:               baseabi.ERC721TokenABI,
		chainService:      chainService,
		erc721InterfaceId: interfaceId,
	}
}

func (e *Erc721) Supports721Interface(ctx bCtx.Ctx, collection domain.Address) (bool, error) {
	unpacked, err := e.chainService.Call(ctx, collection.ToCommon(), e.abi, "supportsInterface", e.erc721InterfaceId)
	if err != nil {
		return false, err
	}
	return unpacked[0].(bool), nil
}

func (e *Erc721) OwnerOf(ctx bCtx.Ctx, collection domain.Address, tokenId domain.TokenId) (domain.Address, error) {
	id, err := tokenId.BigInt()
	if err != nil {
		return "", domain.ErrInvalidAsset
	}
	unpacked, err := e.chainService.Call(ctx, collection.ToCommon(), e.abi, "ownerOf", id)
	if err != nil {
		return "", xerrors.Errorf("ownerOf %s/%s: %w", collection, tokenId, err)
	}
	return toAddress(unpacked[0].(common.Address)), nil
}

func (e *Erc721) IsApprovedOrOwner(ctx bCtx.Ctx, spender, collection domain.Address, tokenId domain.TokenId) (bool, error) {
	owner, err := e.OwnerOf(ctx, collection, tokenId)
	if err != nil {
		return false, err
	}
	if owner.Equals(spender) {
		return true, nil
	}

	id, _ := tokenId.BigInt()
	unpacked, err := e.chainService.Call(ctx, collection.ToCommon(), e.abi, "getApproved", id)
	if err != nil {
		return false, xerrors.Errorf("getApproved %s/%s: %w", collection, tokenId, err)
	}
	if toAddress(unpacked[0].(common.Address)).Equals(spender) {
		return true, nil
	}

	unpacked, err = e.chainService.Call(ctx, collection.ToCommon(), e.abi, "isApprovedForAll", owner.ToCommon(), spender.ToCommon())
	if err != nil {
		return false, xerrors.Errorf("isApprovedForAll %s: %w", collection, err)
	}
	return unpacked[0].(bool), nil
}

func (e *Erc721) TransferFrom(ctx bCtx.Ctx, from, to, collection domain.Address, tokenId domain.TokenId) error {
	fail := func(err error) error {
		return xerrors.Errorf("transfer %s/%s from %s to %s: %v: %w", collection, tokenId, from, to, err, domain.ErrTransferFailure)
	}

	id, err := tokenId.BigInt()
	if err != nil {
		return fail(err)
	}
	if to.IsEmpty() {
		return fail(domain.ErrInvalidAddress)
	}

	receipt, err := e.chainService.Transact(ctx, collection.ToCommon(), e.abi, "transferFrom", from.ToCommon(), to.ToCommon(), id)
	pending := &chain.PendingError{}
	if errors.As(err, &pending) {
		ctx.WithFields(log.Fields{
			"collection": collection,
			"tokenId":    tokenId,
			"to":         to,
			"tx":         pending.TxHash.Hex(),
		}).Warn("nft transfer pending")
		return &asset.PendingError{TxHash: pending.TxHash.Hex()}
	} else if err != nil {
		return fail(err)
	}
	ctx.WithFields(log.Fields{
		"collection": collection,
		"tokenId":    tokenId,
		"to":         to,
		"tx":         receipt.TxHash.Hex(),
	}).Info("nft transferred")
	return nil
}

func (e *Erc721) TransferStatus(ctx bCtx.Ctx, txHash string) (asset.TransferStatus, error) {
	_, err := e.chainService.Receipt(ctx, common.HexToHash(txHash))
	switch {
	case err == nil:
		return asset.TransferConfirmed, nil
	case errors.Is(err, chain.ErrTransactionPending):
		return asset.TransferPending, nil
	case errors.Is(err, chain.ErrTransactionReverted):
		return asset.TransferFailed, nil
	}
	return "", xerrors.Errorf("receipt of %s: %w", txHash, err)
}

func toAddress(a common.Address) domain.Address {
	return domain.Address(a.Hex()).ToLower()
}
