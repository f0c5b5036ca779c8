package chain

import (
	"crypto/ecdsa"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/xerrors"

	bCtx "github.com/x-xyz/nftmarket/base/ctx"
	bEthereum "github.com/x-xyz/nftmarket/base/ethereum"
	"github.com/x-xyz/nftmarket/base/log"
)

const defaultMineTimeout = 30 * time.Second

var (
	ErrNoSigner            = errors.New("client has no signing key")
	ErrTransactionReverted = errors.New("transaction reverted")
	ErrTransactionPending  = errors.New("transaction pending")
)

// PendingError is returned for a transaction that was sent but whose receipt is not known yet
type PendingError struct {
	TxHash common.Hash
}

func (e *PendingError) Error() string {
	return "transaction " + e.TxHash.Hex() + " pending"
}

func (e *PendingError) Unwrap() error {
	return ErrTransactionPending
}

// opMargin is what an operation needs besides waiting for its transfer to be mined
const opMargin = 10 * time.Second

// CheckMineTimeout rejects a mine timeout that would let an operation outlive the lock
// or the store transaction it runs in
func CheckMineTimeout(mineTimeout, lockTtl, txLifetime time.Duration) error {
	if mineTimeout <= 0 {
		return xerrors.Errorf("mine timeout must be positive, got %s", mineTimeout)
	}
	if mineTimeout+opMargin > lockTtl {
		return xerrors.Errorf("mine timeout %s plus %s exceeds lock ttl %s", mineTimeout, opMargin, lockTtl)
	}
	if mineTimeout+opMargin > txLifetime {
		return xerrors.Errorf("mine timeout %s plus %s exceeds transaction lifetime %s", mineTimeout, opMargin, txLifetime)
	}
	return nil
}

type ClientCfg struct {
	RpcUrl  string
	ChainId int64
	// SignerKey is the hex private key transactions are sent with, optional for read only clients
	SignerKey string
	// MineTimeout bounds how long Transact waits for a receipt
	MineTimeout time.Duration
}

type Client interface {
	Call(c bCtx.Ctx, addr common.Address, _abi abi.ABI, method string, params ...interface{}) ([]interface{}, error)
	// Transact sends a transaction signed by the client key and waits until it is mined.
	// Once the transaction is sent, failing to wait for its receipt returns a *PendingError.
	Transact(c bCtx.Ctx, addr common.Address, _abi abi.ABI, method string, params ...interface{}) (*types.Receipt, error)
	// Receipt returns a *PendingError while txHash is not mined
	Receipt(c bCtx.Ctx, txHash common.Hash) (*types.Receipt, error)
	// Sender is the address transactions are sent from
	Sender() common.Address
}

type backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

type clientImpl struct {
	client      backend
	chainId     *big.Int
	key         *ecdsa.PrivateKey
	sender      common.Address
	mineTimeout time.Duration
}

func NewClient(ctx bCtx.Ctx, cfg *ClientCfg) (Client, error) {
	client, err := ethclient.DialContext(ctx, cfg.RpcUrl)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err":     err,
			"chainId": cfg.ChainId,
			"url":     cfg.RpcUrl,
		}).Error("failed to dial rpc")
		return nil, err
	}
	return newClient(client, cfg)
}

func newClient(client backend, cfg *ClientCfg) (*clientImpl, error) {
	im := &clientImpl{
		client:      client,
		chainId:     big.NewInt(cfg.ChainId),
		mineTimeout: cfg.MineTimeout,
	}
	if im.mineTimeout == 0 {
		im.mineTimeout = defaultMineTimeout
	}
	if cfg.SignerKey != "" {
		sender, key, err := bEthereum.AddressOfKey(cfg.SignerKey)
		if err != nil {
			return nil, xerrors.Errorf("invalid signer key: %w", err)
		}
		im.key = key
		im.sender = common.HexToAddress(sender)
	}
	return im, nil
}

func (im *clientImpl) Sender() common.Address {
	return im.sender
}

func (im *clientImpl) Call(ctx bCtx.Ctx, addr common.Address, _abi abi.ABI, method string, params ...interface{}) ([]interface{}, error) {
	data, err := _abi.Pack(method, params...)
	if err != nil {
		ctx.WithFields(log.Fields{
			"method": method,
			"params": params,
			"err":    err,
		}).Error("abi.Pack failed")
		return nil, err
	}
	msg := ethereum.CallMsg{
		To:   &addr,
		Data: data,
	}
	res, err := im.client.CallContract(ctx, msg, nil)
	if err != nil {
		ctx.WithField("err", err).Error("client.CallContract failed")
		return nil, err
	}
	unpacked, err := _abi.Unpack(method, res)
	if err != nil {
		ctx.WithField("err", err).Error("abi.Unpack failed")
		return nil, err
	}
	return unpacked, nil
}

func (im *clientImpl) Transact(ctx bCtx.Ctx, addr common.Address, _abi abi.ABI, method string, params ...interface{}) (*types.Receipt, error) {
	if im.key == nil {
		return nil, ErrNoSigner
	}
	opts, err := bind.NewKeyedTransactorWithChainID(im.key, im.chainId)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx

	contract := bind.NewBoundContract(addr, _abi, im.client, im.client, nil)
	tx, err := contract.Transact(opts, method, params...)
	if err != nil {
		ctx.WithFields(log.Fields{
			"method": method,
			"err":    err,
		}).Error("contract.Transact failed")
		return nil, err
	}

	c, cancel := bCtx.WithTimeout(ctx, im.mineTimeout)
	defer cancel()
	receipt, err := bind.WaitMined(c, im.client, tx)
	if err != nil {
		// the transaction is out, it may still be mined
		ctx.WithFields(log.Fields{
			"tx":  tx.Hash().Hex(),
			"err": err,
		}).Warn("bind.WaitMined failed")
		return nil, &PendingError{TxHash: tx.Hash()}
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		ctx.WithField("tx", tx.Hash().Hex()).Warn("transaction reverted")
		return receipt, ErrTransactionReverted
	}
	return receipt, nil
}

func (im *clientImpl) Receipt(ctx bCtx.Ctx, txHash common.Hash) (*types.Receipt, error) {
	receipt, err := im.client.TransactionReceipt(ctx, txHash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, &PendingError{TxHash: txHash}
	} else if err != nil {
		ctx.WithFields(log.Fields{
			"tx":  txHash.Hex(),
			"err": err,
		}).Error("client.TransactionReceipt failed")
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, ErrTransactionReverted
	}
	return receipt, nil
}
