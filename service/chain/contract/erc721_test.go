package contract

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	bCtx "github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/domain"
	"github.com/x-xyz/nftmarket/domain/asset"
	"github.com/x-xyz/nftmarket/service/chain"
	"github.com/x-xyz/nftmarket/service/chain/mocks"
)

const (
	collection = domain.Address("0x71c4658acc7b53ee814a29ce31100ff85ca23ca7")
	owner      = domain.Address("0x00000000000000000000000000000000000000a1")
	custody    = domain.Address("0x00000000000000000000000000000000000000aa")
	buyer      = domain.Address("0x00000000000000000000000000000000000000b2")
)

type erc721Suite struct {
	suite.Suite

	ctx   bCtx.Ctx
	chain *mocks.Client
	erc   *Erc721
}

func TestErc721Suite(t *testing.T) {
	suite.Run(t, new(erc721Suite))
}

func (s *erc721Suite) SetupTest() {
	s.ctx = bCtx.Background()
	s.chain = &mocks.Client{}
	s.erc = NewErc721(s.chain)
}

func (s *erc721Suite) TearDownTest() {
	s.chain.AssertExpectations(s.T())
}

func (s *erc721Suite) onCall(method string, ret interface{}, params ...interface{}) {
	args := append([]interface{}{mock.Anything, collection.ToCommon(), mock.Anything, method}, params...)
	s.chain.On("Call", args...).Return([]interface{}{ret}, nil).Once()
}

func (s *erc721Suite) TestSupports721Interface() {
	s.onCall("supportsInterface", true, s.erc.erc721InterfaceId)
	ok, err := s.erc.Supports721Interface(s.ctx, collection)
	s.NoError(err)
	s.True(ok)
}

func (s *erc721Suite) TestOwnerOf() {
	s.onCall("ownerOf", common.HexToAddress(string(owner)), big.NewInt(7))
	res, err := s.erc.OwnerOf(s.ctx, collection, "7")
	s.NoError(err)
	s.Equal(owner, res)

	_, err = s.erc.OwnerOf(s.ctx, collection, "abc")
	s.ErrorIs(err, domain.ErrValidation)
}

func (s *erc721Suite) TestIsApprovedOrOwner() {
	// owner itself
	s.onCall("ownerOf", owner.ToCommon(), big.NewInt(1))
	ok, err := s.erc.IsApprovedOrOwner(s.ctx, owner, collection, "1")
	s.NoError(err)
	s.True(ok)

	// token approval
	s.onCall("ownerOf", owner.ToCommon(), big.NewInt(1))
	s.onCall("getApproved", custody.ToCommon(), big.NewInt(1))
	ok, err = s.erc.IsApprovedOrOwner(s.ctx, custody, collection, "1")
	s.NoError(err)
	s.True(ok)

	// operator approval
	s.onCall("ownerOf", owner.ToCommon(), big.NewInt(1))
	s.onCall("getApproved", common.Address{}, big.NewInt(1))
	s.onCall("isApprovedForAll", false, owner.ToCommon(), custody.ToCommon())
	ok, err = s.erc.IsApprovedOrOwner(s.ctx, custody, collection, "1")
	s.NoError(err)
	s.False(ok)
}

func (s *erc721Suite) TestTransferFrom() {
	s.chain.On("Transact", mock.Anything, collection.ToCommon(), mock.Anything, "transferFrom", custody.ToCommon(), buyer.ToCommon(), big.NewInt(3)).
		Return(&types.Receipt{Status: types.ReceiptStatusSuccessful}, nil).Once()
	s.NoError(s.erc.TransferFrom(s.ctx, custody, buyer, collection, "3"))
}

func (s *erc721Suite) TestTransferFromFailure() {
	s.chain.On("Transact", mock.Anything, collection.ToCommon(), mock.Anything, "transferFrom", custody.ToCommon(), buyer.ToCommon(), big.NewInt(3)).
		Return(nil, errors.New("execution reverted")).Once()
	err := s.erc.TransferFrom(s.ctx, custody, buyer, collection, "3")
	s.ErrorIs(err, domain.ErrTransferFailure)

	err = s.erc.TransferFrom(s.ctx, custody, "", collection, "3")
	s.ErrorIs(err, domain.ErrTransferFailure)
}

func (s *erc721Suite) TestTransferFromPending() {
	txHash := common.HexToHash("0xabc")
	s.chain.On("Transact", mock.Anything, collection.ToCommon(), mock.Anything, "transferFrom", custody.ToCommon(), buyer.ToCommon(), big.NewInt(3)).
		Return(nil, &chain.PendingError{TxHash: txHash}).Once()
	err := s.erc.TransferFrom(s.ctx, custody, buyer, collection, "3")
	s.ErrorIs(err, domain.ErrTransferPending)
	s.False(errors.Is(err, domain.ErrTransferFailure))
	pending := &asset.PendingError{}
	s.Require().ErrorAs(err, &pending)
	s.Equal(txHash.Hex(), pending.TxHash)
}

func (s *erc721Suite) TestTransferStatus() {
	txHash := common.HexToHash("0xabc")
	s.chain.On("Receipt", mock.Anything, txHash).Return(nil, &chain.PendingError{TxHash: txHash}).Once()
	s.chain.On("Receipt", mock.Anything, txHash).Return(&types.Receipt{Status: types.ReceiptStatusFailed}, chain.ErrTransactionReverted).Once()
	s.chain.On("Receipt", mock.Anything, txHash).Return(&types.Receipt{Status: types.ReceiptStatusSuccessful}, nil).Once()
	s.chain.On("Receipt", mock.Anything, txHash).Return(nil, errors.New("connection refused")).Once()

	for _, want := range []asset.TransferStatus{asset.TransferPending, asset.TransferFailed, asset.TransferConfirmed} {
		status, err := s.erc.TransferStatus(s.ctx, txHash.Hex())
		s.NoError(err)
		s.Equal(want, status)
	}
	_, err := s.erc.TransferStatus(s.ctx, txHash.Hex())
	s.Error(err)
}
