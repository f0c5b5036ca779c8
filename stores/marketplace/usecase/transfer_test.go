package usecase

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/domain"
	"github.com/x-xyz/nftmarket/domain/asset"
	"github.com/x-xyz/nftmarket/domain/marketplace"
	"github.com/x-xyz/nftmarket/service/chain"
	"github.com/x-xyz/nftmarket/service/chain/contract"
	"github.com/x-xyz/nftmarket/service/chain/mocks"
	"github.com/x-xyz/nftmarket/service/nftledger"
)

// chainLedger reads ownership from the hosted ledger and sends transfers through a chain client
type chainLedger struct {
	hosted nftledger.Ledger
	erc    *contract.Erc721
}

func (l *chainLedger) OwnerOf(c ctx.Ctx, collection domain.Address, tokenId domain.TokenId) (domain.Address, error) {
	return l.hosted.OwnerOf(c, collection, tokenId)
}

func (l *chainLedger) IsApprovedOrOwner(c ctx.Ctx, spender, collection domain.Address, tokenId domain.TokenId) (bool, error) {
	return l.hosted.IsApprovedOrOwner(c, spender, collection, tokenId)
}

func (l *chainLedger) TransferFrom(c ctx.Ctx, from, to, collection domain.Address, tokenId domain.TokenId) error {
	return l.erc.TransferFrom(c, from, to, collection, tokenId)
}

func (l *chainLedger) TransferStatus(c ctx.Ctx, txHash string) (asset.TransferStatus, error) {
	return l.erc.TransferStatus(c, txHash)
}

var (
	firstTx  = common.HexToHash("0x01")
	secondTx = common.HexToHash("0x02")
)

type transferSuite struct {
	suite.Suite
	*fixture

	chain   *mocks.Client
	onChain marketplace.Usecase
}

func TestTransferSuite(t *testing.T) {
	suite.Run(t, new(transferSuite))
}

func (s *transferSuite) SetupTest() {
	s.fixture = newFixture(s.T())
	s.chain = &mocks.Client{}
	s.onChain = s.usecase(&chainLedger{hosted: s.ledger, erc: contract.NewErc721(s.chain)})
}

func (s *transferSuite) TearDownTest() {
	s.chain.AssertExpectations(s.T())
	s.requireBalanced(s.T())
}

func (s *transferSuite) onTransfer(from, to domain.Address, receipt *types.Receipt, err error) {
	s.chain.On("Transact", mock.Anything, collection.ToCommon(), mock.Anything, "transferFrom", from.ToCommon(), to.ToCommon(), big.NewInt(1)).
		Return(receipt, err).Once()
}

// buyPending lists token 1 on the hosted ledger and buys it while the delivery is not mined
func (s *transferSuite) buyPending() {
	s.fund(s.T(), buyer, "1")
	s.mint(s.T(), seller, "1")
	_, err := s.im.ListNFTForSale(mockCtx, seller, marketplace.ListParams{Collection: collection, TokenId: "1", Price: d("0.01")})
	s.Require().NoError(err)

	s.onTransfer(custody, buyer, nil, &chain.PendingError{TxHash: firstTx})
	l, err := s.onChain.BuyNFT(mockCtx, buyer, 1, d("0.01"))
	s.Require().NoError(err)
	s.False(l.IsActive)
}

func (s *transferSuite) transferRecord(id common.Hash) *asset.Transfer {
	t := &asset.Transfer{}
	s.Require().NoError(s.q.FindOne(mockCtx, domain.TableAssetTransfers, bson.M{"id": id.Hex()}, t))
	return t
}

func (s *transferSuite) TestPendingTransferCommits() {
	s.buyPending()

	// payment and sale are committed even though the token has not moved yet
	s.True(d("0.01").Equal(s.escrowOf(s.T(), seller)))
	s.True(d("0.99").Equal(s.balanceOf(s.T(), buyer)))
	s.Equal(custody, s.ownerOf(s.T(), "1"))

	t := s.transferRecord(firstTx)
	s.Equal(asset.TransferPending, t.Status)
	s.Equal("buyNFT", t.Op)
	s.Equal(custody, t.From)
	s.Equal(buyer, t.To)
	s.Equal(1, t.Attempts)
}

func (s *transferSuite) TestPendingAssetIsFrozen() {
	s.fund(s.T(), buyer, "1")
	s.mint(s.T(), seller, "1")

	s.onTransfer(seller.ToLower(), custody, nil, &chain.PendingError{TxHash: firstTx})
	_, err := s.onChain.ListNFTForSale(mockCtx, seller, marketplace.ListParams{Collection: collection, TokenId: "1", Price: d("0.01")})
	s.Require().NoError(err)

	_, err = s.onChain.BuyNFT(mockCtx, buyer, 1, d("0.01"))
	s.ErrorIs(err, domain.ErrTransferPending)
	s.True(d("1").Equal(s.balanceOf(s.T(), buyer)))

	l, err := s.onChain.GetNFTListing(mockCtx, 1)
	s.Require().NoError(err)
	s.True(l.IsActive)
}

func (s *transferSuite) TestFailedTransferRollsBack() {
	s.fund(s.T(), buyer, "1")
	s.mint(s.T(), seller, "1")
	_, err := s.im.ListNFTForSale(mockCtx, seller, marketplace.ListParams{Collection: collection, TokenId: "1", Price: d("0.01")})
	s.Require().NoError(err)

	s.onTransfer(custody, buyer, nil, errors.New("nonce too low"))
	_, err = s.onChain.BuyNFT(mockCtx, buyer, 1, d("0.01"))
	s.ErrorIs(err, domain.ErrTransferFailure)
	s.True(d("1").Equal(s.balanceOf(s.T(), buyer)))

	pending, err := s.transfers.FindPending(mockCtx)
	s.Require().NoError(err)
	s.Empty(pending)
}

func (s *transferSuite) TestReconcileConfirmed() {
	s.buyPending()

	// still unmined
	s.chain.On("Receipt", mock.Anything, firstTx).Return(nil, &chain.PendingError{TxHash: firstTx}).Once()
	n, err := s.onChain.ReconcileTransfers(mockCtx)
	s.NoError(err)
	s.Equal(0, n)

	// mined
	s.Require().NoError(s.ledger.TransferFrom(mockCtx, custody, buyer, collection, "1"))
	s.chain.On("Receipt", mock.Anything, firstTx).Return(&types.Receipt{Status: types.ReceiptStatusSuccessful}, nil).Once()
	n, err = s.onChain.ReconcileTransfers(mockCtx)
	s.NoError(err)
	s.Equal(1, n)
	s.Equal(asset.TransferConfirmed, s.transferRecord(firstTx).Status)

	pending, err := s.transfers.HasPending(mockCtx, collection, "1")
	s.NoError(err)
	s.False(pending)

	// nothing left to do
	n, err = s.onChain.ReconcileTransfers(mockCtx)
	s.NoError(err)
	s.Equal(0, n)
}

func (s *transferSuite) TestReconcileResendsReverted() {
	s.buyPending()

	s.chain.On("Receipt", mock.Anything, firstTx).Return(&types.Receipt{Status: types.ReceiptStatusFailed}, chain.ErrTransactionReverted).Once()
	s.onTransfer(custody, buyer, &types.Receipt{TxHash: secondTx, Status: types.ReceiptStatusSuccessful}, nil)
	n, err := s.onChain.ReconcileTransfers(mockCtx)
	s.NoError(err)
	s.Equal(1, n)

	t := s.transferRecord(firstTx)
	s.Equal(asset.TransferConfirmed, t.Status)
	s.Equal(2, t.Attempts)
}

func (s *transferSuite) TestReconcileResendsStale() {
	s.buyPending()

	s.now = s.now.Add(resendAfter)
	s.chain.On("Receipt", mock.Anything, firstTx).Return(nil, &chain.PendingError{TxHash: firstTx}).Once()
	s.onTransfer(custody, buyer, nil, &chain.PendingError{TxHash: secondTx})
	n, err := s.onChain.ReconcileTransfers(mockCtx)
	s.NoError(err)
	s.Equal(0, n)

	t := s.transferRecord(firstTx)
	s.Equal(asset.TransferPending, t.Status)
	s.Equal(secondTx.Hex(), t.TxHash)
	s.Equal(2, t.Attempts)

	// the first attempt was mined after all
	s.Require().NoError(s.ledger.TransferFrom(mockCtx, custody, buyer, collection, "1"))
	s.now = s.now.Add(time.Minute)
	s.chain.On("Receipt", mock.Anything, secondTx).Return(&types.Receipt{Status: types.ReceiptStatusFailed}, chain.ErrTransactionReverted).Once()
	n, err = s.onChain.ReconcileTransfers(mockCtx)
	s.NoError(err)
	s.Equal(1, n)
	s.Equal(asset.TransferConfirmed, s.transferRecord(firstTx).Status)
}

func (s *transferSuite) TestReconcileGivesUp() {
	s.buyPending()

	s.chain.On("Receipt", mock.Anything, firstTx).Return(&types.Receipt{Status: types.ReceiptStatusFailed}, chain.ErrTransactionReverted).Once()
	s.onTransfer(custody, buyer, nil, errors.New("insufficient funds for gas"))
	n, err := s.onChain.ReconcileTransfers(mockCtx)
	s.NoError(err)
	s.Equal(1, n)
	s.Equal(asset.TransferFailed, s.transferRecord(firstTx).Status)
}

func (s *transferSuite) TestReconcileHostedLedger() {
	n, err := s.im.ReconcileTransfers(mockCtx)
	s.NoError(err)
	s.Equal(0, n)
}
