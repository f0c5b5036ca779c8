package usecase

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/domain"
	"github.com/x-xyz/nftmarket/domain/activity"
	"github.com/x-xyz/nftmarket/domain/asset"
	"github.com/x-xyz/nftmarket/domain/auction"
	"github.com/x-xyz/nftmarket/domain/bank"
	"github.com/x-xyz/nftmarket/domain/escrow"
	"github.com/x-xyz/nftmarket/domain/listing"
	"github.com/x-xyz/nftmarket/domain/marketplace"
	mNotifier "github.com/x-xyz/nftmarket/domain/notifier/mocks"
	bankImpl "github.com/x-xyz/nftmarket/service/bank"
	"github.com/x-xyz/nftmarket/service/lock"
	"github.com/x-xyz/nftmarket/service/nftledger"
	"github.com/x-xyz/nftmarket/service/query"
	activityRepo "github.com/x-xyz/nftmarket/stores/activity/repository"
	assetRepo "github.com/x-xyz/nftmarket/stores/asset/repository"
	auctionRepo "github.com/x-xyz/nftmarket/stores/auction/repository"
	escrowRepo "github.com/x-xyz/nftmarket/stores/escrow/repository"
	listingRepo "github.com/x-xyz/nftmarket/stores/listing/repository"
)

var mockCtx = ctx.Background()

const (
	custody    = domain.Address("0x00000000000000000000000000000000000000aa")
	owner      = domain.Address("0x000000000000000000000000000000000000000f")
	seller     = domain.Address("0x00000000000000000000000000000000000000A1")
	buyer      = domain.Address("0x00000000000000000000000000000000000000b2")
	bidder     = domain.Address("0x00000000000000000000000000000000000000c3")
	stranger   = domain.Address("0x00000000000000000000000000000000000000d4")
	collection = domain.Address("0x00000000000000000000000000000000000000C0")
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fixture wires the marketplace on the in-memory store with the hosted ledger
type fixture struct {
	q         query.Mongo
	ledger    nftledger.Ledger
	bank      bank.Bank
	escrow    escrow.Repo
	listings  listing.Repo
	auctions  auction.Repo
	acts      activity.Repo
	locks     asset.LockRepo
	transfers asset.TransferRepo
	notifier  *mNotifier.Notifier
	locker    lock.Locker
	now       time.Time
	im        marketplace.Usecase
}

func newFixture(t require.TestingT) *fixture {
	q := query.NewMemory()
	indexes := [][]query.Index{
		listingRepo.Indexes(),
		auctionRepo.Indexes(),
		escrowRepo.Indexes(),
		assetRepo.Indexes(),
		assetRepo.TransferIndexes(),
		activityRepo.Indexes(),
		bankImpl.Indexes(),
		nftledger.Indexes(),
	}
	for _, idx := range indexes {
		require.NoError(t, q.EnsureIndexes(mockCtx, idx...))
	}

	f := &fixture{
		q:         q,
		ledger:    nftledger.New(q, custody),
		bank:      bankImpl.New(q, custody),
		escrow:    escrowRepo.New(q),
		listings:  listingRepo.New(q, nil),
		auctions:  auctionRepo.New(q, nil),
		acts:      activityRepo.New(q),
		locks:     assetRepo.NewLockRepo(q),
		transfers: assetRepo.NewTransferRepo(q),
		notifier:  &mNotifier.Notifier{},
		locker:    lock.NewLocal(),
		now:       time.Unix(1700000000, 0).UTC(),
	}
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil).Maybe()
	timeNow = func() time.Time { return f.now }
	f.im = f.usecase(f.ledger)
	return f
}

func (f *fixture) usecase(ledger asset.Ledger) marketplace.Usecase {
	return New(&MarketplaceUseCaseCfg{
		Transactor:     f.q,
		Locker:         f.locker,
		ListingRepo:    f.listings,
		AuctionRepo:    f.auctions,
		EscrowRepo:     f.escrow,
		LockRepo:       f.locks,
		TransferRepo:   f.transfers,
		ActivityRepo:   f.acts,
		Bank:           f.bank,
		Ledger:         ledger,
		Notifier:       f.notifier,
		Custody:        custody,
		Owner:          owner,
		AssertSolvency: true,
	})
}

// mint gives tokenId to holder and approves the marketplace for all of holder's tokens
func (f *fixture) mint(t require.TestingT, holder domain.Address, tokenId domain.TokenId) {
	require.NoError(t, f.ledger.Mint(mockCtx, collection, tokenId, holder))
	require.NoError(t, f.ledger.SetApprovalForAll(mockCtx, holder, custody, collection, true))
}

func (f *fixture) fund(t require.TestingT, account domain.Address, amount string) {
	require.NoError(t, f.bank.Deposit(mockCtx, account, d(amount)))
}

func (f *fixture) ownerOf(t require.TestingT, tokenId domain.TokenId) domain.Address {
	o, err := f.ledger.OwnerOf(mockCtx, collection, tokenId)
	require.NoError(t, err)
	return o
}

func (f *fixture) escrowOf(t require.TestingT, a domain.Address) decimal.Decimal {
	acc, err := f.im.GetEscrowAccount(mockCtx, a)
	require.NoError(t, err)
	return acc.Balance
}

func (f *fixture) balanceOf(t require.TestingT, a domain.Address) decimal.Decimal {
	b, err := f.bank.BalanceOf(mockCtx, a)
	require.NoError(t, err)
	return b
}

// requireBalanced checks custody holds exactly what the marketplace owes
func (f *fixture) requireBalanced(t require.TestingT) {
	s, err := f.im.CheckSolvency(mockCtx)
	require.NoError(t, err)
	require.True(t, s.Solvent)
	require.True(t, s.Held.Equal(s.Liabilities), "held %s, liabilities %s", s.Held, s.Liabilities)
}
