package usecase

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"golang.org/x/xerrors"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/base/ptr"
	"github.com/x-xyz/nftmarket/domain"
	"github.com/x-xyz/nftmarket/domain/activity"
	mAsset "github.com/x-xyz/nftmarket/domain/asset/mocks"
	"github.com/x-xyz/nftmarket/domain/auction"
	"github.com/x-xyz/nftmarket/domain/listing"
	"github.com/x-xyz/nftmarket/domain/marketplace"
	"github.com/x-xyz/nftmarket/domain/notifier"
)

type marketSuite struct {
	suite.Suite
	*fixture
}

func TestMarketSuite(t *testing.T) {
	suite.Run(t, new(marketSuite))
}

func (s *marketSuite) SetupTest() {
	s.fixture = newFixture(s.T())
}

func (s *marketSuite) TearDownTest() {
	s.requireBalanced(s.T())
}

func (s *marketSuite) list(tokenId domain.TokenId, price string) *listing.Listing {
	s.mint(s.T(), seller, tokenId)
	l, err := s.im.ListNFTForSale(mockCtx, seller, marketplace.ListParams{
		Collection: collection,
		TokenId:    tokenId,
		Price:      d(price),
	})
	s.Require().NoError(err)
	return l
}

func (s *marketSuite) openAuction(tokenId domain.TokenId, reserve string) *auction.Auction {
	s.mint(s.T(), seller, tokenId)
	a, err := s.im.ListForAuction(mockCtx, seller, marketplace.AuctionParams{
		Collection:      collection,
		TokenId:         tokenId,
		ReservePrice:    d(reserve),
		DurationSeconds: 3600,
	})
	s.Require().NoError(err)
	return a
}

func (s *marketSuite) TestSaleScenario() {
	s.fund(s.T(), buyer, "1")
	l := s.list("1", "0.01")
	s.Equal(int64(1), l.Id)
	s.Equal(seller.ToLower(), l.Seller)
	s.Equal(collection.ToLower(), l.Collection)
	s.True(l.IsActive)
	s.Equal(custody, s.ownerOf(s.T(), "1"))

	got, err := s.im.GetNFTListing(mockCtx, 1)
	s.Require().NoError(err)
	s.True(got.Price.Equal(d("0.01")))
	s.True(got.IsActive)

	sold, err := s.im.BuyNFT(mockCtx, buyer, 1, d("0.01"))
	s.Require().NoError(err)
	s.False(sold.IsActive)
	s.Equal(listing.StatusSold, sold.Status)
	s.Equal(buyer, sold.Buyer)

	got, err = s.im.GetNFTListing(mockCtx, 1)
	s.Require().NoError(err)
	s.False(got.IsActive)
	s.True(d("0.01").Equal(s.escrowOf(s.T(), seller)))
	s.Equal(buyer, s.ownerOf(s.T(), "1"))
	s.True(d("0.99").Equal(s.balanceOf(s.T(), buyer)))

	_, err = s.im.BuyNFT(mockCtx, buyer, 1, d("0.01"))
	s.Equal(domain.ErrListingInactive, err)
	s.True(errors.Is(err, domain.ErrInvalidState))

	s.notifier.AssertCalled(s.T(), "Notify", mock.Anything, mock.MatchedBy(func(evt notifier.Event) bool {
		return evt.Type == notifier.EventItemSold && evt.SaleId == 1 && evt.Buyer == buyer
	}))
}

func (s *marketSuite) TestSellerCannotBuy() {
	s.fund(s.T(), seller, "1")
	s.list("1", "0.01")

	_, err := s.im.BuyNFT(mockCtx, seller, 1, d("0.01"))
	s.Equal(domain.ErrSellerCannotBuy, err)
	s.Equal("seller cannot buy", err.Error())

	l, err := s.im.GetNFTListing(mockCtx, 1)
	s.Require().NoError(err)
	s.True(l.IsActive)
}

func (s *marketSuite) TestBuyPayment() {
	s.fund(s.T(), buyer, "0.005")
	s.list("1", "0.01")

	_, err := s.im.BuyNFT(mockCtx, buyer, 1, d("0.009"))
	s.Equal(domain.ErrInsufficientPayment, err)
	_, err = s.im.BuyNFT(mockCtx, buyer, 1, d("0.011"))
	s.Equal(domain.ErrExcessPayment, err)
	s.True(errors.Is(err, domain.ErrValidation))
	_, err = s.im.BuyNFT(mockCtx, buyer, 1, d("0.0100000000000000001"))
	s.Equal(domain.ErrInvalidAmount, err)
	_, err = s.im.BuyNFT(mockCtx, buyer, 2, d("0.01"))
	s.Equal(domain.ErrListingNotFound, err)

	// exact payment but the bank account cannot cover it
	_, err = s.im.BuyNFT(mockCtx, buyer, 1, d("0.01"))
	s.True(errors.Is(err, domain.ErrInsufficientFunds))
	l, err := s.im.GetNFTListing(mockCtx, 1)
	s.Require().NoError(err)
	s.True(l.IsActive)
	s.True(s.escrowOf(s.T(), seller).IsZero())
}

func (s *marketSuite) TestListValidation() {
	s.mint(s.T(), seller, "1")
	params := marketplace.ListParams{Collection: collection, TokenId: "1", Price: d("0")}

	_, err := s.im.ListNFTForSale(mockCtx, seller, params)
	s.Equal(domain.ErrInvalidPrice, err)

	params.Price = d("0.01")
	_, err = s.im.ListNFTForSale(mockCtx, stranger, params)
	s.Equal(domain.ErrNotOwnerOrUnapproved, err)

	params.TokenId = "404"
	_, err = s.im.ListNFTForSale(mockCtx, seller, params)
	s.Equal(domain.ErrNotOwnerOrUnapproved, err)

	params.TokenId = "x"
	_, err = s.im.ListNFTForSale(mockCtx, seller, params)
	s.Equal(domain.ErrInvalidAsset, err)

	// owner without approval
	s.Require().NoError(s.ledger.Mint(mockCtx, collection, "2", stranger))
	params.TokenId = "2"
	_, err = s.im.ListNFTForSale(mockCtx, stranger, params)
	s.Equal(domain.ErrNotOwnerOrUnapproved, err)

	// single token approval is enough
	s.Require().NoError(s.ledger.Approve(mockCtx, stranger, custody, collection, "2"))
	l, err := s.im.ListNFTForSale(mockCtx, stranger, params)
	s.Require().NoError(err)
	s.Equal(int64(1), l.Id)
}

func (s *marketSuite) TestOneActiveSalePerAsset() {
	s.list("1", "0.01")
	s.Require().NoError(s.locks.Acquire(mockCtx, collection, "2", "listing", 99))

	s.mint(s.T(), seller, "2")
	_, err := s.im.ListForAuction(mockCtx, seller, marketplace.AuctionParams{
		Collection:      collection,
		TokenId:         "2",
		ReservePrice:    d("0.05"),
		DurationSeconds: 60,
	})
	s.Equal(domain.ErrAssetAlreadyListed, err)

	// the failed attempt did not consume an auction id
	a := s.openAuction("3", "0.05")
	s.Equal(int64(1), a.Id)
}

func (s *marketSuite) TestCanonicalTokenId() {
	l := s.list("007", "0.01")
	s.Equal(domain.TokenId("7"), l.TokenId)
	s.Equal(custody, s.ownerOf(s.T(), "7"))

	res, count, err := s.im.FindListings(mockCtx, listing.Filter{TokenId: ptr.TokenId("07")})
	s.Require().NoError(err)
	s.Equal(1, count)
	s.Equal(int64(1), res[0].Id)

	s.Require().NoError(s.locks.Acquire(mockCtx, collection, "2", "listing", 99))
	s.mint(s.T(), seller, "2")
	_, err = s.im.ListForAuction(mockCtx, seller, marketplace.AuctionParams{
		Collection:      collection,
		TokenId:         "02",
		ReservePrice:    d("0.05"),
		DurationSeconds: 60,
	})
	s.Equal(domain.ErrAssetAlreadyListed, err)
}

func (s *marketSuite) TestCancelListing() {
	s.list("1", "0.01")

	_, err := s.im.CancelListing(mockCtx, stranger, 1)
	s.Equal(domain.ErrNotSellerOrPrivileged, err)
	s.True(errors.Is(err, domain.ErrUnauthorized))

	l, err := s.im.CancelListing(mockCtx, seller, 1)
	s.Require().NoError(err)
	s.Equal(listing.StatusCancelled, l.Status)
	s.Equal(seller.ToLower(), s.ownerOf(s.T(), "1"))

	_, err = s.im.CancelListing(mockCtx, seller, 1)
	s.Equal(domain.ErrListingInactive, err)

	// the asset can be listed again, privileged accounts may cancel it
	l, err = s.im.ListNFTForSale(mockCtx, seller, marketplace.ListParams{Collection: collection, TokenId: "1", Price: d("0.02")})
	s.Require().NoError(err)
	s.Equal(int64(2), l.Id)
	_, err = s.im.CancelListing(mockCtx, owner, 2)
	s.NoError(err)
}

func (s *marketSuite) TestAuctionScenario() {
	s.fund(s.T(), buyer, "1")
	s.fund(s.T(), bidder, "1")
	a := s.openAuction("2", "0.05")
	s.Equal(int64(1), a.Id)
	s.Equal(s.now.Add(time.Hour), a.EndTime)

	got, err := s.im.GetNFTAuction(mockCtx, 1)
	s.Require().NoError(err)
	s.True(got.IsActive)
	s.True(got.ReservePrice.Equal(d("0.05")))
	s.False(got.HasBids())

	_, err = s.im.Bid(mockCtx, buyer, 1, d("0.06"))
	s.Require().NoError(err)
	a, err = s.im.Bid(mockCtx, bidder, 1, d("0.08"))
	s.Require().NoError(err)
	s.Equal(bidder, a.HighestBidder)
	s.True(d("0.08").Equal(a.HighestBid))
	s.True(d("0.06").Equal(s.escrowOf(s.T(), buyer)))

	bids, err := s.im.GetBids(mockCtx, 1)
	s.Require().NoError(err)
	s.Require().Len(bids, 2)
	s.Equal(buyer, bids[0].Bidder)
	s.Equal(bidder, bids[1].Bidder)

	a, err = s.im.WithdrawAuctionNFT(mockCtx, owner, 1)
	s.Require().NoError(err)
	s.False(a.IsActive)
	s.Equal(auction.StatusSettled, a.Status)
	s.True(d("0.08").Equal(s.escrowOf(s.T(), seller)))
	s.Equal(bidder, s.ownerOf(s.T(), "2"))

	_, err = s.im.WithdrawAuctionNFT(mockCtx, owner, 1)
	s.Equal(domain.ErrAuctionInactive, err)

	acts, err := s.im.GetActivities(mockCtx, buyer, 0, 10)
	s.Require().NoError(err)
	s.Require().Len(acts, 2)
	s.Equal(activity.TypeBidRefunded, acts[0].Type)
	s.Equal(activity.TypePlaceBid, acts[1].Type)
}

func (s *marketSuite) TestZeroBidWithdraw() {
	s.openAuction("2", "0.05")

	a, err := s.im.WithdrawAuctionNFT(mockCtx, seller, 1)
	s.Require().NoError(err)
	s.Equal(auction.StatusWithdrawn, a.Status)
	s.Equal(seller.ToLower(), s.ownerOf(s.T(), "2"))

	acc, err := s.escrow.Get(mockCtx, seller)
	s.Require().NoError(err)
	s.True(acc.TotalCredited.IsZero())
}

func (s *marketSuite) TestBidRules() {
	s.fund(s.T(), buyer, "0.07")
	s.fund(s.T(), seller, "1")
	s.openAuction("2", "0.05")

	_, err := s.im.Bid(mockCtx, seller, 1, d("0.06"))
	s.Equal(domain.ErrSellerCannotBid, err)
	_, err = s.im.Bid(mockCtx, buyer, 1, d("0.05"))
	s.Equal(domain.ErrBidTooLow, err)
	_, err = s.im.Bid(mockCtx, buyer, 1, d("0.08"))
	s.True(errors.Is(err, domain.ErrInsufficientFunds))
	_, err = s.im.Bid(mockCtx, buyer, 2, d("0.06"))
	s.Equal(domain.ErrAuctionNotFound, err)

	_, err = s.im.Bid(mockCtx, buyer, 1, d("0.06"))
	s.Require().NoError(err)
	_, err = s.im.Bid(mockCtx, bidder, 1, d("0.06"))
	s.Equal(domain.ErrBidTooLow, err)

	s.now = s.now.Add(time.Hour)
	_, err = s.im.Bid(mockCtx, bidder, 1, d("1"))
	s.Equal(domain.ErrAuctionExpired, err)

	// expiry is never settled automatically
	a, err := s.im.GetNFTAuction(mockCtx, 1)
	s.Require().NoError(err)
	s.True(a.IsActive)
}

func (s *marketSuite) TestWithdrawAuthorization() {
	s.fund(s.T(), buyer, "1")
	s.openAuction("2", "0.05")
	_, err := s.im.Bid(mockCtx, buyer, 1, d("0.06"))
	s.Require().NoError(err)

	_, err = s.im.WithdrawAuctionNFT(mockCtx, stranger, 1)
	s.True(errors.Is(err, domain.ErrUnauthorized))
	_, err = s.im.WithdrawAuctionNFT(mockCtx, buyer, 1)
	s.True(errors.Is(err, domain.ErrUnauthorized))
	_, err = s.im.WithdrawAuctionNFT(mockCtx, seller, 1)
	s.Equal(domain.ErrAuctionNotEnded, err)

	s.now = s.now.Add(time.Hour)
	a, err := s.im.WithdrawAuctionNFT(mockCtx, seller, 1)
	s.Require().NoError(err)
	s.Equal(auction.StatusSettled, a.Status)
	s.Equal(buyer, s.ownerOf(s.T(), "2"))
}

func (s *marketSuite) TestAuctionValidation() {
	s.mint(s.T(), seller, "2")
	p := marketplace.AuctionParams{Collection: collection, TokenId: "2", ReservePrice: d("-1"), DurationSeconds: 60}
	_, err := s.im.ListForAuction(mockCtx, seller, p)
	s.Equal(domain.ErrInvalidReserve, err)

	p.ReservePrice = d("0.05")
	p.DurationSeconds = 0
	_, err = s.im.ListForAuction(mockCtx, seller, p)
	s.Equal(domain.ErrInvalidDuration, err)

	p.DurationSeconds = 60
	_, err = s.im.ListForAuction(mockCtx, buyer, p)
	s.Equal(domain.ErrNotOwnerOrUnapproved, err)
}

func (s *marketSuite) TestWithdrawEscrow() {
	s.fund(s.T(), buyer, "1")
	s.list("1", "0.01")
	_, err := s.im.BuyNFT(mockCtx, buyer, 1, d("0.01"))
	s.Require().NoError(err)

	amount, err := s.im.WithdrawEscrow(mockCtx, seller)
	s.Require().NoError(err)
	s.True(d("0.01").Equal(amount))
	s.True(d("0.01").Equal(s.balanceOf(s.T(), seller)))

	_, err = s.im.WithdrawEscrow(mockCtx, seller)
	s.Equal(domain.ErrNothingToWithdraw, err)

	acc, err := s.im.GetEscrowAccount(mockCtx, seller)
	s.Require().NoError(err)
	s.True(acc.TotalWithdrawn.Equal(acc.TotalCredited))
}

func (s *marketSuite) TestFindListings() {
	s.list("1", "0.01")
	s.list("2", "0.02")
	_, err := s.im.CancelListing(mockCtx, seller, 1)
	s.Require().NoError(err)

	res, count, err := s.im.FindListings(mockCtx, listing.Filter{IsActive: ptr.Bool(true)})
	s.Require().NoError(err)
	s.Equal(1, count)
	s.Equal(int64(2), res[0].Id)

	sel := seller
	res, count, err = s.im.FindListings(mockCtx, listing.Filter{Seller: &sel, Limit: 1})
	s.Require().NoError(err)
	s.Equal(2, count)
	s.Require().Len(res, 1)
	s.Equal(int64(2), res[0].Id)
}

func (s *marketSuite) TestRollbackOnFailedTransfer() {
	s.fund(s.T(), buyer, "1")
	s.list("1", "0.01")

	ledger := &mAsset.Ledger{}
	ledger.On("TransferFrom", mock.Anything, custody, buyer, collection.ToLower(), domain.TokenId("1")).
		Return(xerrors.Errorf("ledger rejected: %w", domain.ErrTransferFailure)).Once()
	im := s.usecase(ledger)

	_, err := im.BuyNFT(mockCtx, buyer, 1, d("0.01"))
	s.True(errors.Is(err, domain.ErrTransferFailure))
	ledger.AssertExpectations(s.T())

	l, err := s.im.GetNFTListing(mockCtx, 1)
	s.Require().NoError(err)
	s.True(l.IsActive)
	s.True(d("1").Equal(s.balanceOf(s.T(), buyer)))
	s.True(s.escrowOf(s.T(), seller).IsZero())
	s.Equal(custody, s.ownerOf(s.T(), "1"))
	acts, err := s.im.GetActivities(mockCtx, buyer, 0, 10)
	s.Require().NoError(err)
	s.Empty(acts)

	// the listing is still buyable
	_, err = s.im.BuyNFT(mockCtx, buyer, 1, d("0.01"))
	s.NoError(err)
}

func (s *marketSuite) TestRollbackOnFailedListing() {
	ledger := &mAsset.Ledger{}
	ledger.On("OwnerOf", mock.Anything, collection.ToLower(), domain.TokenId("1")).Return(seller, nil)
	ledger.On("IsApprovedOrOwner", mock.Anything, custody, collection.ToLower(), domain.TokenId("1")).Return(true, nil)
	ledger.On("TransferFrom", mock.Anything, seller.ToLower(), custody, collection.ToLower(), domain.TokenId("1")).
		Return(domain.ErrTransferFailure)

	_, err := s.usecase(ledger).ListNFTForSale(mockCtx, seller, marketplace.ListParams{Collection: collection, TokenId: "1", Price: d("0.01")})
	s.Equal(domain.ErrTransferFailure, err)

	_, err = s.im.GetNFTListing(mockCtx, 1)
	s.Equal(domain.ErrListingNotFound, err)
	_, err = s.locks.Get(mockCtx, collection, "1")
	s.True(errors.Is(err, domain.ErrNotFound))

	l := s.list("1", "0.01")
	s.Equal(int64(1), l.Id)
}

func (s *marketSuite) TestReentrantCall() {
	s.fund(s.T(), buyer, "1")
	s.list("1", "0.01")

	var inner error
	ledger := &mAsset.Ledger{}
	ledger.On("TransferFrom", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(func(c ctx.Ctx, from, to, col domain.Address, tokenId domain.TokenId) error {
			_, inner = s.im.BuyNFT(c, buyer, 1, d("0.01"))
			return inner
		})

	_, err := s.usecase(ledger).BuyNFT(mockCtx, buyer, 1, d("0.01"))
	s.Equal(domain.ErrReentrantCall, err)
	s.Equal(domain.ErrReentrantCall, inner)

	l, err := s.im.GetNFTListing(mockCtx, 1)
	s.Require().NoError(err)
	s.True(l.IsActive)
}

func (s *marketSuite) TestConcurrentBuys() {
	s.list("1", "0.01")
	buyers := []domain.Address{buyer, bidder, stranger, owner}
	for _, b := range buyers {
		s.fund(s.T(), b, "1")
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for _, b := range buyers {
		wg.Add(1)
		go func(b domain.Address) {
			defer wg.Done()
			if _, err := s.im.BuyNFT(mockCtx, b, 1, d("0.01")); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			} else {
				s.Equal(domain.ErrListingInactive, err)
			}
		}(b)
	}
	wg.Wait()
	s.Equal(1, wins)
	s.True(d("0.01").Equal(s.escrowOf(s.T(), seller)))
}

func (s *marketSuite) TestSolvencyDuringBids() {
	s.fund(s.T(), buyer, "100")
	s.fund(s.T(), bidder, "100")
	s.openAuction("2", "0.05")

	done := make(chan struct{})
	go func() {
		defer close(done)
		bidders := []domain.Address{buyer, bidder}
		for i := 0; i < 50; i++ {
			amount := d("0.06").Add(d("0.01").Mul(decimal.NewFromInt(int64(i))))
			_, err := s.im.Bid(mockCtx, bidders[i%2], 1, amount)
			s.NoError(err)
		}
	}()

	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
		}
		sv, err := s.im.CheckSolvency(mockCtx)
		s.Require().NoError(err)
		s.True(sv.Solvent, "held %s liabilities %s", sv.Held, sv.Liabilities)
		s.True(sv.Held.Equal(sv.Liabilities), "held %s liabilities %s", sv.Held, sv.Liabilities)
	}

	a, err := s.im.GetNFTAuction(mockCtx, 1)
	s.Require().NoError(err)
	s.True(d("0.55").Equal(a.HighestBid))
}

func (s *marketSuite) TestFindAuctionsCountMatchesItems() {
	s.openAuction("1", "0.05")
	s.openAuction("2", "0.05")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, tokenId := range []domain.TokenId{"3", "4", "5", "6"} {
			s.openAuction(tokenId, "0.05")
		}
	}()

	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
		}
		res, count, err := s.im.FindAuctions(mockCtx, auction.Filter{IsActive: ptr.Bool(true)})
		s.Require().NoError(err)
		s.Len(res, count)
	}
}

func (s *marketSuite) TestIsPrivileged() {
	s.True(s.im.IsPrivileged(owner))
	s.False(s.im.IsPrivileged(seller))

	im := New(&MarketplaceUseCaseCfg{Operators: []domain.Address{"0xABC"}})
	s.True(im.IsPrivileged("0xabc"))
	s.False(im.IsPrivileged(""))
}
