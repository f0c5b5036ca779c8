package repository

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/base/ptr"
	"github.com/x-xyz/nftmarket/domain"
	"github.com/x-xyz/nftmarket/domain/auction"
	"github.com/x-xyz/nftmarket/service/query"
)

const (
	seller = domain.Address("0x00000000000000000000000000000000000000a1")
	bidder = domain.Address("0x00000000000000000000000000000000000000c3")
	nft    = domain.Address("0x00000000000000000000000000000000000000c0")
)

var start = time.Unix(1700000000, 0).UTC()

type AuctionRepoSuite struct {
	suite.Suite

	ctx  ctx.Ctx
	repo auction.Repo
}

func TestAuctionRepoSuite(t *testing.T) {
	suite.Run(t, new(AuctionRepoSuite))
}

func (s *AuctionRepoSuite) SetupTest() {
	s.ctx = ctx.Background()
	q := query.NewMemory()
	s.Require().NoError(q.EnsureIndexes(s.ctx, Indexes()...))
	s.repo = New(q, nil)
}

func (s *AuctionRepoSuite) create(tokenId domain.TokenId) *auction.Auction {
	id, err := s.repo.NextId(s.ctx)
	s.Require().NoError(err)
	a := &auction.Auction{
		Id:           id,
		Collection:   nft,
		TokenId:      tokenId,
		Seller:       seller,
		ReservePrice: decimal.RequireFromString("0.05"),
		StartTime:    start,
		EndTime:      start.Add(time.Hour),
		HighestBid:   decimal.Zero,
		IsActive:     true,
		Status:       auction.StatusActive,
	}
	s.Require().NoError(s.repo.Create(s.ctx, a))
	return a
}

func (s *AuctionRepoSuite) TestCreateGetUpdate() {
	a := s.create("1")

	res, err := s.repo.Get(s.ctx, a.Id)
	s.NoError(err)
	s.True(res.IsActive)
	s.False(res.HasBids())
	s.True(res.Floor().Equal(decimal.RequireFromString("0.05")))
	s.True(res.EndTime.Equal(a.EndTime))

	a.HighestBidder = bidder
	a.HighestBid = decimal.RequireFromString("0.06")
	a.BidCount = 1
	s.NoError(s.repo.Update(s.ctx, a))

	res, err = s.repo.Get(s.ctx, a.Id)
	s.NoError(err)
	s.True(res.HasBids())
	s.True(res.Floor().Equal(decimal.RequireFromString("0.06")))

	_, err = s.repo.Get(s.ctx, 42)
	s.ErrorIs(err, domain.ErrAuctionNotFound)
}

func (s *AuctionRepoSuite) TestClosedAuctionServedFromCache() {
	a := s.create("1")
	a.IsActive = false
	a.Status = auction.StatusWithdrawn
	s.NoError(s.repo.Update(s.ctx, a))

	for i := 0; i < 2; i++ {
		res, err := s.repo.Get(s.ctx, a.Id)
		s.NoError(err)
		s.Equal(auction.StatusWithdrawn, res.Status)
		s.False(res.IsActive)
	}
}

func (s *AuctionRepoSuite) TestBidsInPlacingOrder() {
	a := s.create("1")
	other := s.create("2")

	for i, amount := range []string{"0.06", "0.08", "0.1"} {
		s.NoError(s.repo.AddBid(s.ctx, &auction.Bid{
			AuctionId: a.Id,
			Seq:       i + 1,
			Bidder:    bidder,
			Amount:    decimal.RequireFromString(amount),
			Time:      start.Add(time.Duration(i) * time.Minute),
		}))
	}
	s.NoError(s.repo.AddBid(s.ctx, &auction.Bid{AuctionId: other.Id, Seq: 1, Bidder: bidder, Amount: decimal.RequireFromString("1")}))

	// seq is unique per auction
	s.Error(s.repo.AddBid(s.ctx, &auction.Bid{AuctionId: a.Id, Seq: 2, Bidder: bidder, Amount: decimal.RequireFromString("2")}))

	bids, err := s.repo.GetBids(s.ctx, a.Id)
	s.NoError(err)
	s.Require().Len(bids, 3)
	for i, b := range bids {
		s.Equal(i+1, b.Seq)
	}
	s.True(bids[2].Amount.Equal(decimal.RequireFromString("0.1")))
}

func (s *AuctionRepoSuite) TestFindAndCount() {
	s.create("1")
	closed := s.create("2")
	closed.IsActive = false
	s.NoError(s.repo.Update(s.ctx, closed))
	s.create("3")

	res, err := s.repo.Find(s.ctx, auction.Filter{IsActive: ptr.Bool(true)})
	s.NoError(err)
	s.Require().Len(res, 2)
	s.Equal(domain.TokenId("3"), res[0].TokenId)

	n, err := s.repo.Count(s.ctx, auction.Filter{Collection: ptr.Address(nft)})
	s.NoError(err)
	s.Equal(3, n)
}
