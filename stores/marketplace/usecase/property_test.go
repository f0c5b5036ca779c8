package usecase

import (
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/x-xyz/nftmarket/domain"
	"github.com/x-xyz/nftmarket/domain/marketplace"
)

var bidders = []domain.Address{buyer, bidder, stranger, owner}

// cents turns a drawn integer into an amount with two decimals
func cents(n int) decimal.Decimal {
	return decimal.New(int64(n), -2)
}

func TestBidsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := newFixture(t)
		for _, b := range bidders {
			f.fund(t, b, "1000")
		}
		f.mint(t, seller, "1")
		reserve := rapid.IntRange(1, 50).Draw(t, "reserve").(int)
		_, err := f.im.ListForAuction(mockCtx, seller, marketplace.AuctionParams{
			Collection:      collection,
			TokenId:         "1",
			ReservePrice:    cents(reserve),
			DurationSeconds: 3600,
		})
		require.NoError(t, err)

		var (
			highest  = cents(reserve)
			leader   domain.Address
			refunded = map[domain.Address]decimal.Decimal{}
		)
		steps := rapid.IntRange(1, 20).Draw(t, "steps").(int)
		for i := 0; i < steps; i++ {
			who := rapid.SampledFrom(bidders).Draw(t, "bidder").(domain.Address)
			amount := cents(rapid.IntRange(1, 200).Draw(t, "amount").(int))

			a, err := f.im.Bid(mockCtx, who, 1, amount)
			if !amount.GreaterThan(highest) {
				require.Equal(t, domain.ErrBidTooLow, err)
				continue
			}
			require.NoError(t, err)
			require.True(t, a.HighestBid.GreaterThan(highest))
			if leader != "" {
				refunded[leader] = refunded[leader].Add(highest)
			}
			leader, highest = who, amount
		}

		for _, b := range bidders {
			require.True(t, refunded[b].Equal(f.escrowOf(t, b)), "escrow of %s", b)
		}
		a, err := f.im.GetNFTAuction(mockCtx, 1)
		require.NoError(t, err)
		require.Equal(t, leader, a.HighestBidder)
		f.requireBalanced(t)

		_, err = f.im.WithdrawAuctionNFT(mockCtx, owner, 1)
		require.NoError(t, err)
		if leader != "" {
			require.Equal(t, leader, f.ownerOf(t, "1"))
			require.True(t, highest.Equal(f.escrowOf(t, seller)))
		} else {
			require.Equal(t, seller.ToLower(), f.ownerOf(t, "1"))
		}
		f.requireBalanced(t)
	})
}

func TestSalesProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := newFixture(t)
		for _, b := range bidders {
			f.fund(t, b, "1000")
		}
		accounts := append([]domain.Address{seller}, bidders...)

		listed := 0
		steps := rapid.IntRange(1, 30).Draw(t, "steps").(int)
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 3).Draw(t, "op").(int) {
			case 0:
				listed++
				tokenId := domain.TokenId(strconv.Itoa(listed))
				f.mint(t, seller, tokenId)
				_, err := f.im.ListNFTForSale(mockCtx, seller, marketplace.ListParams{
					Collection: collection,
					TokenId:    tokenId,
					Price:      cents(rapid.IntRange(1, 500).Draw(t, "price").(int)),
				})
				require.NoError(t, err)
			case 1:
				if listed == 0 {
					continue
				}
				id := int64(rapid.IntRange(1, listed).Draw(t, "id").(int))
				l, err := f.im.GetNFTListing(mockCtx, id)
				require.NoError(t, err)
				who := rapid.SampledFrom(bidders).Draw(t, "buyer").(domain.Address)
				_, err = f.im.BuyNFT(mockCtx, who, id, l.Price)
				if l.IsActive {
					require.NoError(t, err)
					require.Equal(t, who, f.ownerOf(t, l.TokenId))
				} else {
					require.Equal(t, domain.ErrListingInactive, err)
				}
			case 2:
				if listed == 0 {
					continue
				}
				id := int64(rapid.IntRange(1, listed).Draw(t, "id").(int))
				_, err := f.im.CancelListing(mockCtx, seller, id)
				if err != nil {
					require.Equal(t, domain.ErrListingInactive, err)
				}
			case 3:
				who := rapid.SampledFrom(accounts).Draw(t, "withdrawer").(domain.Address)
				before := f.escrowOf(t, who)
				amount, err := f.im.WithdrawEscrow(mockCtx, who)
				if before.IsZero() {
					require.Equal(t, domain.ErrNothingToWithdraw, err)
				} else {
					require.NoError(t, err)
					require.True(t, before.Equal(amount))
				}
			}
			f.requireBalanced(t)
		}

		for _, a := range accounts {
			acc, err := f.escrow.Get(mockCtx, a)
			require.NoError(t, err)
			require.True(t, acc.TotalWithdrawn.LessThanOrEqual(acc.TotalCredited))
			require.True(t, acc.Balance.Equal(acc.TotalCredited.Sub(acc.TotalWithdrawn)))
		}
	})
}
