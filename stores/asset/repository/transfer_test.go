package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/domain"
	"github.com/x-xyz/nftmarket/domain/asset"
	"github.com/x-xyz/nftmarket/service/query"
)

func TestTransferPending(t *testing.T) {
	req := require.New(t)
	c := ctx.Background()
	q := query.NewMemory()
	req.NoError(q.EnsureIndexes(c, TransferIndexes()...))
	repo := NewTransferRepo(q)

	nft := domain.Address("0x00000000000000000000000000000000000000C0")
	now := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)

	pending, err := repo.HasPending(c, nft, "1")
	req.NoError(err)
	req.False(pending)

	req.NoError(repo.Create(c, &asset.Transfer{Id: "0x02", TxHash: "0x02", Collection: nft, TokenId: "1", Status: asset.TransferPending, CreatedAt: now.Add(time.Minute)}))
	req.NoError(repo.Create(c, &asset.Transfer{Id: "0x01", TxHash: "0x01", Collection: nft, TokenId: "2", Status: asset.TransferPending, CreatedAt: now}))
	req.Error(repo.Create(c, &asset.Transfer{Id: "0x01", TxHash: "0x01", Collection: nft, TokenId: "3", Status: asset.TransferPending}))

	pending, err = repo.HasPending(c, nft.ToLower(), "1")
	req.NoError(err)
	req.True(pending)

	res, err := repo.FindPending(c)
	req.NoError(err)
	req.Len(res, 2)
	req.Equal("0x01", res[0].Id)
	req.Equal("0x02", res[1].Id)

	res[0].TxHash = "0x03"
	res[0].Attempts = 2
	res[0].Status = asset.TransferConfirmed
	req.NoError(repo.Update(c, res[0]))

	res, err = repo.FindPending(c)
	req.NoError(err)
	req.Len(res, 1)
	req.Equal("0x02", res[0].Id)

	pending, err = repo.HasPending(c, nft, "2")
	req.NoError(err)
	req.False(pending)

	req.ErrorIs(repo.Update(c, &asset.Transfer{Id: "0x09"}), domain.ErrNotFound)
}
