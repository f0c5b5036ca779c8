package domain

type Table string

const (
	TableListings       Table = "listings"
	TableAuctions       Table = "auctions"
	TableAuctionBids    Table = "auction_bids"
	TableEscrowAccounts Table = "escrow_accounts"
	TableAssetLocks     Table = "asset_locks"
	TableActivities     Table = "activities"
	TableBankAccounts   Table = "bank_accounts"
	TableSequences      Table = "sequences"
	TableNftTokens      Table = "nft_tokens"
	TableNftOperators   Table = "nft_operators"
	TableAssetTransfers Table = "asset_transfers"
)
