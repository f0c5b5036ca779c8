package domain

import "errors"

// error kinds, every error returned by the marketplace matches exactly one of them with errors.Is
var (
	// ErrNotFound will throw if the requested item is not exists
	ErrNotFound = errors.New("not found")
	// ErrInvalidState will throw if the item is inactive or already settled
	ErrInvalidState = errors.New("invalid state")
	// ErrUnauthorized will throw if the caller lacks the required role or ownership
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation will throw if the given price, duration or bid amount is not valid
	ErrValidation = errors.New("validation error")
	// ErrInsufficientFunds will throw if the payment is below the required amount
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrTransferFailure will throw if the underlying asset or fund transfer is rejected
	ErrTransferFailure = errors.New("transfer failure")
	// ErrNothingToWithdraw will throw if the escrow balance is zero
	ErrNothingToWithdraw = errors.New("nothing to withdraw")
)

var (
	ErrInternalServerError = errors.New("internal server error")
	ErrBadParamInput       = NewError(ErrValidation, "given param is not valid")
	ErrInvalidAddress      = NewError(ErrValidation, "invalid address")
	ErrInvalidSignature    = NewError(ErrUnauthorized, "invalid signature")
	ErrInvalidNonce        = NewError(ErrUnauthorized, "invalid nonce")
	ErrNotImplemented      = errors.New("not implemented")
)

// listing
var (
	ErrListingNotFound     = NewError(ErrNotFound, "listing not found")
	ErrListingInactive     = NewError(ErrInvalidState, "listing is not active")
	ErrSellerCannotBuy     = NewError(ErrInvalidState, "seller cannot buy")
	ErrInvalidPrice        = NewError(ErrValidation, "price must be greater than zero")
	ErrInvalidAmount       = NewError(ErrValidation, "amount is out of range or exceeds supported precision")
	ErrInsufficientPayment = NewError(ErrInsufficientFunds, "payment is below listing price")
	ErrExcessPayment       = NewError(ErrValidation, "payment must match listing price exactly")
)

// auction
var (
	ErrAuctionNotFound = NewError(ErrNotFound, "auction not found")
	ErrAuctionInactive = NewError(ErrInvalidState, "auction is not active")
	ErrAuctionExpired  = NewError(ErrInvalidState, "auction has ended")
	ErrAuctionNotEnded = NewError(ErrInvalidState, "auction has not ended")
	ErrSellerCannotBid = NewError(ErrInvalidState, "seller cannot bid")
	ErrBidTooLow       = NewError(ErrValidation, "bid must exceed highest bid and reserve price")
	ErrInvalidReserve  = NewError(ErrValidation, "reserve price must be greater than zero")
	ErrInvalidDuration = NewError(ErrValidation, "duration must be greater than zero")
)

// custody
var (
	ErrInvalidAsset          = NewError(ErrValidation, "invalid asset")
	ErrNotOwnerOrUnapproved  = NewError(ErrUnauthorized, "caller is not owner or marketplace is not approved")
	ErrAssetAlreadyListed    = NewError(ErrInvalidState, "asset already has an active sale")
	ErrReentrantCall         = NewError(ErrInvalidState, "reentrant call")
	ErrInsolvent             = NewError(ErrInvalidState, "marketplace liabilities exceed held funds")
	ErrNotSellerOrPrivileged = NewError(ErrUnauthorized, "caller is neither seller nor privileged")
	ErrRequirePrivilege      = NewError(ErrUnauthorized, "require privileged account")
	ErrBalanceNotEnough      = NewError(ErrInsufficientFunds, "balance is not enough")
	ErrCustodyBalanceTooLow  = NewError(ErrTransferFailure, "custody balance is not enough")
	ErrUnsupportedOperation  = NewError(ErrValidation, "operation not supported by asset ledger")
	ErrTransferPending       = NewError(ErrInvalidState, "asset transfer is pending")
)

// Error binds a descriptive reason to one of the error kinds
type Error struct {
	Kind   error
	Reason string
}

func NewError(kind error, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

func (e *Error) Error() string {
	return e.Reason
}

func (e *Error) Unwrap() error {
	return e.Kind
}

var kinds = []error{
	ErrNotFound,
	ErrInvalidState,
	ErrUnauthorized,
	ErrValidation,
	ErrInsufficientFunds,
	ErrTransferFailure,
	ErrNothingToWithdraw,
}

// KindOf returns the error kind of err, or ErrInternalServerError if none matches
func KindOf(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrInternalServerError
}
