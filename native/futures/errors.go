package futures

import "errors"

// Error taxonomy surfaced by the settlement engine. Every failed operation
// wraps exactly one of these sentinels so RPC handlers and callers can map
// failures without string matching.
var (
	ErrInvalidAddress           = errors.New("futures: invalid address")
	ErrInvalidToken             = errors.New("futures: invalid token")
	ErrInvalidFutureTime        = errors.New("futures: invalid future time")
	ErrFutureNotFound           = errors.New("futures: future not found")
	ErrFutureNotActive          = errors.New("futures: future not active")
	ErrDepositNotPaid           = errors.New("futures: deposit not paid")
	ErrDepositAlreadyPaid       = errors.New("futures: deposit already paid")
	ErrInsufficientFuture       = errors.New("futures: insufficient future supply")
	ErrMintingNotEnoughPayToken = errors.New("futures: not enough pay token for mint")
	ErrInvalidFutureClaim       = errors.New("futures: invalid future claim")
	ErrTransferFailed           = errors.New("futures: transfer failed")
	ErrUnauthorized             = errors.New("futures: unauthorized caller")
)
