package token

import (
	"github.com/iov-one/stanza/errors"
)

var (
	// ErrInsufficientFunds is returned when the source account balance
	// cannot cover the transfer.
	ErrInsufficientFunds = errors.Register(1100, "insufficient funds")

	// ErrSupplyExceeded is returned when minting would push the total
	// supply of an asset above its declared maximum.
	ErrSupplyExceeded = errors.Register(1101, "maximum supply exceeded")

	// ErrInvalidAccountOwner is returned when the presented authority
	// does not own the source account.
	ErrInvalidAccountOwner = errors.Register(1102, "invalid account owner")
)
