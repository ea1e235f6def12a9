package track

import (
	"github.com/iov-one/stanza/errors"
)

var (
	// ErrInvalidShareTotal is returned when the contributor shares do not
	// sum to exactly 10000 basis points.
	ErrInvalidShareTotal = errors.Register(1000, "shares must sum to 10000 basis points")

	// ErrNoContributors is returned when a split table is empty.
	ErrNoContributors = errors.Register(1001, "no contributors")

	// ErrTooManyContributors is returned when a split table exceeds the
	// contributor limit.
	ErrTooManyContributors = errors.Register(1002, "too many contributors")

	// ErrTitleTooLong is returned when the track title exceeds the length
	// limit.
	ErrTitleTooLong = errors.Register(1003, "title too long")

	// ErrCidTooLong is returned when the content ID exceeds the length
	// limit.
	ErrCidTooLong = errors.Register(1004, "content id too long")

	// ErrTooManyStems is returned when a track has reached the stem
	// credential limit.
	ErrTooManyStems = errors.Register(1005, "too many stem credentials")

	// ErrNotAContributor is returned when the claimed contributor is not
	// part of the split table at the claimed position.
	ErrNotAContributor = errors.Register(1006, "not a contributor")

	// ErrRecipientNotFound is returned when a contributor that is owed a
	// payout has no account among the presented destinations.
	ErrRecipientNotFound = errors.Register(1007, "payout recipient not found")

	// ErrVersionOverflow is returned when the royalty version cannot be
	// incremented anymore.
	ErrVersionOverflow = errors.Register(1008, "royalty version overflow")

	// ErrMath is returned when a payout computation cannot be performed
	// safely.
	ErrMath = errors.Register(1009, "math error")
)
