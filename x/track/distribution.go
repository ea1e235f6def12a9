package track

import (
	"math/bits"

	"github.com/iov-one/stanza"
	"github.com/iov-one/stanza/errors"
	"github.com/iov-one/stanza/x/token"
)

// TokenController is the part of the token extension the track handlers
// rely on. token.BaseController satisfies it.
type TokenController interface {
	Balance(db stanza.ReadOnlyKVStore, owner stanza.Address, asset []byte) (uint64, error)
	Account(db stanza.ReadOnlyKVStore, owner stanza.Address, asset []byte) (*token.Account, error)
	Asset(db stanza.ReadOnlyKVStore, assetID []byte) (*token.Asset, error)
	CreateAccount(db stanza.KVStore, owner stanza.Address, asset []byte) error
	Move(db stanza.KVStore, authority, src, dest stanza.Address, asset []byte, amount uint64) error
	MintTo(db stanza.KVStore, authority, dest stanza.Address, asset []byte, amount uint64) error
	SetAuthority(db stanza.KVStore, current, next stanza.Address, asset []byte) error
}

var _ TokenController = token.BaseController{}

// payout computes floor(amount * share / 10000) without intermediate
// overflow. Shares above 10000 basis points cannot appear in a valid split
// table and are rejected.
func payout(amount uint64, share uint32) (uint64, error) {
	if share > totalShareBps {
		return 0, errors.Wrapf(ErrMath, "share of %d basis points", share)
	}
	if share == 0 || amount == 0 {
		return 0, nil
	}
	// The quotient fits: share <= 10000, so the high word of the product
	// is always below the divisor.
	hi, lo := bits.Mul64(amount, uint64(share))
	q, _ := bits.Div64(hi, lo, totalShareBps)
	return q, nil
}

// payoutMove is a single pending transfer of a payout round.
type payoutMove struct {
	dest   stanza.Address
	amount uint64
}

// payoutPlan is a fully validated payout round. Once built, executing it
// can only fail on storage errors, so a round is either paid out completely
// or not at all.
type payoutPlan struct {
	authority stanza.Address
	escrow    stanza.Address
	asset     []byte
	moves     []payoutMove
	total     uint64
}

// buildPayoutPlan validates a distribution request against the current
// state and returns the transfers to perform. Contributors with a zero
// payout are skipped. Every contributor that is owed a payout must have an
// existing account and be listed among the candidate destinations.
func buildPayoutPlan(db stanza.ReadOnlyKVStore, ctrl TokenController, t *Track, asset []byte, amount uint64, candidates []stanza.Address) (*payoutPlan, error) {
	escrowOwner := t.Condition().Address()

	// The stored table is validated on every write, but a payout round
	// must never run on a corrupt split.
	var sum uint64
	for _, s := range t.Shares {
		sum += uint64(s)
	}
	if sum != totalShareBps {
		return nil, errors.Wrapf(ErrInvalidShareTotal, "stored table sums to %d", sum)
	}

	balance, err := ctrl.Balance(db, escrowOwner, asset)
	if err != nil {
		return nil, errors.Wrap(err, "escrow balance")
	}
	if balance < amount {
		return nil, errors.Wrapf(token.ErrInsufficientFunds, "escrow holds %d, need %d", balance, amount)
	}

	plan := payoutPlan{
		authority: escrowOwner,
		escrow:    escrowOwner,
		asset:     asset,
	}
	for i, contributor := range t.Contributors {
		pay, err := payout(amount, t.Shares[i])
		if err != nil {
			return nil, errors.Wrapf(err, "contributor %d", i)
		}
		if pay == 0 {
			continue
		}
		if !containsAddress(candidates, contributor) {
			return nil, errors.Wrapf(ErrRecipientNotFound, "contributor %s not among destinations", contributor)
		}
		if _, err := ctrl.Account(db, contributor, asset); err != nil {
			if errors.ErrNotFound.Is(err) {
				return nil, errors.Wrapf(ErrRecipientNotFound, "contributor %s has no account", contributor)
			}
			return nil, errors.Wrapf(err, "contributor %d account", i)
		}
		plan.moves = append(plan.moves, payoutMove{dest: contributor, amount: pay})
		plan.total += pay
	}
	return &plan, nil
}

// execute performs all transfers of the plan. Rounding dust stays on the
// escrow account.
func (p *payoutPlan) execute(db stanza.KVStore, ctrl TokenController) error {
	for _, m := range p.moves {
		if err := ctrl.Move(db, p.authority, p.escrow, m.dest, p.asset, m.amount); err != nil {
			return errors.Wrapf(err, "payout to %s", m.dest)
		}
	}
	return nil
}

func containsAddress(haystack []stanza.Address, needle stanza.Address) bool {
	for _, a := range haystack {
		if a.Equals(needle) {
			return true
		}
	}
	return false
}
