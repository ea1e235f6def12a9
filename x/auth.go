package x

import (
	"github.com/iov-one/stanza"
)

// Authenticator is an interface we can use to extract authentication info
// from the context. This should be passed into the constructor of handlers,
// so we can plug in another authentication system, rather than hard-coding
// one implementation for all extensions.
type Authenticator interface {
	// GetConditions reveals all conditions fulfilled by the transaction,
	// you may want the GetAddresses helper.
	GetConditions(stanza.Context) []stanza.Condition
	// HasAddress checks if any condition matches this address.
	HasAddress(stanza.Context, stanza.Address) bool
}

// MultiAuth chains together many Authenticators into one.
type MultiAuth struct {
	impls []Authenticator
}

var _ Authenticator = MultiAuth{}

// ChainAuth groups together a series of Authenticator.
func ChainAuth(impls ...Authenticator) MultiAuth {
	return MultiAuth{impls}
}

// GetConditions combines all Conditions from all Authenticators.
func (m MultiAuth) GetConditions(ctx stanza.Context) []stanza.Condition {
	var res []stanza.Condition
	for _, impl := range m.impls {
		add := impl.GetConditions(ctx)
		if len(add) > 0 {
			res = append(res, add...)
		}
	}
	return res
}

// HasAddress returns true iff any Authenticator vouches for this address.
func (m MultiAuth) HasAddress(ctx stanza.Context, addr stanza.Address) bool {
	for _, impl := range m.impls {
		if impl.HasAddress(ctx, addr) {
			return true
		}
	}
	return false
}

// GetAddresses wraps the GetConditions method of any Authenticator.
func GetAddresses(ctx stanza.Context, auth Authenticator) []stanza.Address {
	perms := auth.GetConditions(ctx)
	addrs := make([]stanza.Address, len(perms))
	for i, p := range perms {
		addrs[i] = p.Address()
	}
	return addrs
}

// MainSigner returns the first condition if any, otherwise nil.
func MainSigner(ctx stanza.Context, auth Authenticator) stanza.Condition {
	signers := auth.GetConditions(ctx)
	if len(signers) == 0 {
		return nil
	}
	return signers[0]
}

// HasAllAddresses returns true if all elements in required are also in the
// context.
func HasAllAddresses(ctx stanza.Context, auth Authenticator, required []stanza.Address) bool {
	for _, r := range required {
		if !auth.HasAddress(ctx, r) {
			return false
		}
	}
	return true
}

// HasAllConditions returns true if all elements in required are also in the
// context.
func HasAllConditions(ctx stanza.Context, auth Authenticator, required []stanza.Condition) bool {
	perms := auth.GetConditions(ctx)
	for _, req := range required {
		if !hasPerm(perms, req) {
			return false
		}
	}
	return true
}

func hasPerm(perms []stanza.Condition, perm stanza.Condition) bool {
	for _, p := range perms {
		if p.Equals(perm) {
			return true
		}
	}
	return false
}
