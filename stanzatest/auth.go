package stanzatest

import (
	"context"

	"github.com/iov-one/stanza"
	"github.com/iov-one/stanza/x"
)

// Auth is a mock implementing x.Authenticator interface.
type Auth struct {
	// Signer is returned by GetConditions when not nil.
	Signer stanza.Condition
	// Signers are returned by GetConditions when Signer is nil.
	Signers []stanza.Condition
}

var _ x.Authenticator = (*Auth)(nil)

func (a *Auth) GetConditions(stanza.Context) []stanza.Condition {
	if a.Signer != nil {
		return []stanza.Condition{a.Signer}
	}
	return a.Signers
}

func (a *Auth) HasAddress(ctx stanza.Context, addr stanza.Address) bool {
	for _, s := range a.GetConditions(ctx) {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	return false
}

// CtxAuth is an x.Authenticator implementation that reads conditions from
// the context, stored there under the given key.
type CtxAuth struct {
	Key string
}

var _ x.Authenticator = (*CtxAuth)(nil)

// SetConditions stores the conditions in the context.
func (a *CtxAuth) SetConditions(ctx stanza.Context, conds ...stanza.Condition) stanza.Context {
	return context.WithValue(ctx, ctxAuthKey(a.Key), conds)
}

func (a *CtxAuth) GetConditions(ctx stanza.Context) []stanza.Condition {
	val := ctx.Value(ctxAuthKey(a.Key))
	if val == nil {
		return nil
	}
	conds, ok := val.([]stanza.Condition)
	if !ok {
		panic("instead of conditions, the context contains an unexpected type")
	}
	return conds
}

func (a *CtxAuth) HasAddress(ctx stanza.Context, addr stanza.Address) bool {
	for _, s := range a.GetConditions(ctx) {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	return false
}

type ctxAuthKey string
