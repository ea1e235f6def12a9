package x_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iov-one/stanza"
	"github.com/iov-one/stanza/stanzatest"
	"github.com/iov-one/stanza/x"
)

func TestChainAuth(t *testing.T) {
	a := stanzatest.NewCondition()
	b := stanzatest.NewCondition()
	c := stanzatest.NewCondition()

	ctx := context.Background()
	first := &stanzatest.Auth{Signer: a}
	second := &stanzatest.Auth{Signers: []stanza.Condition{b, c}}
	auth := x.ChainAuth(first, second)

	conds := auth.GetConditions(ctx)
	assert.Equal(t, []stanza.Condition{a, b, c}, conds)

	assert.True(t, auth.HasAddress(ctx, a.Address()))
	assert.True(t, auth.HasAddress(ctx, c.Address()))
	assert.False(t, auth.HasAddress(ctx, stanzatest.NewCondition().Address()))
}

func TestMainSigner(t *testing.T) {
	a := stanzatest.NewCondition()
	b := stanzatest.NewCondition()

	ctx := context.Background()

	auth := &stanzatest.Auth{Signers: []stanza.Condition{a, b}}
	assert.True(t, a.Equals(x.MainSigner(ctx, auth)))

	empty := &stanzatest.Auth{}
	assert.Nil(t, x.MainSigner(ctx, empty))
}

func TestHasAllAddresses(t *testing.T) {
	a := stanzatest.NewCondition()
	b := stanzatest.NewCondition()
	other := stanzatest.NewCondition()

	ctx := context.Background()
	auth := &stanzatest.Auth{Signers: []stanza.Condition{a, b}}

	assert.True(t, x.HasAllAddresses(ctx, auth, nil))
	assert.True(t, x.HasAllAddresses(ctx, auth, []stanza.Address{a.Address()}))
	assert.True(t, x.HasAllAddresses(ctx, auth, []stanza.Address{b.Address(), a.Address()}))
	assert.False(t, x.HasAllAddresses(ctx, auth, []stanza.Address{a.Address(), other.Address()}))
}

func TestHasAllConditions(t *testing.T) {
	a := stanzatest.NewCondition()
	b := stanzatest.NewCondition()
	other := stanzatest.NewCondition()

	ctx := context.Background()
	auth := &stanzatest.Auth{Signers: []stanza.Condition{a, b}}

	assert.True(t, x.HasAllConditions(ctx, auth, nil))
	assert.True(t, x.HasAllConditions(ctx, auth, []stanza.Condition{a, b}))
	assert.False(t, x.HasAllConditions(ctx, auth, []stanza.Condition{a, other}))
}

func TestCtxAuth(t *testing.T) {
	a := stanzatest.NewCondition()
	auth := &stanzatest.CtxAuth{Key: "auth"}

	ctx := auth.SetConditions(context.Background(), a)
	assert.Equal(t, []stanza.Condition{a}, auth.GetConditions(ctx))
	assert.True(t, auth.HasAddress(ctx, a.Address()))

	// An empty context carries no conditions.
	assert.Nil(t, auth.GetConditions(context.Background()))
}
