package stanza_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iov-one/stanza"
	"github.com/iov-one/stanza/errors"
	"github.com/iov-one/stanza/stanzatest"
)

func TestLoadMsg(t *testing.T) {
	msg := &stanzatest.Msg{RoutePath: "test/any", Serialized: []byte("payload")}
	tx := &stanzatest.Tx{Msg: msg}

	var dest stanzatest.Msg
	require.NoError(t, stanza.LoadMsg(tx, &dest))
	assert.Equal(t, []byte("payload"), dest.Serialized)
}

func TestLoadMsgWrongDestination(t *testing.T) {
	tx := &stanzatest.Tx{Msg: &stanzatest.Msg{RoutePath: "test/any"}}

	var wrong wrongMsg
	err := stanza.LoadMsg(tx, &wrong)
	assert.True(t, errors.ErrType.Is(err))
}

func TestLoadMsgInvalidMessage(t *testing.T) {
	tx := &stanzatest.Tx{Msg: &stanzatest.Msg{
		RoutePath: "test/any",
		Err:       errors.ErrState.New("broken"),
	}}

	var dest stanzatest.Msg
	err := stanza.LoadMsg(tx, &dest)
	assert.True(t, errors.ErrState.Is(err))
}

func TestGetPath(t *testing.T) {
	tx := &stanzatest.Tx{Msg: &stanzatest.Msg{RoutePath: "test/any"}}
	assert.Equal(t, "test/any", stanza.GetPath(tx))

	broken := &stanzatest.Tx{Err: errors.ErrState.New("broken")}
	assert.Equal(t, "(missing)", stanza.GetPath(broken))
}

// wrongMsg implements stanza.Msg but is not the type the transaction holds.
type wrongMsg struct{}

var _ stanza.Msg = (*wrongMsg)(nil)

func (wrongMsg) Path() string             { return "test/wrong" }
func (wrongMsg) Validate() error          { return nil }
func (wrongMsg) Marshal() ([]byte, error) { return nil, nil }
func (*wrongMsg) Unmarshal([]byte) error  { return nil }
