package stanzatest

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"

	"github.com/iov-one/stanza"
)

// condCnt ensures that conditions created by NewCondition are unique within
// a single test run.
var condCnt uint64

// NewCondition returns a stable but unique condition, usable as a stand in
// for a signer identity.
func NewCondition() stanza.Condition {
	n := atomic.AddUint64(&condCnt, 1)
	data := fmt.Sprintf("random-%08d", n)
	return stanza.NewCondition("test", "mock", []byte(data))
}

// NewKey returns the address of a new unique condition.
func NewKey() stanza.Address {
	return NewCondition().Address()
}

// SequenceID returns an ID encoded the same way the orm sequence does it.
func SequenceID(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}
