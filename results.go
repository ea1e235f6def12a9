package stanza

import (
	common "github.com/tendermint/tendermint/libs/common"
)

// CheckResult captures any non-error abci result to make sure people use
// error for error cases.
type CheckResult struct {
	// Data is a machine-parseable return value, like id of created entity.
	Data []byte
	// Log is human readable data.
	Log string
	// GasAllocated is how much gas this operation may consume when
	// delivered.
	GasAllocated int64
}

// NewCheckResult constructs a CheckResult with the given gas allowance.
func NewCheckResult(data []byte, gasAllocated int64) *CheckResult {
	return &CheckResult{Data: data, GasAllocated: gasAllocated}
}

// DeliverResult captures any non-error abci result to make sure people use
// error for error cases.
type DeliverResult struct {
	// Data is a machine-parseable return value, like id of created entity.
	Data []byte
	// Log is human readable data.
	Log string
	// Tags are append-only records emitted by the operation, observable
	// by external consumers and immutable once emitted.
	Tags []common.KVPair
	// GasUsed is how much gas was used by this operation.
	GasUsed int64
}

// NewDeliverResult constructs a DeliverResult carrying the given emitted
// records.
func NewDeliverResult(data []byte, tags ...common.KVPair) *DeliverResult {
	return &DeliverResult{Data: data, Tags: tags}
}
