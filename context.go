package stanza

import (
	"context"
	"regexp"

	"github.com/iov-one/stanza/errors"
	"github.com/tendermint/tendermint/libs/log"
)

// Context is just an alias for the standard implementation. We use functions
// to extend it to our domain.
type Context = context.Context

// DefaultLogger is used for all context that have not set anything
// themselves.
var DefaultLogger = log.NewNopLogger()

// IsValidChainID is the RegExp to ensure valid chain IDs.
var IsValidChainID = regexp.MustCompile(`^[a-zA-Z0-9_\-]{6,20}$`).MatchString

type contextKey int // local to the stanza module

const (
	contextKeyHeight contextKey = iota
	contextKeyChainID
	contextKeyLogger
)

// WithHeight sets the block height for the Context. Must only be called
// once.
func WithHeight(ctx Context, height int64) Context {
	if _, ok := GetHeight(ctx); ok {
		panic("Height already set")
	}
	return context.WithValue(ctx, contextKeyHeight, height)
}

// GetHeight returns the current block height. ok is false if no height is
// set yet.
func GetHeight(ctx Context) (int64, bool) {
	val, ok := ctx.Value(contextKeyHeight).(int64)
	return val, ok
}

// WithChainID sets the chain id for the Context. Must only be called once
// and with a valid id.
func WithChainID(ctx Context, chainID string) Context {
	if ctx.Value(contextKeyChainID) != nil {
		panic("Chain ID already set")
	}
	if !IsValidChainID(chainID) {
		panic(errors.Wrapf(errors.ErrInput, "chain id: %v", chainID))
	}
	return context.WithValue(ctx, contextKeyChainID, chainID)
}

// GetChainID returns the chain id from the context. Panics if no chain id
// is present, as this is a configuration error.
func GetChainID(ctx Context) string {
	if ctx == nil {
		panic("Context is nil")
	}
	val, ok := ctx.Value(contextKeyChainID).(string)
	if !ok {
		panic("Chain ID not set")
	}
	return val
}

// WithLogger sets the logger for this Context.
func WithLogger(ctx Context, logger log.Logger) Context {
	// Logger can be overridden below... no problem.
	return context.WithValue(ctx, contextKeyLogger, logger)
}

// GetLogger returns the logger stored in the Context, or a NopLogger if
// none is set.
func GetLogger(ctx Context) log.Logger {
	val, ok := ctx.Value(contextKeyLogger).(log.Logger)
	if !ok {
		return DefaultLogger
	}
	return val
}

// GetLogParams returns log params for a context.
func GetLogParams(ctx Context) []interface{} {
	res := []interface{}{}
	if height, ok := GetHeight(ctx); ok {
		res = append(res, "height", height)
	}
	if chainID, ok := ctx.Value(contextKeyChainID).(string); ok {
		res = append(res, "chain_id", chainID)
	}
	return res
}
