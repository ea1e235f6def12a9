package stanza

import (
	"github.com/iov-one/stanza/errors"
)

// Model groups together key and value to return.
type Model struct {
	Key   []byte
	Value []byte
}

const (
	// KeyQueryMod means to query for exact match (key).
	KeyQueryMod = ""
	// PrefixQueryMod means to query for anything with this prefix.
	PrefixQueryMod = "prefix"
)

// QueryHandler is anything that can process ABCI queries.
type QueryHandler interface {
	Query(db ReadOnlyKVStore, mod string, data []byte) ([]Model, error)
}

// QueryRouter allows us to register many query handlers to different paths
// and dispatch to the correct one.
type QueryRouter struct {
	routes map[string]QueryHandler
}

// NewQueryRouter initializes a QueryRouter with no routes.
func NewQueryRouter() QueryRouter {
	return QueryRouter{
		routes: make(map[string]QueryHandler, 10),
	}
}

// RegisterAll registers a number of QueryRegisters at once.
func (r QueryRouter) RegisterAll(qr ...QueryRegister) {
	for _, q := range qr {
		q(r)
	}
}

// QueryRegister is a function that adds some routes to this router.
type QueryRegister func(QueryRouter)

// Register adds a new Handler for the given path. Panics on duplicate.
func (r QueryRouter) Register(path string, h QueryHandler) {
	if _, ok := r.routes[path]; ok {
		panic("Re-registering path: " + path)
	}
	r.routes[path] = h
}

// Handler returns the registered Handler or nil.
func (r QueryRouter) Handler(path string) QueryHandler {
	return r.routes[path]
}

// Query dispatches the query to the proper handler, errors if none
// registered.
func (r QueryRouter) Query(db ReadOnlyKVStore, path, mod string, data []byte) ([]Model, error) {
	h := r.Handler(path)
	if h == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "query handler %q", path)
	}
	return h.Query(db, mod, data)
}
