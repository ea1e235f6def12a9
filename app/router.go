package app

import (
	"regexp"

	"github.com/iov-one/stanza"
	"github.com/iov-one/stanza/errors"
)

// isPath is the RegExp to ensure the routes make sense.
var isPath = regexp.MustCompile(`^[a-zA-Z0-9_/]+$`).MatchString

// Router allows us to register many handlers with different paths and to
// dispatch messages to the proper one.
type Router struct {
	routes map[string]stanza.Handler
}

var _ stanza.Registry = (*Router)(nil)
var _ stanza.Handler = (*Router)(nil)

// NewRouter initializes a router with no routes.
func NewRouter() *Router {
	return &Router{
		routes: make(map[string]stanza.Handler, 10),
	}
}

// Handle adds a new handler for the given path. It panics if the path was
// already registered or is invalid.
func (r *Router) Handle(path string, h stanza.Handler) {
	if !isPath(path) {
		panic("invalid path: " + path)
	}
	if _, ok := r.routes[path]; ok {
		panic("re-registering route: " + path)
	}
	r.routes[path] = h
}

// Handler returns the registered handler. A nil result is never returned,
// a not found handler is used for unknown paths.
func (r *Router) Handler(path string) stanza.Handler {
	h, ok := r.routes[path]
	if !ok {
		return notFoundHandler(path)
	}
	return h
}

// Check dispatches to the proper handler based on the message path.
func (r *Router) Check(ctx stanza.Context, db stanza.KVStore, tx stanza.Tx) (*stanza.CheckResult, error) {
	path, err := msgPath(tx)
	if err != nil {
		return nil, err
	}
	return r.Handler(path).Check(ctx, db, tx)
}

// Deliver dispatches to the proper handler based on the message path.
func (r *Router) Deliver(ctx stanza.Context, db stanza.KVStore, tx stanza.Tx) (*stanza.DeliverResult, error) {
	path, err := msgPath(tx)
	if err != nil {
		return nil, err
	}
	return r.Handler(path).Deliver(ctx, db, tx)
}

func msgPath(tx stanza.Tx) (string, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return "", errors.Wrap(err, "cannot get message")
	}
	if msg == nil {
		return "", errors.Wrap(errors.ErrState, "transaction has no message")
	}
	return msg.Path(), nil
}

// notFoundHandler always returns ErrNotFound, mentioning the requested
// path.
type notFoundHandler string

var _ stanza.Handler = notFoundHandler("")

func (h notFoundHandler) Check(ctx stanza.Context, db stanza.KVStore, tx stanza.Tx) (*stanza.CheckResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for message path %q", string(h))
}

func (h notFoundHandler) Deliver(ctx stanza.Context, db stanza.KVStore, tx stanza.Tx) (*stanza.DeliverResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for message path %q", string(h))
}
