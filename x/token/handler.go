package token

import (
	"github.com/iov-one/stanza"
	"github.com/iov-one/stanza/errors"
	"github.com/iov-one/stanza/migration"
	"github.com/iov-one/stanza/x"
)

const (
	sendCost          int64 = 100
	createAssetCost   int64 = 300
	mintCost          int64 = 200
	createAccountCost int64 = 100
)

// RegisterRoutes will instantiate and register all handlers in this
// package.
func RegisterRoutes(r stanza.Registry, auth x.Authenticator, ctrl BaseController) {
	r = migration.SchemaMigratingRegistry("token", r)
	r.Handle(pathSend, &sendHandler{auth: auth, ctrl: ctrl})
	r.Handle(pathCreateAsset, &createAssetHandler{auth: auth, ctrl: ctrl})
	r.Handle(pathMint, &mintHandler{auth: auth, ctrl: ctrl})
	r.Handle(pathCreateAccount, &createAccountHandler{auth: auth, ctrl: ctrl})
}

type sendHandler struct {
	auth x.Authenticator
	ctrl BaseController
}

var _ stanza.Handler = (*sendHandler)(nil)

func (h *sendHandler) Check(ctx stanza.Context, db stanza.KVStore, tx stanza.Tx) (*stanza.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return stanza.NewCheckResult(nil, sendCost), nil
}

func (h *sendHandler) Deliver(ctx stanza.Context, db stanza.KVStore, tx stanza.Tx) (*stanza.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.Move(db, msg.Src, msg.Src, msg.Dest, msg.Asset, msg.Amount); err != nil {
		return nil, err
	}
	return &stanza.DeliverResult{}, nil
}

func (h *sendHandler) validate(ctx stanza.Context, db stanza.KVStore, tx stanza.Tx) (*SendMsg, error) {
	var msg SendMsg
	if err := stanza.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Src) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "source signature required")
	}
	return &msg, nil
}

type createAssetHandler struct {
	auth x.Authenticator
	ctrl BaseController
}

var _ stanza.Handler = (*createAssetHandler)(nil)

func (h *createAssetHandler) Check(ctx stanza.Context, db stanza.KVStore, tx stanza.Tx) (*stanza.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return stanza.NewCheckResult(nil, createAssetCost), nil
}

func (h *createAssetHandler) Deliver(ctx stanza.Context, db stanza.KVStore, tx stanza.Tx) (*stanza.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.CreateAsset(db, msg.ID, msg.Authority, msg.MaxSupply, msg.Decimals); err != nil {
		return nil, err
	}
	return &stanza.DeliverResult{Data: msg.ID}, nil
}

func (h *createAssetHandler) validate(ctx stanza.Context, db stanza.KVStore, tx stanza.Tx) (*CreateAssetMsg, error) {
	var msg CreateAssetMsg
	if err := stanza.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Authority) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "authority signature required")
	}
	return &msg, nil
}

type mintHandler struct {
	auth x.Authenticator
	ctrl BaseController
}

var _ stanza.Handler = (*mintHandler)(nil)

func (h *mintHandler) Check(ctx stanza.Context, db stanza.KVStore, tx stanza.Tx) (*stanza.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return stanza.NewCheckResult(nil, mintCost), nil
}

func (h *mintHandler) Deliver(ctx stanza.Context, db stanza.KVStore, tx stanza.Tx) (*stanza.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	a, err := h.ctrl.Asset(db, msg.Asset)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.MintTo(db, a.Authority, msg.Dest, msg.Asset, msg.Amount); err != nil {
		return nil, err
	}
	return &stanza.DeliverResult{}, nil
}

func (h *mintHandler) validate(ctx stanza.Context, db stanza.KVStore, tx stanza.Tx) (*MintMsg, error) {
	var msg MintMsg
	if err := stanza.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	a, err := h.ctrl.Asset(db, msg.Asset)
	if err != nil {
		return nil, err
	}
	if !h.auth.HasAddress(ctx, a.Authority) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "authority signature required")
	}
	return &msg, nil
}

type createAccountHandler struct {
	auth x.Authenticator
	ctrl BaseController
}

var _ stanza.Handler = (*createAccountHandler)(nil)

func (h *createAccountHandler) Check(ctx stanza.Context, db stanza.KVStore, tx stanza.Tx) (*stanza.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return stanza.NewCheckResult(nil, createAccountCost), nil
}

func (h *createAccountHandler) Deliver(ctx stanza.Context, db stanza.KVStore, tx stanza.Tx) (*stanza.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.CreateAccount(db, msg.Owner, msg.Asset); err != nil {
		return nil, err
	}
	return &stanza.DeliverResult{Data: AccountAddress(msg.Owner, msg.Asset)}, nil
}

func (h *createAccountHandler) validate(ctx stanza.Context, db stanza.KVStore, tx stanza.Tx) (*CreateAccountMsg, error) {
	var msg CreateAccountMsg
	if err := stanza.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	// Anyone may prepare an account for any owner, the funds can only be
	// moved by the owner anyway.
	return &msg, nil
}
