package token

import (
	"github.com/iov-one/stanza"
	"github.com/iov-one/stanza/errors"
	"github.com/iov-one/stanza/migration"
	"github.com/iov-one/stanza/orm"
)

const (
	// maxAssetIDLen bounds the asset identifier size.
	maxAssetIDLen = 64
)

func init() {
	migration.MustRegister(1, &Asset{}, migration.NoModification)
	migration.MustRegister(1, &Account{}, migration.NoModification)
}

var _ orm.Model = (*Asset)(nil)

func (a *Asset) Validate() error {
	if err := a.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := validateAssetID(a.ID); err != nil {
		return err
	}
	if err := a.Authority.Validate(); err != nil {
		return errors.Wrap(err, "authority")
	}
	if a.MaxSupply != 0 && a.Supply > a.MaxSupply {
		return errors.Wrap(errors.ErrModel, "supply above maximum")
	}
	return nil
}

var _ orm.Model = (*Account)(nil)

func (a *Account) Validate() error {
	if err := a.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := a.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	if err := validateAssetID(a.Asset); err != nil {
		return err
	}
	return nil
}

func validateAssetID(id []byte) error {
	if len(id) == 0 {
		return errors.Wrap(errors.ErrEmpty, "asset id")
	}
	if len(id) > maxAssetIDLen {
		return errors.Wrapf(errors.ErrInput, "asset id longer than %d bytes", maxAssetIDLen)
	}
	return nil
}

// AccountAddress derives the address holding units of the given asset for
// the given owner. The derivation is deterministic, so the account location
// can be computed by anyone knowing the owner and the asset.
func AccountAddress(owner stanza.Address, asset []byte) stanza.Address {
	data := make([]byte, 0, len(owner)+len(asset))
	data = append(data, owner...)
	data = append(data, asset...)
	return stanza.NewCondition("token", "account", data).Address()
}

// NewAssetBucket returns a bucket for keeping the asset declarations.
func NewAssetBucket() orm.ModelBucket {
	b := orm.NewModelBucket("asset", &Asset{})
	return migration.NewModelBucket("token", b)
}

// NewAccountBucket returns a bucket for keeping the account balances.
// Accounts are stored under their derived address.
func NewAccountBucket() orm.ModelBucket {
	b := orm.NewModelBucket("acct", &Account{},
		orm.WithIndex("owner", idxAccountOwner, false),
	)
	return migration.NewModelBucket("token", b)
}

func idxAccountOwner(obj orm.Model) ([]byte, error) {
	acc, ok := obj.(*Account)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T is not an account", obj)
	}
	return acc.Owner, nil
}

// RegisterQuery registers the token buckets for querying.
func RegisterQuery(qr stanza.QueryRouter) {
	NewAssetBucket().Register("assets", qr)
	NewAccountBucket().Register("accounts", qr)
}
