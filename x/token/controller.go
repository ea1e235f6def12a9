package token

import (
	"github.com/iov-one/stanza"
	"github.com/iov-one/stanza/errors"
	"github.com/iov-one/stanza/orm"
)

// Controller is the functionality needed by other extensions to operate on
// asset balances. This can be implemented directly, or through messages
// handled by this extension.
type Controller interface {
	// Balance returns the number of units the owner holds of the given
	// asset. A missing account reports a zero balance.
	Balance(db stanza.ReadOnlyKVStore, owner stanza.Address, asset []byte) (uint64, error)

	// CreateAccount prepares an empty account for the owner and asset
	// pair. It fails with ErrDuplicate if the account already exists.
	CreateAccount(db stanza.KVStore, owner stanza.Address, asset []byte) error

	// Move transfers units between two owners. The transfer must be
	// authorized by the owner of the source account.
	Move(db stanza.KVStore, authority, src, dest stanza.Address, asset []byte, amount uint64) error

	// MintTo creates new units on the destination owner account. Must be
	// authorized by the asset authority. A missing destination account is
	// created.
	MintTo(db stanza.KVStore, authority, dest stanza.Address, asset []byte, amount uint64) error

	// SetAuthority hands control over an asset to another address. Must be
	// authorized by the current asset authority.
	SetAuthority(db stanza.KVStore, current, next stanza.Address, asset []byte) error
}

// BaseController implements the Controller interface on top of the token
// buckets.
type BaseController struct {
	assets   orm.ModelBucket
	accounts orm.ModelBucket
}

var _ Controller = BaseController{}

// NewController returns a controller using the default token buckets.
func NewController() BaseController {
	return BaseController{
		assets:   NewAssetBucket(),
		accounts: NewAccountBucket(),
	}
}

// Asset loads the declaration of the given asset.
func (c BaseController) Asset(db stanza.ReadOnlyKVStore, assetID []byte) (*Asset, error) {
	var a Asset
	if err := c.assets.One(db, assetID, &a); err != nil {
		return nil, errors.Wrapf(err, "asset %x", assetID)
	}
	return &a, nil
}

// CreateAsset declares a new asset. The ID must not be taken yet.
func (c BaseController) CreateAsset(db stanza.KVStore, id []byte, authority stanza.Address, maxSupply uint64, decimals uint32) error {
	switch err := c.assets.Has(db, id); {
	case err == nil:
		return errors.Wrapf(errors.ErrDuplicate, "asset %x", id)
	case !errors.ErrNotFound.Is(err):
		return err
	}
	_, err := c.assets.Put(db, id, &Asset{
		Metadata:  &stanza.Metadata{Schema: 1},
		ID:        id,
		Authority: authority,
		MaxSupply: maxSupply,
		Decimals:  decimals,
	})
	return err
}

// Account loads the account state for the owner and asset pair. A missing
// account returns ErrNotFound.
func (c BaseController) Account(db stanza.ReadOnlyKVStore, owner stanza.Address, asset []byte) (*Account, error) {
	var acc Account
	if err := c.accounts.One(db, AccountAddress(owner, asset), &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

func (c BaseController) Balance(db stanza.ReadOnlyKVStore, owner stanza.Address, asset []byte) (uint64, error) {
	acc, err := c.Account(db, owner, asset)
	if err != nil {
		if errors.ErrNotFound.Is(err) {
			return 0, nil
		}
		return 0, err
	}
	return acc.Balance, nil
}

func (c BaseController) CreateAccount(db stanza.KVStore, owner stanza.Address, asset []byte) error {
	if _, err := c.Asset(db, asset); err != nil {
		return err
	}
	key := AccountAddress(owner, asset)
	switch err := c.accounts.Has(db, key); {
	case err == nil:
		return errors.Wrapf(errors.ErrDuplicate, "account %s", key)
	case !errors.ErrNotFound.Is(err):
		return err
	}
	_, err := c.accounts.Put(db, key, &Account{
		Metadata: &stanza.Metadata{Schema: 1},
		Owner:    owner,
		Asset:    asset,
		Balance:  0,
	})
	return err
}

func (c BaseController) Move(db stanza.KVStore, authority, src, dest stanza.Address, asset []byte, amount uint64) error {
	if amount == 0 {
		return errors.Wrap(errors.ErrAmount, "zero transfer")
	}
	// The two accounts are loaded and written back separately, the same
	// account on both sides would double apply.
	if src.Equals(dest) {
		return errors.Wrap(errors.ErrInput, "source and destination are the same account")
	}

	srcAcc, err := c.Account(db, src, asset)
	if err != nil {
		return errors.Wrap(err, "source account")
	}
	if !srcAcc.Owner.Equals(authority) {
		return errors.Wrapf(ErrInvalidAccountOwner, "%s does not own the source account", authority)
	}
	if srcAcc.Balance < amount {
		return errors.Wrapf(ErrInsufficientFunds, "balance %d, need %d", srcAcc.Balance, amount)
	}

	destAcc, err := c.Account(db, dest, asset)
	if err != nil {
		return errors.Wrap(err, "destination account")
	}
	if destAcc.Balance+amount < destAcc.Balance {
		return errors.Wrap(errors.ErrOverflow, "destination balance")
	}

	srcAcc.Balance -= amount
	destAcc.Balance += amount
	if _, err := c.accounts.Put(db, AccountAddress(src, asset), srcAcc); err != nil {
		return errors.Wrap(err, "store source account")
	}
	if _, err := c.accounts.Put(db, AccountAddress(dest, asset), destAcc); err != nil {
		return errors.Wrap(err, "store destination account")
	}
	return nil
}

func (c BaseController) MintTo(db stanza.KVStore, authority, dest stanza.Address, asset []byte, amount uint64) error {
	if amount == 0 {
		return errors.Wrap(errors.ErrAmount, "zero mint")
	}
	a, err := c.Asset(db, asset)
	if err != nil {
		return err
	}
	if !a.Authority.Equals(authority) {
		return errors.Wrapf(errors.ErrUnauthorized, "%s is not the asset authority", authority)
	}
	if a.Supply+amount < a.Supply {
		return errors.Wrap(errors.ErrOverflow, "supply")
	}
	if a.MaxSupply != 0 && a.Supply+amount > a.MaxSupply {
		return errors.Wrapf(ErrSupplyExceeded, "supply %d of %d", a.Supply, a.MaxSupply)
	}

	destAcc, err := c.Account(db, dest, asset)
	if err != nil {
		if !errors.ErrNotFound.Is(err) {
			return err
		}
		destAcc = &Account{
			Metadata: &stanza.Metadata{Schema: 1},
			Owner:    dest,
			Asset:    asset,
		}
	}
	if destAcc.Balance+amount < destAcc.Balance {
		return errors.Wrap(errors.ErrOverflow, "destination balance")
	}

	a.Supply += amount
	destAcc.Balance += amount
	if _, err := c.assets.Put(db, asset, a); err != nil {
		return errors.Wrap(err, "store asset")
	}
	if _, err := c.accounts.Put(db, AccountAddress(dest, asset), destAcc); err != nil {
		return errors.Wrap(err, "store destination account")
	}
	return nil
}

// SetAuthority transfers control over an asset from the current authority to
// the next one. There is no way back, the previous authority loses all
// control.
func (c BaseController) SetAuthority(db stanza.KVStore, current, next stanza.Address, asset []byte) error {
	if err := next.Validate(); err != nil {
		return errors.Wrap(err, "next authority")
	}
	a, err := c.Asset(db, asset)
	if err != nil {
		return err
	}
	if !a.Authority.Equals(current) {
		return errors.Wrapf(errors.ErrUnauthorized, "%s is not the asset authority", current)
	}
	a.Authority = next
	_, err = c.assets.Put(db, asset, a)
	return errors.Wrap(err, "store asset")
}
