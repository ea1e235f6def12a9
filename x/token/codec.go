package token

import (
	"github.com/tendermint/go-amino"

	"github.com/iov-one/stanza"
)

var cdc = amino.NewCodec()

// Asset declares a fungible or non fungible unit that can be held on
// accounts. Only the authority may mint new units.
type Asset struct {
	Metadata *stanza.Metadata
	// ID is the unique identifier of this asset.
	ID []byte
	// Authority may mint new units and transfer this right.
	Authority stanza.Address
	// Supply is the number of units minted so far.
	Supply uint64
	// MaxSupply caps the total supply. Zero means no cap.
	MaxSupply uint64
	// Decimals declares the display precision. It carries no meaning for
	// the transfer logic.
	Decimals uint32
}

func (a *Asset) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(a)
}

func (a *Asset) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, a)
}

func (a *Asset) GetMetadata() *stanza.Metadata {
	return a.Metadata
}

// Account holds the balance of a single asset for a single owner. It is
// stored under an address derived from the owner and asset pair.
type Account struct {
	Metadata *stanza.Metadata
	// Owner controls the funds on this account.
	Owner stanza.Address
	// Asset is the ID of the asset held here.
	Asset []byte
	// Balance is the number of units on this account.
	Balance uint64
}

func (a *Account) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(a)
}

func (a *Account) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, a)
}

func (a *Account) GetMetadata() *stanza.Metadata {
	return a.Metadata
}

// SendMsg requests a transfer of asset units between two owners.
type SendMsg struct {
	Metadata *stanza.Metadata
	Src      stanza.Address
	Dest     stanza.Address
	Asset    []byte
	Amount   uint64
}

// CreateAssetMsg declares a new asset.
type CreateAssetMsg struct {
	Metadata  *stanza.Metadata
	ID        []byte
	Authority stanza.Address
	MaxSupply uint64
	Decimals  uint32
}

// MintMsg creates new units of an asset on the destination account. Must be
// authorized by the asset authority.
type MintMsg struct {
	Metadata *stanza.Metadata
	Asset    []byte
	Dest     stanza.Address
	Amount   uint64
}

// CreateAccountMsg prepares an empty account for the owner and asset pair.
// Transfers only work against existing accounts, so a recipient must set up
// an account before funds can be sent to them.
type CreateAccountMsg struct {
	Metadata *stanza.Metadata
	Owner    stanza.Address
	Asset    []byte
}
