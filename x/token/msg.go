package token

import (
	"github.com/iov-one/stanza"
	"github.com/iov-one/stanza/errors"
	"github.com/iov-one/stanza/migration"
)

const (
	pathSend          = "token/send"
	pathCreateAsset   = "token/create_asset"
	pathMint          = "token/mint"
	pathCreateAccount = "token/create_account"
)

func init() {
	migration.MustRegister(1, &SendMsg{}, migration.NoModification)
	migration.MustRegister(1, &CreateAssetMsg{}, migration.NoModification)
	migration.MustRegister(1, &MintMsg{}, migration.NoModification)
	migration.MustRegister(1, &CreateAccountMsg{}, migration.NoModification)
}

var _ stanza.Msg = (*SendMsg)(nil)

func (m *SendMsg) Path() string {
	return pathSend
}

func (m *SendMsg) GetMetadata() *stanza.Metadata {
	return m.Metadata
}

func (m *SendMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *SendMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

func (m *SendMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := m.Src.Validate(); err != nil {
		return errors.Wrap(err, "src")
	}
	if err := m.Dest.Validate(); err != nil {
		return errors.Wrap(err, "dest")
	}
	if err := validateAssetID(m.Asset); err != nil {
		return err
	}
	if m.Amount == 0 {
		return errors.Wrap(errors.ErrAmount, "zero transfer")
	}
	return nil
}

var _ stanza.Msg = (*CreateAssetMsg)(nil)

func (m *CreateAssetMsg) Path() string {
	return pathCreateAsset
}

func (m *CreateAssetMsg) GetMetadata() *stanza.Metadata {
	return m.Metadata
}

func (m *CreateAssetMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *CreateAssetMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

func (m *CreateAssetMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := validateAssetID(m.ID); err != nil {
		return err
	}
	if err := m.Authority.Validate(); err != nil {
		return errors.Wrap(err, "authority")
	}
	return nil
}

var _ stanza.Msg = (*MintMsg)(nil)

func (m *MintMsg) Path() string {
	return pathMint
}

func (m *MintMsg) GetMetadata() *stanza.Metadata {
	return m.Metadata
}

func (m *MintMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *MintMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

func (m *MintMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := validateAssetID(m.Asset); err != nil {
		return err
	}
	if err := m.Dest.Validate(); err != nil {
		return errors.Wrap(err, "dest")
	}
	if m.Amount == 0 {
		return errors.Wrap(errors.ErrAmount, "zero mint")
	}
	return nil
}

var _ stanza.Msg = (*CreateAccountMsg)(nil)

func (m *CreateAccountMsg) Path() string {
	return pathCreateAccount
}

func (m *CreateAccountMsg) GetMetadata() *stanza.Metadata {
	return m.Metadata
}

func (m *CreateAccountMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *CreateAccountMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

func (m *CreateAccountMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := m.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	return validateAssetID(m.Asset)
}
