package track

import (
	"github.com/iov-one/stanza"
	"github.com/iov-one/stanza/errors"
	"github.com/iov-one/stanza/migration"
)

const (
	pathCreateTrack  = "track/create"
	pathUpdateShares = "track/update_shares"
	pathOpenEscrow   = "track/open_escrow"
	pathDeposit      = "track/deposit"
	pathDistribute   = "track/distribute"
	pathMintStem     = "track/mint_stem"
	pathRegisterStem = "track/register_stem"
)

func init() {
	migration.MustRegister(1, &CreateTrackMsg{}, migration.NoModification)
	migration.MustRegister(1, &UpdateSharesMsg{}, migration.NoModification)
	migration.MustRegister(1, &OpenEscrowMsg{}, migration.NoModification)
	migration.MustRegister(1, &DepositMsg{}, migration.NoModification)
	migration.MustRegister(1, &DistributeMsg{}, migration.NoModification)
	migration.MustRegister(1, &MintStemMsg{}, migration.NoModification)
	migration.MustRegister(1, &RegisterStemMsg{}, migration.NoModification)
}

var _ stanza.Msg = (*CreateTrackMsg)(nil)

func (m *CreateTrackMsg) Path() string {
	return pathCreateTrack
}

func (m *CreateTrackMsg) GetMetadata() *stanza.Metadata {
	return m.Metadata
}

func (m *CreateTrackMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *CreateTrackMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

func (m *CreateTrackMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := m.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	if err := validateTitle(m.Title); err != nil {
		return err
	}
	if err := validateContentID(m.ContentID); err != nil {
		return err
	}
	if len(m.ContentHash) != contentHashLen {
		return errors.Wrapf(errors.ErrInput, "content hash must be %d bytes", contentHashLen)
	}
	return validateShares(m.Contributors, m.Shares)
}

var _ stanza.Msg = (*UpdateSharesMsg)(nil)

func (m *UpdateSharesMsg) Path() string {
	return pathUpdateShares
}

func (m *UpdateSharesMsg) GetMetadata() *stanza.Metadata {
	return m.Metadata
}

func (m *UpdateSharesMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *UpdateSharesMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

func (m *UpdateSharesMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := m.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	return validateShares(m.Contributors, m.Shares)
}

var _ stanza.Msg = (*OpenEscrowMsg)(nil)

func (m *OpenEscrowMsg) Path() string {
	return pathOpenEscrow
}

func (m *OpenEscrowMsg) GetMetadata() *stanza.Metadata {
	return m.Metadata
}

func (m *OpenEscrowMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *OpenEscrowMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

func (m *OpenEscrowMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := m.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	if len(m.Asset) == 0 {
		return errors.Wrap(errors.ErrEmpty, "asset")
	}
	return nil
}

var _ stanza.Msg = (*DepositMsg)(nil)

func (m *DepositMsg) Path() string {
	return pathDeposit
}

func (m *DepositMsg) GetMetadata() *stanza.Metadata {
	return m.Metadata
}

func (m *DepositMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *DepositMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

func (m *DepositMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := m.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	if err := m.Src.Validate(); err != nil {
		return errors.Wrap(err, "src")
	}
	if len(m.Asset) == 0 {
		return errors.Wrap(errors.ErrEmpty, "asset")
	}
	if m.Amount == 0 {
		return errors.Wrap(errors.ErrAmount, "zero deposit")
	}
	return nil
}

var _ stanza.Msg = (*DistributeMsg)(nil)

func (m *DistributeMsg) Path() string {
	return pathDistribute
}

func (m *DistributeMsg) GetMetadata() *stanza.Metadata {
	return m.Metadata
}

func (m *DistributeMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *DistributeMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

func (m *DistributeMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := m.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	if len(m.Asset) == 0 {
		return errors.Wrap(errors.ErrEmpty, "asset")
	}
	if m.Amount == 0 {
		return errors.Wrap(errors.ErrAmount, "zero distribution")
	}
	for i, d := range m.Destinations {
		if err := d.Validate(); err != nil {
			return errors.Wrapf(err, "destination %d", i)
		}
	}
	return nil
}

var _ stanza.Msg = (*MintStemMsg)(nil)

func (m *MintStemMsg) Path() string {
	return pathMintStem
}

func (m *MintStemMsg) GetMetadata() *stanza.Metadata {
	return m.Metadata
}

func (m *MintStemMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *MintStemMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

func (m *MintStemMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := m.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	if err := m.Contributor.Validate(); err != nil {
		return errors.Wrap(err, "contributor")
	}
	return validateMintID(m.MintID)
}

var _ stanza.Msg = (*RegisterStemMsg)(nil)

func (m *RegisterStemMsg) Path() string {
	return pathRegisterStem
}

func (m *RegisterStemMsg) GetMetadata() *stanza.Metadata {
	return m.Metadata
}

func (m *RegisterStemMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *RegisterStemMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

func (m *RegisterStemMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := m.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	return validateMintID(m.MintID)
}

func validateMintID(id []byte) error {
	if len(id) == 0 {
		return errors.Wrap(errors.ErrEmpty, "mint id")
	}
	if len(id) > 64 {
		return errors.Wrapf(errors.ErrInput, "mint id longer than 64 bytes")
	}
	return nil
}
