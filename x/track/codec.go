package track

import (
	"github.com/tendermint/go-amino"

	"github.com/iov-one/stanza"
)

var cdc = amino.NewCodec()

// Track is the registry entry of a single recording, together with its
// revenue split table and the stem credentials minted for it.
type Track struct {
	Metadata *stanza.Metadata
	// Owner registered the track and may change the split table.
	Owner stanza.Address
	// TrackID is chosen by the owner. The pair of owner and track ID is
	// unique within the registry.
	TrackID uint64
	// Title of the recording.
	Title string
	// ContentID points to the content in an external storage, for
	// example an IPFS CID.
	ContentID string
	// ContentHash commits to the master recording, 32 bytes.
	ContentHash []byte
	// Contributors lists the payout addresses.
	Contributors []stanza.Address
	// Shares holds one entry per contributor, in basis points. The
	// shares sum to 10000.
	Shares []uint32
	// StemCredentials lists the asset IDs of all stem credentials minted
	// for this track.
	StemCredentials [][]byte
	// RoyaltyVersion starts at one and is incremented on every split
	// table change.
	RoyaltyVersion uint32
	// DerivationNonce is remembered to keep the escrow condition of this
	// track stable.
	DerivationNonce uint8
}

func (t *Track) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(t)
}

func (t *Track) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, t)
}

func (t *Track) GetMetadata() *stanza.Metadata {
	return t.Metadata
}

// CreateTrackMsg registers a new track with its initial split table.
type CreateTrackMsg struct {
	Metadata     *stanza.Metadata
	Owner        stanza.Address
	TrackID      uint64
	Title        string
	ContentID    string
	ContentHash  []byte
	Contributors []stanza.Address
	Shares       []uint32
}

// UpdateSharesMsg replaces the split table of a track.
type UpdateSharesMsg struct {
	Metadata     *stanza.Metadata
	Owner        stanza.Address
	TrackID      uint64
	Contributors []stanza.Address
	Shares       []uint32
}

// OpenEscrowMsg prepares an escrow account of the track for the given
// asset. Deposits are only possible into an open escrow.
type OpenEscrowMsg struct {
	Metadata *stanza.Metadata
	Owner    stanza.Address
	TrackID  uint64
	Asset    []byte
}

// DepositMsg moves funds from the source account into the track escrow.
type DepositMsg struct {
	Metadata *stanza.Metadata
	Owner    stanza.Address
	TrackID  uint64
	Asset    []byte
	Src      stanza.Address
	Amount   uint64
}

// DistributeMsg pays out an amount from the track escrow to the
// contributors, proportionally to their shares. Destinations names the
// owners of the candidate payout accounts, every contributor that is owed
// a payout must be among them.
type DistributeMsg struct {
	Metadata     *stanza.Metadata
	Owner        stanza.Address
	TrackID      uint64
	Asset        []byte
	Amount       uint64
	Destinations []stanza.Address
}

// MintStemMsg claims a stem credential for a contributor of the track. The
// MintID asset must exist, unissued and capped at a single unit. Control
// over it is handed to the track condition before the unit is minted to the
// contributor. ClaimedIndex must be the exact position of the contributor
// in the split table.
type MintStemMsg struct {
	Metadata     *stanza.Metadata
	Owner        stanza.Address
	TrackID      uint64
	Contributor  stanza.Address
	ClaimedIndex uint32
	MintID       []byte
}

// RegisterStemMsg records an externally created asset as a stem credential
// of the track.
type RegisterStemMsg struct {
	Metadata *stanza.Metadata
	Owner    stanza.Address
	TrackID  uint64
	MintID   []byte
}

// TrackCreatedEvent is emitted when a track is registered.
type TrackCreatedEvent struct {
	Owner          stanza.Address
	TrackID        uint64
	RoyaltyVersion uint32
}

// SharesUpdatedEvent is emitted when the split table changes. It carries
// the full new table so consumers can follow the split without reading
// state.
type SharesUpdatedEvent struct {
	Owner        stanza.Address
	TrackID      uint64
	OldVersion   uint32
	NewVersion   uint32
	Contributors []stanza.Address
	NewShares    []uint32
}

// DepositedEvent is emitted when the escrow receives funds.
type DepositedEvent struct {
	Owner   stanza.Address
	TrackID uint64
	Asset   []byte
	From    stanza.Address
	Amount  uint64
}

// DistributedEvent is emitted after a successful payout round.
type DistributedEvent struct {
	Owner      stanza.Address
	TrackID    uint64
	Asset      []byte
	Amount     uint64
	Paid       uint64
	Recipients uint32
}

// StemMintedEvent is emitted when a stem credential is created.
type StemMintedEvent struct {
	Owner       stanza.Address
	TrackID     uint64
	Contributor stanza.Address
	MintID      []byte
	Index       uint32
}
