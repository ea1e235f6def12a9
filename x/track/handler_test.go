package track

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iov-one/stanza"
	"github.com/iov-one/stanza/app"
	"github.com/iov-one/stanza/errors"
	"github.com/iov-one/stanza/migration"
	"github.com/iov-one/stanza/stanzatest"
	"github.com/iov-one/stanza/store"
	"github.com/iov-one/stanza/x/token"
)

// fixture wires a fresh state with the token and track handlers.
type fixture struct {
	db    stanza.CacheableKVStore
	rt    *app.Router
	ctrl  token.BaseController
	auth  *stanzatest.Auth
	owner stanza.Condition
	// contributors of the default track, shares 5000/3000/2000.
	contributors []stanza.Condition
	funder       stanza.Condition
}

const trackID uint64 = 7

var assetID = []byte("royalty-token")

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := fixture{
		db:    store.MemStore(),
		rt:    app.NewRouter(),
		ctrl:  token.NewController(),
		owner: stanzatest.NewCondition(),
		contributors: []stanza.Condition{
			stanzatest.NewCondition(),
			stanzatest.NewCondition(),
			stanzatest.NewCondition(),
		},
		funder: stanzatest.NewCondition(),
	}
	migration.MustInitPkg(f.db, "token", "track")

	signers := append([]stanza.Condition{f.owner, f.funder}, f.contributors...)
	f.auth = &stanzatest.Auth{Signers: signers}

	token.RegisterRoutes(f.rt, f.auth, f.ctrl)
	RegisterRoutes(f.rt, f.auth, f.ctrl)

	// The asset being distributed, with a funded depositor account.
	authority := stanzatest.NewKey()
	require.NoError(t, f.ctrl.CreateAsset(f.db, assetID, authority, 0, 0))
	require.NoError(t, f.ctrl.MintTo(f.db, authority, f.funder.Address(), assetID, 1000000))

	return &f
}

func (f *fixture) addresses() []stanza.Address {
	out := make([]stanza.Address, len(f.contributors))
	for i, c := range f.contributors {
		out[i] = c.Address()
	}
	return out
}

func (f *fixture) deliver(t *testing.T, msg stanza.Msg) *stanza.DeliverResult {
	t.Helper()
	res, err := f.rt.Deliver(nil, f.db, &stanzatest.Tx{Msg: msg})
	require.NoError(t, err)
	return res
}

func (f *fixture) deliverErr(t *testing.T, msg stanza.Msg) error {
	t.Helper()
	_, err := f.rt.Deliver(nil, f.db, &stanzatest.Tx{Msg: msg})
	require.Error(t, err)
	return err
}

func (f *fixture) createTrack(t *testing.T) {
	t.Helper()
	f.deliver(t, &CreateTrackMsg{
		Metadata:     &stanza.Metadata{Schema: 1},
		Owner:        f.owner.Address(),
		TrackID:      trackID,
		Title:        "Night Drive",
		ContentID:    "QmT5NvUtoM5nWFfrQdVrFtvGfKFmG7AHE8P34isapyhCxX",
		ContentHash:  bytes.Repeat([]byte{7}, 32),
		Contributors: f.addresses(),
		Shares:       []uint32{5000, 3000, 2000},
	})
}

func (f *fixture) openAndFund(t *testing.T, amount uint64) {
	t.Helper()
	f.deliver(t, &OpenEscrowMsg{
		Metadata: &stanza.Metadata{Schema: 1},
		Owner:    f.owner.Address(),
		TrackID:  trackID,
		Asset:    assetID,
	})
	f.deliver(t, &DepositMsg{
		Metadata: &stanza.Metadata{Schema: 1},
		Owner:    f.owner.Address(),
		TrackID:  trackID,
		Asset:    assetID,
		Src:      f.funder.Address(),
		Amount:   amount,
	})
}

func (f *fixture) openAccounts(t *testing.T) {
	t.Helper()
	for _, c := range f.contributors {
		require.NoError(t, f.ctrl.CreateAccount(f.db, c.Address(), assetID))
	}
}

func (f *fixture) loadTrack(t *testing.T) *Track {
	t.Helper()
	tr, err := loadTrack(f.db, NewTrackBucket(), f.owner.Address(), trackID)
	require.NoError(t, err)
	return tr
}

func (f *fixture) balance(t *testing.T, owner stanza.Address) uint64 {
	t.Helper()
	b, err := f.ctrl.Balance(f.db, owner, assetID)
	require.NoError(t, err)
	return b
}

func TestCreateTrack(t *testing.T) {
	f := newFixture(t)
	f.createTrack(t)

	tr := f.loadTrack(t)
	assert.Equal(t, "Night Drive", tr.Title)
	assert.Equal(t, uint32(1), tr.RoyaltyVersion)
	assert.Equal(t, derivationNonce(f.owner.Address(), trackID), tr.DerivationNonce)

	// The same owner and ID cannot be registered twice.
	err := f.deliverErr(t, &CreateTrackMsg{
		Metadata:     &stanza.Metadata{Schema: 1},
		Owner:        f.owner.Address(),
		TrackID:      trackID,
		Title:        "Night Drive again",
		ContentHash:  bytes.Repeat([]byte{7}, 32),
		Contributors: f.addresses(),
		Shares:       []uint32{5000, 3000, 2000},
	})
	assert.True(t, errors.ErrDuplicate.Is(err))
}

func TestCreateTrackRequiresOwnerSignature(t *testing.T) {
	f := newFixture(t)
	stranger := stanzatest.NewCondition()

	err := f.deliverErr(t, &CreateTrackMsg{
		Metadata:     &stanza.Metadata{Schema: 1},
		Owner:        stranger.Address(),
		TrackID:      trackID,
		Title:        "Night Drive",
		ContentHash:  bytes.Repeat([]byte{7}, 32),
		Contributors: f.addresses(),
		Shares:       []uint32{5000, 3000, 2000},
	})
	assert.True(t, errors.ErrUnauthorized.Is(err))
}

func TestUpdateShares(t *testing.T) {
	f := newFixture(t)
	f.createTrack(t)

	res := f.deliver(t, &UpdateSharesMsg{
		Metadata:     &stanza.Metadata{Schema: 1},
		Owner:        f.owner.Address(),
		TrackID:      trackID,
		Contributors: f.addresses()[:2],
		Shares:       []uint32{7000, 3000},
	})
	require.Len(t, res.Tags, 1)
	assert.Equal(t, []byte("track.shares_updated"), res.Tags[0].Key)

	// The emitted record carries the full new table, external consumers
	// follow the split without reading state.
	var ev SharesUpdatedEvent
	require.NoError(t, cdc.UnmarshalBinaryBare(res.Tags[0].Value, &ev))
	assert.Equal(t, uint32(1), ev.OldVersion)
	assert.Equal(t, uint32(2), ev.NewVersion)
	assert.Equal(t, f.addresses()[:2], ev.Contributors)
	assert.Equal(t, []uint32{7000, 3000}, ev.NewShares)

	tr := f.loadTrack(t)
	assert.Equal(t, uint32(2), tr.RoyaltyVersion)
	assert.Len(t, tr.Contributors, 2)
	assert.Equal(t, []uint32{7000, 3000}, tr.Shares)
}

func TestUpdateSharesVersionOverflow(t *testing.T) {
	f := newFixture(t)
	f.createTrack(t)

	// Force the version to the maximum directly in the store.
	bucket := NewTrackBucket()
	tr := f.loadTrack(t)
	tr.RoyaltyVersion = math.MaxUint32
	_, err := bucket.Put(f.db, TrackKey(tr.Owner, tr.TrackID), tr)
	require.NoError(t, err)

	err = f.deliverErr(t, &UpdateSharesMsg{
		Metadata:     &stanza.Metadata{Schema: 1},
		Owner:        f.owner.Address(),
		TrackID:      trackID,
		Contributors: f.addresses(),
		Shares:       []uint32{5000, 3000, 2000},
	})
	assert.True(t, ErrVersionOverflow.Is(err))
}

func TestDepositRequiresOpenEscrow(t *testing.T) {
	f := newFixture(t)
	f.createTrack(t)

	err := f.deliverErr(t, &DepositMsg{
		Metadata: &stanza.Metadata{Schema: 1},
		Owner:    f.owner.Address(),
		TrackID:  trackID,
		Asset:    assetID,
		Src:      f.funder.Address(),
		Amount:   100,
	})
	assert.True(t, errors.ErrNotFound.Is(err))
}

func TestDepositMovesFundsIntoEscrow(t *testing.T) {
	f := newFixture(t)
	f.createTrack(t)
	f.openAndFund(t, 1000)

	tr := f.loadTrack(t)
	escrow := tr.Condition().Address()
	assert.Equal(t, uint64(1000), f.balance(t, escrow))
	assert.Equal(t, uint64(999000), f.balance(t, f.funder.Address()))

	// Depositing from an account the sender does not own must fail.
	err := f.deliverErr(t, &DepositMsg{
		Metadata: &stanza.Metadata{Schema: 1},
		Owner:    f.owner.Address(),
		TrackID:  trackID,
		Asset:    assetID,
		Src:      stanzatest.NewKey(),
		Amount:   100,
	})
	assert.True(t, errors.ErrUnauthorized.Is(err))
}

func TestDistribute(t *testing.T) {
	f := newFixture(t)
	f.createTrack(t)
	f.openAndFund(t, 1000)
	f.openAccounts(t)

	res := f.deliver(t, &DistributeMsg{
		Metadata:     &stanza.Metadata{Schema: 1},
		Owner:        f.owner.Address(),
		TrackID:      trackID,
		Asset:        assetID,
		Amount:       1000,
		Destinations: f.addresses(),
	})
	require.Len(t, res.Tags, 1)
	assert.Equal(t, []byte("track.distributed"), res.Tags[0].Key)

	assert.Equal(t, uint64(500), f.balance(t, f.contributors[0].Address()))
	assert.Equal(t, uint64(300), f.balance(t, f.contributors[1].Address()))
	assert.Equal(t, uint64(200), f.balance(t, f.contributors[2].Address()))

	escrow := f.loadTrack(t).Condition().Address()
	assert.Equal(t, uint64(0), f.balance(t, escrow))
}

func TestDistributeLeavesDustOnEscrow(t *testing.T) {
	f := newFixture(t)
	f.createTrack(t)
	f.openAndFund(t, 100)
	f.openAccounts(t)

	f.deliver(t, &UpdateSharesMsg{
		Metadata:     &stanza.Metadata{Schema: 1},
		Owner:        f.owner.Address(),
		TrackID:      trackID,
		Contributors: f.addresses(),
		Shares:       []uint32{3333, 3333, 3334},
	})

	f.deliver(t, &DistributeMsg{
		Metadata:     &stanza.Metadata{Schema: 1},
		Owner:        f.owner.Address(),
		TrackID:      trackID,
		Asset:        assetID,
		Amount:       100,
		Destinations: f.addresses(),
	})

	assert.Equal(t, uint64(33), f.balance(t, f.contributors[0].Address()))
	assert.Equal(t, uint64(33), f.balance(t, f.contributors[1].Address()))
	assert.Equal(t, uint64(33), f.balance(t, f.contributors[2].Address()))

	escrow := f.loadTrack(t).Condition().Address()
	assert.Equal(t, uint64(1), f.balance(t, escrow))
}

func TestDistributeSkipsZeroPayouts(t *testing.T) {
	f := newFixture(t)
	f.createTrack(t)
	f.openAndFund(t, 100)

	f.deliver(t, &UpdateSharesMsg{
		Metadata:     &stanza.Metadata{Schema: 1},
		Owner:        f.owner.Address(),
		TrackID:      trackID,
		Contributors: f.addresses(),
		Shares:       []uint32{9999, 1, 0},
	})

	// Only the first contributor receives anything for this amount, so
	// the others need neither an account nor a destination entry.
	require.NoError(t, f.ctrl.CreateAccount(f.db, f.contributors[0].Address(), assetID))

	f.deliver(t, &DistributeMsg{
		Metadata:     &stanza.Metadata{Schema: 1},
		Owner:        f.owner.Address(),
		TrackID:      trackID,
		Asset:        assetID,
		Amount:       100,
		Destinations: []stanza.Address{f.contributors[0].Address()},
	})

	assert.Equal(t, uint64(99), f.balance(t, f.contributors[0].Address()))
	assert.Equal(t, uint64(0), f.balance(t, f.contributors[1].Address()))
}

func TestDistributeAllOrNothing(t *testing.T) {
	f := newFixture(t)
	f.createTrack(t)
	f.openAndFund(t, 1000)

	// Only the first contributor has an account. The payout round must
	// not move anything.
	require.NoError(t, f.ctrl.CreateAccount(f.db, f.contributors[0].Address(), assetID))

	err := f.deliverErr(t, &DistributeMsg{
		Metadata:     &stanza.Metadata{Schema: 1},
		Owner:        f.owner.Address(),
		TrackID:      trackID,
		Asset:        assetID,
		Amount:       1000,
		Destinations: f.addresses(),
	})
	assert.True(t, ErrRecipientNotFound.Is(err))

	escrow := f.loadTrack(t).Condition().Address()
	assert.Equal(t, uint64(1000), f.balance(t, escrow))
	assert.Equal(t, uint64(0), f.balance(t, f.contributors[0].Address()))
}

func TestDistributeMissingDestination(t *testing.T) {
	f := newFixture(t)
	f.createTrack(t)
	f.openAndFund(t, 1000)
	f.openAccounts(t)

	// All accounts exist but one contributor is not listed among the
	// destinations.
	err := f.deliverErr(t, &DistributeMsg{
		Metadata:     &stanza.Metadata{Schema: 1},
		Owner:        f.owner.Address(),
		TrackID:      trackID,
		Asset:        assetID,
		Amount:       1000,
		Destinations: f.addresses()[:2],
	})
	assert.True(t, ErrRecipientNotFound.Is(err))
}

func TestDistributeCannotExceedEscrow(t *testing.T) {
	f := newFixture(t)
	f.createTrack(t)
	f.openAndFund(t, 100)
	f.openAccounts(t)

	err := f.deliverErr(t, &DistributeMsg{
		Metadata:     &stanza.Metadata{Schema: 1},
		Owner:        f.owner.Address(),
		TrackID:      trackID,
		Asset:        assetID,
		Amount:       101,
		Destinations: f.addresses(),
	})
	assert.True(t, token.ErrInsufficientFunds.Is(err))
}

// prepareStem declares an unissued one of one asset controlled by the given
// authority, the way a contributor prepares a credential mint before
// claiming it.
func (f *fixture) prepareStem(t *testing.T, mintID []byte, authority stanza.Address) {
	t.Helper()
	require.NoError(t, f.ctrl.CreateAsset(f.db, mintID, authority, 1, 0))
}

func TestMintStem(t *testing.T) {
	f := newFixture(t)
	f.createTrack(t)
	f.prepareStem(t, []byte("stem-vocals"), f.contributors[1].Address())

	res := f.deliver(t, &MintStemMsg{
		Metadata:     &stanza.Metadata{Schema: 1},
		Owner:        f.owner.Address(),
		TrackID:      trackID,
		Contributor:  f.contributors[1].Address(),
		ClaimedIndex: 1,
		MintID:       []byte("stem-vocals"),
	})
	assert.Equal(t, []byte("stem-vocals"), res.Data)

	// The contributor holds the single unit of the credential.
	b, err := f.ctrl.Balance(f.db, f.contributors[1].Address(), []byte("stem-vocals"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), b)

	// The asset is now controlled by the track condition and capped at the
	// single issued unit, so nobody can ever mint another one.
	a, err := f.ctrl.Asset(f.db, []byte("stem-vocals"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), a.MaxSupply)
	assert.Equal(t, uint64(1), a.Supply)
	tr := f.loadTrack(t)
	assert.True(t, a.Authority.Equals(tr.Condition().Address()))

	require.Len(t, tr.StemCredentials, 1)
	assert.Equal(t, []byte("stem-vocals"), tr.StemCredentials[0])
}

func TestMintStemRequiresExistingAsset(t *testing.T) {
	f := newFixture(t)
	f.createTrack(t)

	err := f.deliverErr(t, &MintStemMsg{
		Metadata:     &stanza.Metadata{Schema: 1},
		Owner:        f.owner.Address(),
		TrackID:      trackID,
		Contributor:  f.contributors[0].Address(),
		ClaimedIndex: 0,
		MintID:       []byte("never-declared"),
	})
	assert.True(t, errors.ErrNotFound.Is(err))
}

func TestMintStemRequiresUnissuedOneOfOne(t *testing.T) {
	f := newFixture(t)
	f.createTrack(t)

	// An uncapped asset cannot become a credential.
	require.NoError(t, f.ctrl.CreateAsset(f.db, []byte("uncapped"), f.contributors[0].Address(), 0, 0))
	err := f.deliverErr(t, &MintStemMsg{
		Metadata:     &stanza.Metadata{Schema: 1},
		Owner:        f.owner.Address(),
		TrackID:      trackID,
		Contributor:  f.contributors[0].Address(),
		ClaimedIndex: 0,
		MintID:       []byte("uncapped"),
	})
	assert.True(t, errors.ErrState.Is(err))
}

func TestMintStemRequiresCurrentAuthoritySignature(t *testing.T) {
	f := newFixture(t)
	f.createTrack(t)

	// The asset is controlled by an address that did not sign, so the
	// control transfer cannot be proven.
	f.prepareStem(t, []byte("stem-keys"), stanzatest.NewKey())

	err := f.deliverErr(t, &MintStemMsg{
		Metadata:     &stanza.Metadata{Schema: 1},
		Owner:        f.owner.Address(),
		TrackID:      trackID,
		Contributor:  f.contributors[0].Address(),
		ClaimedIndex: 0,
		MintID:       []byte("stem-keys"),
	})
	assert.True(t, errors.ErrUnauthorized.Is(err))
}

func TestMintStemRejectsWrongPosition(t *testing.T) {
	f := newFixture(t)
	f.createTrack(t)

	// Claiming the position of another contributor must fail, even when
	// the address is part of the split table.
	err := f.deliverErr(t, &MintStemMsg{
		Metadata:     &stanza.Metadata{Schema: 1},
		Owner:        f.owner.Address(),
		TrackID:      trackID,
		Contributor:  f.contributors[1].Address(),
		ClaimedIndex: 0,
		MintID:       []byte("stem-vocals"),
	})
	assert.True(t, errors.ErrInput.Is(err))

	// An outsider cannot claim any position, even with a valid signature.
	err = f.deliverErr(t, &MintStemMsg{
		Metadata:     &stanza.Metadata{Schema: 1},
		Owner:        f.owner.Address(),
		TrackID:      trackID,
		Contributor:  f.funder.Address(),
		ClaimedIndex: 0,
		MintID:       []byte("stem-vocals"),
	})
	assert.True(t, ErrNotAContributor.Is(err))

	// An index past the table end is rejected.
	err = f.deliverErr(t, &MintStemMsg{
		Metadata:     &stanza.Metadata{Schema: 1},
		Owner:        f.owner.Address(),
		TrackID:      trackID,
		Contributor:  f.contributors[0].Address(),
		ClaimedIndex: 3,
		MintID:       []byte("stem-vocals"),
	})
	assert.True(t, errors.ErrInput.Is(err))
}

func TestMintStemRejectsDuplicateCredential(t *testing.T) {
	f := newFixture(t)
	f.createTrack(t)
	f.prepareStem(t, []byte("stem-drums"), f.contributors[0].Address())

	f.deliver(t, &MintStemMsg{
		Metadata:     &stanza.Metadata{Schema: 1},
		Owner:        f.owner.Address(),
		TrackID:      trackID,
		Contributor:  f.contributors[0].Address(),
		ClaimedIndex: 0,
		MintID:       []byte("stem-drums"),
	})

	err := f.deliverErr(t, &MintStemMsg{
		Metadata:     &stanza.Metadata{Schema: 1},
		Owner:        f.owner.Address(),
		TrackID:      trackID,
		Contributor:  f.contributors[0].Address(),
		ClaimedIndex: 0,
		MintID:       []byte("stem-drums"),
	})
	assert.True(t, errors.ErrDuplicate.Is(err))
}

func TestMintStemCredentialLimit(t *testing.T) {
	f := newFixture(t)
	f.createTrack(t)

	// Fill the credential list up to the limit directly in the store.
	bucket := NewTrackBucket()
	tr := f.loadTrack(t)
	for i := 0; i < maxStemCredentials; i++ {
		tr.StemCredentials = append(tr.StemCredentials, []byte{byte(i), 0xee})
	}
	_, err := bucket.Put(f.db, TrackKey(tr.Owner, tr.TrackID), tr)
	require.NoError(t, err)

	err = f.deliverErr(t, &MintStemMsg{
		Metadata:     &stanza.Metadata{Schema: 1},
		Owner:        f.owner.Address(),
		TrackID:      trackID,
		Contributor:  f.contributors[0].Address(),
		ClaimedIndex: 0,
		MintID:       []byte("one-too-many"),
	})
	assert.True(t, ErrTooManyStems.Is(err))
}

func TestRegisterStem(t *testing.T) {
	f := newFixture(t)
	f.createTrack(t)

	f.deliver(t, &RegisterStemMsg{
		Metadata: &stanza.Metadata{Schema: 1},
		Owner:    f.owner.Address(),
		TrackID:  trackID,
		MintID:   []byte("external-stem"),
	})

	tr := f.loadTrack(t)
	require.Len(t, tr.StemCredentials, 1)
	assert.Equal(t, []byte("external-stem"), tr.StemCredentials[0])

	err := f.deliverErr(t, &RegisterStemMsg{
		Metadata: &stanza.Metadata{Schema: 1},
		Owner:    f.owner.Address(),
		TrackID:  trackID,
		MintID:   []byte("external-stem"),
	})
	assert.True(t, errors.ErrDuplicate.Is(err))
}

func TestDistributeRequiresOwnerSignature(t *testing.T) {
	f := newFixture(t)
	f.createTrack(t)
	f.openAndFund(t, 1000)
	f.openAccounts(t)

	// Rebuild the router with an authenticator that does not know the
	// owner.
	f.rt = app.NewRouter()
	RegisterRoutes(f.rt, &stanzatest.Auth{Signer: f.funder}, f.ctrl)

	err := f.deliverErr(t, &DistributeMsg{
		Metadata:     &stanza.Metadata{Schema: 1},
		Owner:        f.owner.Address(),
		TrackID:      trackID,
		Asset:        assetID,
		Amount:       1000,
		Destinations: f.addresses(),
	})
	assert.True(t, errors.ErrUnauthorized.Is(err))
}
