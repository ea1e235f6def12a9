package track

import (
	"math"

	"github.com/tendermint/tendermint/libs/common"

	"github.com/iov-one/stanza"
	"github.com/iov-one/stanza/errors"
	"github.com/iov-one/stanza/migration"
	"github.com/iov-one/stanza/orm"
	"github.com/iov-one/stanza/x"
)

const (
	createTrackCost  int64 = 300
	updateSharesCost int64 = 150
	openEscrowCost   int64 = 100
	depositCost      int64 = 100
	// distributeCost is charged per contributor in the split table.
	distributeCost int64 = 50
	mintStemCost   int64 = 250
	registerCost   int64 = 100
)

// RegisterRoutes will instantiate and register all handlers in this
// package.
func RegisterRoutes(r stanza.Registry, auth x.Authenticator, ctrl TokenController) {
	r = migration.SchemaMigratingRegistry("track", r)
	bucket := NewTrackBucket()
	r.Handle(pathCreateTrack, &createTrackHandler{auth: auth, bucket: bucket})
	r.Handle(pathUpdateShares, &updateSharesHandler{auth: auth, bucket: bucket})
	r.Handle(pathOpenEscrow, &openEscrowHandler{auth: auth, bucket: bucket, ctrl: ctrl})
	r.Handle(pathDeposit, &depositHandler{auth: auth, bucket: bucket, ctrl: ctrl})
	r.Handle(pathDistribute, &distributeHandler{auth: auth, bucket: bucket, ctrl: ctrl})
	r.Handle(pathMintStem, &mintStemHandler{auth: auth, bucket: bucket, ctrl: ctrl})
	r.Handle(pathRegisterStem, &registerStemHandler{auth: auth, bucket: bucket})
}

// eventTag serializes an event payload into a result tag.
func eventTag(key string, ev interface{}) common.KVPair {
	raw, err := cdc.MarshalBinaryBare(ev)
	if err != nil {
		// Events are built from already validated state, a failure here
		// is a programming error.
		panic(err)
	}
	return common.KVPair{Key: []byte(key), Value: raw}
}

// loadTrack fetches the track or returns ErrNotFound.
func loadTrack(db stanza.ReadOnlyKVStore, bucket orm.ModelBucket, owner stanza.Address, trackID uint64) (*Track, error) {
	var t Track
	if err := bucket.One(db, TrackKey(owner, trackID), &t); err != nil {
		return nil, errors.Wrapf(err, "track %s/%d", owner, trackID)
	}
	return &t, nil
}

type createTrackHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
}

var _ stanza.Handler = (*createTrackHandler)(nil)

func (h *createTrackHandler) Check(ctx stanza.Context, db stanza.KVStore, tx stanza.Tx) (*stanza.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return stanza.NewCheckResult(nil, createTrackCost), nil
}

func (h *createTrackHandler) Deliver(ctx stanza.Context, db stanza.KVStore, tx stanza.Tx) (*stanza.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	key := TrackKey(msg.Owner, msg.TrackID)
	switch err := h.bucket.Has(db, key); {
	case err == nil:
		return nil, errors.Wrapf(errors.ErrDuplicate, "track %d", msg.TrackID)
	case !errors.ErrNotFound.Is(err):
		return nil, err
	}

	t := Track{
		Metadata:        &stanza.Metadata{Schema: 1},
		Owner:           msg.Owner,
		TrackID:         msg.TrackID,
		Title:           msg.Title,
		ContentID:       msg.ContentID,
		ContentHash:     msg.ContentHash,
		Contributors:    msg.Contributors,
		Shares:          msg.Shares,
		RoyaltyVersion:  1,
		DerivationNonce: derivationNonce(msg.Owner, msg.TrackID),
	}
	if _, err := h.bucket.Put(db, key, &t); err != nil {
		return nil, errors.Wrap(err, "store track")
	}

	return stanza.NewDeliverResult(key, eventTag("track.created", &TrackCreatedEvent{
		Owner:          t.Owner,
		TrackID:        t.TrackID,
		RoyaltyVersion: t.RoyaltyVersion,
	})), nil
}

func (h *createTrackHandler) validate(ctx stanza.Context, db stanza.KVStore, tx stanza.Tx) (*CreateTrackMsg, error) {
	var msg CreateTrackMsg
	if err := stanza.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Owner) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "owner signature required")
	}
	return &msg, nil
}

type updateSharesHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
}

var _ stanza.Handler = (*updateSharesHandler)(nil)

func (h *updateSharesHandler) Check(ctx stanza.Context, db stanza.KVStore, tx stanza.Tx) (*stanza.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return stanza.NewCheckResult(nil, updateSharesCost), nil
}

func (h *updateSharesHandler) Deliver(ctx stanza.Context, db stanza.KVStore, tx stanza.Tx) (*stanza.DeliverResult, error) {
	msg, t, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	if t.RoyaltyVersion == math.MaxUint32 {
		return nil, ErrVersionOverflow
	}
	oldVersion := t.RoyaltyVersion
	t.Contributors = msg.Contributors
	t.Shares = msg.Shares
	t.RoyaltyVersion++

	key := TrackKey(t.Owner, t.TrackID)
	if _, err := h.bucket.Put(db, key, t); err != nil {
		return nil, errors.Wrap(err, "store track")
	}

	return stanza.NewDeliverResult(key, eventTag("track.shares_updated", &SharesUpdatedEvent{
		Owner:        t.Owner,
		TrackID:      t.TrackID,
		OldVersion:   oldVersion,
		NewVersion:   t.RoyaltyVersion,
		Contributors: t.Contributors,
		NewShares:    t.Shares,
	})), nil
}

func (h *updateSharesHandler) validate(ctx stanza.Context, db stanza.KVStore, tx stanza.Tx) (*UpdateSharesMsg, *Track, error) {
	var msg UpdateSharesMsg
	if err := stanza.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	t, err := loadTrack(db, h.bucket, msg.Owner, msg.TrackID)
	if err != nil {
		return nil, nil, err
	}
	if !h.auth.HasAddress(ctx, t.Owner) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "owner signature required")
	}
	return &msg, t, nil
}

type openEscrowHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
	ctrl   TokenController
}

var _ stanza.Handler = (*openEscrowHandler)(nil)

func (h *openEscrowHandler) Check(ctx stanza.Context, db stanza.KVStore, tx stanza.Tx) (*stanza.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return stanza.NewCheckResult(nil, openEscrowCost), nil
}

func (h *openEscrowHandler) Deliver(ctx stanza.Context, db stanza.KVStore, tx stanza.Tx) (*stanza.DeliverResult, error) {
	msg, t, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	escrowOwner := t.Condition().Address()
	if err := h.ctrl.CreateAccount(db, escrowOwner, msg.Asset); err != nil {
		return nil, errors.Wrap(err, "create escrow account")
	}
	return &stanza.DeliverResult{Data: escrowOwner}, nil
}

func (h *openEscrowHandler) validate(ctx stanza.Context, db stanza.KVStore, tx stanza.Tx) (*OpenEscrowMsg, *Track, error) {
	var msg OpenEscrowMsg
	if err := stanza.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	t, err := loadTrack(db, h.bucket, msg.Owner, msg.TrackID)
	if err != nil {
		return nil, nil, err
	}
	if !h.auth.HasAddress(ctx, t.Owner) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "owner signature required")
	}
	return &msg, t, nil
}

type depositHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
	ctrl   TokenController
}

var _ stanza.Handler = (*depositHandler)(nil)

func (h *depositHandler) Check(ctx stanza.Context, db stanza.KVStore, tx stanza.Tx) (*stanza.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return stanza.NewCheckResult(nil, depositCost), nil
}

func (h *depositHandler) Deliver(ctx stanza.Context, db stanza.KVStore, tx stanza.Tx) (*stanza.DeliverResult, error) {
	msg, t, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	escrowOwner := t.Condition().Address()
	if err := h.ctrl.Move(db, msg.Src, msg.Src, escrowOwner, msg.Asset, msg.Amount); err != nil {
		return nil, errors.Wrap(err, "deposit")
	}

	return stanza.NewDeliverResult(nil, eventTag("track.deposited", &DepositedEvent{
		Owner:   t.Owner,
		TrackID: t.TrackID,
		Asset:   msg.Asset,
		From:    msg.Src,
		Amount:  msg.Amount,
	})), nil
}

func (h *depositHandler) validate(ctx stanza.Context, db stanza.KVStore, tx stanza.Tx) (*DepositMsg, *Track, error) {
	var msg DepositMsg
	if err := stanza.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	t, err := loadTrack(db, h.bucket, msg.Owner, msg.TrackID)
	if err != nil {
		return nil, nil, err
	}
	// Anyone can fund the escrow, but they move their own funds.
	if !h.auth.HasAddress(ctx, msg.Src) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "source signature required")
	}
	return &msg, t, nil
}

type distributeHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
	ctrl   TokenController
}

var _ stanza.Handler = (*distributeHandler)(nil)

func (h *distributeHandler) Check(ctx stanza.Context, db stanza.KVStore, tx stanza.Tx) (*stanza.CheckResult, error) {
	msg, _, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	gas := distributeCost * int64(len(msg.Destinations)+1)
	return stanza.NewCheckResult(nil, gas), nil
}

func (h *distributeHandler) Deliver(ctx stanza.Context, db stanza.KVStore, tx stanza.Tx) (*stanza.DeliverResult, error) {
	msg, t, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	plan, err := buildPayoutPlan(db, h.ctrl, t, msg.Asset, msg.Amount, msg.Destinations)
	if err != nil {
		return nil, err
	}
	if err := plan.execute(db, h.ctrl); err != nil {
		return nil, err
	}

	return stanza.NewDeliverResult(nil, eventTag("track.distributed", &DistributedEvent{
		Owner:      t.Owner,
		TrackID:    t.TrackID,
		Asset:      msg.Asset,
		Amount:     msg.Amount,
		Paid:       plan.total,
		Recipients: uint32(len(plan.moves)),
	})), nil
}

func (h *distributeHandler) validate(ctx stanza.Context, db stanza.KVStore, tx stanza.Tx) (*DistributeMsg, *Track, error) {
	var msg DistributeMsg
	if err := stanza.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	t, err := loadTrack(db, h.bucket, msg.Owner, msg.TrackID)
	if err != nil {
		return nil, nil, err
	}
	if !h.auth.HasAddress(ctx, t.Owner) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "owner signature required")
	}
	return &msg, t, nil
}

type mintStemHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
	ctrl   TokenController
}

var _ stanza.Handler = (*mintStemHandler)(nil)

func (h *mintStemHandler) Check(ctx stanza.Context, db stanza.KVStore, tx stanza.Tx) (*stanza.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return stanza.NewCheckResult(nil, mintStemCost), nil
}

func (h *mintStemHandler) Deliver(ctx stanza.Context, db stanza.KVStore, tx stanza.Tx) (*stanza.DeliverResult, error) {
	msg, t, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	// The claimed position must match the split table exactly. This
	// prevents minting a credential for an address that merely resembles
	// a contributor.
	pos := -1
	for i, c := range t.Contributors {
		if c.Equals(msg.Contributor) {
			pos = i
			break
		}
	}
	if pos == -1 {
		return nil, errors.Wrapf(ErrNotAContributor, "%s", msg.Contributor)
	}
	if int(msg.ClaimedIndex) != pos {
		return nil, errors.Wrapf(errors.ErrInput, "claimed position %d, actual %d", msg.ClaimedIndex, pos)
	}
	if len(t.StemCredentials) >= maxStemCredentials {
		return nil, errors.Wrapf(ErrTooManyStems, "limit of %d reached", maxStemCredentials)
	}
	if containsMintID(t.StemCredentials, msg.MintID) {
		return nil, errors.Wrapf(errors.ErrDuplicate, "credential %x", msg.MintID)
	}

	asset, err := h.ctrl.Asset(db, msg.MintID)
	if err != nil {
		return nil, errors.Wrap(err, "credential asset")
	}
	if asset.Supply != 0 || asset.MaxSupply != 1 {
		return nil, errors.Wrapf(errors.ErrState, "asset %x is not an unissued one of one", msg.MintID)
	}
	// Hand control of the asset over to the track condition. The transfer
	// must be authorized by whoever currently controls the asset and it is
	// irreversible, so after the single unit below no further units can
	// ever be minted by anyone.
	if !h.auth.HasAddress(ctx, asset.Authority) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "current asset authority signature required")
	}
	trackAuthority := t.Condition().Address()
	if err := h.ctrl.SetAuthority(db, asset.Authority, trackAuthority, msg.MintID); err != nil {
		return nil, errors.Wrap(err, "re-home credential asset")
	}
	if err := h.ctrl.MintTo(db, trackAuthority, msg.Contributor, msg.MintID, 1); err != nil {
		return nil, errors.Wrap(err, "mint credential")
	}

	t.StemCredentials = append(t.StemCredentials, msg.MintID)
	if _, err := h.bucket.Put(db, TrackKey(t.Owner, t.TrackID), t); err != nil {
		return nil, errors.Wrap(err, "store track")
	}

	return stanza.NewDeliverResult(msg.MintID, eventTag("track.stem_minted", &StemMintedEvent{
		Owner:       t.Owner,
		TrackID:     t.TrackID,
		Contributor: msg.Contributor,
		MintID:      msg.MintID,
		Index:       msg.ClaimedIndex,
	})), nil
}

func (h *mintStemHandler) validate(ctx stanza.Context, db stanza.KVStore, tx stanza.Tx) (*MintStemMsg, *Track, error) {
	var msg MintStemMsg
	if err := stanza.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	t, err := loadTrack(db, h.bucket, msg.Owner, msg.TrackID)
	if err != nil {
		return nil, nil, err
	}
	// Contributors claim their own credential.
	if !h.auth.HasAddress(ctx, msg.Contributor) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "contributor signature required")
	}
	return &msg, t, nil
}

type registerStemHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
}

var _ stanza.Handler = (*registerStemHandler)(nil)

func (h *registerStemHandler) Check(ctx stanza.Context, db stanza.KVStore, tx stanza.Tx) (*stanza.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return stanza.NewCheckResult(nil, registerCost), nil
}

func (h *registerStemHandler) Deliver(ctx stanza.Context, db stanza.KVStore, tx stanza.Tx) (*stanza.DeliverResult, error) {
	msg, t, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	if len(t.StemCredentials) >= maxStemCredentials {
		return nil, errors.Wrapf(ErrTooManyStems, "limit of %d reached", maxStemCredentials)
	}
	if containsMintID(t.StemCredentials, msg.MintID) {
		return nil, errors.Wrapf(errors.ErrDuplicate, "credential %x", msg.MintID)
	}

	t.StemCredentials = append(t.StemCredentials, msg.MintID)
	if _, err := h.bucket.Put(db, TrackKey(t.Owner, t.TrackID), t); err != nil {
		return nil, errors.Wrap(err, "store track")
	}
	return &stanza.DeliverResult{Data: msg.MintID}, nil
}

func (h *registerStemHandler) validate(ctx stanza.Context, db stanza.KVStore, tx stanza.Tx) (*RegisterStemMsg, *Track, error) {
	var msg RegisterStemMsg
	if err := stanza.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	t, err := loadTrack(db, h.bucket, msg.Owner, msg.TrackID)
	if err != nil {
		return nil, nil, err
	}
	if !h.auth.HasAddress(ctx, t.Owner) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "owner signature required")
	}
	return &msg, t, nil
}

func containsMintID(ids [][]byte, id []byte) bool {
	for _, x := range ids {
		if string(x) == string(id) {
			return true
		}
	}
	return false
}
