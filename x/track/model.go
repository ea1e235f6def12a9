package track

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/iov-one/stanza"
	"github.com/iov-one/stanza/errors"
	"github.com/iov-one/stanza/migration"
	"github.com/iov-one/stanza/orm"
)

const (
	// maxContributors bounds the split table size.
	maxContributors = 16
	// maxTitleLen bounds the title length in bytes.
	maxTitleLen = 64
	// maxContentIDLen bounds the content ID length in bytes.
	maxContentIDLen = 128
	// maxStemCredentials bounds the stem credential list of one track.
	maxStemCredentials = 64
	// contentHashLen is the required commitment size.
	contentHashLen = 32
	// totalShareBps is the required sum of all shares.
	totalShareBps = 10000
)

func init() {
	migration.MustRegister(1, &Track{}, migration.NoModification)
}

var _ orm.Model = (*Track)(nil)

func (t *Track) Validate() error {
	if err := t.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := t.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	if err := validateTitle(t.Title); err != nil {
		return err
	}
	if err := validateContentID(t.ContentID); err != nil {
		return err
	}
	if len(t.ContentHash) != contentHashLen {
		return errors.Wrapf(errors.ErrInput, "content hash must be %d bytes", contentHashLen)
	}
	if err := validateShares(t.Contributors, t.Shares); err != nil {
		return err
	}
	if len(t.StemCredentials) > maxStemCredentials {
		return errors.Wrapf(ErrTooManyStems, "%d credentials", len(t.StemCredentials))
	}
	if t.RoyaltyVersion < 1 {
		return errors.Wrap(errors.ErrModel, "royalty version must be greater than zero")
	}
	return nil
}

func validateTitle(title string) error {
	if title == "" {
		return errors.Wrap(errors.ErrEmpty, "title")
	}
	if len(title) > maxTitleLen {
		return errors.Wrapf(ErrTitleTooLong, "%d bytes", len(title))
	}
	return nil
}

func validateContentID(cid string) error {
	if len(cid) > maxContentIDLen {
		return errors.Wrapf(ErrCidTooLong, "%d bytes", len(cid))
	}
	return nil
}

// validateShares ensures the split table is complete: every contributor
// address is valid and listed once, every contributor has a share and the
// shares sum to exactly 10000 basis points.
func validateShares(contributors []stanza.Address, shares []uint32) error {
	if len(contributors) == 0 {
		return ErrNoContributors
	}
	if len(contributors) > maxContributors {
		return errors.Wrapf(ErrTooManyContributors, "%d contributors", len(contributors))
	}
	if len(shares) != len(contributors) {
		return errors.Wrapf(errors.ErrInput, "%d shares for %d contributors", len(shares), len(contributors))
	}
	seen := make(map[string]struct{}, len(contributors))
	var total uint64
	for i, c := range contributors {
		if err := c.Validate(); err != nil {
			return errors.Wrapf(err, "contributor %d", i)
		}
		if _, ok := seen[string(c)]; ok {
			return errors.Wrapf(errors.ErrDuplicate, "contributor %d listed twice", i)
		}
		seen[string(c)] = struct{}{}
		total += uint64(shares[i])
	}
	if total != totalShareBps {
		return errors.Wrapf(ErrInvalidShareTotal, "shares sum to %d", total)
	}
	return nil
}

// TrackKey is the primary key of a track, built from the owner address and
// the owner chosen track ID.
func TrackKey(owner stanza.Address, trackID uint64) []byte {
	key := make([]byte, 0, len(owner)+8)
	key = append(key, owner...)
	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, trackID)
	return append(key, raw...)
}

// derivationNonce computes the nonce byte mixed into the track condition.
// It only depends on the track identity, so the condition can be recomputed
// by anyone.
func derivationNonce(owner stanza.Address, trackID uint64) uint8 {
	h := sha256.Sum256(TrackKey(owner, trackID))
	return h[0]
}

// TrackCondition returns the condition controlled by this extension on
// behalf of the track. Its address owns the track escrow accounts and acts
// as the authority of the stem credential assets.
func TrackCondition(owner stanza.Address, trackID uint64, nonce uint8) stanza.Condition {
	data := append(TrackKey(owner, trackID), nonce)
	return stanza.NewCondition("track", "royalty", data)
}

// Condition returns the derived condition of this track.
func (t *Track) Condition() stanza.Condition {
	return TrackCondition(t.Owner, t.TrackID, t.DerivationNonce)
}

// NewTrackBucket returns a bucket for keeping the track registry. Tracks
// are additionally indexed by their owner.
func NewTrackBucket() orm.ModelBucket {
	b := orm.NewModelBucket("track", &Track{},
		orm.WithIndex("owner", idxTrackOwner, false),
	)
	return migration.NewModelBucket("track", b)
}

func idxTrackOwner(obj orm.Model) ([]byte, error) {
	t, ok := obj.(*Track)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T is not a track", obj)
	}
	return t.Owner, nil
}

// RegisterQuery registers the track bucket for querying.
func RegisterQuery(qr stanza.QueryRouter) {
	NewTrackBucket().Register("tracks", qr)
}
