package track

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iov-one/stanza"
	"github.com/iov-one/stanza/errors"
	"github.com/iov-one/stanza/stanzatest"
)

func validTrack() Track {
	return Track{
		Metadata:        &stanza.Metadata{Schema: 1},
		Owner:           stanzatest.NewKey(),
		TrackID:         7,
		Title:           "Midnight Pressing",
		ContentID:       "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi",
		ContentHash:     bytes.Repeat([]byte{1}, 32),
		Contributors:    []stanza.Address{stanzatest.NewKey(), stanzatest.NewKey()},
		Shares:          []uint32{6000, 4000},
		RoyaltyVersion:  1,
		DerivationNonce: 9,
	}
}

func TestTrackValidate(t *testing.T) {
	cases := map[string]struct {
		mod     func(*Track)
		wantErr *errors.Error
	}{
		"valid": {
			mod: func(*Track) {},
		},
		"missing metadata": {
			mod:     func(tr *Track) { tr.Metadata = nil },
			wantErr: errors.ErrMetadata,
		},
		"empty title": {
			mod:     func(tr *Track) { tr.Title = "" },
			wantErr: errors.ErrEmpty,
		},
		"title too long": {
			mod:     func(tr *Track) { tr.Title = strings.Repeat("x", 65) },
			wantErr: ErrTitleTooLong,
		},
		"content id too long": {
			mod:     func(tr *Track) { tr.ContentID = strings.Repeat("x", 129) },
			wantErr: ErrCidTooLong,
		},
		"short content hash": {
			mod:     func(tr *Track) { tr.ContentHash = []byte("short") },
			wantErr: errors.ErrInput,
		},
		"no contributors": {
			mod: func(tr *Track) {
				tr.Contributors = nil
				tr.Shares = nil
			},
			wantErr: ErrNoContributors,
		},
		"too many contributors": {
			mod: func(tr *Track) {
				tr.Contributors = nil
				tr.Shares = nil
				for i := 0; i < 17; i++ {
					tr.Contributors = append(tr.Contributors, stanzatest.NewKey())
					tr.Shares = append(tr.Shares, 588)
				}
			},
			wantErr: ErrTooManyContributors,
		},
		"shares do not sum": {
			mod:     func(tr *Track) { tr.Shares = []uint32{6000, 3999} },
			wantErr: ErrInvalidShareTotal,
		},
		"shares above total": {
			mod:     func(tr *Track) { tr.Shares = []uint32{10001, 0} },
			wantErr: ErrInvalidShareTotal,
		},
		"share count mismatch": {
			mod:     func(tr *Track) { tr.Shares = []uint32{10000} },
			wantErr: errors.ErrInput,
		},
		"duplicate contributor": {
			mod: func(tr *Track) {
				tr.Contributors[1] = tr.Contributors[0]
			},
			wantErr: errors.ErrDuplicate,
		},
		"zero royalty version": {
			mod:     func(tr *Track) { tr.RoyaltyVersion = 0 },
			wantErr: errors.ErrModel,
		},
		"too many stem credentials": {
			mod: func(tr *Track) {
				for i := 0; i < 65; i++ {
					tr.StemCredentials = append(tr.StemCredentials, []byte{byte(i)})
				}
			},
			wantErr: ErrTooManyStems,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			tr := validTrack()
			tc.mod(&tr)
			err := tr.Validate()
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.True(t, tc.wantErr.Is(err))
			}
		})
	}
}

func TestTrackKeyIsUniquePerOwnerAndID(t *testing.T) {
	alice := stanzatest.NewKey()
	bob := stanzatest.NewKey()

	assert.Equal(t, TrackKey(alice, 1), TrackKey(alice, 1))
	assert.NotEqual(t, TrackKey(alice, 1), TrackKey(alice, 2))
	assert.NotEqual(t, TrackKey(alice, 1), TrackKey(bob, 1))
	assert.Len(t, TrackKey(alice, 1), stanza.AddressLength+8)
}

func TestTrackConditionIsStable(t *testing.T) {
	owner := stanzatest.NewKey()
	nonce := derivationNonce(owner, 42)

	cond := TrackCondition(owner, 42, nonce)
	require.NoError(t, cond.Validate())

	ext, typ, _, err := cond.Parse()
	require.NoError(t, err)
	assert.Equal(t, "track", ext)
	assert.Equal(t, "royalty", typ)

	// Same inputs, same address.
	again := TrackCondition(owner, 42, derivationNonce(owner, 42))
	assert.Equal(t, cond.Address(), again.Address())

	// Different track, different address.
	other := TrackCondition(owner, 43, derivationNonce(owner, 43))
	assert.False(t, cond.Address().Equals(other.Address()))
}

func TestTrackConditionDiffersFromOwner(t *testing.T) {
	tr := validTrack()
	assert.False(t, tr.Condition().Address().Equals(tr.Owner))
}
