package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iov-one/stanza"
	"github.com/iov-one/stanza/errors"
	"github.com/iov-one/stanza/orm"
	"github.com/iov-one/stanza/store"
)

// ticket is a payload for testing migrations.
type ticket struct {
	Metadata *stanza.Metadata
	Owner    string
	// Priority was introduced in the second schema version.
	Priority int64
}

var _ orm.Model = (*ticket)(nil)

func (t *ticket) GetMetadata() *stanza.Metadata {
	return t.Metadata
}

func (t *ticket) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(t)
}

func (t *ticket) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, t)
}

func (t *ticket) Validate() error {
	if err := t.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if t.Owner == "" {
		return errors.Wrap(errors.ErrEmpty, "owner")
	}
	return nil
}

func TestSchemaVersioning(t *testing.T) {
	db := store.MemStore()

	b := NewSchemaBucket()
	_, err := b.CurrentSchema(db, "tickets")
	assert.True(t, errors.ErrNotFound.Is(err))

	MustInitPkg(db, "tickets")
	ver, err := b.CurrentSchema(db, "tickets")
	require.NoError(t, err)
	assert.Equal(t, uint32(1), ver)

	// Repeated initialization must not fail.
	MustInitPkg(db, "tickets")

	// Versions must be incremented sequentially.
	_, err = b.Create(db, &Schema{
		Metadata: &stanza.Metadata{Schema: 1},
		Pkg:      "tickets",
		Version:  4,
	})
	assert.True(t, errors.ErrDuplicate.Is(err))

	_, err = b.Create(db, &Schema{
		Metadata: &stanza.Metadata{Schema: 1},
		Pkg:      "tickets",
		Version:  2,
	})
	require.NoError(t, err)

	ver, err = b.CurrentSchema(db, "tickets")
	require.NoError(t, err)
	assert.Equal(t, uint32(2), ver)

	// A fresh package cannot start above version one.
	_, err = b.Create(db, &Schema{
		Metadata: &stanza.Metadata{Schema: 1},
		Pkg:      "other",
		Version:  2,
	})
	assert.True(t, errors.ErrInput.Is(err))
}

func TestRegisterApply(t *testing.T) {
	r := newRegister()
	r.MustRegister(1, &ticket{}, NoModification)
	r.MustRegister(2, &ticket{}, func(db stanza.ReadOnlyKVStore, m Migratable) error {
		m.(*ticket).Priority = 42
		return nil
	})

	tk := ticket{
		Metadata: &stanza.Metadata{Schema: 1},
		Owner:    "alice",
	}
	require.NoError(t, r.Apply(store.MemStore(), &tk, 2))
	assert.Equal(t, uint32(2), tk.Metadata.Schema)
	assert.Equal(t, int64(42), tk.Priority)

	// Already migrated payloads are left alone.
	tk.Priority = 7
	require.NoError(t, r.Apply(store.MemStore(), &tk, 2))
	assert.Equal(t, int64(7), tk.Priority)
}

func TestRegisterApplyMissingMigration(t *testing.T) {
	r := newRegister()
	r.MustRegister(1, &ticket{}, NoModification)

	tk := ticket{
		Metadata: &stanza.Metadata{Schema: 1},
		Owner:    "alice",
	}
	err := r.Apply(store.MemStore(), &tk, 3)
	assert.True(t, errors.ErrState.Is(err))
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	r := newRegister()
	r.MustRegister(1, &ticket{}, NoModification)
	assert.Panics(t, func() {
		r.MustRegister(1, &ticket{}, NoModification)
	})
}

func TestModelBucketMigratesOnLoad(t *testing.T) {
	db := store.MemStore()
	MustInitPkg(db, "tickets")

	r := newRegister()
	r.MustRegister(1, &ticket{}, NoModification)
	r.MustRegister(2, &ticket{}, func(db stanza.ReadOnlyKVStore, m Migratable) error {
		m.(*ticket).Priority = 1
		return nil
	})

	b := NewModelBucket("tickets", orm.NewModelBucket("tickets", &ticket{}))
	b.useRegister(r)

	_, err := b.Put(db, []byte("t1"), &ticket{
		Metadata: &stanza.Metadata{Schema: 1},
		Owner:    "alice",
	})
	require.NoError(t, err)

	// Bump the package schema, the stored entity is now one version
	// behind.
	_, err = NewSchemaBucket().Create(db, &Schema{
		Metadata: &stanza.Metadata{Schema: 1},
		Pkg:      "tickets",
		Version:  2,
	})
	require.NoError(t, err)

	var got ticket
	require.NoError(t, b.One(db, []byte("t1"), &got))
	assert.Equal(t, uint32(2), got.Metadata.Schema)
	assert.Equal(t, int64(1), got.Priority)
}

func TestModelBucketRejectsFutureSchema(t *testing.T) {
	db := store.MemStore()
	MustInitPkg(db, "tickets")

	r := newRegister()
	r.MustRegister(1, &ticket{}, NoModification)

	b := NewModelBucket("tickets", orm.NewModelBucket("tickets", &ticket{}))
	b.useRegister(r)

	_, err := b.Put(db, []byte("t1"), &ticket{
		Metadata: &stanza.Metadata{Schema: 9},
		Owner:    "alice",
	})
	assert.True(t, errors.ErrSchema.Is(err))
}

func TestMigratePayloadDefaultsZeroSchema(t *testing.T) {
	db := store.MemStore()
	MustInitPkg(db, "tickets")

	r := newRegister()
	r.MustRegister(1, &ticket{}, NoModification)

	tk := ticket{
		Metadata: &stanza.Metadata{},
		Owner:    "alice",
	}
	require.NoError(t, migratePayload(r, NewSchemaBucket(), "tickets", db, &tk))
	assert.Equal(t, uint32(1), tk.Metadata.Schema)
}
