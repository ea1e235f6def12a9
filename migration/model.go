package migration

import (
	"encoding/binary"

	"github.com/iov-one/stanza"
	"github.com/iov-one/stanza/errors"
	"github.com/iov-one/stanza/orm"
)

func init() {
	MustRegister(1, &Schema{}, NoModification)
}

// schemaID returns a deterministic ID of this schema instance. Created IDs
// can be sorted using lexicographical order from the lowest to the highest
// version.
func schemaID(pkg string, version uint32) []byte {
	raw := make([]byte, len(pkg)+4)
	copy(raw, pkg)
	binary.BigEndian.PutUint32(raw[len(pkg):], version)
	return raw
}

// SchemaBucket maintains the currently supported schema version of each
// package. Direct writes are not allowed, use Create to declare the next
// version.
type SchemaBucket struct {
	bucket orm.ModelBucket
}

// NewSchemaBucket returns a bucket for keeping track of schema versions.
// It uses the plain orm bucket so that entities can be stored without the
// schema versioning machinery depending on itself.
func NewSchemaBucket() *SchemaBucket {
	return &SchemaBucket{
		bucket: orm.NewModelBucket("schema", &Schema{}),
	}
}

// MustInitPkg initializes schema versioning for given package names by
// registering a version one schema.
// This function panics if not successful. It is safe to call this function
// many times as duplicate registrations are ignored.
func MustInitPkg(db stanza.KVStore, packageNames ...string) {
	b := NewSchemaBucket()
	for _, name := range packageNames {
		_, err := b.Create(db, &Schema{
			Metadata: &stanza.Metadata{Schema: 1},
			Pkg:      name,
			Version:  1,
		})
		if err != nil && !errors.ErrDuplicate.Is(err) {
			panic(errors.Wrap(err, name))
		}
	}
}

// CurrentSchema returns the current version of the schema for a given
// package. It returns ErrNotFound if no schema version was registered for
// this package. Minimum schema version is 1.
func (b *SchemaBucket) CurrentSchema(db stanza.ReadOnlyKVStore, packageName string) (uint32, error) {
	for ver := uint32(1); ver < 10000; ver++ {
		err := b.bucket.Has(db, schemaID(packageName, ver))
		switch {
		case err == nil:
			continue
		case errors.ErrNotFound.Is(err):
			if ver == 1 {
				return 0, errors.Wrap(errors.ErrNotFound, "not initialized")
			}
			return ver - 1, nil
		default:
			return 0, errors.Wrap(err, "bucket has")
		}
	}
	return 0, errors.Wrap(errors.ErrState, "version too high")
}

// Create adds the given schema instance to the store and returns the key of
// the newly inserted entity. Only the next schema version of a package can
// be created.
func (b *SchemaBucket) Create(db stanza.KVStore, s *Schema) ([]byte, error) {
	if err := b.validateNextSchema(db, s); err != nil {
		return nil, err
	}
	return b.bucket.Put(db, schemaID(s.Pkg, s.Version), s)
}

// validateNextSchema returns an error if the given Schema instance does not
// represent the next valid schema version.
func (b *SchemaBucket) validateNextSchema(db stanza.ReadOnlyKVStore, next *Schema) error {
	ver, err := b.CurrentSchema(db, next.Pkg)
	if err != nil {
		if !errors.ErrNotFound.Is(err) {
			return errors.Wrap(err, "current schema")
		}
		if next.Version != 1 {
			return errors.Wrap(errors.ErrInput, "schema not initialized with version 1")
		}
		return nil
	}
	if ver+1 != next.Version {
		// Schema versions are sequential and the numbers must be
		// incrementing.
		return errors.Wrapf(errors.ErrDuplicate, "previous schema is %d", ver)
	}
	return nil
}

// RegisterQuery registers the schema bucket for querying.
func RegisterQuery(qr stanza.QueryRouter) {
	NewSchemaBucket().bucket.Register("schemas", qr)
}
