package migration

import (
	"reflect"

	"github.com/iov-one/stanza"
	"github.com/iov-one/stanza/errors"
	"github.com/iov-one/stanza/orm"
)

// ModelBucket implements the orm.ModelBucket interface and provides the
// same functionality with additional model schema migration.
//
// Entities are migrated on the fly, before being returned to the caller or
// stored in the database. The data in the database stays in the schema it
// was written with, until the next write.
type ModelBucket struct {
	orm.ModelBucket
	packageName string
	schema      *SchemaBucket
	migrations  *register
}

var _ orm.ModelBucket = (*ModelBucket)(nil)

// NewModelBucket wraps an orm bucket with schema versioning for entities of
// the given package.
func NewModelBucket(packageName string, b orm.ModelBucket) *ModelBucket {
	return &ModelBucket{
		ModelBucket: b,
		packageName: packageName,
		schema:      NewSchemaBucket(),
		migrations:  reg,
	}
}

// useRegister will update this bucket to use a custom register instance
// instead of the global one. This is a private method meant to be used for
// tests only.
func (m *ModelBucket) useRegister(r *register) {
	m.migrations = r
}

func (m *ModelBucket) One(db stanza.ReadOnlyKVStore, key []byte, dest orm.Model) error {
	if err := m.ModelBucket.One(db, key, dest); err != nil {
		return err
	}
	if err := m.migrate(db, dest); err != nil {
		return errors.Wrap(err, "migrate")
	}
	return nil
}

func (m *ModelBucket) ByIndex(db stanza.ReadOnlyKVStore, indexName string, key []byte, dest orm.ModelSlicePtr) ([][]byte, error) {
	keys, err := m.ModelBucket.ByIndex(db, indexName, key, dest)
	if err != nil {
		return nil, err
	}

	// The type of dest was already validated when getting the data by
	// index. The slice can hold both values and pointers to values.
	slice := reflect.ValueOf(dest).Elem()
	for i := 0; i < slice.Len(); i++ {
		item := slice.Index(i)
		var model orm.Model
		if m, ok := item.Interface().(orm.Model); ok {
			model = m
		} else {
			model = item.Addr().Interface().(orm.Model)
		}
		if err := m.migrate(db, model); err != nil {
			return nil, errors.Wrapf(err, "migrate %d element", i)
		}
	}
	return keys, nil
}

func (m *ModelBucket) Put(db stanza.KVStore, key []byte, model orm.Model) ([]byte, error) {
	if err := m.migrate(db, model); err != nil {
		return nil, errors.Wrap(err, "migrate")
	}
	return m.ModelBucket.Put(db, key, model)
}

func (m *ModelBucket) migrate(db stanza.ReadOnlyKVStore, model orm.Model) error {
	return migratePayload(m.migrations, m.schema, m.packageName, db, model)
}

func migratePayload(
	migrations *register,
	schema *SchemaBucket,
	packageName string,
	db stanza.ReadOnlyKVStore,
	value interface{},
) error {
	m, ok := value.(Migratable)
	if !ok {
		return errors.Wrap(errors.ErrModel, "payload cannot be migrated")
	}
	currSchemaVer, err := schema.CurrentSchema(db, packageName)
	if err != nil {
		return errors.Wrapf(err, "current schema version of package %q", packageName)
	}

	meta := m.GetMetadata()
	if meta == nil {
		return errors.Wrapf(errors.ErrMetadata, "%T metadata is nil", m)
	}

	// In case of the schema not being set the code is expecting the
	// current version. Set the default to the current schema version.
	if meta.Schema == 0 {
		meta.Schema = currSchemaVer
		return nil
	}

	if meta.Schema > currSchemaVer {
		return errors.Wrapf(errors.ErrSchema, "payload schema higher than %d", currSchemaVer)
	}

	// Migration is applied in place, directly modifying the instance.
	if err := migrations.Apply(db, m, currSchemaVer); err != nil {
		return errors.Wrap(err, "schema migration")
	}
	return nil
}

// Migrate queries the current schema of the named package and attempts to
// migrate the passed value up to it.
//
// Returns an error if the passed value is not Migratable, not registered
// with migrations, missing Metadata, has a schema higher than the current
// one, or if the final migrated value is invalid.
func Migrate(db stanza.ReadOnlyKVStore, packageName string, value interface{}) error {
	return migratePayload(reg, NewSchemaBucket(), packageName, db, value)
}
