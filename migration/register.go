package migration

import (
	"reflect"

	"github.com/iov-one/stanza"
	"github.com/iov-one/stanza/errors"
)

// Migratable is implemented by both messages and models that support schema
// versioning.
type Migratable interface {
	GetMetadata() *stanza.Metadata
	Validate() error
}

// Migrator is a function that migrates a data entity from schema version
// n-1 to n, in place.
type Migrator func(db stanza.ReadOnlyKVStore, msgOrModel Migratable) error

// NoModification is a migration function for data that requires no change
// when moving to a newer schema. It should be used to register migrations
// that only bump the version.
func NoModification(db stanza.ReadOnlyKVStore, msgOrModel Migratable) error {
	return nil
}

func newRegister() *register {
	return &register{
		handlers: make(map[payloadVersion]Migrator),
	}
}

type register struct {
	handlers map[payloadVersion]Migrator
}

// payloadVersion references a message or a model at a given schema version.
type payloadVersion struct {
	payload reflect.Type
	version uint32
}

func (r *register) MustRegister(migrationTo uint32, msgOrModel Migratable, fn Migrator) {
	if err := r.Register(migrationTo, msgOrModel, fn); err != nil {
		panic(err)
	}
}

func (r *register) Register(migrationTo uint32, msgOrModel Migratable, fn Migrator) error {
	tp := reflect.TypeOf(msgOrModel)
	for tp.Kind() == reflect.Ptr {
		tp = tp.Elem()
	}
	if tp.Kind() != reflect.Struct {
		return errors.Wrapf(errors.ErrInput, "only struct can be migrated, got %T", msgOrModel)
	}

	pv := payloadVersion{
		version: migrationTo,
		payload: tp,
	}
	if _, ok := r.handlers[pv]; ok {
		return errors.Wrapf(errors.ErrDuplicate, "already registered: %s.%s:%d", tp.PkgPath(), tp.Name(), migrationTo)
	}
	r.handlers[pv] = fn
	return nil
}

// Apply updates a payload by applying all missing data migrations. Even a
// no modification migration is updating the metadata to point to the latest
// schema version.
//
// Because changes are applied directly on the passed payload, even if this
// function fails some of the data migrations might be applied.
//
// The validation method is called only on the final version of the payload.
func (r *register) Apply(db stanza.ReadOnlyKVStore, msgOrModel Migratable, migrateTo uint32) error {
	tp := reflect.TypeOf(msgOrModel)
	for tp.Kind() == reflect.Ptr {
		tp = tp.Elem()
	}
	if tp.Kind() != reflect.Struct {
		return errors.Wrapf(errors.ErrInput, "only struct can be migrated, got %T", msgOrModel)
	}

	meta := msgOrModel.GetMetadata()
	if meta == nil {
		return errors.Wrap(errors.ErrMetadata, "nil metadata")
	}
	if meta.Schema == 0 {
		return errors.Wrap(errors.ErrMetadata, "schema version not set")
	}
	for v := meta.Schema + 1; v <= migrateTo; v++ {
		migrate, ok := r.handlers[payloadVersion{payload: tp, version: v}]
		if !ok {
			return errors.Wrapf(errors.ErrState, "migration to version %d missing", v)
		}
		if err := migrate(db, msgOrModel); err != nil {
			return errors.Wrapf(err, "migration to version %d", v)
		}
		meta.Schema = v
	}

	if err := msgOrModel.Validate(); err != nil {
		return errors.Wrap(err, "validation")
	}
	return nil
}

// reg is a globally available register instance that must be used during
// the runtime to register migration handlers.
// register is declared as a separate type so that it can be tested without
// worrying about the global state.
var reg = newRegister()

// MustRegister registers a migration function for the given payload type
// and schema version. It panics on a conflict.
func MustRegister(migrationTo uint32, msgOrModel Migratable, fn Migrator) {
	reg.MustRegister(migrationTo, msgOrModel, fn)
}
