package migration

import (
	"github.com/iov-one/stanza"
	"github.com/iov-one/stanza/errors"
)

// SchemaMigratingHandler returns a handler that will ensure that incoming
// messages are in the current schema version format. If a message in an
// older schema is handled then it is first migrated. Messages that cannot
// be migrated to the current schema version return a migration error. This
// happens before the decorated handler and is transparent to it.
func SchemaMigratingHandler(packageName string, h stanza.Handler) stanza.Handler {
	return &schemaMigratingHandler{
		handler:     h,
		packageName: packageName,
		schema:      NewSchemaBucket(),
		migrations:  reg,
	}
}

type schemaMigratingHandler struct {
	handler     stanza.Handler
	packageName string
	schema      *SchemaBucket
	migrations  *register
}

var _ stanza.Handler = (*schemaMigratingHandler)(nil)

func (h *schemaMigratingHandler) Check(ctx stanza.Context, db stanza.KVStore, tx stanza.Tx) (*stanza.CheckResult, error) {
	if err := h.migrate(db, tx); err != nil {
		return nil, errors.Wrap(err, "migration")
	}
	return h.handler.Check(ctx, db, tx)
}

func (h *schemaMigratingHandler) Deliver(ctx stanza.Context, db stanza.KVStore, tx stanza.Tx) (*stanza.DeliverResult, error) {
	if err := h.migrate(db, tx); err != nil {
		return nil, errors.Wrap(err, "migration")
	}
	return h.handler.Deliver(ctx, db, tx)
}

func (h *schemaMigratingHandler) migrate(db stanza.ReadOnlyKVStore, tx stanza.Tx) error {
	msg, err := tx.GetMsg()
	if err != nil {
		return errors.Wrap(err, "get msg")
	}
	return migratePayload(h.migrations, h.schema, h.packageName, db, msg)
}

// SchemaMigratingRegistry decorates a registry so that every registered
// handler is wrapped with a SchemaMigratingHandler for the given package.
func SchemaMigratingRegistry(packageName string, r stanza.Registry) stanza.Registry {
	return &schemaMigratingRegistry{
		packageName: packageName,
		reg:         r,
	}
}

type schemaMigratingRegistry struct {
	packageName string
	reg         stanza.Registry
}

func (r *schemaMigratingRegistry) Handle(path string, h stanza.Handler) {
	r.reg.Handle(path, SchemaMigratingHandler(r.packageName, h))
}
