/*
Package migration provides tooling for schema versioned state.

Every model and message that can evolve over time carries a Metadata
attribute with a schema version. This package maintains the currently
active schema version of each package and migrates older payloads on the
fly, before they reach the handler or the caller.

To use the functionality of this package:

1. Add a Metadata attribute to your model or message.

2. Register each model and message together with the migration functions,
using MustRegister. The first version must always be registered with
NoModification.

3. Use a schema aware bucket in your models. Create one by wrapping your
bucket with NewModelBucket from this package.

4. When registering the message handlers, wrap the registry with
SchemaMigratingRegistry so that every incoming message is migrated before
processing.
*/
package migration
