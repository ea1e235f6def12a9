package stanza

import (
	"github.com/iov-one/stanza/errors"
)

// Metadata is carried by every persistent entity and message. It holds the
// schema version of the payload so that stored data can be migrated when
// the format changes.
type Metadata struct {
	Schema uint32 `json:"schema"`
}

// Validate returns an error if the metadata is not valid. Nil metadata is
// not valid either, which removes nil checks from all users.
func (m *Metadata) Validate() error {
	if m == nil {
		return errors.Wrap(errors.ErrMetadata, "missing metadata")
	}
	if m.Schema < 1 {
		return errors.Wrap(errors.ErrMetadata, "schema version required")
	}
	return nil
}

// Copy returns a copy of this object. This method is helpful when
// implementing the orm.Model interface to make a copy of the header.
func (m *Metadata) Copy() *Metadata {
	if m == nil {
		return nil
	}
	cpy := *m
	return &cpy
}
