package migration

import (
	"github.com/tendermint/go-amino"

	"github.com/iov-one/stanza"
	"github.com/iov-one/stanza/errors"
	"github.com/iov-one/stanza/orm"
)

var cdc = amino.NewCodec()

// Schema declares the maximum supported schema version of a package.
type Schema struct {
	Metadata *stanza.Metadata
	// Pkg holds the name of the package this migration is declared for.
	Pkg string
	// Version holds the highest supported schema version.
	Version uint32
}

var _ orm.Model = (*Schema)(nil)

func (s *Schema) GetMetadata() *stanza.Metadata {
	return s.Metadata
}

func (s *Schema) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(s)
}

func (s *Schema) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, s)
}

func (s *Schema) Validate() error {
	if err := s.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if s.Version < 1 {
		return errors.Wrap(errors.ErrModel, "version must be greater than zero")
	}
	if s.Pkg == "" {
		return errors.Wrap(errors.ErrModel, "pkg is required")
	}
	return nil
}
