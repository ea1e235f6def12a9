package orm

import (
	"regexp"

	"github.com/iov-one/stanza"
)

// Model is implemented by any entity that can be stored using ModelBucket.
type Model interface {
	stanza.Persistent
	Validate() error
}

// isBucketName limits the allowed bucket names to ensure the key prefixes
// of different buckets cannot collide.
var isBucketName = regexp.MustCompile(`^[a-z]{3,10}$`).MatchString
