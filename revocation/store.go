package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/upb/socialhub/tokens"
)

// ErrNotFound is returned by Store.Get when the key does not exist
var ErrNotFound = errors.New("revocation entry not found")

// Store is the key/value backend of the revocation cache. Implementations must
// report backend failures as errors and never as a missing key.
type Store interface {
	Exists(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

const keyPrefix = "blacklist"

// TokenKey returns the revocation key for a single token
func TokenKey(audience tokens.Audience, token string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, audience, token)
}

// SubjectKey returns the revocation key covering every token of one subject
func SubjectKey(audience tokens.Audience, subjectID string) string {
	return fmt.Sprintf("%s:%s:subject:%s", keyPrefix, audience, subjectID)
}
