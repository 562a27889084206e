// Package ids generates the storage identifiers used across the
// service. Audit chains depend on ids sorting in append order, so they
// are ULIDs drawn from a single monotonic entropy source.
package ids

import (
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// New returns a ULID. Within this process ids are strictly increasing,
// which lets chain tails be read with a plain order-by-id.
func New() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
