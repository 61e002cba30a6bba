// utils/memo.go
package utils

import (
	"fmt"
	"time"
)

// MemoPrefix tags every payment memo issued by the platform.
const MemoPrefix = "VYLDO"

// GenerateMemo builds the correlation token binding a (gig, buyer, time)
// triple: prefix, last 6 characters of the gig id, last 6 characters of the
// buyer id, last 6 digits of the millisecond timestamp. It is not a secret —
// uniqueness is ultimately enforced by the unique index on orders, this just
// has to be collision-free in practice per buyer and gig.
func GenerateMemo(gigID, buyerID string, at time.Time) string {
	millis := at.UnixMilli() % 1000000
	return fmt.Sprintf("%s-%s-%s-%06d", MemoPrefix, lastN(gigID, 6), lastN(buyerID, 6), millis)
}

func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
