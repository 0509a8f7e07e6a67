package helper

import (
	"time"
)

// StartOfToday today 00:00 UTC; certificate validity windows are anchored here
// so that issued NotBefore/NotAfter are stable within a day
func StartOfToday() time.Time {
	return time.Now().UTC().Truncate(time.Hour * 24)
}
