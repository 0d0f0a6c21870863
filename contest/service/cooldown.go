// contest/service/cooldown.go
package service

import (
	"time"

	"github.com/campusgo/go-services/shared/models"
)

// CanContest reports whether enough time has passed since a location's last
// ownership change for it to be contestable. An unclaimed location (nil
// owned_since) reports false.
//
// This is a read-side signal surfaced as can_join on the location read model.
// The battle and join paths deliberately do not check it; clients must not
// assume the window is enforced server-side.
func CanContest(loc *models.Location, now time.Time, window time.Duration) bool {
	if loc.OwnedSince == nil {
		return false
	}
	return now.Sub(*loc.OwnedSince) > window
}
