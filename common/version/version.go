package version

import (
	"github.com/blang/semver"
)

var CURRENT_VERSION = semver.MustParse("1.2.0")

// Peers older than this predate registration stamps on location updates.
var STAMPED_UPDATES_VERSION = semver.MustParse("1.1.0")

// IsCompatible reports whether a peer speaking v can be served. Only the
// major version has to agree; a zero version means the sender did not
// declare one and is accepted.
func IsCompatible(v semver.Version) bool {
	if v.Equals(semver.Version{}) {
		return true
	}
	return v.Major == CURRENT_VERSION.Major
}

func SupportsStampedUpdates(v semver.Version) bool {
	return v.GTE(STAMPED_UPDATES_VERSION)
}
