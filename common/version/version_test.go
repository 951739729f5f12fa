package version

import (
	"testing"

	"github.com/blang/semver"
	"github.com/stretchr/testify/assert"
)

func TestIsCompatible(t *testing.T) {
	assert.True(t, IsCompatible(CURRENT_VERSION))
	assert.True(t, IsCompatible(semver.Version{}))
	assert.True(t, IsCompatible(semver.MustParse("1.0.0")))
	assert.False(t, IsCompatible(semver.MustParse("2.0.0")))
	assert.False(t, IsCompatible(semver.MustParse("0.9.0")))
}

func TestSupportsStampedUpdates(t *testing.T) {
	assert.True(t, SupportsStampedUpdates(CURRENT_VERSION))
	assert.False(t, SupportsStampedUpdates(semver.MustParse("1.0.3")))
}
