package zkscript

import (
	"testing"

	"github.com/blang/semver/v4"
	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	assert := require.New(t)

	// serialized programs are stamped with the version string; it must parse
	// back to the same value
	parsed, err := semver.Parse(Version.String())
	assert.NoError(err)
	assert.True(parsed.EQ(Version))

	assert.Empty(Version.Pre, "release versions only")
	assert.Empty(Version.Build)
}
