package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	// ldflags are not applied under go test.
	assert.NotEmpty(t, Version)
	assert.NotEmpty(t, BuildTime)
	assert.NotEmpty(t, GitCommit)
}

func TestString(t *testing.T) {
	assert.Contains(t, String(), "docsite "+Version)
	assert.Contains(t, String(), "commit "+GitCommit)
}
