package frontmatter

import (
	"testing"

	"github.com/inful/mdfp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint(t *testing.T) {
	body := []byte("# Architecture\n")

	got, err := Fingerprint(Frontmatter{Title: "Architecture"}, body)
	require.NoError(t, err)
	assert.Equal(t, mdfp.CalculateFingerprintFromParts("title: Architecture", string(body)), got)

	t.Run("ignores stored fingerprint", func(t *testing.T) {
		withStored, err := Fingerprint(Frontmatter{
			Title: "Architecture",
			Extra: map[string]any{mdfp.FingerprintField: "stale"},
		}, body)
		require.NoError(t, err)
		assert.Equal(t, got, withStored)
	})

	t.Run("changes with body", func(t *testing.T) {
		other, err := Fingerprint(Frontmatter{Title: "Architecture"}, []byte("changed"))
		require.NoError(t, err)
		assert.NotEqual(t, got, other)
	})

	t.Run("no frontmatter", func(t *testing.T) {
		bare, err := Fingerprint(Frontmatter{}, body)
		require.NoError(t, err)
		assert.Equal(t, mdfp.CalculateFingerprintFromParts("", string(body)), bare)
	})
}
