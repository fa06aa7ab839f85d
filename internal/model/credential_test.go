package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCredential(t *testing.T) {
	t.Run("hashes deterministically to a 64-char hex digest", func(t *testing.T) {
		a := NewCredential("a@b.com", "pw")
		b := NewCredential("a@b.com", "pw")
		assert.Equal(t, a.Digest(), b.Digest())
		assert.Len(t, a.Digest(), 64)
		assert.Regexp(t, "^[0-9a-f]{64}$", a.Digest())
	})

	t.Run("known vector", func(t *testing.T) {
		c := NewCredential("a@b.com", "")
		// SHA-256 of the empty string
		assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", c.Digest())
	})

	t.Run("different passwords differ", func(t *testing.T) {
		assert.NotEqual(t,
			NewCredential("a@b.com", "pw").Digest(),
			NewCredential("a@b.com", "pw2").Digest())
	})

	t.Run("raw password is not exposed", func(t *testing.T) {
		c := NewCredential("a@b.com", "secret")
		assert.Equal(t, "a@b.com", c.Email())
		assert.NotEqual(t, "secret", c.Digest())
	})
}
