package game

import (
	"testing"

	"rps_arena/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeCommitmentKnownVector(t *testing.T) {
	// keccak256 of 32 zero bytes
	got := ComputeCommitment(nil, domain.Salt{})
	assert.Equal(t, "290decd9548b62a8d60345a988386fc84ba6bc95484008f6362f93160ef3e563", got.String())
}

func TestVerifyCommitment(t *testing.T) {
	salt := saltOf(7)
	m := moves(1, 2, 3)
	c := ComputeCommitment(m, salt)

	require.True(t, VerifyCommitment(c, m, salt))

	t.Run("one move differs", func(t *testing.T) {
		for i := range m {
			changed := append([]domain.Move(nil), m...)
			changed[i] = changed[i]%3 + 1
			assert.False(t, VerifyCommitment(c, changed, salt), "move %d", i)
		}
	})

	t.Run("one salt byte differs", func(t *testing.T) {
		for i := 0; i < len(salt); i++ {
			changed := salt
			changed[i] ^= 0x01
			assert.False(t, VerifyCommitment(c, m, changed), "salt byte %d", i)
		}
	})

	t.Run("move order matters", func(t *testing.T) {
		assert.False(t, VerifyCommitment(c, moves(3, 2, 1), salt))
	})
}

func TestNewSaltIsRandom(t *testing.T) {
	a, err := NewSalt()
	require.NoError(t, err)
	b, err := NewSalt()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
