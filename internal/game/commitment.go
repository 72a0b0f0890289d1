package game

import (
	"crypto/rand"
	"crypto/subtle"

	"rps_arena/internal/domain"

	"golang.org/x/crypto/sha3"
)

// ComputeCommitment hashes the move bytes followed by the salt with
// legacy Keccak-256.
func ComputeCommitment(moves []domain.Move, salt domain.Salt) domain.Commitment {
	h := sha3.NewLegacyKeccak256()
	h.Write(domain.MovesToBytes(moves))
	h.Write(salt[:])

	var c domain.Commitment
	copy(c[:], h.Sum(nil))
	return c
}

// VerifyCommitment reports whether moves and salt reproduce stored bit for bit.
func VerifyCommitment(stored domain.Commitment, moves []domain.Move, salt domain.Salt) bool {
	got := ComputeCommitment(moves, salt)
	return subtle.ConstantTimeCompare(got[:], stored[:]) == 1
}

// NewSalt draws a fresh random salt. Uniqueness across games is up to the caller.
func NewSalt() (domain.Salt, error) {
	var s domain.Salt
	if _, err := rand.Read(s[:]); err != nil {
		return s, err
	}
	return s, nil
}
