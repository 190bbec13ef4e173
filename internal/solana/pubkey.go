package solana

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// PublicKey is a 32-byte ed25519 public key or PDA.
type PublicKey [32]byte

var ErrInvalidPublicKey = errors.New("invalid public key")

func PublicKeyFromBase58(s string) (PublicKey, error) {
	var pk PublicKey
	raw, err := base58.Decode(s)
	if err != nil {
		return pk, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	if len(raw) != 32 {
		return pk, fmt.Errorf("%w: got %d bytes, want 32", ErrInvalidPublicKey, len(raw))
	}
	copy(pk[:], raw)
	return pk, nil
}

func (p PublicKey) String() string {
	return base58.Encode(p[:])
}

func (p PublicKey) Bytes() []byte {
	out := make([]byte, 32)
	copy(out, p[:])
	return out
}

// isOnCurve reports whether the bytes decode to a valid ed25519 curve point.
// PDAs must NOT be on the curve, so derivation retries until this fails.
func isOnCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}

const pdaMarker = "ProgramDerivedAddress"

// CreateProgramAddress hashes the seeds, a bump-less seed list, the program id
// and the PDA marker; it errors when the result lands on the curve.
func CreateProgramAddress(seeds [][]byte, program PublicKey) (PublicKey, error) {
	h := sha256.New()
	for _, seed := range seeds {
		if len(seed) > 32 {
			return PublicKey{}, errors.New("seed exceeds 32 bytes")
		}
		h.Write(seed)
	}
	h.Write(program[:])
	h.Write([]byte(pdaMarker))
	sum := h.Sum(nil)

	if isOnCurve(sum) {
		return PublicKey{}, errors.New("derived address is on curve")
	}
	var pk PublicKey
	copy(pk[:], sum)
	return pk, nil
}

// FindProgramAddress walks bump seeds 255..0 until an off-curve address is
// found, matching the on-chain derivation exactly.
func FindProgramAddress(seeds [][]byte, program PublicKey) (PublicKey, uint8, error) {
	for bump := 255; bump >= 0; bump-- {
		trial := make([][]byte, len(seeds), len(seeds)+1)
		copy(trial, seeds)
		trial = append(trial, []byte{byte(bump)})
		addr, err := CreateProgramAddress(trial, program)
		if err == nil {
			return addr, uint8(bump), nil
		}
	}
	return PublicKey{}, 0, errors.New("no viable program address bump")
}
