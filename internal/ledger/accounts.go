package ledger

import (
	"encoding/binary"
	"fmt"
	"math/bits"
)

// Anchor account layouts for the rumble-engine program: an 8-byte
// discriminator followed by fixed-width little-endian fields.

const (
	maxFighters = 16

	rumbleAccountLen = 8 + 8 + 1 + 32*maxFighters + 1 + 8*maxFighters + 8 + 8 + 8 + maxFighters + 1 + 8 + 8 + 8 + 1
	bettorAccountLen = 8 + 32 + 8 + 1 + 8 + 1 + 1
)

// On-chain rumble lifecycle states.
const (
	chainStateBetting  = 0
	chainStateActive   = 1
	chainStatePayout   = 2
	chainStateComplete = 3
)

// Payout split constants, in basis points out of 10_000. These must match
// the on-chain program exactly or inferred and authoritative figures drift.
const (
	TreasuryCutBps = 1_000
	FirstPlaceBps  = 7_000
	SecondPlaceBps = 2_000
	ThirdPlaceBps  = 1_000
	BpsDenominator = 10_000
)

type rumbleLayout struct {
	ID           uint64
	State        uint8
	FighterCount uint8
	BettingPools [maxFighters]uint64
	Placements   [maxFighters]uint8
	WinnerIndex  uint8
	CompletedAt  int64
}

type bettorLayout struct {
	Authority    [32]byte
	RumbleID     uint64
	FighterIndex uint8
	SolDeployed  uint64
	Claimed      bool
}

func decodeRumbleAccount(data []byte) (*rumbleLayout, error) {
	if len(data) < rumbleAccountLen {
		return nil, fmt.Errorf("rumble account too short: %d bytes", len(data))
	}
	var r rumbleLayout
	r.ID = binary.LittleEndian.Uint64(data[8:16])
	r.State = data[16]
	r.FighterCount = data[529]
	for i := 0; i < maxFighters; i++ {
		r.BettingPools[i] = binary.LittleEndian.Uint64(data[530+8*i : 538+8*i])
	}
	copy(r.Placements[:], data[682:698])
	r.WinnerIndex = data[698]
	r.CompletedAt = int64(binary.LittleEndian.Uint64(data[715:723]))
	if r.FighterCount > maxFighters {
		return nil, fmt.Errorf("rumble account fighter count out of range: %d", r.FighterCount)
	}
	return &r, nil
}

func decodeBettorAccount(data []byte) (*bettorLayout, error) {
	if len(data) < bettorAccountLen {
		return nil, fmt.Errorf("bettor account too short: %d bytes", len(data))
	}
	var b bettorLayout
	copy(b.Authority[:], data[8:40])
	b.RumbleID = binary.LittleEndian.Uint64(data[40:48])
	b.FighterIndex = data[48]
	b.SolDeployed = binary.LittleEndian.Uint64(data[49:57])
	b.Claimed = data[57] != 0
	if b.FighterIndex >= maxFighters {
		return nil, fmt.Errorf("bettor account fighter index out of range: %d", b.FighterIndex)
	}
	return &b, nil
}

// payoutLamports reproduces the program's claim_payout math with integer
// floor division: the bettor's net stake back, plus a placement-weighted
// proportional share of the losers' pool after the treasury cut. Fighters
// outside the top three get nothing.
func payoutLamports(r *rumbleLayout, b *bettorLayout) uint64 {
	placement := r.Placements[b.FighterIndex]
	if placement < 1 || placement > 3 {
		return 0
	}

	var losersPool, firstPool, secondPool, thirdPool uint64
	for i := 0; i < int(r.FighterCount); i++ {
		pool := r.BettingPools[i]
		switch r.Placements[i] {
		case 1:
			firstPool += pool
		case 2:
			secondPool += pool
		case 3:
			thirdPool += pool
		default:
			losersPool += pool
		}
	}

	treasuryCut := mulDiv(losersPool, TreasuryCutBps, BpsDenominator)
	distributable := losersPool - treasuryCut

	var placeBps, placePool uint64
	switch placement {
	case 1:
		placeBps, placePool = FirstPlaceBps, firstPool
	case 2:
		placeBps, placePool = SecondPlaceBps, secondPool
	case 3:
		placeBps, placePool = ThirdPlaceBps, thirdPool
	}

	placeAllocation := mulDiv(distributable, placeBps, BpsDenominator)
	var winnings uint64
	if placePool > 0 {
		winnings = mulDiv(placeAllocation, b.SolDeployed, placePool)
	}
	return b.SolDeployed + winnings
}

// mulDiv computes a*b/den through a 128-bit intermediate so pool-sized
// lamport amounts cannot overflow.
func mulDiv(a, b, den uint64) uint64 {
	if den == 0 {
		return 0
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= den {
		return ^uint64(0)
	}
	q, _ := bits.Div64(hi, lo, den)
	return q
}
