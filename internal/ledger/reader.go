package ledger

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"go.uber.org/zap"

	"rumble/internal/solana"
)

// AccountState classifies what the ledger says about one wallet's claim on
// one rumble.
type AccountState string

const (
	StateNotFound AccountState = "not_found"
	StatePending  AccountState = "pending"
	StateReady    AccountState = "ready"
	StateClaimed  AccountState = "claimed"
	StateUnknown  AccountState = "unknown"
)

// RumbleAccount is the typed result of one ledger read, scoped to a single
// wallet. ClaimableLamports may be zero even when State is ready: the rumble
// settled but nothing is owed to this wallet specifically.
type RumbleAccount struct {
	Exists            bool
	State             AccountState
	ClaimableLamports uint64
	ClaimedLamports   uint64
}

// ReadFailure means the read itself errored (transport, timeout, decode).
// It is distinct from a not_found account, which is a successful read.
type ReadFailure struct {
	RumbleID uint64
	Op       string
	Err      error
}

func (e *ReadFailure) Error() string {
	return fmt.Sprintf("ledger read %s failed for rumble %d: %v", e.Op, e.RumbleID, e.Err)
}

func (e *ReadFailure) Unwrap() error {
	return e.Err
}

// PDA seeds, matching the on-chain program.
var (
	rumbleSeed = []byte("rumble")
	bettorSeed = []byte("bettor")
)

type AccountFetcher interface {
	GetMultipleAccounts(ctx context.Context, addrs []solana.PublicKey) ([]*solana.AccountInfo, error)
}

// Reader fetches a rumble's settlement account and a wallet's bettor account
// in one RPC round trip and folds them into a RumbleAccount.
type Reader struct {
	Client  AccountFetcher
	Program solana.PublicKey
	Timeout time.Duration
	Logger  *zap.Logger
}

func (r *Reader) ReadState(ctx context.Context, chainRumbleID uint64, wallet solana.PublicKey) (*RumbleAccount, error) {
	if r == nil || r.Client == nil {
		return nil, &ReadFailure{RumbleID: chainRumbleID, Op: "client", Err: fmt.Errorf("ledger reader not configured")}
	}

	idSeed := make([]byte, 8)
	binary.LittleEndian.PutUint64(idSeed, chainRumbleID)

	rumbleAddr, _, err := solana.FindProgramAddress([][]byte{rumbleSeed, idSeed}, r.Program)
	if err != nil {
		return nil, &ReadFailure{RumbleID: chainRumbleID, Op: "derive", Err: err}
	}
	bettorAddr, _, err := solana.FindProgramAddress([][]byte{bettorSeed, idSeed, wallet.Bytes()}, r.Program)
	if err != nil {
		return nil, &ReadFailure{RumbleID: chainRumbleID, Op: "derive", Err: err}
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	accounts, err := r.Client.GetMultipleAccounts(ctx, []solana.PublicKey{rumbleAddr, bettorAddr})
	if err != nil {
		return nil, &ReadFailure{RumbleID: chainRumbleID, Op: "fetch", Err: err}
	}
	if len(accounts) != 2 {
		return nil, &ReadFailure{RumbleID: chainRumbleID, Op: "fetch", Err: fmt.Errorf("got %d accounts", len(accounts))}
	}

	rumbleInfo, bettorInfo := accounts[0], accounts[1]
	if rumbleInfo == nil {
		return &RumbleAccount{Exists: false, State: StateNotFound}, nil
	}

	rumble, err := decodeRumbleAccount(rumbleInfo.Data)
	if err != nil {
		return nil, &ReadFailure{RumbleID: chainRumbleID, Op: "decode", Err: err}
	}

	switch rumble.State {
	case chainStateBetting, chainStateActive:
		return &RumbleAccount{Exists: true, State: StatePending}, nil
	case chainStatePayout, chainStateComplete:
		// settled; fall through to the bettor account
	default:
		if r.Logger != nil {
			r.Logger.Warn("unrecognized rumble state byte",
				zap.Uint64("rumble_id", chainRumbleID),
				zap.Uint8("state", rumble.State),
			)
		}
		return &RumbleAccount{Exists: true, State: StateUnknown}, nil
	}

	if bettorInfo == nil {
		// Settled rumble but this wallet never bet on-chain.
		return &RumbleAccount{Exists: true, State: StateReady}, nil
	}
	bettor, err := decodeBettorAccount(bettorInfo.Data)
	if err != nil {
		return nil, &ReadFailure{RumbleID: chainRumbleID, Op: "decode", Err: err}
	}

	payout := payoutLamports(rumble, bettor)
	if bettor.Claimed {
		return &RumbleAccount{Exists: true, State: StateClaimed, ClaimedLamports: payout}, nil
	}
	return &RumbleAccount{Exists: true, State: StateReady, ClaimableLamports: payout}, nil
}
