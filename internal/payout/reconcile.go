package payout

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"rumble/internal/ledger"
	"rumble/internal/repository"
	"rumble/internal/solana"
)

const (
	MethodOnchain  = "onchain"
	MethodInferred = "inferred"
)

// ClaimRecord is the per-rumble reconciled result for one wallet. RumbleID is
// internal only; it never reaches the public snapshot.
type ClaimRecord struct {
	RumbleID      string
	ChainRumbleID uint64
	RecencyAt     time.Time

	Inferred      decimal.Decimal
	OnchainAmount *decimal.Decimal
	OnchainState  ledger.AccountState
	OnchainExists bool

	ClaimMethod   string
	Amount        decimal.Decimal
	PendingAmount decimal.Decimal
	ClaimedAmount decimal.Decimal
	ClaimReady    bool
}

// LedgerReader is the authoritative source; reads may fail per match.
type LedgerReader interface {
	ReadState(ctx context.Context, chainRumbleID uint64, wallet solana.PublicKey) (*ledger.RumbleAccount, error)
}

// Inferrer is the estimate-only fallback source.
type Inferrer interface {
	InferClaimable(ctx context.Context, rumbleID, wallet string) (decimal.Decimal, error)
}

// Reconciler merges ledger truth with off-chain inference across the
// candidate window and assembles one snapshot per request. Per-match
// failures degrade to inference; only a failed candidate selection fails
// the request.
type Reconciler struct {
	Selector  *Selector
	Ledger    LedgerReader
	Inference Inferrer

	DefaultWindow int
	MaxWindow     int
	Fanout        int

	Logger *zap.Logger
}

func (r *Reconciler) Snapshot(ctx context.Context, wallet string, limit int) (*WalletPayoutSnapshot, error) {
	wallet = canonicalWallet(wallet)
	pk, err := solana.PublicKeyFromBase58(wallet)
	if err != nil {
		return nil, ErrInvalidWallet
	}

	window := r.window(limit)
	if window == 0 {
		return assembleSnapshot(wallet, nil), nil
	}

	refs, err := r.Selector.Candidates(ctx, wallet, window)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return assembleSnapshot(wallet, nil), nil
	}

	// One task per candidate, bounded fan-out, each writing its own slot:
	// results are only combined after the join, so no locking is needed.
	records := make([]ClaimRecord, len(refs))
	g := &errgroup.Group{}
	g.SetLimit(r.fanout())
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			records[i] = r.reconcileOne(ctx, ref, wallet, pk)
			return nil
		})
	}
	_ = g.Wait()

	// Partial results are discarded on cancellation; the contract is one
	// atomic snapshot, not a stream.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return assembleSnapshot(wallet, records), nil
}

func (r *Reconciler) reconcileOne(ctx context.Context, ref repository.WalletRumbleRef, wallet string, pk solana.PublicKey) ClaimRecord {
	type ledgerResult struct {
		account *ledger.RumbleAccount
		err     error
	}
	ch := make(chan ledgerResult, 1)
	go func() {
		account, err := r.Ledger.ReadState(ctx, ref.ChainRumbleID, pk)
		ch <- ledgerResult{account: account, err: err}
	}()

	inferred, inferErr := r.Inference.InferClaimable(ctx, ref.RumbleID, wallet)
	if inferErr != nil {
		// Off-chain rows unreadable for this match: the record degrades to
		// zero rather than failing the snapshot.
		if r.Logger != nil {
			r.Logger.Warn("inference unavailable",
				zap.Uint64("rumble_id", ref.ChainRumbleID),
				zap.Error(inferErr),
			)
		}
		inferred = decimal.Zero
	}

	res := <-ch
	if res.err != nil {
		if r.Logger != nil {
			r.Logger.Warn("ledger read degraded to inference",
				zap.Uint64("rumble_id", ref.ChainRumbleID),
				zap.Error(res.err),
			)
		}
		res.account = nil
	}

	return mergeRecord(ref, mergeSource{Onchain: res.account}, clampAmount(inferred))
}

// mergeSource is the tagged merge input: either an authoritative on-chain
// account or nothing, in which case only the inferred figure applies.
type mergeSource struct {
	Onchain *ledger.RumbleAccount
}

func (m mergeSource) authoritative() bool {
	return m.Onchain != nil && m.Onchain.Exists
}

func mergeRecord(ref repository.WalletRumbleRef, src mergeSource, inferred decimal.Decimal) ClaimRecord {
	rec := ClaimRecord{
		RumbleID:      ref.RumbleID,
		ChainRumbleID: ref.ChainRumbleID,
		RecencyAt:     recencyOf(ref),
		Inferred:      inferred,
		OnchainState:  ledger.StateNotFound,
		ClaimMethod:   MethodInferred,
		Amount:        decimal.Zero,
		PendingAmount: decimal.Zero,
		ClaimedAmount: decimal.Zero,
	}

	if !src.authoritative() {
		// Read failed or account never settled on-chain: inference carries
		// the record entirely.
		rec.Amount = inferred
		rec.ClaimReady = inferred.IsPositive()
		return rec
	}

	account := src.Onchain
	rec.OnchainExists = true
	rec.OnchainState = account.State
	rec.ClaimMethod = MethodOnchain
	onchain := lamportsToSOL(account.ClaimableLamports)
	rec.OnchainAmount = &onchain

	switch account.State {
	case ledger.StatePending:
		// Not yet finalized: exposure only, never claimable, regardless of
		// any nonzero inferred figure.
		rec.PendingAmount = effectiveAmount(onchain, inferred)
	case ledger.StateClaimed:
		rec.ClaimedAmount = lamportsToSOL(account.ClaimedLamports)
	case ledger.StateReady:
		// The on-chain figure governs readiness; the inferred figure is
		// only a display estimate when the ledger reports zero.
		rec.Amount = effectiveAmount(onchain, inferred)
		rec.ClaimReady = onchain.IsPositive()
	default:
		// unknown: surfaced but contributes to no total
		rec.Amount = decimal.Zero
	}
	return rec
}

// effectiveAmount prefers the authoritative figure, falling back to the
// inferred estimate when the ledger reports zero.
func effectiveAmount(onchain, inferred decimal.Decimal) decimal.Decimal {
	if onchain.IsPositive() {
		return onchain
	}
	return inferred
}

func recencyOf(ref repository.WalletRumbleRef) time.Time {
	if ref.CompletedAt != nil && !ref.CompletedAt.IsZero() {
		return *ref.CompletedAt
	}
	return ref.CreatedAt
}

func (r *Reconciler) window(limit int) int {
	if limit < 0 {
		limit = r.DefaultWindow
		if limit <= 0 {
			limit = 80
		}
	}
	max := r.MaxWindow
	if max <= 0 {
		max = 200
	}
	if limit > max {
		limit = max
	}
	return limit
}

func (r *Reconciler) fanout() int {
	if r.Fanout <= 0 {
		return 8
	}
	return r.Fanout
}
