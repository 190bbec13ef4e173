package payout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"rumble/internal/ledger"
	"rumble/internal/repository"
	"rumble/internal/solana"
)

type stubLedger struct {
	accounts map[uint64]*ledger.RumbleAccount
	err      error
}

func (s *stubLedger) ReadState(ctx context.Context, chainRumbleID uint64, wallet solana.PublicKey) (*ledger.RumbleAccount, error) {
	if s.err != nil {
		return nil, &ledger.ReadFailure{RumbleID: chainRumbleID, Op: "fetch", Err: s.err}
	}
	if acct, ok := s.accounts[chainRumbleID]; ok {
		return acct, nil
	}
	return &ledger.RumbleAccount{Exists: false, State: ledger.StateNotFound}, nil
}

type stubInferrer struct {
	amounts map[string]decimal.Decimal
	err     error
}

func (s *stubInferrer) InferClaimable(ctx context.Context, rumbleID, wallet string) (decimal.Decimal, error) {
	if s.err != nil {
		return decimal.Zero, s.err
	}
	return s.amounts[rumbleID], nil
}

func ref(id string, chainID uint64, completedAt time.Time) repository.WalletRumbleRef {
	return repository.WalletRumbleRef{
		RumbleID:      id,
		ChainRumbleID: chainID,
		CompletedAt:   &completedAt,
		CreatedAt:     completedAt.Add(-time.Hour),
	}
}

func newTestReconciler(repo *stubRepo, chain *stubLedger, infer *stubInferrer) *Reconciler {
	return &Reconciler{
		Selector:  &Selector{Repo: repo},
		Ledger:    chain,
		Inference: infer,
	}
}

func TestSnapshot_OnchainReady(t *testing.T) {
	settled := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := newStubRepo()
	repo.refs = []repository.WalletRumbleRef{ref("r-1", 1, settled)}
	chain := &stubLedger{accounts: map[uint64]*ledger.RumbleAccount{
		1: {Exists: true, State: ledger.StateReady, ClaimableLamports: 2_000_000_000},
	}}
	infer := &stubInferrer{amounts: map[string]decimal.Decimal{"r-1": decimal.RequireFromString("1.9")}}

	snap, err := newTestReconciler(repo, chain, infer).Snapshot(context.Background(), testWallet, -1)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !snap.TotalClaimable.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("total_claimable=%s want 2", snap.TotalClaimable)
	}
	if !snap.ClaimReady {
		t.Fatalf("claim_ready=false want true")
	}
	if len(snap.Claims) != 1 {
		t.Fatalf("claims=%d want 1", len(snap.Claims))
	}
	entry := snap.Claims[0]
	if entry.ClaimMethod != MethodOnchain {
		t.Fatalf("method=%s want %s", entry.ClaimMethod, MethodOnchain)
	}
	if !entry.OnchainExists || entry.OnchainState != string(ledger.StateReady) {
		t.Fatalf("entry=%+v want existing ready account", entry)
	}
	if !entry.ClaimableAmount.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("claimable=%s want on-chain 2, not inferred 1.9", entry.ClaimableAmount)
	}
}

func TestSnapshot_PendingNeverClaimable(t *testing.T) {
	settled := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := newStubRepo()
	repo.refs = []repository.WalletRumbleRef{ref("r-1", 1, settled)}
	chain := &stubLedger{accounts: map[uint64]*ledger.RumbleAccount{
		1: {Exists: true, State: ledger.StatePending},
	}}
	infer := &stubInferrer{amounts: map[string]decimal.Decimal{"r-1": decimal.RequireFromString("1.5")}}

	snap, err := newTestReconciler(repo, chain, infer).Snapshot(context.Background(), testWallet, -1)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !snap.TotalClaimable.IsZero() {
		t.Fatalf("total_claimable=%s want 0 while pending", snap.TotalClaimable)
	}
	if !snap.TotalPendingNotReady.Equal(decimal.RequireFromString("1.5")) {
		t.Fatalf("pending=%s want 1.5", snap.TotalPendingNotReady)
	}
	if snap.ClaimReady {
		t.Fatalf("claim_ready=true for a pending-only wallet")
	}
	if len(snap.Claims) != 1 || snap.Claims[0].ClaimReady {
		t.Fatalf("claims=%+v want one non-ready entry", snap.Claims)
	}
}

func TestSnapshot_ReadyZeroOnchainShowsInferredButNotReady(t *testing.T) {
	settled := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := newStubRepo()
	repo.refs = []repository.WalletRumbleRef{ref("r-1", 1, settled)}
	// Settled on-chain with nothing owed to this wallet, while the off-chain
	// rows still estimate a payout. The on-chain zero governs readiness; the
	// estimate is display only.
	chain := &stubLedger{accounts: map[uint64]*ledger.RumbleAccount{
		1: {Exists: true, State: ledger.StateReady, ClaimableLamports: 0},
	}}
	infer := &stubInferrer{amounts: map[string]decimal.Decimal{"r-1": decimal.RequireFromString("0.9")}}

	snap, err := newTestReconciler(repo, chain, infer).Snapshot(context.Background(), testWallet, -1)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !snap.TotalClaimable.IsZero() {
		t.Fatalf("total_claimable=%s want 0; inferred display amount must not inflate the total", snap.TotalClaimable)
	}
	if snap.ClaimReady {
		t.Fatalf("claim_ready=true against an on-chain zero")
	}
	if len(snap.Claims) != 1 {
		t.Fatalf("claims=%d want 1", len(snap.Claims))
	}
	entry := snap.Claims[0]
	if entry.ClaimReady {
		t.Fatalf("entry claim_ready=true against an on-chain zero")
	}
	if !entry.ClaimableAmount.Equal(decimal.RequireFromString("0.9")) {
		t.Fatalf("claimable=%s want inferred 0.9 for display", entry.ClaimableAmount)
	}
	if entry.OnchainAmount == nil || !entry.OnchainAmount.IsZero() {
		t.Fatalf("onchain_amount=%v want the true zero", entry.OnchainAmount)
	}
	if entry.ClaimMethod != MethodOnchain || !entry.OnchainExists {
		t.Fatalf("entry=%+v want an existing on-chain account", entry)
	}
}

func TestSnapshot_MissingAccountFallsBackToInference(t *testing.T) {
	settled := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := newStubRepo()
	repo.refs = []repository.WalletRumbleRef{ref("r-1", 1, settled)}
	chain := &stubLedger{}
	infer := &stubInferrer{amounts: map[string]decimal.Decimal{"r-1": decimal.RequireFromString("0.75")}}

	snap, err := newTestReconciler(repo, chain, infer).Snapshot(context.Background(), testWallet, -1)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !snap.TotalClaimable.Equal(decimal.RequireFromString("0.75")) {
		t.Fatalf("total_claimable=%s want 0.75", snap.TotalClaimable)
	}
	entry := snap.Claims[0]
	if entry.ClaimMethod != MethodInferred {
		t.Fatalf("method=%s want %s", entry.ClaimMethod, MethodInferred)
	}
	if entry.OnchainExists {
		t.Fatalf("onchain_exists=true for a missing account")
	}
}

func TestSnapshot_LedgerOutageDegradesPerMatch(t *testing.T) {
	settled := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := newStubRepo()
	repo.refs = []repository.WalletRumbleRef{
		ref("r-1", 1, settled),
		ref("r-2", 2, settled.Add(time.Hour)),
	}
	chain := &stubLedger{err: errors.New("rpc timeout")}
	infer := &stubInferrer{amounts: map[string]decimal.Decimal{
		"r-1": decimal.RequireFromString("1.25"),
		"r-2": decimal.RequireFromString("0.5"),
	}}

	snap, err := newTestReconciler(repo, chain, infer).Snapshot(context.Background(), testWallet, -1)
	if err != nil {
		t.Fatalf("err=%v; an unreachable ledger must not fail the snapshot", err)
	}
	if !snap.TotalClaimable.Equal(decimal.RequireFromString("1.75")) {
		t.Fatalf("total_claimable=%s want 1.75", snap.TotalClaimable)
	}
	for _, entry := range snap.Claims {
		if entry.ClaimMethod != MethodInferred || entry.OnchainExists {
			t.Fatalf("entry=%+v want inferred without an account", entry)
		}
	}
}

func TestSnapshot_ClaimedContributesToClaimedTotalOnly(t *testing.T) {
	settled := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := newStubRepo()
	repo.refs = []repository.WalletRumbleRef{ref("r-1", 1, settled)}
	chain := &stubLedger{accounts: map[uint64]*ledger.RumbleAccount{
		1: {Exists: true, State: ledger.StateClaimed, ClaimedLamports: 3_520_000_000},
	}}
	infer := &stubInferrer{amounts: map[string]decimal.Decimal{"r-1": decimal.RequireFromString("3.52")}}

	snap, err := newTestReconciler(repo, chain, infer).Snapshot(context.Background(), testWallet, -1)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !snap.TotalClaimable.IsZero() {
		t.Fatalf("total_claimable=%s want 0 after claim", snap.TotalClaimable)
	}
	if !snap.TotalClaimed.Equal(decimal.RequireFromString("3.52")) {
		t.Fatalf("total_claimed=%s want 3.52", snap.TotalClaimed)
	}
	if len(snap.Claims) != 0 {
		t.Fatalf("claims=%d want 0; settled claims carry no open amount", len(snap.Claims))
	}
}

func TestSnapshot_InvalidWallet(t *testing.T) {
	repo := newStubRepo()
	r := newTestReconciler(repo, &stubLedger{}, &stubInferrer{})

	if _, err := r.Snapshot(context.Background(), "not a wallet", -1); !errors.Is(err, ErrInvalidWallet) {
		t.Fatalf("err=%v want ErrInvalidWallet", err)
	}
}

func TestSnapshot_ZeroLimit(t *testing.T) {
	repo := newStubRepo()
	repo.refs = []repository.WalletRumbleRef{ref("r-1", 1, time.Now())}
	r := newTestReconciler(repo, &stubLedger{}, &stubInferrer{})

	snap, err := r.Snapshot(context.Background(), testWallet, 0)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(snap.Claims) != 0 || !snap.TotalClaimable.IsZero() {
		t.Fatalf("snap=%+v want empty for a zero window", snap)
	}
}

func TestSnapshot_StoreOutageIsSystemic(t *testing.T) {
	repo := newStubRepo()
	repo.refsErr = errors.New("connection refused")
	r := newTestReconciler(repo, &stubLedger{}, &stubInferrer{})

	_, err := r.Snapshot(context.Background(), testWallet, -1)
	var sysErr *SystemicError
	if !errors.As(err, &sysErr) {
		t.Fatalf("err=%v want *SystemicError", err)
	}
}

func TestSnapshot_WindowCap(t *testing.T) {
	repo := newStubRepo()
	settled := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		repo.refs = append(repo.refs, ref(string(rune('a'+i)), uint64(i+1), settled.Add(time.Duration(i)*time.Minute)))
	}
	chain := &stubLedger{}
	infer := &stubInferrer{amounts: map[string]decimal.Decimal{}}
	r := newTestReconciler(repo, chain, infer)
	r.MaxWindow = 3

	if got := r.window(10); got != 3 {
		t.Fatalf("window=%d want hard cap 3", got)
	}
	if got := r.window(-1); got != 3 {
		t.Fatalf("default window=%d want clamp to cap 3", got)
	}
	if _, err := r.Snapshot(context.Background(), testWallet, 10); err != nil {
		t.Fatalf("err=%v", err)
	}
}

func TestSnapshot_OrderingAndIdempotence(t *testing.T) {
	settled := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := newStubRepo()
	repo.refs = []repository.WalletRumbleRef{
		ref("r-small", 1, settled.Add(2*time.Hour)),
		ref("r-big", 2, settled),
		ref("r-tie-old", 3, settled),
		ref("r-tie-new", 4, settled.Add(time.Hour)),
	}
	chain := &stubLedger{accounts: map[uint64]*ledger.RumbleAccount{
		1: {Exists: true, State: ledger.StateReady, ClaimableLamports: 100_000_000},
		2: {Exists: true, State: ledger.StateReady, ClaimableLamports: 5_000_000_000},
		3: {Exists: true, State: ledger.StateReady, ClaimableLamports: 1_000_000_000},
		4: {Exists: true, State: ledger.StateReady, ClaimableLamports: 1_000_000_000},
	}}
	infer := &stubInferrer{amounts: map[string]decimal.Decimal{}}
	r := newTestReconciler(repo, chain, infer)

	snap, err := r.Snapshot(context.Background(), testWallet, -1)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	want := []string{"5", "1", "1", "0.1"}
	if len(snap.Claims) != len(want) {
		t.Fatalf("claims=%d want %d", len(snap.Claims), len(want))
	}
	for i, w := range want {
		if !snap.Claims[i].ClaimableAmount.Equal(decimal.RequireFromString(w)) {
			t.Fatalf("claims[%d]=%s want %s", i, snap.Claims[i].ClaimableAmount, w)
		}
	}

	first, _ := json.Marshal(snap)
	again, err := r.Snapshot(context.Background(), testWallet, -1)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	second, _ := json.Marshal(again)
	if !bytes.Equal(first, second) {
		t.Fatalf("repeated snapshots differ:\n%s\n%s", first, second)
	}
}
