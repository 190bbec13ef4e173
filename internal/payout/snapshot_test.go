package payout

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"rumble/internal/ledger"
)

func TestAssembleSnapshot_Empty(t *testing.T) {
	snap := assembleSnapshot(testWallet, nil)
	if snap.Wallet != testWallet {
		t.Fatalf("wallet=%q", snap.Wallet)
	}
	if !snap.TotalClaimable.IsZero() || !snap.TotalPendingNotReady.IsZero() || !snap.TotalClaimed.IsZero() {
		t.Fatalf("totals nonzero for an empty window: %+v", snap)
	}
	if snap.ClaimReady {
		t.Fatalf("claim_ready=true for an empty window")
	}
	if snap.Claims == nil || len(snap.Claims) != 0 {
		t.Fatalf("claims=%v want empty non-nil slice", snap.Claims)
	}
}

func TestAssembleSnapshot_ClampsNegatives(t *testing.T) {
	records := []ClaimRecord{
		{
			ChainRumbleID: 1,
			Amount:        decimal.RequireFromString("-2"),
			ClaimReady:    true,
		},
		{
			ChainRumbleID: 2,
			PendingAmount: decimal.RequireFromString("-0.5"),
		},
	}
	snap := assembleSnapshot(testWallet, records)
	if !snap.TotalClaimable.IsZero() {
		t.Fatalf("total_claimable=%s want 0", snap.TotalClaimable)
	}
	if !snap.TotalPendingNotReady.IsZero() {
		t.Fatalf("pending=%s want 0", snap.TotalPendingNotReady)
	}
	if len(snap.Claims) != 0 {
		t.Fatalf("claims=%d want 0; clamped records carry no amount", len(snap.Claims))
	}
}

func TestAssembleSnapshot_TruncatesToLamports(t *testing.T) {
	records := []ClaimRecord{{
		ChainRumbleID: 1,
		Amount:        decimal.RequireFromString("1.99999999999"),
		ClaimReady:    true,
	}}
	snap := assembleSnapshot(testWallet, records)
	want := decimal.RequireFromString("1.999999999")
	if !snap.TotalClaimable.Equal(want) {
		t.Fatalf("total_claimable=%s want %s", snap.TotalClaimable, want)
	}
	if !snap.Claims[0].ClaimableAmount.Equal(want) {
		t.Fatalf("claimable=%s want %s", snap.Claims[0].ClaimableAmount, want)
	}
}

func TestAssembleSnapshot_Ordering(t *testing.T) {
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	records := []ClaimRecord{
		{ChainRumbleID: 1, RecencyAt: base, Amount: decimal.NewFromInt(1), ClaimReady: true},
		{ChainRumbleID: 2, RecencyAt: base, PendingAmount: decimal.NewFromInt(3)},
		{ChainRumbleID: 3, RecencyAt: base.Add(time.Hour), Amount: decimal.NewFromInt(1), ClaimReady: true},
		{ChainRumbleID: 4, RecencyAt: base, Amount: decimal.NewFromInt(2), ClaimReady: true},
	}
	snap := assembleSnapshot(testWallet, records)

	// Pending exposure sorts by its amount alongside claimable entries; equal
	// amounts break the tie on recency.
	wantAmounts := []string{"3", "2", "1", "1"}
	for i, w := range wantAmounts {
		if !snap.Claims[i].ClaimableAmount.Equal(decimal.RequireFromString(w)) {
			t.Fatalf("claims[%d]=%s want %s", i, snap.Claims[i].ClaimableAmount, w)
		}
	}
	if !snap.Claims[2].ClaimReady || !snap.Claims[3].ClaimReady {
		t.Fatalf("tied entries lost readiness: %+v", snap.Claims)
	}
	if snap.Claims[0].ClaimReady {
		t.Fatalf("pending entry reported ready")
	}
	if !snap.TotalClaimable.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("total_claimable=%s want 4", snap.TotalClaimable)
	}
	if !snap.TotalPendingNotReady.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("pending=%s want 3", snap.TotalPendingNotReady)
	}
}

func TestAssembleSnapshot_UnknownStateExcludedFromTotals(t *testing.T) {
	records := []ClaimRecord{{
		ChainRumbleID: 1,
		OnchainExists: true,
		OnchainState:  ledger.StateUnknown,
		Inferred:      decimal.NewFromInt(2),
	}}
	snap := assembleSnapshot(testWallet, records)
	if !snap.TotalClaimable.IsZero() || !snap.TotalPendingNotReady.IsZero() {
		t.Fatalf("unknown-state record leaked into totals: %+v", snap)
	}
}

func TestLamportsToSOL(t *testing.T) {
	if got := lamportsToSOL(1_500_000_000); !got.Equal(decimal.RequireFromString("1.5")) {
		t.Fatalf("got %s want 1.5", got)
	}
	if got := lamportsToSOL(1); !got.Equal(decimal.RequireFromString("0.000000001")) {
		t.Fatalf("got %s want one lamport", got)
	}
}
