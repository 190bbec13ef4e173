package payout

import (
	"math/big"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// WalletPayoutSnapshot is the complete point-in-time claim picture for one
// wallet: built fresh per request, never persisted, scoped to the requesting
// wallet only.
type WalletPayoutSnapshot struct {
	Wallet               string          `json:"wallet"`
	TotalClaimable       decimal.Decimal `json:"total_claimable"`
	TotalPendingNotReady decimal.Decimal `json:"total_pending_not_ready"`
	TotalClaimed         decimal.Decimal `json:"total_claimed"`
	ClaimReady           bool            `json:"claim_ready"`
	Claims               []ClaimEntry    `json:"claims"`
}

// ClaimEntry is the public per-rumble view. It deliberately carries no match
// id, no other wallets, no signatures.
type ClaimEntry struct {
	ClaimableAmount decimal.Decimal  `json:"claimable_amount"`
	InferredAmount  decimal.Decimal  `json:"inferred_amount"`
	OnchainAmount   *decimal.Decimal `json:"onchain_amount"`
	OnchainExists   bool             `json:"onchain_exists"`
	OnchainState    string           `json:"onchain_state"`
	ClaimMethod     string           `json:"claim_method"`
	ClaimReady      bool             `json:"claim_ready"`
}

// assembleSnapshot is the single-threaded fold over per-rumble records. All
// totals are clamped at zero and truncated at lamport precision; the claim
// list is ordered by descending amount, ties broken by recency.
func assembleSnapshot(wallet string, records []ClaimRecord) *WalletPayoutSnapshot {
	snap := &WalletPayoutSnapshot{
		Wallet:               wallet,
		TotalClaimable:       decimal.Zero,
		TotalPendingNotReady: decimal.Zero,
		TotalClaimed:         decimal.Zero,
		Claims:               []ClaimEntry{},
	}

	visible := make([]ClaimRecord, 0, len(records))
	for _, rec := range records {
		rec.Amount = clampAmount(rec.Amount)
		rec.PendingAmount = clampAmount(rec.PendingAmount)
		rec.ClaimedAmount = clampAmount(rec.ClaimedAmount)
		rec.Inferred = clampAmount(rec.Inferred)

		if rec.ClaimReady {
			snap.TotalClaimable = snap.TotalClaimable.Add(rec.Amount)
		}
		snap.TotalPendingNotReady = snap.TotalPendingNotReady.Add(rec.PendingAmount)
		snap.TotalClaimed = snap.TotalClaimed.Add(rec.ClaimedAmount)

		if rec.Amount.IsPositive() || rec.PendingAmount.IsPositive() {
			visible = append(visible, rec)
		}
	}

	sort.SliceStable(visible, func(i, j int) bool {
		a, b := visible[i], visible[j]
		ae, be := entryAmount(a), entryAmount(b)
		if cmp := ae.Cmp(be); cmp != 0 {
			return cmp > 0
		}
		if !a.RecencyAt.Equal(b.RecencyAt) {
			return a.RecencyAt.After(b.RecencyAt)
		}
		return a.ChainRumbleID > b.ChainRumbleID
	})

	for _, rec := range visible {
		entry := ClaimEntry{
			ClaimableAmount: entryAmount(rec),
			InferredAmount:  rec.Inferred,
			OnchainExists:   rec.OnchainExists,
			OnchainState:    string(rec.OnchainState),
			ClaimMethod:     rec.ClaimMethod,
			ClaimReady:      rec.ClaimReady,
		}
		if rec.OnchainAmount != nil {
			v := clampAmount(*rec.OnchainAmount)
			entry.OnchainAmount = &v
		}
		snap.Claims = append(snap.Claims, entry)
	}

	snap.TotalClaimable = clampAmount(snap.TotalClaimable)
	snap.TotalPendingNotReady = clampAmount(snap.TotalPendingNotReady)
	snap.TotalClaimed = clampAmount(snap.TotalClaimed)
	snap.ClaimReady = snap.TotalClaimable.IsPositive()
	return snap
}

// entryAmount is the record's display amount: the claimable figure, or the
// pending exposure for records awaiting finalization.
func entryAmount(rec ClaimRecord) decimal.Decimal {
	if rec.PendingAmount.IsPositive() {
		return rec.PendingAmount
	}
	return rec.Amount
}

func lamportsToSOL(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), -solDecimals)
}

func canonicalWallet(wallet string) string {
	return strings.TrimSpace(wallet)
}
