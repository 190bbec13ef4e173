package payout

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"rumble/internal/ledger"
	"rumble/internal/models"
	"rumble/internal/repository"
)

// solDecimals is the lamport precision every exposed amount is truncated to.
// Truncation (never rounding up) keeps display values at or below the
// integer-lamport truth.
const solDecimals = 9

// Inference estimates a wallet's claimable amount for one rumble from
// off-chain rows alone. It is deterministic for unchanged rows: no clock, no
// randomness, so repeated calls agree and drift against on-chain figures is
// detectable.
type Inference struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

func (s *Inference) InferClaimable(ctx context.Context, rumbleID, wallet string) (decimal.Decimal, error) {
	if s == nil || s.Repo == nil {
		return decimal.Zero, nil
	}

	bet, err := s.Repo.GetBetForWallet(ctx, rumbleID, wallet)
	if err != nil {
		return decimal.Zero, err
	}
	if bet == nil {
		return decimal.Zero, nil
	}

	// An off-chain claim marker zeroes the estimate outright.
	hint, err := s.Repo.GetPayoutHint(ctx, rumbleID, wallet)
	if err != nil {
		return decimal.Zero, err
	}
	if hint != nil && hint.Claimed {
		return decimal.Zero, nil
	}

	rumble, err := s.Repo.GetRumbleByID(ctx, rumbleID)
	if err != nil {
		return decimal.Zero, err
	}
	if est, ok := EstimatePayout(rumble, bet); ok {
		return est, nil
	}

	// No usable result rows; a recorded hint is the last resort.
	if hint != nil {
		return clampAmount(hint.EstimatedPayout), nil
	}
	return decimal.Zero, nil
}

// EstimatePayout mirrors the on-chain claim math over off-chain rows: the net
// stake back plus a placement-weighted share of the losers' pool after the
// treasury cut. ok is false when the rumble rows carry no usable result
// (match not settled off-chain, or pools/placements missing).
func EstimatePayout(rumble *models.Rumble, bet *models.Bet) (decimal.Decimal, bool) {
	placement, ok := estimatePlacement(rumble, bet)
	if !ok {
		return decimal.Zero, false
	}
	if placement < 1 || placement > 3 {
		return decimal.Zero, true
	}

	pools := decimalsFromJSON(rumble.BettingPools)
	placements := intsFromJSON(rumble.Placements)

	losersPool := decimal.Zero
	placePools := map[int]decimal.Decimal{1: decimal.Zero, 2: decimal.Zero, 3: decimal.Zero}
	for i := 0; i < int(rumble.FighterCount) && i < len(pools); i++ {
		p := 0
		if i < len(placements) {
			p = placements[i]
		}
		switch p {
		case 1, 2, 3:
			placePools[p] = placePools[p].Add(pools[i])
		default:
			losersPool = losersPool.Add(pools[i])
		}
	}

	denom := decimal.NewFromInt(ledger.BpsDenominator)
	cut := losersPool.Mul(decimal.NewFromInt(ledger.TreasuryCutBps)).Div(denom).Truncate(solDecimals)
	distributable := losersPool.Sub(cut)

	var placeBps int64
	switch placement {
	case 1:
		placeBps = ledger.FirstPlaceBps
	case 2:
		placeBps = ledger.SecondPlaceBps
	case 3:
		placeBps = ledger.ThirdPlaceBps
	}
	allocation := distributable.Mul(decimal.NewFromInt(placeBps)).Div(denom).Truncate(solDecimals)

	net := clampAmount(bet.NetAmount)
	placePool := placePools[placement]
	winnings := decimal.Zero
	if placePool.IsPositive() {
		winnings = allocation.Mul(net).Div(placePool).Truncate(solDecimals)
	}
	return net.Add(winnings).Truncate(solDecimals), true
}

// PlacementFor returns the recorded finishing place of the fighter this bet
// backs, or 0 when the rumble rows carry no usable result.
func PlacementFor(rumble *models.Rumble, bet *models.Bet) int {
	placement, _ := estimatePlacement(rumble, bet)
	return placement
}

// estimatePlacement resolves the finishing place of the fighter this bet
// backs, from the rumble's recorded placements.
func estimatePlacement(rumble *models.Rumble, bet *models.Bet) (int, bool) {
	if rumble == nil || bet == nil {
		return 0, false
	}
	switch strings.TrimSpace(rumble.Status) {
	case models.RumbleStatusPayout, models.RumbleStatusComplete:
	default:
		return 0, false
	}
	placements := intsFromJSON(rumble.Placements)
	idx := int(bet.FighterIndex)
	if idx < 0 || idx >= len(placements) || idx >= int(rumble.FighterCount) {
		return 0, false
	}
	if len(decimalsFromJSON(rumble.BettingPools)) < int(rumble.FighterCount) {
		return 0, false
	}
	return placements[idx], true
}

func clampAmount(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d.Truncate(solDecimals)
}

// decimalsFromJSON decodes a JSON array of numbers-or-strings into decimals,
// tolerating either representation in the stored rows.
func decimalsFromJSON(raw []byte) []decimal.Decimal {
	if len(raw) == 0 {
		return nil
	}
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]decimal.Decimal, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case float64:
			out = append(out, decimal.NewFromFloat(v))
		case string:
			d, err := decimal.NewFromString(strings.TrimSpace(v))
			if err != nil {
				out = append(out, decimal.Zero)
				continue
			}
			out = append(out, d)
		default:
			out = append(out, decimal.Zero)
		}
	}
	return out
}

func intsFromJSON(raw []byte) []int {
	if len(raw) == 0 {
		return nil
	}
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]int, 0, len(items))
	for _, item := range items {
		if v, ok := item.(float64); ok {
			out = append(out, int(v))
			continue
		}
		out = append(out, 0)
	}
	return out
}
