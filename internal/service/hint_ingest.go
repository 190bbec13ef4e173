package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"rumble/internal/config"
	"rumble/internal/ledger"
	"rumble/internal/models"
	"rumble/internal/payout"
	"rumble/internal/repository"
	"rumble/internal/solana"
)

// HintIngestService backfills payout_hints for recently completed rumbles:
// the deterministic off-chain estimate per bet, plus a best-effort on-chain
// probe for the claimed flag. A hint it cannot compute is skipped, never
// guessed.
type HintIngestService struct {
	Repo   repository.Repository
	Ledger payout.LedgerReader
	Config config.HintIngestConfig
	Logger *zap.Logger
	Flags  *SystemSettingsService
}

func (s *HintIngestService) RunOnceIfEnabled(ctx context.Context) error {
	if s != nil && s.Flags != nil && !s.Flags.IsEnabled(ctx, FeatureHintIngest, false) {
		return nil
	}
	return s.RunOnce(ctx)
}

func (s *HintIngestService) RunOnce(ctx context.Context) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	now := time.Now().UTC()
	lookback := s.Config.LookbackDays
	if lookback <= 0 {
		lookback = 14
	}
	batch := s.Config.BatchSize
	if batch <= 0 || batch > 1000 {
		batch = 200
	}
	cutoff := now.Add(-time.Duration(lookback) * 24 * time.Hour)

	offset := 0
	for {
		rumbles, err := s.Repo.ListCompletedRumblesSince(ctx, cutoff, batch, offset)
		if err != nil {
			s.logWarn("hint ingest list rumbles failed", err)
			return err
		}
		if len(rumbles) == 0 {
			return nil
		}

		for i := range rumbles {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.ingestRumble(ctx, &rumbles[i]); err != nil {
				s.logWarn("hint ingest rumble failed", err, zap.String("rumble_id", rumbles[i].ID))
			}
		}

		if len(rumbles) < batch {
			return nil
		}
		offset += batch
	}
}

func (s *HintIngestService) ingestRumble(ctx context.Context, rumble *models.Rumble) error {
	bets, err := s.Repo.ListBetsByRumbleID(ctx, rumble.ID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	for i := range bets {
		bet := &bets[i]
		estimate, ok := payout.EstimatePayout(rumble, bet)
		if !ok {
			continue
		}
		placement := payout.PlacementFor(rumble, bet)

		claimed := false
		var claimedAt *time.Time
		if existing, err := s.Repo.GetPayoutHint(ctx, rumble.ID, bet.Wallet); err == nil && existing != nil {
			claimed = existing.Claimed
			claimedAt = existing.ClaimedAt
		}
		if !claimed {
			// Best-effort: a failed probe just leaves the flag as-is for the
			// next pass.
			if c, ok := s.probeClaimed(ctx, rumble.ChainRumbleID, bet.Wallet); ok && c {
				claimed = true
				claimedAt = &now
			}
		}

		item := &models.PayoutHint{
			RumbleID:        rumble.ID,
			Wallet:          bet.Wallet,
			Placement:       int16(placement),
			EstimatedPayout: estimate,
			Claimed:         claimed,
			ClaimedAt:       claimedAt,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.Repo.UpsertPayoutHint(ctx, item); err != nil {
			s.logWarn("upsert payout hint failed", err, zap.String("wallet", bet.Wallet))
		}
	}
	return nil
}

func (s *HintIngestService) probeClaimed(ctx context.Context, chainRumbleID uint64, wallet string) (claimed bool, ok bool) {
	if s.Ledger == nil {
		return false, false
	}
	pk, err := solana.PublicKeyFromBase58(wallet)
	if err != nil {
		return false, false
	}
	account, err := s.Ledger.ReadState(ctx, chainRumbleID, pk)
	if err != nil || account == nil {
		return false, false
	}
	return account.State == ledger.StateClaimed, true
}

func (s *HintIngestService) logWarn(msg string, err error, fields ...zap.Field) {
	if s == nil || s.Logger == nil {
		return
	}
	s.Logger.Warn(msg, append(fields, zap.Error(err))...)
}
