package repository

import (
	"context"
	"time"

	"rumble/internal/models"
)

// WalletRumbleRef is a candidate match for one wallet, carrying just enough
// for the reconciliation fan-out: the off-chain row id, the on-chain rumble
// id used for PDA derivation, and the recency timestamp used for ordering.
type WalletRumbleRef struct {
	RumbleID      string
	ChainRumbleID uint64
	Status        string
	CompletedAt   *time.Time
	CreatedAt     time.Time
}

type ListRumblesParams struct {
	Limit   int
	Offset  int
	Status  *string
	Since   *time.Time
	OrderBy string
	Asc     *bool
}

// Repository is the read/write surface over the off-chain store. The
// reconciliation engine only uses the read half; the hint ingest job writes
// payout_hints, and the settings service writes system_settings.
type Repository interface {
	// Rumbles (read-only here; rows are owned by the match lifecycle subsystem).
	GetRumbleByID(ctx context.Context, id string) (*models.Rumble, error)
	ListRumbles(ctx context.Context, params ListRumblesParams) ([]models.Rumble, error)
	CountRumbles(ctx context.Context, params ListRumblesParams) (int64, error)
	ListCompletedRumblesSince(ctx context.Context, cutoff time.Time, limit, offset int) ([]models.Rumble, error)

	// Bets.
	ListWalletRumbleRefs(ctx context.Context, wallet string, limit int) ([]WalletRumbleRef, error)
	GetBetForWallet(ctx context.Context, rumbleID, wallet string) (*models.Bet, error)
	ListBetsByRumbleID(ctx context.Context, rumbleID string) ([]models.Bet, error)

	// Payout hints.
	GetPayoutHint(ctx context.Context, rumbleID, wallet string) (*models.PayoutHint, error)
	ListPayoutHintsByRumbleID(ctx context.Context, rumbleID string) ([]models.PayoutHint, error)
	UpsertPayoutHint(ctx context.Context, item *models.PayoutHint) error

	// System settings.
	GetSystemSettingByKey(ctx context.Context, key string) (*models.SystemSetting, error)
	ListSystemSettings(ctx context.Context) ([]models.SystemSetting, error)
	UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error
}
