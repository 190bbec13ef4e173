package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	RumbleStatusBetting  = "betting"
	RumbleStatusCombat   = "combat"
	RumbleStatusPayout   = "payout"
	RumbleStatusComplete = "complete"
)

// Rumble mirrors the on-chain match lifecycle into the off-chain store.
// Rows are written by the match lifecycle subsystem; the reconciliation
// engine only reads them, so they may lag on-chain truth.
type Rumble struct {
	ID            string `gorm:"type:varchar(64);primaryKey"`
	ChainRumbleID uint64 `gorm:"not null;uniqueIndex"`

	Status       string `gorm:"type:varchar(20);not null;index"`
	FighterCount int16  `gorm:"not null"`

	// Fighters is a JSON array of fighter pubkeys, index-aligned with
	// BettingPools and Placements.
	Fighters datatypes.JSON `gorm:"type:jsonb"`

	// BettingPools is a JSON array of per-fighter net pool sizes in SOL.
	BettingPools datatypes.JSON `gorm:"type:jsonb"`

	// Placements is a JSON array of finishing places (1 = first), zero for
	// fighters without a recorded result.
	Placements datatypes.JSON `gorm:"type:jsonb"`

	WinnerIndex   *int16          `gorm:""`
	TotalDeployed decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`

	CreatedAt   time.Time  `gorm:"type:timestamptz;not null;index"`
	StartedAt   *time.Time `gorm:"type:timestamptz"`
	CompletedAt *time.Time `gorm:"type:timestamptz;index"`
}

func (Rumble) TableName() string {
	return "rumbles"
}
