package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayoutHint is the off-chain claim marker: a recorded estimate of what a
// wallet should be able to claim for a rumble, plus whether a claim has been
// observed. Written by the hint ingest job; consumed by the inference
// fallback when on-chain data is unavailable.
type PayoutHint struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	RumbleID string `gorm:"type:varchar(64);not null;uniqueIndex:idx_payout_hints_rumble_wallet;index"`
	Wallet   string `gorm:"type:varchar(64);not null;uniqueIndex:idx_payout_hints_rumble_wallet;index"`

	Placement       int16           `gorm:"not null;default:0"`
	EstimatedPayout decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`

	Claimed   bool       `gorm:"not null;default:false;index"`
	ClaimedAt *time.Time `gorm:"type:timestamptz"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (PayoutHint) TableName() string {
	return "payout_hints"
}
