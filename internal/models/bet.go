package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bet is one wallet's stake on one fighter in one rumble. GrossAmount is what
// the wallet paid; NetAmount is what entered the pool after the admin fee and
// sponsorship cut. Rows are immutable once the rumble completes.
type Bet struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	RumbleID string `gorm:"type:varchar(64);not null;uniqueIndex:idx_bets_rumble_wallet;index"`
	Wallet   string `gorm:"type:varchar(64);not null;uniqueIndex:idx_bets_rumble_wallet;index"`

	FighterIndex int16 `gorm:"not null"`

	GrossAmount decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`
	NetAmount   decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
}

func (Bet) TableName() string {
	return "bets"
}
