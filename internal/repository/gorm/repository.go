package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rumble/internal/models"
	"rumble/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// --- Rumbles ----------------------------------------------------------------

func (s *Store) GetRumbleByID(ctx context.Context, id string) (*models.Rumble, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	var item models.Rumble
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListRumbles(ctx context.Context, params repository.ListRumblesParams) ([]models.Rumble, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.applyRumbleFilters(ctx, params)
	query = applyOrder(query, params.OrderBy, params.Asc, "created_at")
	limit := normalizeLimit(params.Limit, 50)
	offset := normalizeOffset(params.Offset)
	var items []models.Rumble
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountRumbles(ctx context.Context, params repository.ListRumblesParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := s.applyRumbleFilters(ctx, params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) applyRumbleFilters(ctx context.Context, params repository.ListRumblesParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Rumble{})
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("created_at >= ?", *params.Since)
	}
	return query
}

func (s *Store) ListCompletedRumblesSince(ctx context.Context, cutoff time.Time, limit, offset int) ([]models.Rumble, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.Rumble{}).
		Where("status = ?", models.RumbleStatusComplete).
		Where("completed_at IS NOT NULL")
	if !cutoff.IsZero() {
		query = query.Where("completed_at >= ?", cutoff)
	}
	var items []models.Rumble
	err := query.
		Order("completed_at desc").
		Limit(normalizeLimit(limit, 200)).
		Offset(normalizeOffset(offset)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// --- Bets -------------------------------------------------------------------

func (s *Store) ListWalletRumbleRefs(ctx context.Context, wallet string, limit int) ([]repository.WalletRumbleRef, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return nil, nil
	}
	var rows []repository.WalletRumbleRef
	err := s.db.WithContext(ctx).
		Table("bets").
		Select("rumbles.id AS rumble_id, rumbles.chain_rumble_id, rumbles.status, rumbles.completed_at, rumbles.created_at").
		Joins("JOIN rumbles ON rumbles.id = bets.rumble_id").
		Where("bets.wallet = ?", wallet).
		Order("COALESCE(rumbles.completed_at, rumbles.created_at) DESC").
		Limit(normalizeLimit(limit, 80)).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) GetBetForWallet(ctx context.Context, rumbleID, wallet string) (*models.Bet, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	rumbleID = strings.TrimSpace(rumbleID)
	wallet = strings.TrimSpace(wallet)
	if rumbleID == "" || wallet == "" {
		return nil, nil
	}
	var item models.Bet
	err := s.db.WithContext(ctx).
		Where("rumble_id = ? AND wallet = ?", rumbleID, wallet).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListBetsByRumbleID(ctx context.Context, rumbleID string) ([]models.Bet, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	rumbleID = strings.TrimSpace(rumbleID)
	if rumbleID == "" {
		return nil, nil
	}
	var items []models.Bet
	if err := s.db.WithContext(ctx).
		Where("rumble_id = ?", rumbleID).
		Order("created_at asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- Payout hints -----------------------------------------------------------

func (s *Store) GetPayoutHint(ctx context.Context, rumbleID, wallet string) (*models.PayoutHint, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	rumbleID = strings.TrimSpace(rumbleID)
	wallet = strings.TrimSpace(wallet)
	if rumbleID == "" || wallet == "" {
		return nil, nil
	}
	var item models.PayoutHint
	err := s.db.WithContext(ctx).
		Where("rumble_id = ? AND wallet = ?", rumbleID, wallet).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListPayoutHintsByRumbleID(ctx context.Context, rumbleID string) ([]models.PayoutHint, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	rumbleID = strings.TrimSpace(rumbleID)
	if rumbleID == "" {
		return nil, nil
	}
	var items []models.PayoutHint
	if err := s.db.WithContext(ctx).
		Where("rumble_id = ?", rumbleID).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) UpsertPayoutHint(ctx context.Context, item *models.PayoutHint) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.RumbleID) == "" || strings.TrimSpace(item.Wallet) == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "rumble_id"}, {Name: "wallet"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"placement",
			"estimated_payout",
			"claimed",
			"claimed_at",
			"updated_at",
		}),
	}).Create(item).Error
}

// --- System settings --------------------------------------------------------

func (s *Store) GetSystemSettingByKey(ctx context.Context, key string) (*models.SystemSetting, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil
	}
	var item models.SystemSetting
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListSystemSettings(ctx context.Context) ([]models.SystemSetting, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.SystemSetting
	if err := s.db.WithContext(ctx).
		Model(&models.SystemSetting{}).
		Order("key asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.Key) == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"value",
			"description",
			"updated_at",
		}),
	}).Create(item).Error
}

// --- helpers ----------------------------------------------------------------

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	column := strings.TrimSpace(orderBy)
	if column == "" {
		column = fallback
	}
	direction := "desc"
	if asc != nil && *asc {
		direction = "asc"
	}
	return query.Order(column + " " + direction)
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
