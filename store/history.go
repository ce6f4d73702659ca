package store

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TokenRecord is the persisted row for every token issued through the
// service.
type TokenRecord struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	MintAddress string    `gorm:"uniqueIndex;size:44" json:"mint_address"`
	Owner       string    `gorm:"index;size:44" json:"owner"`
	Name        string    `gorm:"size:32" json:"name"`
	Symbol      string    `gorm:"size:6" json:"symbol"`
	Supply      uint64    `json:"supply"`
	Decimals    uint8     `json:"decimals"`
	Signature   string    `gorm:"index;size:88" json:"signature"`
	FeeLamports uint64    `json:"fee_lamports"`
	CreatedAt   time.Time `json:"created_at"`
}

func (TokenRecord) TableName() string {
	return "token_records"
}

// History is the sqlite-backed record of issued tokens.
type History struct {
	db *gorm.DB
}

func OpenHistory(path string) (*History, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if err := db.AutoMigrate(&TokenRecord{}); err != nil {
		return nil, fmt.Errorf("migrate history db: %w", err)
	}
	return &History{db: db}, nil
}

func (h *History) Record(rec *TokenRecord) error {
	if err := h.db.Create(rec).Error; err != nil {
		return fmt.Errorf("record token: %w", err)
	}
	return nil
}

// Recent returns the owner's most recently issued tokens, newest first.
func (h *History) Recent(owner string, limit int) ([]TokenRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	var records []TokenRecord
	err := h.db.Where("owner = ?", owner).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}
