package history

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mean-org/meanfi-txcore/txcache"
)

// Record is the persisted form of a completed transaction confirmation.
type Record struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Signature     string     `gorm:"uniqueIndex;size:88" json:"signature"`
	OperationType string     `gorm:"index;size:32" json:"operation_type"`
	Finality      string     `gorm:"size:16" json:"finality"`
	FetchStatus   string     `gorm:"index;size:16" json:"fetch_status"`
	Title         string     `gorm:"size:128" json:"title"`
	Message       string     `gorm:"type:text" json:"message"`
	SubmittedAt   time.Time  `json:"submitted_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (Record) TableName() string {
	return "transaction_history"
}

// Store persists confirmation outcomes. A nil db disables persistence: every
// method becomes a no-op, so callers never need to branch.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the backing table.
func (s *Store) Migrate() error {
	if s.db == nil {
		return nil
	}
	return s.db.AutoMigrate(&Record{})
}

// Save records the terminal state of a confirmation. Duplicate signatures
// update the existing row.
func (s *Store) Save(info *txcache.TxConfirmationInfo) error {
	if s.db == nil || info == nil || info.Signature == "" {
		return nil
	}
	record := Record{
		Signature:     info.Signature,
		OperationType: string(info.OperationType),
		Finality:      string(info.Finality),
		FetchStatus:   string(info.TxInfoFetchStatus),
		Title:         info.CompletedTitle,
		Message:       info.CompletedMessage,
		SubmittedAt:   info.Timestamp,
	}
	if !info.TimestampCompleted.IsZero() {
		completed := info.TimestampCompleted
		record.CompletedAt = &completed
	}

	var existing Record
	err := s.db.Where("signature = ?", info.Signature).First(&existing).Error
	if err == nil {
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
		return s.db.Save(&record).Error
	}
	if !notFound(err) {
		return fmt.Errorf("failed to look up history record: %w", err)
	}
	return s.db.Create(&record).Error
}

// notFound reports whether err means the row is absent, unwrapping any
// driver error chain around gorm's sentinel.
func notFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(limit int) ([]Record, error) {
	if s.db == nil {
		return nil, nil
	}
	var records []Record
	err := s.db.Order("created_at DESC").Limit(limit).Find(&records).Error
	return records, err
}

// BySignature returns the record for one signature.
func (s *Store) BySignature(sig string) (*Record, error) {
	if s.db == nil {
		return nil, nil
	}
	var record Record
	if err := s.db.Where("signature = ?", sig).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}
