package models

import "time"

// StorageEntry is one key of the key/value table holding the serialized lists.
type StorageEntry struct {
	Key       string `gorm:"type:varchar(128);primaryKey"`
	Value     string `gorm:"type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (StorageEntry) TableName() string {
	return "storage_entries"
}
