package models

import "time"

// FileRecord is one row per stored object. ID and URL are each unique for
// the lifetime of the record; Category is computed once at upload time and
// never changes.
type FileRecord struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name       string    `gorm:"type:varchar(255);not null" json:"name"`
	URL        string    `gorm:"type:varchar(1000);not null;uniqueIndex" json:"url"`
	Size       int64     `gorm:"not null;index" json:"size"`
	Type       string    `gorm:"type:varchar(100);not null" json:"type"`
	Category   string    `gorm:"type:varchar(20);not null;index" json:"category"`
	UploadedAt time.Time `gorm:"not null;index" json:"uploadedAt"`
	CreatedAt  time.Time `json:"-"`
}

func (FileRecord) TableName() string {
	return "files"
}
