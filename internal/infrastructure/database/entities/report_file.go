package entities

import (
	"time"

	"gorm.io/datatypes"
)

// ReportFile represents the persisted report file metadata.
type ReportFile struct {
	ID               int64             `gorm:"primaryKey;autoIncrement"`
	FileID           string            `gorm:"column:file_id;type:varchar(36);uniqueIndex;not null"`
	OriginalFilename string            `gorm:"type:varchar(255);not null"`
	FileSize         int64             `gorm:"not null"`
	StorageKey       string            `gorm:"type:varchar(500);not null"`
	StorageType      string            `gorm:"type:varchar(50);not null"`
	ContentType      string            `gorm:"type:varchar(100);not null"`
	OwnerID          string            `gorm:"type:varchar(100);index:idx_report_files_owner"`
	CreatedAt        time.Time         `gorm:"autoCreateTime;index:idx_report_files_created_at"`
	ExpiresAt        *time.Time        `gorm:""`
	DownloadCount    int64             `gorm:"not null;default:0"`
	Status           string            `gorm:"type:varchar(20);not null;default:'active';index:idx_report_files_status"`
	ExtraMetadata    datatypes.JSONMap `gorm:"type:jsonb"`
}

func (ReportFile) TableName() string {
	return "report_files"
}
