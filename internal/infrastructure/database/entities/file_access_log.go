package entities

import "time"

// FileAccessLog is one row per successful URL issuance. Append-only: the
// repository exposes no update or delete for it.
type FileAccessLog struct {
	ID           int64      `gorm:"primaryKey;autoIncrement"`
	FileID       string     `gorm:"column:file_id;type:varchar(36);not null;index:idx_file_access_logs_file"`
	RequesterID  string     `gorm:"type:varchar(100);index:idx_file_access_logs_requester"`
	AccessType   string     `gorm:"type:varchar(20);not null"`
	RequesterIP  string     `gorm:"type:varchar(45)"`
	UserAgent    string     `gorm:"type:text"`
	IssuedURL    string     `gorm:"type:varchar(1000)"`
	URLExpiresAt *time.Time `gorm:""`
	AccessedAt   time.Time  `gorm:"autoCreateTime;index:idx_file_access_logs_accessed_at"`
}

func (FileAccessLog) TableName() string {
	return "file_access_logs"
}
