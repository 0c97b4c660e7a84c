package responses

import (
	"time"

	domain "github.com/reportstack/report-file-api/internal/domain/reportfile"
)

// FileRecordResponse is the public view of a report file record.
type FileRecordResponse struct {
	FileID           string         `json:"file_id"`
	OriginalFilename string         `json:"original_filename"`
	FileSize         int64          `json:"file_size"`
	ContentType      string         `json:"content_type"`
	StorageType      string         `json:"storage_type"`
	OwnerID          string         `json:"owner_id"`
	CreatedAt        time.Time      `json:"created_at"`
	ExpiresAt        *time.Time     `json:"expires_at,omitempty"`
	DownloadCount    int64          `json:"download_count"`
	Status           string         `json:"status"`
	ExtraMetadata    map[string]any `json:"extra_metadata,omitempty"`
}

// BuildFileRecordResponse creates response from domain record
func BuildFileRecordResponse(record *domain.FileRecord) *FileRecordResponse {
	return &FileRecordResponse{
		FileID:           record.FileID,
		OriginalFilename: record.OriginalFilename,
		FileSize:         record.FileSize,
		ContentType:      record.ContentType,
		StorageType:      record.StorageType,
		OwnerID:          record.OwnerID,
		CreatedAt:        record.CreatedAt,
		ExpiresAt:        record.ExpiresAt,
		DownloadCount:    record.DownloadCount,
		Status:           string(record.Status),
		ExtraMetadata:    record.ExtraMetadata,
	}
}

// UploadResponse is returned after a successful upload.
type UploadResponse struct {
	FileID string `json:"file_id"`
}

// FileListResponse wraps an owner's records.
type FileListResponse struct {
	Files  []*FileRecordResponse `json:"files"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

// BuildFileListResponse creates a list response from domain records
func BuildFileListResponse(records []*domain.FileRecord, limit, offset int) *FileListResponse {
	files := make([]*FileRecordResponse, 0, len(records))
	for _, record := range records {
		files = append(files, BuildFileRecordResponse(record))
	}
	return &FileListResponse{Files: files, Limit: limit, Offset: offset}
}

// AccessURLResponse carries a presigned URL.
type AccessURLResponse struct {
	FileID    string    `json:"file_id"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// BuildAccessURLResponse creates a URL response from an access grant
func BuildAccessURLResponse(fileID string, grant *domain.AccessGrant) *AccessURLResponse {
	return &AccessURLResponse{
		FileID:    fileID,
		URL:       grant.URL,
		ExpiresAt: grant.ExpiresAt,
	}
}

// DeleteResponse reports the outcome of a delete.
type DeleteResponse struct {
	FileID  string `json:"file_id"`
	Deleted bool   `json:"deleted"`
}
