package reportfile

import "time"

// Status is the lifecycle state of a report file.
//
// active -> expired happens lazily, on the first access that observes the
// expiry in the past. active|expired -> deleted happens only on an explicit
// delete. deleted is terminal.
type Status string

const (
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
	StatusDeleted Status = "deleted"
)

// AccessType distinguishes what kind of URL was issued.
type AccessType string

const (
	AccessPreview  AccessType = "preview"
	AccessDownload AccessType = "download"
)

// FileRecord is the metadata row for one uploaded report artifact.
type FileRecord struct {
	ID               int64          `json:"-"`
	FileID           string         `json:"file_id"`
	OriginalFilename string         `json:"original_filename"`
	FileSize         int64          `json:"file_size"`
	ContentType      string         `json:"content_type"`
	StorageKey       string         `json:"-"`
	StorageType      string         `json:"storage_type"`
	OwnerID          string         `json:"owner_id"`
	CreatedAt        time.Time      `json:"created_at"`
	ExpiresAt        *time.Time     `json:"expires_at,omitempty"`
	DownloadCount    int64          `json:"download_count"`
	Status           Status         `json:"status"`
	ExtraMetadata    map[string]any `json:"extra_metadata,omitempty"`
}

// AccessLogEntry is one audit row per successful URL issuance.
type AccessLogEntry struct {
	FileID       string
	RequesterID  string
	AccessType   AccessType
	RequesterIP  string
	UserAgent    string
	IssuedURL    string
	URLExpiresAt time.Time
}

// UploadParams describes a local report artifact handed over for upload.
type UploadParams struct {
	LocalPath     string
	Filename      string
	OwnerID       string
	TTLDays       int
	ExtraMetadata map[string]any
}

// AccessGrant is the result of a preview/download URL issuance. The audit
// write is best-effort; AuditRecorded tells callers and tests whether it
// landed without coupling the URL to it.
type AccessGrant struct {
	URL           string
	ExpiresAt     time.Time
	AuditRecorded bool
}

// AccessMeta carries requester telemetry captured by the route layer.
type AccessMeta struct {
	RequesterIP string
	UserAgent   string
}
