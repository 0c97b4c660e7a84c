package reportfile

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/reportstack/report-file-api/internal/config"
	"github.com/reportstack/report-file-api/internal/infrastructure/metrics"
	"github.com/reportstack/report-file-api/internal/infrastructure/storage"
	"github.com/reportstack/report-file-api/internal/utils/platformerrors"
	"github.com/reportstack/report-file-api/utils/fileid"
)

// issuedURLMaxLen bounds the audit copy of a presigned URL.
const issuedURLMaxLen = 1000

// Store defines persistence operations needed by the service.
type Store interface {
	Create(ctx context.Context, record *FileRecord) error
	GetByFileID(ctx context.Context, fileID string) (*FileRecord, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*FileRecord, error)
	UpdateStatus(ctx context.Context, fileID string, status Status) error
	RecordAccess(ctx context.Context, entry *AccessLogEntry) error
}

// Service orchestrates upload, authorization, URL issuance, expiry detection
// and deletion of report files. It never caches records: every operation
// re-reads current state from the store.
type Service struct {
	cfg     *config.Config
	store   Store
	backend storage.Backend
	log     zerolog.Logger
}

func NewService(cfg *config.Config, store Store, backend storage.Backend, log zerolog.Logger) *Service {
	return &Service{
		cfg:     cfg,
		store:   store,
		backend: backend,
		log:     log.With().Str("component", "report-file-service").Logger(),
	}
}

// Upload transfers a local report artifact to the storage backend, records
// its metadata and removes the local source. The backend write is not rolled
// back if the metadata insert fails; that window is accepted and reconciled
// operationally.
func (s *Service) Upload(ctx context.Context, params UploadParams) (string, error) {
	if params.LocalPath == "" || params.Filename == "" {
		return "", platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			"local path and filename are required",
			nil,
			"b4c5d6e7-f8a9-4b0c-8d1e-2f3a4b5c6d7e",
		)
	}

	info, err := os.Stat(params.LocalPath)
	if err != nil {
		return "", platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			"local report file is not readable",
			err,
			"d6e7f8a9-0b1c-4d2e-8f3a-4b5c6d7e8f9a",
		)
	}

	now := time.Now()
	id := fileid.New()
	storageKey := storage.ObjectKey(id, params.Filename, now)
	contentType := s.detectContentType(params.LocalPath)

	if _, err := s.backend.Upload(ctx, params.LocalPath, storageKey, contentType); err != nil {
		metrics.RecordUpload(s.backend.Type(), "error", 0)
		return "", err
	}

	var expiresAt *time.Time
	if params.TTLDays > 0 {
		t := now.Add(time.Duration(params.TTLDays) * 24 * time.Hour)
		expiresAt = &t
	}

	record := &FileRecord{
		FileID:           id,
		OriginalFilename: params.Filename,
		FileSize:         info.Size(),
		ContentType:      contentType,
		StorageKey:       storageKey,
		StorageType:      s.backend.Type(),
		OwnerID:          params.OwnerID,
		ExpiresAt:        expiresAt,
		Status:           StatusActive,
		ExtraMetadata:    params.ExtraMetadata,
	}

	if err := s.store.Create(ctx, record); err != nil {
		// The uploaded object is intentionally left in place; see DESIGN.md.
		metrics.RecordUpload(s.backend.Type(), "error", 0)
		return "", err
	}
	metrics.RecordUpload(s.backend.Type(), "success", info.Size())

	// The canonical copy now lives in the backend; a leftover temp file
	// is only worth a warning.
	if err := os.Remove(params.LocalPath); err != nil {
		s.log.Warn().Err(err).Str("path", params.LocalPath).Msg("failed to delete local report file")
	}

	s.log.Info().
		Str("file_id", id).
		Str("filename", params.Filename).
		Str("owner_id", params.OwnerID).
		Msg("report file uploaded")

	return id, nil
}

// GetFileInfo loads a record by file ID. When ownerID is non-empty it also
// enforces ownership; a mismatch is reported exactly like a missing record
// so callers cannot probe for other owners' files.
func (s *Service) GetFileInfo(ctx context.Context, fileID, ownerID string) (*FileRecord, error) {
	record, err := s.store.GetByFileID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	if ownerID != "" && record.OwnerID != ownerID {
		s.log.Warn().
			Str("file_id", fileID).
			Str("requester_id", ownerID).
			Msg("ownership mismatch on file access")
		return nil, nil
	}
	return record, nil
}

// ListFiles returns the owner's records, newest first.
func (s *Service) ListFiles(ctx context.Context, ownerID string, limit, offset int) ([]*FileRecord, error) {
	return s.store.ListByOwner(ctx, ownerID, limit, offset)
}

// GetPreviewURL issues a presigned URL for inline viewing.
func (s *Service) GetPreviewURL(ctx context.Context, fileID, ownerID string, meta AccessMeta) (*AccessGrant, error) {
	return s.issueURL(ctx, fileID, ownerID, AccessPreview, meta)
}

// GetDownloadURL issues a presigned URL forcing attachment download.
func (s *Service) GetDownloadURL(ctx context.Context, fileID, ownerID string, meta AccessMeta) (*AccessGrant, error) {
	return s.issueURL(ctx, fileID, ownerID, AccessDownload, meta)
}

func (s *Service) issueURL(ctx context.Context, fileID, ownerID string, accessType AccessType, meta AccessMeta) (*AccessGrant, error) {
	record, err := s.GetFileInfo(ctx, fileID, ownerID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		metrics.RecordURLIssue(string(accessType), "not_found")
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeNotFound,
			"report file not found",
			nil,
			"e7f8a9b0-1c2d-4e3f-8a4b-5c6d7e8f9a0b",
		)
	}

	if record.Status != StatusActive {
		metrics.RecordURLIssue(string(accessType), "invalid_state")
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeInvalidState,
			fmt.Sprintf("report file is not active: status=%s", record.Status),
			nil,
			"f8a9b0c1-2d3e-4f4a-8b5c-6d7e8f9a0b1c",
		)
	}

	// Expiry is evaluated lazily, on access; a file past its expiry that
	// is never touched again stays active in storage.
	if record.ExpiresAt != nil && time.Now().After(*record.ExpiresAt) {
		if err := s.store.UpdateStatus(ctx, fileID, StatusExpired); err != nil {
			s.log.Error().Err(err).Str("file_id", fileID).Msg("failed to persist expired status")
		} else {
			metrics.ExpiredTransitionsTotal.Inc()
		}
		metrics.RecordURLIssue(string(accessType), "expired")
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeInvalidState,
			"report file has expired",
			nil,
			"a9b0c1d2-3e4f-4a5b-8c6d-7e8f9a0b1c2d",
		)
	}

	url, err := s.backend.Presign(ctx, record.StorageKey, s.cfg.PresignExpire, s.presignOverrides(record, accessType))
	if err != nil {
		metrics.RecordURLIssue(string(accessType), "error")
		return nil, err
	}

	grant := &AccessGrant{
		URL:       url,
		ExpiresAt: time.Now().Add(s.cfg.PresignExpire),
	}

	// Audit is best-effort: a failed write never withholds the URL.
	entry := &AccessLogEntry{
		FileID:       fileID,
		RequesterID:  ownerID,
		AccessType:   accessType,
		RequesterIP:  meta.RequesterIP,
		UserAgent:    meta.UserAgent,
		IssuedURL:    truncateURL(url),
		URLExpiresAt: grant.ExpiresAt,
	}
	if err := s.store.RecordAccess(ctx, entry); err != nil {
		s.log.Error().Err(err).Str("file_id", fileID).Msg("failed to record file access")
		metrics.AuditFailuresTotal.Inc()
	} else {
		grant.AuditRecorded = true
	}

	metrics.RecordURLIssue(string(accessType), "success")
	s.log.Info().
		Str("file_id", fileID).
		Str("requester_id", ownerID).
		Str("access_type", string(accessType)).
		Msg("presigned url issued")

	return grant, nil
}

// DeleteFile removes the backend object and marks the record deleted.
// Authorization is ownership only; an expired file can still be deleted.
// Returns false when the record is missing or owned by someone else.
// A repeated delete on an already-deleted record rewrites the terminal
// state and reports true.
func (s *Service) DeleteFile(ctx context.Context, fileID, ownerID string) (bool, error) {
	record, err := s.GetFileInfo(ctx, fileID, ownerID)
	if err != nil {
		return false, err
	}
	if record == nil {
		s.log.Warn().
			Str("file_id", fileID).
			Str("requester_id", ownerID).
			Msg("delete refused: file not found or not owned")
		return false, nil
	}

	// Physical deletion is observed but not required for success; the
	// record flips to deleted regardless.
	existed, err := s.backend.Delete(ctx, record.StorageKey)
	if err != nil {
		s.log.Warn().Err(err).Str("file_id", fileID).Msg("backend delete failed")
	}

	if err := s.store.UpdateStatus(ctx, fileID, StatusDeleted); err != nil {
		return false, err
	}

	s.log.Info().
		Str("file_id", fileID).
		Bool("storage_deleted", err == nil && existed).
		Msg("report file deleted")

	return true, nil
}

// StorageHealth probes backend connectivity with a cheap existence check.
func (s *Service) StorageHealth(ctx context.Context) error {
	_, err := s.backend.Exists(ctx, ".healthcheck")
	return err
}

func (s *Service) detectContentType(localPath string) string {
	if detected, err := mimetype.DetectFile(localPath); err == nil && detected.String() != "application/octet-stream" {
		return detected.String()
	}
	// Report artifacts are docx unless detection says otherwise.
	return s.cfg.DefaultContentType
}

func (s *Service) presignOverrides(record *FileRecord, accessType AccessType) *storage.ResponseOverrides {
	disposition := "inline"
	if accessType == AccessDownload {
		disposition = "attachment"
	}
	return &storage.ResponseOverrides{
		ContentDisposition: fmt.Sprintf("%s; filename=%q", disposition, record.OriginalFilename),
		ContentType:        record.ContentType,
	}
}

func truncateURL(url string) string {
	if len(url) > issuedURLMaxLen {
		return url[:issuedURLMaxLen]
	}
	return url
}
