package reportfile

import (
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	domain "github.com/reportstack/report-file-api/internal/domain/reportfile"
	"github.com/reportstack/report-file-api/internal/infrastructure/database/entities"
	"github.com/reportstack/report-file-api/internal/utils/platformerrors"
)

// Repository handles report file and access log persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new file record. A file_id collision is rejected as a
// DuplicateID error rather than silently overwriting.
func (r *Repository) Create(ctx context.Context, record *domain.FileRecord) error {
	entity := toEntity(record)
	err := r.db.WithContext(ctx).Create(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeDuplicateID,
				"file id already exists",
				err,
				"f3b7c1d2-8a4e-4b6f-9c0d-5e1a2b3c4d5e",
			)
		}
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create file record",
			err,
			"a1c9e8d7-2b3f-4a5c-8d6e-7f0a1b2c3d4e",
		)
	}
	record.ID = entity.ID
	record.CreatedAt = entity.CreatedAt
	return nil
}

// GetByFileID loads a record by its external identifier. Returns (nil, nil)
// when no such record exists; ownership is not checked here.
func (r *Repository) GetByFileID(ctx context.Context, fileID string) (*domain.FileRecord, error) {
	var entity entities.ReportFile
	err := r.db.WithContext(ctx).Where("file_id = ?", fileID).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to load file record",
			err,
			"0d4f6a8b-9c1e-4d2f-a3b5-6c7d8e9f0a1b",
		)
	}
	record := toDomain(entity)
	return &record, nil
}

// ListByOwner returns an owner's records, newest first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*domain.FileRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []entities.ReportFile
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list file records",
			err,
			"5e6f7a8b-0c1d-4e2f-9a3b-4c5d6e7f8a9b",
		)
	}
	records := make([]*domain.FileRecord, 0, len(rows))
	for _, row := range rows {
		record := toDomain(row)
		records = append(records, &record)
	}
	return records, nil
}

// UpdateStatus sets the lifecycle status of a record.
func (r *Repository) UpdateStatus(ctx context.Context, fileID string, status domain.Status) error {
	err := r.db.WithContext(ctx).
		Model(&entities.ReportFile{}).
		Where("file_id = ?", fileID).
		Update("status", string(status)).Error
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to update file status",
			err,
			"2a3b4c5d-6e7f-4a8b-9c0d-1e2f3a4b5c6d",
		)
	}
	return nil
}

// IncrementDownloadCount bumps the counter as a single column expression so
// concurrent issuers never lose an update.
func (r *Repository) IncrementDownloadCount(ctx context.Context, fileID string) error {
	return r.incrementDownloadCount(ctx, r.db, fileID)
}

func (r *Repository) incrementDownloadCount(ctx context.Context, tx *gorm.DB, fileID string) error {
	err := tx.WithContext(ctx).
		Model(&entities.ReportFile{}).
		Where("file_id = ?", fileID).
		UpdateColumn("download_count", gorm.Expr("download_count + ?", 1)).Error
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to increment download count",
			err,
			"7b8c9d0e-1f2a-4b3c-8d4e-5f6a7b8c9d0e",
		)
	}
	return nil
}

// RecordAccess appends an access log row and increments the download counter
// inside one transaction, so either both land or neither does.
func (r *Repository) RecordAccess(ctx context.Context, entry *domain.AccessLogEntry) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		logRow := entities.FileAccessLog{
			FileID:       entry.FileID,
			RequesterID:  entry.RequesterID,
			AccessType:   string(entry.AccessType),
			RequesterIP:  entry.RequesterIP,
			UserAgent:    entry.UserAgent,
			IssuedURL:    entry.IssuedURL,
			URLExpiresAt: &entry.URLExpiresAt,
		}
		if err := tx.Create(&logRow).Error; err != nil {
			return err
		}
		return r.incrementDownloadCount(ctx, tx, entry.FileID)
	})
	if err != nil {
		var platformErr *platformerrors.PlatformError
		if errors.As(err, &platformErr) {
			return err
		}
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to record file access",
			err,
			"9c0d1e2f-3a4b-4c5d-8e6f-7a8b9c0d1e2f",
		)
	}
	return nil
}

func toEntity(record *domain.FileRecord) entities.ReportFile {
	var extra datatypes.JSONMap
	if record.ExtraMetadata != nil {
		extra = datatypes.JSONMap(record.ExtraMetadata)
	}
	return entities.ReportFile{
		ID:               record.ID,
		FileID:           record.FileID,
		OriginalFilename: record.OriginalFilename,
		FileSize:         record.FileSize,
		StorageKey:       record.StorageKey,
		StorageType:      record.StorageType,
		ContentType:      record.ContentType,
		OwnerID:          record.OwnerID,
		ExpiresAt:        record.ExpiresAt,
		DownloadCount:    record.DownloadCount,
		Status:           string(record.Status),
		ExtraMetadata:    extra,
	}
}

func toDomain(entity entities.ReportFile) domain.FileRecord {
	var extra map[string]any
	if entity.ExtraMetadata != nil {
		extra = map[string]any(entity.ExtraMetadata)
	}
	return domain.FileRecord{
		ID:               entity.ID,
		FileID:           entity.FileID,
		OriginalFilename: entity.OriginalFilename,
		FileSize:         entity.FileSize,
		StorageKey:       entity.StorageKey,
		StorageType:      entity.StorageType,
		ContentType:      entity.ContentType,
		OwnerID:          entity.OwnerID,
		CreatedAt:        entity.CreatedAt,
		ExpiresAt:        entity.ExpiresAt,
		DownloadCount:    entity.DownloadCount,
		Status:           domain.Status(entity.Status),
		ExtraMetadata:    extra,
	}
}
