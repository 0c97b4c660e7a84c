package reportfile_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reportstack/report-file-api/internal/config"
	domain "github.com/reportstack/report-file-api/internal/domain/reportfile"
	"github.com/reportstack/report-file-api/internal/infrastructure/storage"
	"github.com/reportstack/report-file-api/internal/utils/platformerrors"
)

// fakeStore is an in-memory Store with mutex-serialized mutations, so the
// increment semantics match what the SQL store guarantees.
type fakeStore struct {
	mu      sync.Mutex
	records map[string]*domain.FileRecord
	logs    []*domain.AccessLogEntry

	createErr       error
	recordAccessErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*domain.FileRecord)}
}

func (f *fakeStore) Create(_ context.Context, record *domain.FileRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, exists := f.records[record.FileID]; exists {
		return platformerrors.NewError(context.Background(), platformerrors.LayerRepository,
			platformerrors.ErrorTypeDuplicateID, "file id already exists", nil, "")
	}
	clone := *record
	clone.CreatedAt = time.Now()
	f.records[record.FileID] = &clone
	return nil
}

func (f *fakeStore) GetByFileID(_ context.Context, fileID string) (*domain.FileRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[fileID]
	if !ok {
		return nil, nil
	}
	clone := *record
	return &clone, nil
}

func (f *fakeStore) ListByOwner(_ context.Context, ownerID string, _, _ int) ([]*domain.FileRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.FileRecord
	for _, record := range f.records {
		if record.OwnerID == ownerID {
			clone := *record
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, fileID string, status domain.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if record, ok := f.records[fileID]; ok {
		record.Status = status
	}
	return nil
}

func (f *fakeStore) RecordAccess(_ context.Context, entry *domain.AccessLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordAccessErr != nil {
		return f.recordAccessErr
	}
	f.logs = append(f.logs, entry)
	f.records[entry.FileID].DownloadCount++
	return nil
}

// statusOf reads the stored status directly, bypassing the service.
func (f *fakeStore) statusOf(fileID string) domain.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[fileID].Status
}

func (f *fakeStore) downloadCount(fileID string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[fileID].DownloadCount
}

func (f *fakeStore) logCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.logs)
}

func (f *fakeStore) setExpiresAt(fileID string, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[fileID].ExpiresAt = &at
}

// fakeBackend implements storage.Backend without any network I/O.
type fakeBackend struct {
	mu        sync.Mutex
	uploaded   map[string]string // key -> contentType
	deleted    []string
	uploadErr  error
	presignErr error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{uploaded: make(map[string]string)}
}

func (f *fakeBackend) Type() string { return "fake" }

func (f *fakeBackend) Upload(_ context.Context, _, storageKey, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploaded[storageKey] = contentType
	return storageKey, nil
}

func (f *fakeBackend) Presign(_ context.Context, storageKey string, _ time.Duration, _ *storage.ResponseOverrides) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return "https://storage.example.com/" + storageKey + "?sig=deadbeef", nil
}

func (f *fakeBackend) Delete(_ context.Context, storageKey string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, storageKey)
	if _, ok := f.uploaded[storageKey]; ok {
		delete(f.uploaded, storageKey)
		return true, nil
	}
	return false, nil
}

func (f *fakeBackend) Stat(_ context.Context, storageKey string) (*storage.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if contentType, ok := f.uploaded[storageKey]; ok {
		return &storage.ObjectInfo{ContentType: contentType}, nil
	}
	return nil, platformerrors.NewError(context.Background(), platformerrors.LayerInfrastructure,
		platformerrors.ErrorTypeNotFound, "object not found", nil, "")
}

func (f *fakeBackend) Exists(_ context.Context, storageKey string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.uploaded[storageKey]
	return ok, nil
}

func testService(t *testing.T) (*domain.Service, *fakeStore, *fakeBackend) {
	t.Helper()
	cfg := &config.Config{
		PresignExpire:      time.Hour,
		DefaultContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
	store := newFakeStore()
	backend := newFakeBackend()
	return domain.NewService(cfg, store, backend, zerolog.Nop()), store, backend
}

func writeTempReport(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("report body"), 0o600))
	return path
}

func TestUploadThenDownloadURLRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := testService(t)

	path := writeTempReport(t, "report.docx")
	fileID, err := svc.Upload(ctx, domain.UploadParams{
		LocalPath: path,
		Filename:  "report.docx",
		OwnerID:   "u1",
		TTLDays:   30,
	})
	require.NoError(t, err)
	require.NotEmpty(t, fileID)

	record, err := svc.GetFileInfo(ctx, fileID, "u1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, domain.StatusActive, record.Status)
	require.NotNil(t, record.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), *record.ExpiresAt, time.Minute)

	// The local temp file is gone once metadata is durable.
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	grant, err := svc.GetDownloadURL(ctx, fileID, "u1", domain.AccessMeta{})
	require.NoError(t, err)
	assert.True(t, grant.AuditRecorded)
	// URL carries the date-and-id derived key segment.
	assert.Contains(t, grant.URL, fmt.Sprintf("reports/%s/%s.docx", time.Now().Format("20060102"), fileID))

	_, err = svc.GetDownloadURL(ctx, fileID, "u2", domain.AccessMeta{})
	require.Error(t, err)
	assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeNotFound))

	assert.Equal(t, int64(1), store.downloadCount(fileID))
	assert.Equal(t, 1, store.logCount())
}

func TestUploadWithoutTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := testService(t)

	fileID, err := svc.Upload(ctx, domain.UploadParams{
		LocalPath: writeTempReport(t, "summary.pdf"),
		Filename:  "summary.pdf",
		OwnerID:   "u1",
		TTLDays:   0,
	})
	require.NoError(t, err)

	record, err := svc.GetFileInfo(ctx, fileID, "u1")
	require.NoError(t, err)
	assert.Nil(t, record.ExpiresAt)
}

func TestUploadKeepsLocalFileWhenMetadataInsertFails(t *testing.T) {
	ctx := context.Background()
	svc, store, backend := testService(t)
	store.createErr = platformerrors.NewError(ctx, platformerrors.LayerRepository,
		platformerrors.ErrorTypeDatabaseError, "insert failed", nil, "")

	path := writeTempReport(t, "report.docx")
	_, err := svc.Upload(ctx, domain.UploadParams{
		LocalPath: path,
		Filename:  "report.docx",
		OwnerID:   "u1",
		TTLDays:   30,
	})
	require.Error(t, err)

	// The local source survives, and so does the orphaned backend object;
	// upload is not transactional across the two writes.
	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
	backend.mu.Lock()
	assert.Len(t, backend.uploaded, 1)
	backend.mu.Unlock()
}

func TestGetFileInfoConflatesMissingAndForeign(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := testService(t)

	fileID, err := svc.Upload(ctx, domain.UploadParams{
		LocalPath: writeTempReport(t, "report.docx"),
		Filename:  "report.docx",
		OwnerID:   "u1",
		TTLDays:   30,
	})
	require.NoError(t, err)

	unknown, err := svc.GetFileInfo(ctx, "00000000-0000-4000-8000-000000000000", "u1")
	require.NoError(t, err)
	foreign, err2 := svc.GetFileInfo(ctx, fileID, "u2")
	require.NoError(t, err2)

	// Unknown id and foreign owner are indistinguishable.
	assert.Nil(t, unknown)
	assert.Nil(t, foreign)

	// Without an owner the lookup is unrestricted.
	record, err := svc.GetFileInfo(ctx, fileID, "")
	require.NoError(t, err)
	assert.NotNil(t, record)
}

func TestExpiryIsLazy(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := testService(t)

	fileID, err := svc.Upload(ctx, domain.UploadParams{
		LocalPath: writeTempReport(t, "report.docx"),
		Filename:  "report.docx",
		OwnerID:   "u1",
		TTLDays:   30,
	})
	require.NoError(t, err)
	store.setExpiresAt(fileID, time.Now().Add(-time.Hour))

	// Never accessed: stays active in storage.
	assert.Equal(t, domain.StatusActive, store.statusOf(fileID))

	_, err = svc.GetPreviewURL(ctx, fileID, "u1", domain.AccessMeta{})
	require.Error(t, err)
	assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeInvalidState))
	assert.Equal(t, domain.StatusExpired, store.statusOf(fileID))

	// A second access short-circuits on status, not expiry.
	_, err = svc.GetPreviewURL(ctx, fileID, "u1", domain.AccessMeta{})
	require.Error(t, err)
	assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeInvalidState))

	// No URL was issued, so no audit rows and no counted downloads.
	assert.Equal(t, int64(0), store.downloadCount(fileID))
	assert.Equal(t, 0, store.logCount())
}

func TestExpiredFileCanStillBeDeleted(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := testService(t)

	fileID, err := svc.Upload(ctx, domain.UploadParams{
		LocalPath: writeTempReport(t, "report.docx"),
		Filename:  "report.docx",
		OwnerID:   "u1",
		TTLDays:   30,
	})
	require.NoError(t, err)
	store.setExpiresAt(fileID, time.Now().Add(-time.Hour))

	_, err = svc.GetPreviewURL(ctx, fileID, "u1", domain.AccessMeta{})
	require.Error(t, err)
	assert.Equal(t, domain.StatusExpired, store.statusOf(fileID))

	deleted, err := svc.DeleteFile(ctx, fileID, "u1")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, domain.StatusDeleted, store.statusOf(fileID))
}

func TestDeleteFileIdempotence(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := testService(t)

	fileID, err := svc.Upload(ctx, domain.UploadParams{
		LocalPath: writeTempReport(t, "report.docx"),
		Filename:  "report.docx",
		OwnerID:   "u1",
		TTLDays:   30,
	})
	require.NoError(t, err)

	first, err := svc.DeleteFile(ctx, fileID, "u1")
	require.NoError(t, err)
	assert.True(t, first)

	// Repeating the delete rewrites the terminal state and reports true.
	second, err := svc.DeleteFile(ctx, fileID, "u1")
	require.NoError(t, err)
	assert.True(t, second)
	assert.Equal(t, domain.StatusDeleted, store.statusOf(fileID))

	// A foreign owner still sees nothing.
	foreign, err := svc.DeleteFile(ctx, fileID, "u2")
	require.NoError(t, err)
	assert.False(t, foreign)
}

func TestDeletedFileRefusesURLs(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := testService(t)

	fileID, err := svc.Upload(ctx, domain.UploadParams{
		LocalPath: writeTempReport(t, "report.docx"),
		Filename:  "report.docx",
		OwnerID:   "u1",
		TTLDays:   30,
	})
	require.NoError(t, err)

	_, err = svc.DeleteFile(ctx, fileID, "u1")
	require.NoError(t, err)

	_, err = svc.GetDownloadURL(ctx, fileID, "u1", domain.AccessMeta{})
	require.Error(t, err)
	assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeInvalidState))
}

func TestConcurrentIssuanceLosesNoIncrements(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := testService(t)

	fileID, err := svc.Upload(ctx, domain.UploadParams{
		LocalPath: writeTempReport(t, "report.docx"),
		Filename:  "report.docx",
		OwnerID:   "u1",
		TTLDays:   30,
	})
	require.NoError(t, err)

	const n = 64
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.GetPreviewURL(ctx, fileID, "u1", domain.AccessMeta{}); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent issuance failed: %v", err)
	}

	assert.Equal(t, int64(n), store.downloadCount(fileID))
	assert.Equal(t, n, store.logCount())
}

func TestAuditFailureDoesNotWithholdURL(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := testService(t)

	fileID, err := svc.Upload(ctx, domain.UploadParams{
		LocalPath: writeTempReport(t, "report.docx"),
		Filename:  "report.docx",
		OwnerID:   "u1",
		TTLDays:   30,
	})
	require.NoError(t, err)

	store.recordAccessErr = platformerrors.NewError(ctx, platformerrors.LayerRepository,
		platformerrors.ErrorTypeDatabaseError, "log insert failed", nil, "")

	grant, err := svc.GetPreviewURL(ctx, fileID, "u1", domain.AccessMeta{RequesterIP: "10.0.0.1"})
	require.NoError(t, err)
	assert.NotEmpty(t, grant.URL)
	assert.False(t, grant.AuditRecorded)
	assert.Equal(t, int64(0), store.downloadCount(fileID))
}

func TestGeneratedFileIDsAreUnique(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := testService(t)

	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		fileID, err := svc.Upload(ctx, domain.UploadParams{
			LocalPath: writeTempReport(t, "report.docx"),
			Filename:  "report.docx",
			OwnerID:   "u1",
			TTLDays:   1,
		})
		require.NoError(t, err)
		if _, dup := seen[fileID]; dup {
			t.Fatalf("duplicate file id on iteration %d: %s", i, fileID)
		}
		seen[fileID] = struct{}{}
	}
}
