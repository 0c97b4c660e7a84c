package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/reportstack/report-file-api/internal/config"
	domain "github.com/reportstack/report-file-api/internal/domain/reportfile"
	"github.com/reportstack/report-file-api/internal/interfaces/httpserver/requests"
	"github.com/reportstack/report-file-api/internal/interfaces/httpserver/responses"
	"github.com/reportstack/report-file-api/internal/utils/platformerrors"
	"github.com/reportstack/report-file-api/utils/fileid"
)

// ownerHeader carries the caller identity resolved by the gateway in front
// of this service.
const ownerHeader = "X-Owner-Id"

// ReportFileHandler exposes report file endpoints.
type ReportFileHandler struct {
	cfg     *config.Config
	service *domain.Service
	log     zerolog.Logger
}

func NewReportFileHandler(cfg *config.Config, service *domain.Service, log zerolog.Logger) *ReportFileHandler {
	return &ReportFileHandler{
		cfg:     cfg,
		service: service,
		log:     log.With().Str("component", "report-file-handler").Logger(),
	}
}

func (h *ReportFileHandler) ownerID(c *gin.Context) (string, bool) {
	owner := c.GetHeader(ownerHeader)
	if owner == "" {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation,
			"missing "+ownerHeader+" header", "3c4d5e6f-7a8b-4c9d-8e0f-1a2b3c4d5e6f")
		return "", false
	}
	return owner, true
}

func (h *ReportFileHandler) accessMeta(c *gin.Context) domain.AccessMeta {
	return domain.AccessMeta{
		RequesterIP: c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
	}
}

// Upload godoc
// @Summary      Upload a report file
// @Description  Accepts a multipart file, stores it in the configured backend and records its metadata.
// @Tags         reports
// @Accept       multipart/form-data
// @Produce      json
// @Param        X-Owner-Id  header    string  true   "Owner identity"
// @Param        file        formData  file    true   "Report file"
// @Param        ttl_days    formData  int     false  "Days until expiry, 0 keeps the file forever"
// @Param        metadata    formData  string  false  "Extra metadata as a JSON object"
// @Success      201  {object}  responses.UploadResponse
// @Failure      400  {object}  responses.ErrorResponse
// @Failure      502  {object}  responses.ErrorResponse
// @Router       /v1/reports [post]
func (h *ReportFileHandler) Upload(c *gin.Context) {
	owner, ok := h.ownerID(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation,
			"file is required", "4d5e6f7a-8b9c-4d0e-8f1a-2b3c4d5e6f7a")
		return
	}

	var form requests.UploadForm
	if err := c.ShouldBind(&form); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation,
			err.Error(), "5e6f7a8b-9c0d-4e1f-8a2b-3c4d5e6f7a8b")
		return
	}
	ttlDays := form.TTLDays
	if ttlDays == 0 {
		ttlDays = h.cfg.DefaultTTLDays
	}
	if ttlDays < 0 {
		ttlDays = 0
	}

	var extra map[string]any
	if form.Metadata != "" {
		if err := json.Unmarshal([]byte(form.Metadata), &extra); err != nil {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation,
				"metadata must be a JSON object", "6f7a8b9c-0d1e-4f2a-8b3c-4d5e6f7a8b9c")
			return
		}
	}

	// Spool the upload to a unique local path; the service removes it once
	// the metadata insert succeeds.
	localPath := filepath.Join(os.TempDir(), fmt.Sprintf("report-upload-%s%s", fileid.New(), filepath.Ext(header.Filename)))
	if err := c.SaveUploadedFile(header, localPath); err != nil {
		h.log.Error().Err(err).Msg("failed to spool uploaded file")
		responses.HandleNewError(c, platformerrors.ErrorTypeInternal,
			"failed to store uploaded file", "7a8b9c0d-1e2f-4a3b-8c4d-5e6f7a8b9c0d")
		return
	}
	defer os.Remove(localPath)

	id, err := h.service.Upload(c.Request.Context(), domain.UploadParams{
		LocalPath:     localPath,
		Filename:      filepath.Base(header.Filename),
		OwnerID:       owner,
		TTLDays:       ttlDays,
		ExtraMetadata: extra,
	})
	if err != nil {
		h.log.Error().Err(err).Str("owner_id", owner).Msg("upload failed")
		responses.HandleError(c, err, "upload failed")
		return
	}

	c.JSON(http.StatusCreated, responses.UploadResponse{FileID: id})
}

// GetInfo godoc
// @Summary      Get report file metadata
// @Tags         reports
// @Produce      json
// @Param        X-Owner-Id  header  string  true  "Owner identity"
// @Param        id          path    string  true  "File ID"
// @Success      200  {object}  responses.FileRecordResponse
// @Failure      404  {object}  responses.ErrorResponse
// @Router       /v1/reports/{id} [get]
func (h *ReportFileHandler) GetInfo(c *gin.Context) {
	owner, ok := h.ownerID(c)
	if !ok {
		return
	}

	record, err := h.service.GetFileInfo(c.Request.Context(), c.Param("id"), owner)
	if err != nil {
		responses.HandleError(c, err, "failed to load report file")
		return
	}
	if record == nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeNotFound,
			"report file not found", "8b9c0d1e-2f3a-4b4c-8d5e-6f7a8b9c0d1e")
		return
	}

	c.JSON(http.StatusOK, responses.BuildFileRecordResponse(record))
}

// List godoc
// @Summary      List own report files
// @Tags         reports
// @Produce      json
// @Param        X-Owner-Id  header  string  true   "Owner identity"
// @Param        limit       query   int     false  "Page size"
// @Param        offset      query   int     false  "Page offset"
// @Success      200  {object}  responses.FileListResponse
// @Router       /v1/reports [get]
func (h *ReportFileHandler) List(c *gin.Context) {
	owner, ok := h.ownerID(c)
	if !ok {
		return
	}

	var query requests.ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation,
			err.Error(), "9c0d1e2f-3a4b-4c5d-8e6f-7a8b9c0d1e2f")
		return
	}

	records, err := h.service.ListFiles(c.Request.Context(), owner, query.Limit, query.Offset)
	if err != nil {
		responses.HandleError(c, err, "failed to list report files")
		return
	}

	c.JSON(http.StatusOK, responses.BuildFileListResponse(records, query.Limit, query.Offset))
}

// PreviewURL godoc
// @Summary      Issue a presigned preview URL
// @Description  Returns a short-lived URL that renders the file inline.
// @Tags         reports
// @Produce      json
// @Param        X-Owner-Id  header  string  true  "Owner identity"
// @Param        id          path    string  true  "File ID"
// @Success      200  {object}  responses.AccessURLResponse
// @Failure      404  {object}  responses.ErrorResponse
// @Failure      410  {object}  responses.ErrorResponse
// @Router       /v1/reports/{id}/preview-url [get]
func (h *ReportFileHandler) PreviewURL(c *gin.Context) {
	owner, ok := h.ownerID(c)
	if !ok {
		return
	}

	fileID := c.Param("id")
	grant, err := h.service.GetPreviewURL(c.Request.Context(), fileID, owner, h.accessMeta(c))
	if err != nil {
		responses.HandleError(c, err, "failed to issue preview URL")
		return
	}

	c.JSON(http.StatusOK, responses.BuildAccessURLResponse(fileID, grant))
}

// DownloadURL godoc
// @Summary      Issue a presigned download URL
// @Description  Returns a short-lived URL that forces an attachment download.
// @Tags         reports
// @Produce      json
// @Param        X-Owner-Id  header  string  true  "Owner identity"
// @Param        id          path    string  true  "File ID"
// @Success      200  {object}  responses.AccessURLResponse
// @Failure      404  {object}  responses.ErrorResponse
// @Failure      410  {object}  responses.ErrorResponse
// @Router       /v1/reports/{id}/download-url [get]
func (h *ReportFileHandler) DownloadURL(c *gin.Context) {
	owner, ok := h.ownerID(c)
	if !ok {
		return
	}

	fileID := c.Param("id")
	grant, err := h.service.GetDownloadURL(c.Request.Context(), fileID, owner, h.accessMeta(c))
	if err != nil {
		responses.HandleError(c, err, "failed to issue download URL")
		return
	}

	c.JSON(http.StatusOK, responses.BuildAccessURLResponse(fileID, grant))
}

// Delete godoc
// @Summary      Delete a report file
// @Description  Removes the backend object best-effort and marks the record deleted. Safe to repeat.
// @Tags         reports
// @Produce      json
// @Param        X-Owner-Id  header  string  true  "Owner identity"
// @Param        id          path    string  true  "File ID"
// @Success      200  {object}  responses.DeleteResponse
// @Failure      404  {object}  responses.ErrorResponse
// @Router       /v1/reports/{id} [delete]
func (h *ReportFileHandler) Delete(c *gin.Context) {
	owner, ok := h.ownerID(c)
	if !ok {
		return
	}

	fileID := c.Param("id")
	deleted, err := h.service.DeleteFile(c.Request.Context(), fileID, owner)
	if err != nil {
		responses.HandleError(c, err, "failed to delete report file")
		return
	}
	if !deleted {
		responses.HandleNewError(c, platformerrors.ErrorTypeNotFound,
			"report file not found", "0d1e2f3a-4b5c-4d6e-8f7a-8b9c0d1e2f3a")
		return
	}

	c.JSON(http.StatusOK, responses.DeleteResponse{FileID: fileID, Deleted: true})
}
