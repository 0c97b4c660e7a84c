package requests

// UploadForm captures the non-file multipart fields of an upload request.
type UploadForm struct {
	TTLDays  int    `form:"ttl_days"`
	Metadata string `form:"metadata"`
}

// ListQuery captures pagination parameters.
type ListQuery struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}
