package media

// File is one incoming file of a multi-file upload.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (ReadSeekCloser, error)
}

// ReadSeekCloser matches multipart.File without importing mime/multipart here.
type ReadSeekCloser interface {
	Read(p []byte) (int, error)
	Seek(offset int64, whence int) (int64, error)
	Close() error
}

// Stored describes a blob persisted by the media service.
type Stored struct {
	Bucket      string `json:"bucket"`
	ObjectKey   string `json:"object_key"`
	URL         string `json:"url"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// UploadResult pairs a stored blob with the id of the row recorded for it.
type UploadResult struct {
	Stored
	RecordID string `json:"record_id"`
}
