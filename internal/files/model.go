package files

import "time"

// Record is the stored metadata for one uploaded file. StorageName is the
// opaque identifier keying both the metadata row and the object-store blob.
type Record struct {
	StorageName  string    `json:"storageName"`
	OriginalName string    `json:"originalName"`
	ContentType  string    `json:"contentType"`
	SizeBytes    int64     `json:"sizeBytes"`
	ContentHash  string    `json:"-"`
	UserID       string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Actor is the authenticated identity performing an operation.
type Actor struct {
	ID   string
	Role string
}

// BatchItem is one file of a batch upload, already read from the request.
// ReadErr carries a failure to read that part; the item then fails alone
// without touching the rest of the batch.
type BatchItem struct {
	FileName    string
	ContentType string
	Data        []byte
	ReadErr     error
}

const (
	BatchStatusUploaded = "UPLOADED"
	BatchStatusFailed   = "FAILED"
)

// BatchOutcome reports the result for a single file of a batch.
type BatchOutcome struct {
	Status      string `json:"status"`
	FileName    string `json:"fileName"`
	StorageName string `json:"storageName,omitempty"`
	Message     string `json:"message,omitempty"`
}

// Download bundles a file's metadata with its bytes.
type Download struct {
	Record Record
	Data   []byte
}
