package model

import "time"

const (
	FileStatusUploading = "uploading"
	FileStatusReady     = "ready"
	FileStatusFailed    = "failed"
)

// StoredFile is an object in the bucket attached to a lesson or a workflow.
// OwnerID holds the lesson ID or the workflow ID depending on the table.
type StoredFile struct {
	ID          string    `db:"id" json:"id"`
	OwnerID     string    `db:"owner_id" json:"owner_id"`
	FileName    string    `db:"file_name" json:"file_name"`
	StoragePath string    `db:"storage_path" json:"storage_path"`
	ContentType string    `db:"content_type" json:"content_type"`
	SizeBytes   int64     `db:"size_bytes" json:"size_bytes"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// IsReady reports whether the file has been verified in storage.
func (f *StoredFile) IsReady() bool {
	return f.Status == FileStatusReady
}

// CleanupJob is the payload of a storage cleanup queue message: object keys
// whose database rows are already gone.
type CleanupJob struct {
	Reason     string   `json:"reason"`
	EntityType string   `json:"entity_type,omitempty"`
	EntityID   string   `json:"entity_id,omitempty"`
	Keys       []string `json:"keys"`
	Attempts   int      `json:"attempts"`
}
