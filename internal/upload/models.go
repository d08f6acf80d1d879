package upload

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status represents the processing state of an uploaded file. The status
// column is the only failure signal surfaced to the end user.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusProcessed  Status = "processed"
	StatusNoCredits  Status = "no_credits"
	StatusFailed     Status = "failed"
)

// ErrNotFound is returned when a referenced record does not exist. It is
// fatal for a pipeline run: there is nothing to retry against.
var ErrNotFound = errors.New("record not found")

// UploadedFile is a source media file registered for processing. Rows are
// created by the upload flow; only the pipeline mutates status afterwards.
type UploadedFile struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	S3Key       string    `json:"s3_key"`
	DisplayName string    `json:"display_name"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Clip is a derived media file produced by the external transcoder. Clips
// are immutable once recorded; the object key is their identity across
// re-runs.
type Clip struct {
	ID             uuid.UUID `json:"id"`
	S3Key          string    `json:"s3_key"`
	UploadedFileID uuid.UUID `json:"uploaded_file_id"`
	UserID         uuid.UUID `json:"user_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// FundingInfo is the snapshot the pipeline branches on before processing.
type FundingInfo struct {
	UserID  uuid.UUID `json:"user_id"`
	Credits int64     `json:"credits"`
	S3Key   string    `json:"s3_key"`
}

// FolderPrefix returns the object-store namespace that groups an upload's
// source and all of its derived artifacts: "<uploadFolder>/".
func FolderPrefix(s3Key string) string {
	return strings.SplitN(s3Key, "/", 2)[0] + "/"
}
