package model

import "time"

// Document is the persisted record for one uploaded file.
// FilePath is relative to the blob store root prefix (e.g. "documents/1700000000_report.pdf").
type Document struct {
	ID        string    `json:"id"`
	FilePath  string    `json:"file_path"`
	FileType  string    `json:"file_type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
