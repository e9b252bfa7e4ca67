package model

import (
	"encoding/json"
	"time"
)

// Sheet is one uploaded spreadsheet: the first worksheet flattened into
// header-keyed row objects.
type Sheet struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Uploader   string          `json:"uploader,omitempty"` // Joined username
	FileName   string          `json:"file_name"`
	Slug       string          `json:"slug"`
	SheetName  string          `json:"sheet_name"`
	Headers    []string        `json:"headers"`
	Rows       json.RawMessage `json:"rows,omitempty"` // JSON array of header-keyed objects
	UploadedAt time.Time       `json:"uploaded_at"`
}

// SheetSummary is the history-listing projection: metadata without rows.
type SheetSummary struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Uploader   string    `json:"uploader"`
	FileName   string    `json:"file_name"`
	Slug       string    `json:"slug"`
	SheetName  string    `json:"sheet_name"`
	Headers    []string  `json:"headers"`
	UploadedAt time.Time `json:"uploaded_at"`
}
