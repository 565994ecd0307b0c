package models

import "time"

// BatchStatus is the lifecycle state of an import batch. A batch moves
// uploaded -> mapped -> processing -> completed/failed and is never
// resurrected from a terminal state.
type BatchStatus string

const (
	BatchStatusUploaded   BatchStatus = "uploaded"
	BatchStatusMapped     BatchStatus = "mapped"
	BatchStatusProcessing BatchStatus = "processing"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusFailed     BatchStatus = "failed"
)

// FileKind is the declared spreadsheet format of an upload.
type FileKind string

const (
	FileKindCSV  FileKind = "csv"
	FileKindXLSX FileKind = "xlsx"
)

// ImportBatch is one import attempt tied to a single uploaded file.
//
// Headers carries the original column order; Rows are keyed by header name,
// so every order-sensitive iteration must walk Headers rather than range
// over the row maps. Headers and Rows are immutable after upload; the
// counters and error list are written once, at the terminal transition.
type ImportBatch struct {
	ID             string              `bson:"_id" json:"id"`
	OwnerID        string              `bson:"owner_id" json:"owner_id"`
	Filename       string              `bson:"filename" json:"filename"`
	Kind           FileKind            `bson:"kind" json:"kind"`
	Status         BatchStatus         `bson:"status" json:"status"`
	Headers        []string            `bson:"headers" json:"headers"`
	Rows           []map[string]string `bson:"rows" json:"-"`
	RowCount       int                 `bson:"row_count" json:"row_count"`
	Preview        []map[string]string `bson:"preview" json:"preview"`
	Mapping        map[string]string   `bson:"mapping,omitempty" json:"mapping,omitempty"`
	RecordsCreated int                 `bson:"records_created" json:"records_created"`
	RowsSkipped    int                 `bson:"rows_skipped" json:"rows_skipped"`
	Errors         []string            `bson:"errors" json:"errors"`
	CreatedAt      time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time           `bson:"updated_at" json:"updated_at"`
}

// ImportResult summarizes one processing run. Every input row is accounted
// for exactly once: records_created + rows_skipped + len(errors) == row_count.
type ImportResult struct {
	RecordsCreated int         `json:"records_created"`
	RowsSkipped    int         `json:"rows_skipped"`
	Errors         []string    `json:"errors"`
	Status         BatchStatus `json:"status"`
}
