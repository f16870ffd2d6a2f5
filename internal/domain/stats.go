package domain

import "time"

// ConversionReport tallies what happened while converting one document
type ConversionReport struct {
	ImagesUploaded     int
	PDFsUploaded       int
	OthersUploaded     int
	UploadsFailed      int
	DirectoriesSkipped int
	BrokenLinks        []string // Original text of every unresolved link
	Degradations       int      // Constructs downgraded to simpler blocks
}

// AddUpload counts one successful upload of the given class
func (r *ConversionReport) AddUpload(class AssetClass) {
	switch class {
	case AssetImage:
		r.ImagesUploaded++
	case AssetPDF:
		r.PDFsUploaded++
	default:
		r.OthersUploaded++
	}
}

// MigrationStats accumulates outcomes across a run
type MigrationStats struct {
	Succeeded          int
	Failed             int
	Partial            int
	Skipped            int
	ImagesUploaded     int
	PDFsUploaded       int
	OthersUploaded     int
	UploadsFailed      int
	DirectoriesSkipped int
	BrokenLinks        int
	Degradations       int
	Duration           time.Duration
}

// Merge folds a document's conversion report into the run totals
func (s *MigrationStats) Merge(r ConversionReport) {
	s.ImagesUploaded += r.ImagesUploaded
	s.PDFsUploaded += r.PDFsUploaded
	s.OthersUploaded += r.OthersUploaded
	s.UploadsFailed += r.UploadsFailed
	s.DirectoriesSkipped += r.DirectoriesSkipped
	s.BrokenLinks += len(r.BrokenLinks)
	s.Degradations += r.Degradations
}

// TotalUploaded returns the number of assets uploaded across all classes
func (s MigrationStats) TotalUploaded() int {
	return s.ImagesUploaded + s.PDFsUploaded + s.OthersUploaded
}

// Documents returns the number of documents with a recorded outcome
func (s MigrationStats) Documents() int {
	return s.Succeeded + s.Failed + s.Partial + s.Skipped
}

// DocumentStatus is the outcome recorded for a single document
type DocumentStatus string

const (
	StatusPending  DocumentStatus = "pending"
	StatusMigrated DocumentStatus = "migrated"
	StatusPartial  DocumentStatus = "partial"
	StatusFailed   DocumentStatus = "failed"
	StatusSkipped  DocumentStatus = "skipped"
)

// DocumentOutcome is the per-document result reported by the orchestrator
type DocumentOutcome struct {
	Document      VaultDocument
	Status        DocumentStatus
	PageID        string
	BlocksTotal   int
	BlocksEmitted int
	Report        ConversionReport
	Err           error
}
