package report

import (
	"fmt"
	"io"
	"strings"

	"vault2notion/internal/domain"
)

// Summary returns the plain text run summary printed at the end of a
// migration and copied by the progress view
func Summary(s domain.MigrationStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Documents: %d migrated, %d partial, %d failed, %d unchanged\n",
		s.Succeeded, s.Partial, s.Failed, s.Skipped)
	fmt.Fprintf(&b, "Uploads: %d images, %d PDFs, %d other, %d failed\n",
		s.ImagesUploaded, s.PDFsUploaded, s.OthersUploaded, s.UploadsFailed)
	fmt.Fprintf(&b, "Skipped directories: %d\n", s.DirectoriesSkipped)
	fmt.Fprintf(&b, "Broken links: %d, simplified constructs: %d\n", s.BrokenLinks, s.Degradations)
	if s.Duration > 0 {
		fmt.Fprintf(&b, "Duration: %s\n", s.Duration.Round(1e6))
	}
	return b.String()
}

// WriteOutcomes prints one line per document that did not migrate cleanly
func WriteOutcomes(w io.Writer, outcomes []domain.DocumentOutcome) {
	for _, o := range outcomes {
		switch o.Status {
		case domain.StatusFailed, domain.StatusPartial:
			fmt.Fprintf(w, "  %-8s %s (%d/%d blocks): %v\n", o.Status, o.Document.RelPath, o.BlocksEmitted, o.BlocksTotal, o.Err)
		}
	}
}
