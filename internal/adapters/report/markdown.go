// Package report renders migration results for people to read.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"

	"vault2notion/internal/application/commands"
	"vault2notion/internal/domain"
)

// NoteLinker turns a vault-relative note path into a link back to the vault
type NoteLinker interface {
	NoteURI(relPath string) (string, error)
}

// Run describes the migration a report is about
type Run struct {
	Vault    string
	Database string
	DryRun   bool
	Result   *commands.MigrateResult
}

// MarkdownWriter writes a migration report as GitHub flavored markdown
type MarkdownWriter struct {
	output io.Writer
	notes  NoteLinker
}

// NewMarkdownWriter creates a MarkdownWriter. notes may be nil.
func NewMarkdownWriter(output io.Writer, notes NoteLinker) *MarkdownWriter {
	return &MarkdownWriter{output: output, notes: notes}
}

// Write outputs the full report
func (w *MarkdownWriter) Write(run Run) error {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, run)
	w.writeSummary(md, run.Result.Stats)
	w.writeProblems(md, run.Result.Outcomes)
	w.writeBrokenLinks(md, run.Result.Outcomes)
	w.writeFooter(md)

	return md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, run Run) {
	md.H1("Vault Migration Report")
	md.PlainText("")

	mode := "live"
	if run.DryRun {
		mode = "dry run"
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run", "`" + run.Result.RunID + "`"},
			{"Vault", "`" + run.Vault + "`"},
			{"Database", "`" + run.Database + "`"},
			{"Started", run.Result.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", run.Result.Stats.Duration.Round(time.Millisecond).String()},
			{"Mode", mode},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, s domain.MigrationStats) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows: [][]string{
			{"Migrated", strconv.Itoa(s.Succeeded)},
			{"Partial", strconv.Itoa(s.Partial)},
			{"Failed", strconv.Itoa(s.Failed)},
			{"Unchanged (skipped)", strconv.Itoa(s.Skipped)},
			{"**Documents**", "**" + strconv.Itoa(s.Documents()) + "**"},
		},
	})
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Assets and links", "Count"},
		Rows: [][]string{
			{"Images uploaded", strconv.Itoa(s.ImagesUploaded)},
			{"PDFs uploaded", strconv.Itoa(s.PDFsUploaded)},
			{"Other files uploaded", strconv.Itoa(s.OthersUploaded)},
			{"Uploads failed", strconv.Itoa(s.UploadsFailed)},
			{"Directories skipped", strconv.Itoa(s.DirectoriesSkipped)},
			{"Broken links", strconv.Itoa(s.BrokenLinks)},
			{"Simplified constructs", strconv.Itoa(s.Degradations)},
		},
	})
	md.PlainText("")

	switch {
	case s.Failed > 0:
		md.Cautionf("%d document(s) failed and were not migrated.", s.Failed)
	case s.Partial > 0:
		md.Warningf("%d document(s) were only partly migrated; rerun with --force to append them again.", s.Partial)
	case s.BrokenLinks > 0 || s.UploadsFailed > 0:
		md.Note("Every document was migrated, some with unresolved links or assets.")
	default:
		md.Tip("Every document was migrated.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeProblems(md *markdown.Markdown, outcomes []domain.DocumentOutcome) {
	var rows [][]string
	for _, o := range outcomes {
		if o.Status != domain.StatusFailed && o.Status != domain.StatusPartial {
			continue
		}
		errText := "-"
		if o.Err != nil {
			errText = truncateString(strings.ReplaceAll(o.Err.Error(), "|", "\\|"), 80)
		}
		rows = append(rows, []string{
			w.noteLink(o.Document.RelPath),
			string(o.Status),
			fmt.Sprintf("%d / %d", o.BlocksEmitted, o.BlocksTotal),
			errText,
		})
	}
	if len(rows) == 0 {
		return
	}

	md.H2("Documents Needing Attention")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Document", "Status", "Blocks", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeBrokenLinks(md *markdown.Markdown, outcomes []domain.DocumentOutcome) {
	var docs []domain.DocumentOutcome
	for _, o := range outcomes {
		if len(o.Report.BrokenLinks) > 0 {
			docs = append(docs, o)
		}
	}
	if len(docs) == 0 {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].Document.RelPath < docs[j].Document.RelPath
	})

	md.H2("Broken Links")
	md.PlainText("")
	for _, o := range docs {
		links := make([]string, len(o.Report.BrokenLinks))
		for i, l := range o.Report.BrokenLinks {
			links[i] = "`" + strings.ReplaceAll(l, "`", "'") + "`"
		}
		md.PlainText(w.noteLink(o.Document.RelPath))
		md.PlainText("")
		md.BulletList(links...)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by vault2notion on %s*", time.Now().Format("2006-01-02"))
}

// noteLink renders a document path, linked back to the vault when possible
func (w *MarkdownWriter) noteLink(relPath string) string {
	if w.notes == nil {
		return "`" + relPath + "`"
	}
	uri, err := w.notes.NoteURI(relPath)
	if err != nil {
		return "`" + relPath + "`"
	}
	return fmt.Sprintf("[%s](%s)", relPath, uri)
}

// truncateString truncates a string to maxLen characters with ellipsis
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
