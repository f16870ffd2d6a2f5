package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"vault2notion/internal/adapters/obsidian"
	"vault2notion/internal/application/commands"
	"vault2notion/internal/domain"
)

func sampleRun() Run {
	return Run{
		Vault:    "/vault/Notes",
		Database: "0123abcd456789abcdef0123456789ab",
		Result: &commands.MigrateResult{
			RunID:     "run-1",
			StartedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
			Stats: domain.MigrationStats{
				Succeeded:      2,
				Partial:        1,
				Failed:         1,
				ImagesUploaded: 3,
				BrokenLinks:    2,
				Duration:       1500 * time.Millisecond,
			},
			Outcomes: []domain.DocumentOutcome{
				{Document: domain.VaultDocument{RelPath: "ok.md"}, Status: domain.StatusMigrated},
				{
					Document: domain.VaultDocument{RelPath: "Daily/big.md"},
					Status:   domain.StatusPartial, BlocksEmitted: 100, BlocksTotal: 150,
					Err: errors.New("append blocks: HTTP 400"),
				},
				{
					Document: domain.VaultDocument{RelPath: "bad.md"},
					Status:   domain.StatusFailed,
					Err:      errors.New("upload x.png: forbidden"),
					Report:   domain.ConversionReport{BrokenLinks: []string{"[[gone]]", "![`odd`](x)"}},
				},
			},
		},
	}
}

func TestMarkdownWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	w := NewMarkdownWriter(&buf, obsidian.NewOpener("/vault/Notes"))

	if err := w.Write(sampleRun()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"# Vault Migration Report",
		"run-1",
		"## Summary",
		"Images uploaded",
		"## Documents Needing Attention",
		"[bad.md](obsidian://open?vault=Notes&file=bad)",
		"100 / 150",
		"## Broken Links",
		"`[[gone]]`",
		"1 document(s) failed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "ok.md") {
		t.Error("clean document listed in report")
	}
}

func TestMarkdownWriter_CleanRun(t *testing.T) {
	run := Run{
		Vault:    "/v",
		Database: "db",
		DryRun:   true,
		Result: &commands.MigrateResult{
			RunID: "r",
			Stats: domain.MigrationStats{Succeeded: 4},
		},
	}

	var buf bytes.Buffer
	if err := NewMarkdownWriter(&buf, nil).Write(run); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "dry run") || !strings.Contains(out, "Every document was migrated.") {
		t.Errorf("unexpected report:\n%s", out)
	}
	if strings.Contains(out, "Broken Links") || strings.Contains(out, "Needing Attention") {
		t.Errorf("empty sections rendered:\n%s", out)
	}
}

func TestSummary(t *testing.T) {
	s := Summary(domain.MigrationStats{Succeeded: 1, Failed: 2, PDFsUploaded: 3, DirectoriesSkipped: 4})

	for _, want := range []string{"1 migrated", "2 failed", "3 PDFs", "Skipped directories: 4"} {
		if !strings.Contains(s, want) {
			t.Errorf("summary missing %q: %s", want, s)
		}
	}
}

func TestWriteOutcomes(t *testing.T) {
	var buf bytes.Buffer
	WriteOutcomes(&buf, sampleRun().Result.Outcomes)

	out := buf.String()
	if strings.Count(out, "\n") != 2 || !strings.Contains(out, "Daily/big.md (100/150 blocks)") {
		t.Errorf("outcomes = %q", out)
	}
}

func TestTruncateString(t *testing.T) {
	if got := truncateString("abcdef", 5); got != "ab..." {
		t.Errorf("truncateString = %q", got)
	}
	if got := truncateString("abc", 5); got != "abc" {
		t.Errorf("truncateString = %q", got)
	}
}
