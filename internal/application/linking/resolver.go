// Package linking resolves link and embed targets against the vault tree.
package linking

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"path"
	"regexp"
	"strings"

	"vault2notion/internal/application"
	"vault2notion/internal/application/upload"
	"vault2notion/internal/domain"
	"vault2notion/internal/ports"
)

var schemePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*://`)

// AssetUploader relocates a local file and returns where it now lives
type AssetUploader interface {
	Upload(ctx context.Context, localPath string) (upload.Result, error)
}

// Resolver classifies raw link targets as external URLs, uploaded assets,
// sibling documents or broken references
type Resolver struct {
	catalog  ports.VaultCatalog
	uploader AssetUploader
	logger   *slog.Logger
}

// NewResolver creates a resolver over the given catalog
func NewResolver(catalog ports.VaultCatalog, uploader AssetUploader, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Resolver{
		catalog:  catalog,
		uploader: uploader,
		logger:   logger,
	}
}

// Resolve classifies raw as written in the document at docPath (vault-relative).
// Unresolvable targets come back as Broken with raw preserved and are noted in
// report. The only error is a permanent asset upload failure.
func (r *Resolver) Resolve(ctx context.Context, raw, docPath string, report *domain.ConversionReport) (domain.ResolvedLink, error) {
	if report == nil {
		report = &domain.ConversionReport{}
	}
	broken := func() (domain.ResolvedLink, error) {
		report.BrokenLinks = append(report.BrokenLinks, raw)
		return domain.Broken(raw), nil
	}

	trimmed := strings.TrimSpace(raw)
	if IsExternal(trimmed) {
		return domain.External(trimmed), nil
	}

	target, wiki := ParseTarget(trimmed)
	if target == "" {
		return broken()
	}

	entry, ok := r.locate(target, path.Dir(docPath), wiki)
	if !ok {
		r.logger.Debug("unresolved link", "doc", docPath, "target", raw)
		return broken()
	}

	if entry.IsDir {
		report.DirectoriesSkipped++
		r.logger.Debug("link points at a directory", "doc", docPath, "target", entry.RelPath)
		return domain.Broken(raw), nil
	}

	if domain.IsMarkdown(entry.RelPath) {
		return domain.Document(domain.Slugify(entry.RelPath)), nil
	}

	res, err := r.uploader.Upload(ctx, entry.AbsPath)
	switch {
	case err == nil:
	case errors.Is(err, application.ErrSizeLimitExceeded):
		report.UploadsFailed++
		r.logger.Warn("asset too large, leaving link as text", "doc", docPath, "asset", entry.RelPath, "error", err)
		return broken()
	case errors.Is(err, application.ErrAssetNotFound), errors.Is(err, application.ErrIsDirectory):
		return broken()
	default:
		report.UploadsFailed++
		return domain.ResolvedLink{}, err
	}

	if !res.Cached {
		report.AddUpload(res.Class)
	}
	return domain.Asset(res.URL, res.Class), nil
}

// IsExternal reports whether target carries an absolute URL scheme
func IsExternal(target string) bool {
	if schemePattern.MatchString(target) {
		return true
	}
	lower := strings.ToLower(target)
	return strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:")
}

// ParseTarget strips link decoration and returns the bare vault path.
// Wiki brackets, a display alias after "|", heading or block fragments after
// "#", angle brackets and percent-encoding are removed.
func ParseTarget(raw string) (target string, wiki bool) {
	target = strings.TrimSpace(raw)
	target = strings.TrimPrefix(target, "!")

	if strings.HasPrefix(target, "[[") && strings.HasSuffix(target, "]]") {
		target = target[2 : len(target)-2]
		wiki = true
		if i := strings.Index(target, "|"); i >= 0 {
			target = target[:i]
		}
	}

	if strings.HasPrefix(target, "<") && strings.HasSuffix(target, ">") {
		target = target[1 : len(target)-1]
	}
	if i := strings.Index(target, "#"); i >= 0 {
		target = target[:i]
	}
	if decoded, err := url.PathUnescape(target); err == nil {
		target = decoded
	}

	target = strings.ReplaceAll(strings.TrimSpace(target), `\`, "/")
	return target, wiki
}

func (r *Resolver) locate(target, docFolder string, wiki bool) (domain.VaultEntry, bool) {
	candidates := []string{target}
	if wiki && !domain.IsMarkdown(target) {
		candidates = []string{target + ".md", target}
	}

	bases := []string{docFolder, ""}
	if strings.HasPrefix(target, "/") || docFolder == "." || docFolder == "" {
		bases = []string{""}
	}

	for _, fold := range []bool{false, true} {
		for _, base := range bases {
			for _, cand := range candidates {
				rel, ok := joinInside(base, cand)
				if !ok {
					continue
				}
				lookup := r.catalog.Lookup
				if fold {
					lookup = r.catalog.LookupFold
				}
				if entry, found := lookup(rel); found {
					return entry, true
				}
			}
		}
	}

	// Obsidian shortest-path links name a file anywhere in the vault
	for _, cand := range candidates {
		clean := strings.TrimPrefix(path.Clean("/"+cand), "/")
		if clean == "" || strings.HasPrefix(cand, "..") {
			continue
		}
		suffix := "/" + strings.ToLower(clean)
		for _, entry := range r.catalog.FindByName(path.Base(clean)) {
			rel := strings.ToLower(entry.RelPath)
			if rel == strings.ToLower(clean) || strings.HasSuffix(rel, suffix) {
				return entry, true
			}
		}
	}

	return domain.VaultEntry{}, false
}

// joinInside joins a vault-relative base and target, refusing results that
// leave the vault root
func joinInside(base, target string) (string, bool) {
	target = strings.TrimPrefix(target, "/")
	rel := path.Clean(path.Join(base, target))
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") || strings.HasPrefix(rel, "/") {
		return "", false
	}
	return rel, true
}
