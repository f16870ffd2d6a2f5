package domain

import (
	"path/filepath"
	"strings"
)

// AssetClass groups uploaded files for reporting
type AssetClass int

const (
	AssetOther AssetClass = iota
	AssetImage
	AssetPDF
)

func (c AssetClass) String() string {
	switch c {
	case AssetImage:
		return "image"
	case AssetPDF:
		return "pdf"
	default:
		return "other"
	}
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".svg":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".ico":  true,
	".heic": true,
	".avif": true,
}

var markdownExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
}

// ClassifyAsset returns the asset class for a file name based on its extension
func ClassifyAsset(name string) AssetClass {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case ext == ".pdf":
		return AssetPDF
	case imageExtensions[ext]:
		return AssetImage
	default:
		return AssetOther
	}
}

// IsMarkdown reports whether the file name looks like a vault document
func IsMarkdown(name string) bool {
	return markdownExtensions[strings.ToLower(filepath.Ext(name))]
}

// IsImage reports whether the file name has an image extension
func IsImage(name string) bool {
	return ClassifyAsset(name) == AssetImage
}
