package utils

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

// acceptedUploadTypes are the content types allowed for receipt and
// renewal-proof uploads
var acceptedUploadTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"application/pdf": true,
}

// ValidateUpload checks the content type and size of an uploaded document
func ValidateUpload(file *multipart.FileHeader, maxSizeBytes int64) error {
	if file == nil {
		return fmt.Errorf("file is required")
	}
	if file.Size > maxSizeBytes {
		return fmt.Errorf("file exceeds maximum size of %d MB", maxSizeBytes>>20)
	}

	contentType := file.Header.Get("Content-Type")
	if !acceptedUploadTypes[contentType] {
		return fmt.Errorf("unsupported file type %q: accepted types are JPEG, PNG, GIF and PDF", contentType)
	}

	return nil
}

// UploadFilename builds a collision-free, filesystem-safe name for an
// uploaded document, e.g. receipt_abebe-bikila_20250107T101500.pdf
func UploadFilename(kind, ownerName, originalName string) string {
	base := slug.Make(ownerName)
	if base == "" {
		base = "user"
	}
	timestamp := time.Now().UTC().Format("20060102T150405")
	ext := strings.ToLower(filepath.Ext(originalName))
	return fmt.Sprintf("%s_%s_%s%s", kind, base, timestamp, ext)
}
