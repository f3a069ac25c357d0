package storage

import (
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DetectContentType determines the MIME type of an object.
//
// Detection priority:
// 1. If providedType is non-empty, use it directly
// 2. Try to detect from the key extension using mime.TypeByExtension
// 3. Sniff the content from the reader's first bytes
// 4. Fall back to "application/octet-stream"
func DetectContentType(providedType, key string, data io.Reader) string {
	if providedType != "" {
		return providedType
	}

	ext := strings.ToLower(filepath.Ext(key))
	if contentType := mime.TypeByExtension(ext); contentType != "" {
		return contentType
	}

	if data != nil {
		if mtype, err := mimetype.DetectReader(data); err == nil {
			return mtype.String()
		}
	}

	return "application/octet-stream"
}
