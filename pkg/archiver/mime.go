package archiver

import (
	"mime"
	"path/filepath"
	"strings"
)

// Image types missing from minimal mime tables on some systems
var mediaTypes = map[string]string{
	".avif": "image/avif",
	".heic": "image/heic",
	".svg":  "image/svg+xml",
	".webp": "image/webp",
}

func guessContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return ""
	}

	if contentType := mime.TypeByExtension(ext); contentType != "" {
		return contentType
	}

	return mediaTypes[ext]
}
