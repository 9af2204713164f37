package s3client

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
)

// Client is the subset of S3 used to archive quarantined files
type Client interface {
	HeadObject(ctx context.Context, req *HeadObjectRequest) (*ObjectInfo, error)
	PutObject(ctx context.Context, req *PutObjectRequest) error
}

type HeadObjectRequest struct {
	Bucket string
	Key    string
}

// ObjectInfo is nil when the object does not exist
type ObjectInfo struct {
	Size     int64
	Checksum string
}

type PutObjectRequest struct {
	Bucket      string
	Key         string
	Body        io.Reader
	Size        int64
	Checksum    string
	ContentType string
}

// ParseS3URI splits s3://bucket/prefix into bucket and a cleaned prefix
// without leading or trailing slashes.
func ParseS3URI(uri string) (bucket, prefix string, err error) {
	if !strings.HasPrefix(uri, "s3://") {
		return "", "", fmt.Errorf("URI must start with s3://")
	}

	rest := strings.TrimPrefix(uri, "s3://")
	parts := strings.SplitN(rest, "/", 2)

	bucket = parts[0]
	if bucket == "" {
		return "", "", fmt.Errorf("bucket name cannot be empty")
	}

	if len(parts) > 1 {
		prefix = strings.Trim(path.Clean("/"+parts[1]), "/")
	}

	return bucket, prefix, nil
}

// ObjectKey joins a prefix and a slash-separated relative path
func ObjectKey(prefix, relPath string) string {
	if prefix == "" {
		return relPath
	}
	return prefix + "/" + relPath
}
