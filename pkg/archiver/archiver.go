// Package archiver copies quarantined files to S3 so the local quarantine
// can be cleaned up without losing anything.
package archiver

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/yuya-takeyama/mdsweep/internal/checksum"
	"github.com/yuya-takeyama/mdsweep/pkg/planner"
	"github.com/yuya-takeyama/mdsweep/pkg/s3client"
)

type Status string

const (
	StatusUploaded Status = "uploaded"
	StatusSkipped  Status = "skipped" // same checksum already stored
	StatusFailed   Status = "failed"
)

type Archiver struct {
	client      s3client.Client
	log         *zap.Logger
	bucket      string
	prefix      string
	concurrency int
}

func NewArchiver(client s3client.Client, log *zap.Logger, s3URI string, concurrency int) (*Archiver, error) {
	bucket, prefix, err := s3client.ParseS3URI(s3URI)
	if err != nil {
		return nil, fmt.Errorf("invalid S3 URI: %w", err)
	}
	if concurrency <= 0 {
		concurrency = 8
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Archiver{
		client:      client,
		log:         log,
		bucket:      bucket,
		prefix:      prefix,
		concurrency: concurrency,
	}, nil
}

type Result struct {
	Item   planner.Item
	URI    string
	Status Status
	Error  error
}

// Archive uploads the quarantined copy (Item.Target) of every item
func (a *Archiver) Archive(ctx context.Context, items []planner.Item) []Result {
	results := make([]Result, len(items))

	sem := make(chan struct{}, a.concurrency)
	var wg sync.WaitGroup

	for i, item := range items {
		wg.Add(1)
		go func(idx int, itm planner.Item) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			key := s3client.ObjectKey(a.prefix, itm.RelPath)
			uri := fmt.Sprintf("s3://%s/%s", a.bucket, key)

			status, err := a.archiveItem(ctx, itm, key)
			if err != nil {
				status = StatusFailed
				a.log.Error("Failed to archive file",
					zap.String("path", itm.Target),
					zap.String("uri", uri),
					zap.Error(err))
			} else {
				a.log.Info("archive", zap.String("path", itm.Target), zap.String("uri", uri), zap.String("status", string(status)))
			}

			results[idx] = Result{
				Item:   itm,
				URI:    uri,
				Status: status,
				Error:  err,
			}
		}(i, item)
	}

	wg.Wait()
	return results
}

func (a *Archiver) archiveItem(ctx context.Context, item planner.Item, key string) (Status, error) {
	localChecksum, err := checksum.CalculateFile(item.Target)
	if err != nil {
		return StatusFailed, fmt.Errorf("failed to calculate checksum: %w", err)
	}

	existing, err := a.client.HeadObject(ctx, &s3client.HeadObjectRequest{
		Bucket: a.bucket,
		Key:    key,
	})
	if err != nil {
		return StatusFailed, err
	}
	if existing != nil && existing.Checksum == localChecksum {
		return StatusSkipped, nil
	}

	file, err := os.Open(item.Target)
	if err != nil {
		return StatusFailed, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return StatusFailed, fmt.Errorf("failed to stat file: %w", err)
	}

	err = a.client.PutObject(ctx, &s3client.PutObjectRequest{
		Bucket:      a.bucket,
		Key:         key,
		Body:        file,
		Size:        info.Size(),
		Checksum:    localChecksum,
		ContentType: guessContentType(item.Target),
	})
	if err != nil {
		return StatusFailed, fmt.Errorf("failed to upload: %w", err)
	}

	return StatusUploaded, nil
}
