package s3client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

const (
	defaultMaxRetries = 5
	defaultBaseDelay  = 100 * time.Millisecond
	defaultMaxDelay   = 30 * time.Second
)

// AWSClient talks to S3, uploading through the transfer manager so large
// media files go multipart.
type AWSClient struct {
	client     *s3.Client
	uploader   *manager.Uploader
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

func NewAWSClient(cfg aws.Config) *AWSClient {
	client := s3.NewFromConfig(cfg)
	return &AWSClient{
		client:     client,
		uploader:   manager.NewUploader(client),
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
	}
}

func (c *AWSClient) HeadObject(ctx context.Context, req *HeadObjectRequest) (*ObjectInfo, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		resp, err := c.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket:       aws.String(req.Bucket),
			Key:          aws.String(req.Key),
			ChecksumMode: types.ChecksumModeEnabled,
		})
		if err == nil {
			info := &ObjectInfo{
				Size: aws.ToInt64(resp.ContentLength),
			}
			if resp.ChecksumCRC64NVME != nil {
				info.Checksum = *resp.ChecksumCRC64NVME
			}
			return info, nil
		}

		if isNotFound(err) {
			return nil, nil
		}
		if !isRetryableError(err) {
			return nil, fmt.Errorf("failed to head object: %w", err)
		}

		lastErr = err
		if err := c.wait(ctx, attempt); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("failed to head object: max retries exceeded: %w", lastErr)
}

// PutObject is not retried here; the transfer manager retries parts itself
// and the body reader cannot be rewound.
func (c *AWSClient) PutObject(ctx context.Context, req *PutObjectRequest) error {
	input := &s3.PutObjectInput{
		Bucket:            aws.String(req.Bucket),
		Key:               aws.String(req.Key),
		Body:              req.Body,
		ChecksumAlgorithm: types.ChecksumAlgorithmCrc64nvme,
	}

	if req.ContentType != "" {
		input.ContentType = aws.String(req.ContentType)
	}

	// Single-part uploads let S3 verify the full-object checksum
	if req.Checksum != "" && req.Size < c.uploader.PartSize {
		input.ChecksumCRC64NVME = aws.String(req.Checksum)
	}

	if _, err := c.uploader.Upload(ctx, input); err != nil {
		return fmt.Errorf("failed to put object: %w", err)
	}

	return nil
}

func (c *AWSClient) wait(ctx context.Context, attempt int) error {
	if attempt >= c.maxRetries {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(calculateDelay(attempt, c.baseDelay, c.maxDelay)):
		return nil
	}
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound" {
		return true
	}
	return false
}

// isRetryableError checks if an error is retryable
func isRetryableError(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "SlowDown", "ServiceUnavailable", "RequestTimeout", "RequestTimeoutException":
			return true
		}
		// Retry on 5xx errors
		if httpErr, ok := apiErr.(interface{ HTTPStatusCode() int }); ok {
			code := httpErr.HTTPStatusCode()
			return code >= http.StatusInternalServerError && code < 600
		}
	}
	// Also retry on network errors
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF)
}

// calculateDelay calculates the retry delay with exponential backoff and jitter
func calculateDelay(attempt int, baseDelay, maxDelay time.Duration) time.Duration {
	base := float64(baseDelay)
	delay := base * math.Pow(2.0, float64(attempt))

	// Add jitter (±25%)
	jitter := delay * 0.25 * (2*rand.Float64() - 1)
	delay += jitter

	// Cap at maxDelay
	if delay > float64(maxDelay) {
		delay = float64(maxDelay)
	}

	return time.Duration(delay)
}
