package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/arturoeanton/go-ecs-exec-evidence/internal/port"
)

// ObjectFetcher implements port.ArtifactFetcher over S3.
type ObjectFetcher struct {
	downloader *manager.Downloader
}

// NewObjectFetcher creates a fetcher on top of an S3 GetObject client.
func NewObjectFetcher(api manager.DownloadAPIClient) *ObjectFetcher {
	return &ObjectFetcher{downloader: manager.NewDownloader(api)}
}

// NewObjectFetcherFromConfig builds the fetcher from an AWS config.
func NewObjectFetcherFromConfig(cfg aws.Config) *ObjectFetcher {
	return NewObjectFetcher(s3.NewFromConfig(cfg))
}

// Fetch downloads bucket/key into dir and returns the local path. The file
// keeps the object's base name.
func (f *ObjectFetcher) Fetch(ctx context.Context, bucket, key, dir string) (string, error) {
	name := path.Base(key)
	if name == "." || name == "/" {
		return "", fmt.Errorf("%w: object key %q", port.ErrMissingField, key)
	}
	local := filepath.Join(dir, name)

	file, err := os.OpenFile(local, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", local, err)
	}
	defer file.Close()

	n, err := f.downloader.Download(ctx, file, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		os.Remove(local)
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return "", fmt.Errorf("%w: s3://%s/%s", port.ErrObjectNotFound, bucket, key)
		}
		return "", fmt.Errorf("download s3://%s/%s: %w", bucket, key, mapAPIError(err, port.ErrObjectNotFound, "NoSuchKey", "NotFound"))
	}
	slog.Debug("object downloaded", "bucket", bucket, "key", key, "bytes", n)
	return local, nil
}
