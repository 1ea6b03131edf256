package tcforge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ArtifactStore pushes finished packages to an S3-compatible bucket.
// Credentials and region come from the SDK's default chain.
type ArtifactStore struct {
	client *s3.Client
	bucket string
}

func NewArtifactStore(ctx context.Context, bucket string) (*ArtifactStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("no upload bucket configured")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}
	return &ArtifactStore{
		client: s3.NewFromConfig(awsCfg),
		bucket: bucket,
	}, nil
}

// UploadFile uploads one local file under its base name.
func (s *ArtifactStore) UploadFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return err
	}

	key := filepath.Base(path)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(stat.Size()),
		ContentType:   aws.String(contentTypeFor(key)),
	})
	return err
}

func contentTypeFor(key string) string {
	switch {
	case strings.HasSuffix(key, ".gz"):
		return "application/gzip"
	case strings.HasSuffix(key, ".xz"):
		return "application/x-xz"
	case strings.HasSuffix(key, ".b3sum"):
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

// UploadArtifacts pushes the archive and its checksum sidecar.
func UploadArtifacts(ctx context.Context, bucket string, paths ...string) error {
	store, err := NewArtifactStore(ctx, bucket)
	if err != nil {
		return err
	}
	for _, p := range paths {
		colArrow.Print("-> ")
		colSuccess.Printf("Uploading %s to %s\n", filepath.Base(p), bucket)
		if err := store.UploadFile(ctx, p); err != nil {
			return fmt.Errorf("failed to upload %s: %w", filepath.Base(p), err)
		}
	}
	return nil
}
