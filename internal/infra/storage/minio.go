package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bryanwahyu/ticket-assist/internal/domain/analysis"
)

// Store keeps a JSON copy of every finished analysis run in an S3 compatible bucket.
type Store struct {
	client     *minio.Client
	bucketName string
	region     string
}

// New connects to MinIO and makes sure the bucket exists
func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("checking bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, fmt.Errorf("creating bucket %s: %w", bucket, err)
		}
	}

	return &Store{client: cli, bucketName: bucket, region: region}, nil
}

// Put uploads the run and its rows as runs/<id>.json and returns the object URL.
func (s *Store) Put(ctx context.Context, res *analysis.Result) (string, error) {
	body, key, err := encodeResult(res)
	if err != nil {
		return "", err
	}

	_, err = s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", err
	}

	// private buckets need a presigned URL instead
	return s.objectURL(key), nil
}

func encodeResult(res *analysis.Result) ([]byte, string, error) {
	if res == nil || res.Run == nil {
		return nil, "", fmt.Errorf("archive: missing run")
	}
	body, err := json.Marshal(res)
	if err != nil {
		return nil, "", err
	}
	return body, runKey(res.Run.ID), nil
}

func runKey(id int64) string {
	return fmt.Sprintf("runs/%d.json", id)
}

// objectURL follows the client endpoint, so TLS deployments get https links
func (s *Store) objectURL(key string) string {
	u := s.client.EndpointURL()
	return fmt.Sprintf("%s://%s/%s/%s", u.Scheme, u.Host, s.bucketName, key)
}

var _ analysis.Archive = (*Store)(nil)
