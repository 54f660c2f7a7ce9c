package s3

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL overrides the base used for public links, e.g. a CDN in
	// front of the bucket. Keys are appended directly to it.
	PublicURL string
}

// Store keeps gallery media in an S3-compatible bucket. Objects are expected
// to be publicly readable.
type Store struct {
	client     *minio.Client
	bucket     string
	publicBase string

	ensureOnce sync.Once
	ensureErr  error
}

func New(cfg Config) (*Store, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	bucket := strings.TrimSpace(cfg.Bucket)
	publicBase := strings.TrimRight(cfg.PublicURL, "/")
	if publicBase == "" {
		publicBase = strings.TrimRight(client.EndpointURL().String(), "/") + "/" + bucket
	}

	return &Store{client: client, bucket: bucket, publicBase: publicBase}, nil
}

// EnsureBucket creates the bucket on first use and makes its objects
// anonymously readable. An existing bucket keeps the policy it has.
func (s *Store) EnsureBucket(ctx context.Context) error {
	s.ensureOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.ensureErr = err
			return
		}
		if exists {
			return
		}
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			s.ensureErr = err
			return
		}
		policy, err := publicReadPolicy(s.bucket)
		if err != nil {
			s.ensureErr = err
			return
		}
		if err := s.client.SetBucketPolicy(ctx, s.bucket, policy); err != nil {
			s.ensureErr = fmt.Errorf("set public read policy: %w", err)
		}
	})

	if s.ensureErr != nil {
		return fmt.Errorf("ensure s3 bucket %q: %w", s.bucket, s.ensureErr)
	}
	return nil
}

type policyStatement struct {
	Effect    string              `json:"Effect"`
	Principal map[string][]string `json:"Principal"`
	Action    []string            `json:"Action"`
	Resource  []string            `json:"Resource"`
}

type bucketPolicy struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

// publicReadPolicy returns a bucket policy allowing anyone to GET objects,
// which the URLs from PublicURL rely on.
func publicReadPolicy(bucket string) (string, error) {
	doc := bucketPolicy{
		Version: "2012-10-17",
		Statement: []policyStatement{{
			Effect:    "Allow",
			Principal: map[string][]string{"AWS": {"*"}},
			Action:    []string{"s3:GetObject"},
			Resource:  []string{"arn:aws:s3:::" + bucket + "/*"},
		}},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode bucket policy: %w", err)
	}
	return string(data), nil
}

func (s *Store) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error {
	if err := s.EnsureBucket(ctx); err != nil {
		return err
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object to s3: %w", err)
	}
	return nil
}

func (s *Store) PublicURL(key string) string {
	return s.publicBase + "/" + key
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
