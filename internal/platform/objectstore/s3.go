// Package objectstore stores uploaded files in S3-compatible storage.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Store accepts byte buffers and returns the URL they are reachable at.
type Store interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Config describes the bucket and credentials.
type Config struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	PublicURL    string
	UsePathStyle bool
}

// S3Store implements Store on top of the AWS SDK.
type S3Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewS3Store builds a client for cfg. Endpoint may point to any
// S3-compatible service such as MinIO.
func NewS3Store(cfg Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("objectstore: bucket required")
	}
	opts := s3.Options{
		Region:                     cfg.Region,
		UsePathStyle:               cfg.UsePathStyle,
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
	}
	if cfg.AccessKey != "" {
		access, secret := cfg.AccessKey, cfg.SecretKey
		opts.Credentials = aws.NewCredentialsCache(aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: access, SecretAccessKey: secret, Source: "fleet-config"}, nil
		}))
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return &S3Store{
		client:    s3.New(opts),
		bucket:    cfg.Bucket,
		publicURL: publicBase(cfg),
	}, nil
}

func publicBase(cfg Config) string {
	if cfg.PublicURL != "" {
		return strings.TrimRight(cfg.PublicURL, "/")
	}
	if cfg.Endpoint != "" {
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
}

// Put uploads body under key.
func (s *S3Store) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("objectstore: put %s: %w", key, err)
	}
	return s.URL(key), nil
}

// Delete removes key. Missing keys are not an error.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("objectstore: delete %s: %w", key, err)
	}
	return nil
}

// URL returns the public URL for key.
func (s *S3Store) URL(key string) string {
	return s.publicURL + "/" + (&url.URL{Path: key}).EscapedPath()
}

var _ Store = (*S3Store)(nil)
