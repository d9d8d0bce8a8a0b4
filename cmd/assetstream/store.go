package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hupe1980/assetstream/blobstore"
	minioblob "github.com/hupe1980/assetstream/blobstore/minio"
	s3blob "github.com/hupe1980/assetstream/blobstore/s3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/pflag"
)

// storeOptions selects and configures the blob store backend.
type storeOptions struct {
	Dir string // Local filesystem root.

	S3Bucket string
	S3Prefix string
	S3Region string

	MinioEndpoint  string
	MinioBucket    string
	MinioPrefix    string
	MinioAccessKey string
	MinioSecretKey string
	MinioSecure    bool
}

func newStoreOptions() *storeOptions {
	return &storeOptions{
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
	}
}

// AddFlags binds the store flags to fs.
func (o *storeOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Dir, "dir", o.Dir,
		"Local directory holding asset blobs.")
	fs.StringVar(&o.S3Bucket, "s3-bucket", o.S3Bucket,
		"S3 bucket holding asset blobs. Credentials come from the default AWS chain.")
	fs.StringVar(&o.S3Prefix, "s3-prefix", o.S3Prefix,
		"Key prefix inside the S3 bucket.")
	fs.StringVar(&o.S3Region, "s3-region", o.S3Region,
		"AWS region override.")
	fs.StringVar(&o.MinioEndpoint, "minio-endpoint", o.MinioEndpoint,
		"MinIO endpoint (host:port) holding asset blobs.")
	fs.StringVar(&o.MinioBucket, "minio-bucket", o.MinioBucket,
		"MinIO bucket name.")
	fs.StringVar(&o.MinioPrefix, "minio-prefix", o.MinioPrefix,
		"Key prefix inside the MinIO bucket.")
	fs.StringVar(&o.MinioAccessKey, "minio-access-key", o.MinioAccessKey,
		"MinIO access key. Defaults to $MINIO_ACCESS_KEY.")
	fs.StringVar(&o.MinioSecretKey, "minio-secret-key", o.MinioSecretKey,
		"MinIO secret key. Defaults to $MINIO_SECRET_KEY.")
	fs.BoolVar(&o.MinioSecure, "minio-secure", o.MinioSecure,
		"Use TLS for the MinIO connection.")
}

// Validate checks that exactly one backend is selected.
func (o *storeOptions) Validate() error {
	n := 0
	for _, set := range []bool{o.Dir != "", o.S3Bucket != "", o.MinioEndpoint != ""} {
		if set {
			n++
		}
	}
	switch {
	case n == 0:
		return fmt.Errorf("%w: one of --dir, --s3-bucket or --minio-endpoint is required", errUsage)
	case n > 1:
		return fmt.Errorf("%w: --dir, --s3-bucket and --minio-endpoint are mutually exclusive", errUsage)
	case o.MinioEndpoint != "" && o.MinioBucket == "":
		return fmt.Errorf("%w: --minio-bucket is required with --minio-endpoint", errUsage)
	}
	return nil
}

// Open connects to the selected backend.
func (o *storeOptions) Open(ctx context.Context) (blobstore.BlobStore, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	switch {
	case o.Dir != "":
		return blobstore.NewLocalStore(o.Dir), nil

	case o.S3Bucket != "":
		var loadOpts []func(*config.LoadOptions) error
		if o.S3Region != "" {
			loadOpts = append(loadOpts, config.WithRegion(o.S3Region))
		}
		awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return s3blob.NewStore(s3.NewFromConfig(awsCfg), o.S3Bucket, o.S3Prefix), nil

	case o.MinioEndpoint != "":
		client, err := minio.New(o.MinioEndpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(o.MinioAccessKey, o.MinioSecretKey, ""),
			Secure: o.MinioSecure,
		})
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		return minioblob.NewStore(client, o.MinioBucket, o.MinioPrefix), nil
	}
	return nil, errors.New("no blob store selected")
}
