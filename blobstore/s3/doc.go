// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion("us-east-1"))
//	client := s3.NewFromConfig(cfg)
//	store := s3blob.NewStore(client, "my-bucket", "assets/")
//
//	exec := executor.New(store)
//	mgr, err := assetstream.New(assetstream.DefaultConfig(), exec)
//
// # Features
//
//   - Range reads for partial fetches
//   - Managed (multipart) uploads when the client supports them
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
