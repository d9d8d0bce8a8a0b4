// Package minio provides a blobstore.BlobStore backed by MinIO or any
// S3-compatible object store reachable through minio-go.
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//		Creds: credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	})
//	store := minioblob.NewStore(client, "assets", "level1/")
package minio
