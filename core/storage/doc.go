// Package storage provides an abstraction layer for object storage
// services.
//
// It wraps the MinIO Go client to provide a simplified interface for
// the operations the cover-image uploader needs: checking bucket
// existence, creating the bucket, and uploading objects. This
// abstraction supports both AWS S3 and self-hosted MinIO instances.
//
// The Client interface makes storage interactions mockable for unit
// testing (see core/storage/mocks).
package storage
