package covers

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"crosspost/core/post"
	"crosspost/core/storage"

	"github.com/minio/minio-go/v7"
)

// Resolver turns a post's main_image into a URL platforms can fetch.
// Absolute URLs pass through untouched; paths inside the repository are
// uploaded to the configured bucket and replaced by the public URL.
type Resolver struct {
	client storage.Client
	cfg    storage.Config

	bucketChecked bool
}

// NewResolver creates a cover resolver backed by the given storage
// client.
func NewResolver(client storage.Client, cfg storage.Config) *Resolver {
	return &Resolver{client: client, cfg: cfg}
}

// Resolve sets p.CoverURL. Uploads are keyed by post, with the image's
// original extension, so re-publishing a post overwrites its cover
// object rather than accumulating copies.
func (r *Resolver) Resolve(ctx context.Context, p *post.Post) error {
	img := p.Settings.MainImage
	if img == "" {
		p.CoverURL = ""
		return nil
	}
	if strings.HasPrefix(img, "http://") || strings.HasPrefix(img, "https://") {
		p.CoverURL = img
		return nil
	}

	local := filepath.Join(p.Root, img)
	info, err := os.Stat(local)
	if err != nil {
		return fmt.Errorf("post %s: cover image %s: %w", p.Key, img, err)
	}

	if err := r.ensureBucket(ctx); err != nil {
		return err
	}

	f, err := os.Open(local)
	if err != nil {
		return fmt.Errorf("post %s: opening cover image: %w", p.Key, err)
	}
	defer f.Close()

	objectName := string(p.Key) + filepath.Ext(img)
	contentType := mime.TypeByExtension(filepath.Ext(img))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = r.client.PutObject(ctx, r.cfg.Bucket, objectName, f, info.Size(), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("post %s: uploading cover image: %w", p.Key, err)
	}

	p.CoverURL = r.publicURL(objectName)
	return nil
}

func (r *Resolver) ensureBucket(ctx context.Context) error {
	if r.bucketChecked {
		return nil
	}
	exists, err := r.client.BucketExists(ctx, r.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("checking bucket %s: %w", r.cfg.Bucket, err)
	}
	if !exists {
		if err := r.client.MakeBucket(ctx, r.cfg.Bucket, minio.MakeBucketOptions{Region: r.cfg.Region}); err != nil {
			return fmt.Errorf("creating bucket %s: %w", r.cfg.Bucket, err)
		}
	}
	r.bucketChecked = true
	return nil
}

func (r *Resolver) publicURL(objectName string) string {
	base := r.cfg.PublicBaseURL
	if base == "" {
		scheme := "http"
		if r.cfg.UseSSL {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s/%s", scheme, r.cfg.Endpoint, r.cfg.Bucket)
	}
	return strings.TrimSuffix(base, "/") + "/" + objectName
}
