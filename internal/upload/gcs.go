package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore uploads posters to a Google Cloud Storage bucket and returns the
// object's public URL.  The bucket is expected to grant public read access
// (uniform bucket-level "allUsers: Storage Object Viewer").
type GCSStore struct {
	Client        *storage.Client
	Bucket        string
	Prefix        string // object path prefix, e.g. "posters/"
	PublicBaseURL string // defaults to https://storage.googleapis.com
}

// NewGCSClient builds a storage client, using credentialsFile when given and
// application default credentials otherwise.
func NewGCSClient(ctx context.Context, credentialsFile string) (*storage.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage.NewClient failed: %w", err)
	}
	return client, nil
}

func NewGCSStore(client *storage.Client, bucket, publicBaseURL string) *GCSStore {
	if publicBaseURL == "" {
		publicBaseURL = "https://storage.googleapis.com"
	}
	return &GCSStore{
		Client:        client,
		Bucket:        strings.TrimSpace(bucket),
		Prefix:        "posters/",
		PublicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (s *GCSStore) Save(ctx context.Context, fh *multipart.FileHeader) (Result, error) {
	if s.Client == nil || s.Bucket == "" {
		return Result{}, errors.New("gcs upload store is not configured")
	}
	src, err := fh.Open()
	if err != nil {
		return Result{}, err
	}
	defer src.Close()

	ct, err := sniff(src)
	if err != nil {
		return Result{}, err
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return Result{}, err
	}

	object := s.Prefix + objectName(ct)
	w := s.Client.Bucket(s.Bucket).Object(object).NewWriter(ctx)
	w.ContentType = ct
	w.CacheControl = "public, max-age=86400"
	w.Metadata = map[string]string{
		"uploadedAt":   time.Now().UTC().Format(time.RFC3339),
		"originalName": fh.Filename,
	}
	if _, err := io.Copy(w, src); err != nil {
		_ = w.Close()
		return Result{}, fmt.Errorf("upload poster: %w", err)
	}
	if err := w.Close(); err != nil {
		return Result{}, fmt.Errorf("upload poster: %w", err)
	}
	return RemoteResult(s.objectURL(object)), nil
}

func (s *GCSStore) Remove(ctx context.Context, r Result) error {
	if r.Kind != Remote {
		return nil
	}
	object, ok := s.objectFromURL(r.URL)
	if !ok {
		return nil
	}
	err := s.Client.Bucket(s.Bucket).Object(object).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return err
	}
	return nil
}

func (s *GCSStore) objectURL(object string) string {
	return s.PublicBaseURL + "/" + s.Bucket + "/" + object
}

// objectFromURL reverses objectURL; URLs of other buckets are not ours.
func (s *GCSStore) objectFromURL(url string) (string, bool) {
	prefix := s.PublicBaseURL + "/" + s.Bucket + "/"
	if !strings.HasPrefix(url, prefix) || len(url) == len(prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}
