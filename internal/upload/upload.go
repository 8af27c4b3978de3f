// Package upload stores poster files.  Every backend reports what it stored
// as a Result tagged Local or Remote so callers never guess from its shape.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ResultKind tags where a poster was stored.
type ResultKind int

const (
	Local  ResultKind = iota + 1 // file in the local upload directory; Name is set
	Remote                       // object in remote storage; URL is set
)

func (k ResultKind) String() string {
	switch k {
	case Local:
		return "local"
	case Remote:
		return "remote"
	}
	return "unknown"
}

// LocalPrefix is the URL path local posters are served under.
const LocalPrefix = "/uploads/"

// Result is the outcome of storing one file.
type Result struct {
	Kind ResultKind
	Name string // Local: file name inside the upload directory
	URL  string // Remote: absolute URL of the stored object
}

// LocalResult and RemoteResult build tagged results.
func LocalResult(name string) Result { return Result{Kind: Local, Name: name} }
func RemoteResult(url string) Result  { return Result{Kind: Remote, URL: url} }

// Store persists poster files.  Remove discards a previously stored file and
// ignores results that belong to another backend.
type Store interface {
	Save(ctx context.Context, fh *multipart.FileHeader) (Result, error)
	Remove(ctx context.Context, r Result) error
}

var (
	ErrTooLarge        = errors.New("poster file is too large")
	ErrUnsupportedType = errors.New("poster must be a JPEG, PNG, WebP or GIF image")
)

// allowedTypes maps sniffed content types to the extension stored files get.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Check enforces the size cap (when maxBytes > 0) and sniffs the content
// type from the first bytes of the file.  It returns the detected type.
func Check(fh *multipart.FileHeader, maxBytes int64) (string, error) {
	if maxBytes > 0 && fh.Size > maxBytes {
		return "", fmt.Errorf("%w (limit %d bytes)", ErrTooLarge, maxBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	return sniff(f)
}

func sniff(r io.Reader) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	ct := http.DetectContentType(head[:n])
	if _, ok := allowedTypes[ct]; !ok {
		return "", ErrUnsupportedType
	}
	return ct, nil
}

// objectName returns a collision-free name such as 1700000000000-<uuid>.jpg.
func objectName(contentType string) string {
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString(), allowedTypes[contentType])
}
