package upload

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}

// fileHeader builds a *multipart.FileHeader the way a parsed request would.
func fileHeader(t *testing.T, name string, data []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("poster", name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["poster"][0]
}

func TestCheck(t *testing.T) {
	ct, err := Check(fileHeader(t, "a.png", pngBytes), 1024)
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)

	_, err = Check(fileHeader(t, "a.png", pngBytes), 4)
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = Check(fileHeader(t, "notes.txt", []byte("hello world")), 0)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestLocalStoreSaveAndRemove(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	s, err := NewLocalStore(dir)
	require.NoError(t, err)

	res, err := s.Save(context.Background(), fileHeader(t, "poster.png", pngBytes))
	require.NoError(t, err)
	assert.Equal(t, Local, res.Kind)
	assert.Empty(t, res.URL)
	assert.Regexp(t, regexp.MustCompile(`^\d+-[0-9a-f-]{36}\.png$`), res.Name)

	stored, err := os.ReadFile(filepath.Join(dir, res.Name))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, stored)

	require.NoError(t, s.Remove(context.Background(), res))
	_, err = os.Stat(filepath.Join(dir, res.Name))
	assert.True(t, os.IsNotExist(err))

	// removing twice, or a remote result, is a no-op
	assert.NoError(t, s.Remove(context.Background(), res))
	assert.NoError(t, s.Remove(context.Background(), RemoteResult("https://cdn.example/x.png")))
}

func TestLocalStoreRejectsNonImage(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	_, err = s.Save(context.Background(), fileHeader(t, "x.jpg", []byte("<html></html>")))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestGCSStoreObjectURL(t *testing.T) {
	s := NewGCSStore(nil, "posters-bucket", "")
	url := s.objectURL("posters/a.jpg")
	assert.Equal(t, "https://storage.googleapis.com/posters-bucket/posters/a.jpg", url)

	object, ok := s.objectFromURL(url)
	assert.True(t, ok)
	assert.Equal(t, "posters/a.jpg", object)

	_, ok = s.objectFromURL("https://storage.googleapis.com/other/posters/a.jpg")
	assert.False(t, ok)
}

func TestGCSStoreUnconfigured(t *testing.T) {
	_, err := (&GCSStore{}).Save(context.Background(), fileHeader(t, "a.png", pngBytes))
	assert.Error(t, err)
}

func TestResultKindString(t *testing.T) {
	assert.Equal(t, "local", LocalResult("a").Kind.String())
	assert.Equal(t, "remote", RemoteResult("u").Kind.String())
}
