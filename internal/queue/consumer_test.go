package queue

import (
    "os"
    "path/filepath"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap"
)

func TestHandleMessageAppendsLine(t *testing.T) {
    dir := t.TempDir()
    c := &Consumer{LogDir: dir, Log: zap.NewNop()}

    require.NoError(t, c.HandleMessage([]byte(`{"action":"movie.created","movie_id":7,"title":"Inception","type":"Movie","occurred_at":"2024-05-01T10:00:00Z"}`)))
    require.NoError(t, c.HandleMessage([]byte(`{"action":"movie.deleted","movie_id":7,"title":"Inception","type":"Movie","occurred_at":"2024-05-02T10:00:00Z"}`)))

    data, err := os.ReadFile(filepath.Join(dir, "catalog.log"))
    require.NoError(t, err)
    assert.Equal(t,
        "[2024-05-01T10:00:00Z] movie.created | movie_id=7 | type=\"Movie\" | title=\"Inception\"\n"+
            "[2024-05-02T10:00:00Z] movie.deleted | movie_id=7 | type=\"Movie\" | title=\"Inception\"\n",
        string(data))
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
    c := &Consumer{LogDir: t.TempDir(), Log: zap.NewNop()}
    assert.Error(t, c.HandleMessage([]byte("not json")))
    assert.Error(t, c.HandleMessage([]byte(`{"title":"no action"}`)))
}
