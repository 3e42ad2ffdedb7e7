package storage

import (
	"bytes"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileHeader(t *testing.T, field, filename, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })
	return form.File[field][0]
}

func TestStageWritesFile(t *testing.T) {
	dir := t.TempDir()
	staging, err := NewStaging(dir, 1024)
	require.NoError(t, err)

	f, err := staging.Stage("coverImage", fileHeader(t, "coverImage", "Cover.JPG", "image/jpeg", []byte("jpeg-bytes")))
	require.NoError(t, err)

	assert.Equal(t, "coverImage", f.Field)
	assert.Equal(t, "Cover.JPG", f.Filename)
	assert.Equal(t, "image/jpeg", f.ContentType)
	assert.Equal(t, int64(10), f.Size)
	assert.Equal(t, dir, filepath.Dir(f.Path))
	assert.Equal(t, ".jpg", filepath.Ext(f.Path))
	assert.True(t, f.IsImage())
	assert.False(t, f.IsAudio())

	data, err := os.ReadFile(f.Path)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
}

func TestStageRejectsOversizedFile(t *testing.T) {
	dir := t.TempDir()
	staging, err := NewStaging(dir, 4)
	require.NoError(t, err)

	_, err = staging.Stage("images", fileHeader(t, "images", "big.png", "image/png", []byte("too large")))
	require.ErrorIs(t, err, ErrFileTooLarge)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBatchCleanupSkipsHandedOffFiles(t *testing.T) {
	dir := t.TempDir()
	staging, err := NewStaging(dir, 0)
	require.NoError(t, err)

	batch := NewBatch()
	cover, err := staging.Stage("coverImage", fileHeader(t, "coverImage", "a.png", "image/png", []byte("a")))
	require.NoError(t, err)
	audio, err := staging.Stage("audioFile_0", fileHeader(t, "audioFile_0", "b.mp3", "audio/mpeg", []byte("b")))
	require.NoError(t, err)
	batch.Add(cover)
	batch.Add(audio)

	assert.Len(t, batch.Field("coverImage"), 1)
	assert.Len(t, batch.Field("audioFile_0"), 1)
	assert.Empty(t, batch.Field("images"))

	batch.Handoff(cover)

	assert.Equal(t, 1, batch.Cleanup())
	assert.FileExists(t, cover.Path)
	assert.NoFileExists(t, audio.Path)

	// A second cleanup finds nothing left to remove.
	assert.Equal(t, 0, batch.Cleanup())
}

func TestJSONStoreSaveAndLoad(t *testing.T) {
	store, err := NewJSONStore(filepath.Join(t.TempDir(), "data"), "profiles.json")
	require.NoError(t, err)
	assert.False(t, store.Exists())

	var empty map[string]string
	require.NoError(t, store.Load(&empty))
	assert.Nil(t, empty)

	require.NoError(t, store.Save(map[string]string{"a": "b"}))
	assert.True(t, store.Exists())

	var loaded map[string]string
	require.NoError(t, store.Load(&loaded))
	assert.Equal(t, map[string]string{"a": "b"}, loaded)
}
