package services

import (
	"context"
	"errors"
	"os"
	"path"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devotee-memorial/backend/internal/logger"
	"github.com/devotee-memorial/backend/internal/models"
	"github.com/devotee-memorial/backend/internal/storage"
)

type hostCall struct {
	Path   string
	Folder string
	Kind   ResourceKind
}

// fakeHost records uploads and fails for paths listed in failPaths.
type fakeHost struct {
	mu        sync.Mutex
	calls     []hostCall
	deleted   []string
	failPaths map[string]bool
	failAll   bool
}

func newFakeHost() *fakeHost {
	return &fakeHost{failPaths: make(map[string]bool)}
}

func (h *fakeHost) Upload(ctx context.Context, localPath, folder string, kind ResourceKind) (*models.MediaUploadResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, err := os.Stat(localPath); err != nil {
		return nil, err
	}
	h.calls = append(h.calls, hostCall{Path: localPath, Folder: folder, Kind: kind})
	if h.failAll || h.failPaths[localPath] {
		return nil, errors.New("host unavailable")
	}
	id := path.Join(folder, filepath.Base(localPath))
	return &models.MediaUploadResult{
		URL:          "https://media.test/" + id,
		PublicID:     id,
		ResourceType: string(kind),
	}, nil
}

func (h *fakeHost) Delete(ctx context.Context, publicID string, kind ResourceKind) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deleted = append(h.deleted, publicID)
	return nil
}

func (h *fakeHost) Calls() []hostCall {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]hostCall(nil), h.calls...)
}

type fakeScreener struct {
	safe bool
	err  error
	seen int
}

func (s *fakeScreener) Screen(ctx context.Context, localPath string) (bool, error) {
	s.seen++
	return s.safe, s.err
}

// stageFile writes a small file into dir as if it had been staged from a
// multipart part.
func stageFile(t *testing.T, dir, field, filename, contentType string) *storage.StagedFile {
	t.Helper()
	f, err := os.CreateTemp(dir, "staged-*"+filepath.Ext(filename))
	require.NoError(t, err)
	_, err = f.WriteString("content of " + filename)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	return &storage.StagedFile{
		Field:       field,
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len("content of " + filename)),
		Path:        f.Name(),
	}
}

func assertNoFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.Empty(t, names, "staging directory should be empty")
}

func newTestGateway(host MediaHost) *MediaGateway {
	return NewMediaGateway(host, nil, 0, logger.Discard())
}

// failingProfileStore rejects every write.
type failingProfileStore struct {
	ProfileStore
}

func (failingProfileStore) Create(ctx context.Context, p *models.Profile) error {
	return errors.New("disk full")
}
