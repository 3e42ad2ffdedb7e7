package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalHostUploadAndDelete(t *testing.T) {
	uploadDir := t.TempDir()
	host, err := NewLocalHost(uploadDir, "http://localhost:8080/")
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "cover.png")
	require.NoError(t, os.WriteFile(src, []byte("png"), 0o644))

	res, err := host.Upload(context.Background(), src, "iskcon/../profiles/covers", KindAuto)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.URL, "http://localhost:8080/uploads/iskcon/profiles/covers/"))
	assert.True(t, strings.HasSuffix(res.PublicID, ".png"))
	assert.Equal(t, int64(3), res.Bytes)

	stored := filepath.Join(uploadDir, filepath.FromSlash(res.PublicID))
	data, err := os.ReadFile(stored)
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	_, err = os.Stat(src)
	assert.NoError(t, err, "the host copies; removing the staged file is the gateway's job")

	require.NoError(t, host.Delete(context.Background(), res.PublicID, KindImage))
	assert.ErrorIs(t, host.Delete(context.Background(), res.PublicID, KindImage), ErrMediaNotFound)
	assert.ErrorIs(t, host.Delete(context.Background(), "../etc/passwd", KindImage), ErrMediaNotFound)
}
