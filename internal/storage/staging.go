package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var ErrFileTooLarge = errors.New("file exceeds upload size limit")

// StagedFile is an uploaded part written to the staging directory while the
// request is processed.
type StagedFile struct {
	Field       string
	Filename    string
	ContentType string
	Size        int64
	Path        string
}

func (f *StagedFile) IsImage() bool {
	return strings.HasPrefix(f.ContentType, "image/")
}

func (f *StagedFile) IsAudio() bool {
	return strings.HasPrefix(f.ContentType, "audio/")
}

// Staging writes multipart parts to a scratch directory on local disk.
type Staging struct {
	dir         string
	maxFileSize int64
}

func NewStaging(dir string, maxFileSize int64) (*Staging, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create staging dir: %w", err)
	}
	return &Staging{dir: dir, maxFileSize: maxFileSize}, nil
}

func (s *Staging) Dir() string {
	return s.dir
}

// Stage copies one multipart file to a uniquely named file in the staging
// directory. Nothing is left behind when it fails.
func (s *Staging) Stage(field string, header *multipart.FileHeader) (*StagedFile, error) {
	if s.maxFileSize > 0 && header.Size > s.maxFileSize {
		return nil, ErrFileTooLarge
	}

	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("storage: open part %s: %w", field, err)
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	path := filepath.Join(s.dir, uuid.NewString()+ext)

	dst, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("storage: create staged file: %w", err)
	}

	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("storage: write staged file: %w", err)
	}

	return &StagedFile{
		Field:       field,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        n,
		Path:        path,
	}, nil
}

// Batch tracks the staged files of one request. Files handed to the media
// gateway become the gateway's responsibility; Cleanup removes the rest.
type Batch struct {
	mu      sync.Mutex
	files   []*StagedFile
	handoff map[string]bool
}

func NewBatch() *Batch {
	return &Batch{handoff: make(map[string]bool)}
}

func (b *Batch) Add(f *StagedFile) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.files = append(b.files, f)
}

// Field returns the staged files for a form field in upload order.
func (b *Batch) Field(name string) []*StagedFile {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []*StagedFile
	for _, f := range b.files {
		if f.Field == name {
			out = append(out, f)
		}
	}
	return out
}

func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.files)
}

// Handoff marks f as owned by another component which will remove it.
func (b *Batch) Handoff(f *StagedFile) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handoff[f.Path] = true
}

// Cleanup removes every staged file that was not handed off and returns the
// number of files removed.
func (b *Batch) Cleanup() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0
	for _, f := range b.files {
		if b.handoff[f.Path] {
			continue
		}
		if err := os.Remove(f.Path); err == nil {
			removed++
		}
		b.handoff[f.Path] = true
	}
	return removed
}
