package handlers

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/devotee-memorial/backend/internal/metrics"
	"github.com/devotee-memorial/backend/internal/models"
	"github.com/devotee-memorial/backend/internal/services"
	"github.com/devotee-memorial/backend/internal/storage"
)

const (
	formMemory    = 8 << 20
	formTextBytes = 1 << 20
)

// FileLimits lists the file fields a form accepts with the most parts each
// may carry. Parts under other names are ignored.
type FileLimits map[string]int

func (l FileLimits) total() int {
	n := 0
	for _, c := range l {
		n += c
	}
	return n
}

// CaptchaField carries the reCAPTCHA token on public submission forms.
const CaptchaField = "recaptchaToken"

// CaptchaVerifier checks a human-verification token.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) (ok bool, reason string, err error)
}

// Uploader parses multipart requests and stages their files on local disk.
type Uploader struct {
	staging     *storage.Staging
	maxFileSize int64
	captcha     CaptchaVerifier
	log         *logrus.Logger
}

func NewUploader(staging *storage.Staging, maxFileSize int64, log *logrus.Logger) *Uploader {
	return &Uploader{staging: staging, maxFileSize: maxFileSize, log: log}
}

// WithCaptcha requires a valid CaptchaField on every parsed form.
func (up *Uploader) WithCaptcha(v CaptchaVerifier) *Uploader {
	up.captcha = v
	return up
}

// StagedForm is a parsed multipart request. Done must be called once the
// request has been handled; it removes every staged file the gateway did not
// take.
type StagedForm struct {
	Values map[string][]string
	Batch  *storage.Batch

	form *multipart.Form
	log  *logrus.Logger
}

func (u *StagedForm) Done() {
	if n := u.Batch.Cleanup(); n > 0 {
		metrics.StagedFilesRemoved.Add(float64(n))
		u.log.WithField("files", n).Debug("removed staged files")
	}
	if u.form != nil {
		u.form.RemoveAll()
	}
}

// Parse reads the multipart body, enforcing the per-file size limit and the
// per-field counts, and stages the accepted files. On error nothing is left
// on disk.
func (up *Uploader) Parse(w http.ResponseWriter, r *http.Request, limits FileLimits) (*StagedForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, up.maxFileSize*int64(limits.total())+formTextBytes)
	if err := r.ParseMultipartForm(formMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, storage.ErrFileTooLarge
		}
		return nil, errInvalidForm
	}

	u := &StagedForm{
		Values: r.MultipartForm.Value,
		Batch:  storage.NewBatch(),
		form:   r.MultipartForm,
		log:    up.log,
	}

	if up.captcha != nil {
		if err := up.verifyCaptcha(r); err != nil {
			u.Done()
			return nil, err
		}
	}

	for field, headers := range r.MultipartForm.File {
		limit, ok := limits[field]
		if !ok {
			continue
		}
		if len(headers) > limit {
			u.Done()
			return nil, services.NewValidationError(map[string]string{
				field: fmt.Sprintf("At most %d files are allowed", limit),
			})
		}
	}

	for field, headers := range r.MultipartForm.File {
		if _, ok := limits[field]; !ok {
			continue
		}
		for _, fh := range headers {
			f, err := up.staging.Stage(field, fh)
			if err != nil {
				u.Done()
				return nil, err
			}
			u.Batch.Add(f)
		}
	}
	return u, nil
}

func (up *Uploader) verifyCaptcha(r *http.Request) error {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	ok, reason, err := up.captcha.Verify(r.Context(), r.FormValue(CaptchaField), ip)
	if err != nil {
		return fmt.Errorf("verify captcha: %w", err)
	}
	if !ok {
		up.log.WithField("reason", reason).Warn("captcha rejected")
		return errCaptchaFailed
	}
	return nil
}

var (
	errInvalidForm   = errors.New("invalid multipart form")
	errCaptchaFailed = errors.New("captcha verification failed")
)

func writeUploadError(w http.ResponseWriter, r *http.Request, log *logrus.Logger, err error) {
	switch {
	case errors.Is(err, errInvalidForm):
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid multipart form"))
		return
	case errors.Is(err, errCaptchaFailed):
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Captcha verification failed"))
		return
	}
	writeError(w, r, log, err, "Failed to process upload")
}
