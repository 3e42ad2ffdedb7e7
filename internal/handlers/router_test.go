package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/devotee-memorial/backend/internal/config"
	"github.com/devotee-memorial/backend/internal/logger"
	"github.com/devotee-memorial/backend/internal/models"
	"github.com/devotee-memorial/backend/internal/services"
	"github.com/devotee-memorial/backend/internal/storage"
)

type testServer struct {
	handler    http.Handler
	profiles   *services.FileProfileStore
	auth       *services.AuthService
	uploads    *Uploader
	stagingDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logger.Discard()

	stagingDir := t.TempDir()
	staging, err := storage.NewStaging(stagingDir, 1<<20)
	require.NoError(t, err)
	host, err := services.NewLocalHost(t.TempDir(), "http://media.test")
	require.NoError(t, err)
	gateway := services.NewMediaGateway(host, nil, 0, log)

	profiles := services.NewMemoryProfileStore()
	offerings := services.NewMemoryOfferingStore()
	profileService := services.NewProfileService(profiles, gateway, config.DefaultValidationPolicy(), "iskcon", log)
	offeringService := services.NewOfferingService(offerings, profiles, gateway, "iskcon", log)

	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)
	authService := services.NewAuthService([]services.Account{
		{Username: "admin", PasswordHash: string(hash), Role: models.RoleAdmin},
		{Username: "mod", PasswordHash: string(hash), Role: models.RoleModerator},
	}, services.DefaultRolePolicy(), "test-secret", time.Hour)

	uploads := NewUploader(staging, 1<<20, log)
	handler := NewRouter(RouterConfig{
		Profiles:       NewProfileHandler(profileService, uploads, log),
		Offerings:      NewOfferingHandler(offeringService, uploads, log),
		Auth:           NewAuthHandler(authService, log),
		AuthService:    authService,
		AllowedOrigins: []string{"http://localhost:5173"},
		Log:            log,
	})

	return &testServer{
		handler:    handler,
		profiles:   profiles,
		auth:       authService,
		uploads:    uploads,
		stagingDir: stagingDir,
	}
}

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Error   string            `json:"error"`
	Errors  map[string]string `json:"errors"`
}

func (s *testServer) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func (s *testServer) token(t *testing.T, role models.Role) string {
	t.Helper()
	resp, err := s.auth.IssueToken(models.Principal{Subject: string(role), Role: role})
	require.NoError(t, err)
	return resp.Token
}

type testFile struct {
	field       string
	filename    string
	contentType string
	content     string
}

func multipartRequest(t *testing.T, target string, fields map[string][]string, files []testFile) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, values := range fields {
		for _, v := range values {
			require.NoError(t, mw.WriteField(name, v))
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.filename))
		h.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = io.WriteString(part, f.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, method, target string, body interface{}, token string) *http.Request {
	t.Helper()
	var r io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func profileFields() map[string][]string {
	return map[string][]string{
		"name":             {"Test Devotee"},
		"birthDate":        {"1900-01-01"},
		"deathDate":        {"1980-01-01"},
		"spiritualMaster":  {"Srila Prabhupada"},
		"location":         {"Mayapur"},
		"description":      {"Served the Lord"},
		"contributorName":  {"Admin"},
		"contributorPhone": {"1234567890"},
		"coreServices":     {"Kirtan", "Cooking"},
	}
}

func coverFile() testFile {
	return testFile{field: "coverImage", filename: "cover.jpg", contentType: "image/jpeg", content: "jpeg bytes"}
}

func (s *testServer) assertStagingEmpty(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(s.stagingDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "staged files must not outlive the request")
}

func (s *testServer) createProfile(t *testing.T) models.Profile {
	t.Helper()
	rec, env := s.do(t, multipartRequest(t, "/api/profiles", profileFields(), []testFile{coverFile()}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var p models.Profile
	require.NoError(t, json.Unmarshal(env.Data, &p))
	return p
}

func TestCreateProfileEndToEnd(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, multipartRequest(t, "/api/profiles", profileFields(), []testFile{
		coverFile(),
		{field: "audioFile_0", filename: "bhajan.mp3", contentType: "audio/mpeg", content: "mp3"},
		{field: "unexpected", filename: "x.bin", contentType: "application/octet-stream", content: "x"},
	}))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, env.Success)

	var p models.Profile
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, models.ProfileStatusPending, p.Status)
	assert.Equal(t, "1900 - 1980", p.Years)
	assert.Equal(t, 1900, p.BirthYear)
	assert.Equal(t, 1980, p.DeathYear)
	assert.True(t, strings.HasPrefix(p.CoverImage, "http://media.test/uploads/iskcon/profiles/covers/"))
	assert.Len(t, p.AudioFiles, 1)
	assert.Equal(t, []string{"Kirtan", "Cooking"}, p.CoreServices)
	s.assertStagingEmpty(t)
}

func TestCreateProfileReversedDates(t *testing.T) {
	s := newTestServer(t)
	fields := profileFields()
	fields["birthDate"] = []string{"1980-01-01"}
	fields["deathDate"] = []string{"1900-01-01"}

	rec, env := s.do(t, multipartRequest(t, "/api/profiles", fields, []testFile{coverFile()}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Death date must be after birth date", env.Error)

	list, err := s.profiles.ListByStatus(context.Background(), models.ProfileStatusPending)
	require.NoError(t, err)
	assert.Empty(t, list)
	s.assertStagingEmpty(t)
}

func TestCreateProfileMissingCover(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, multipartRequest(t, "/api/profiles", profileFields(), []testFile{
		{field: "audioFile_0", filename: "a.mp3", contentType: "audio/mpeg", content: "mp3"},
	}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Cover image is required", env.Error)
	s.assertStagingEmpty(t)
}

func TestCreateProfileRejectsNonMultipart(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, jsonRequest(t, http.MethodPost, "/api/profiles", map[string]string{"name": "x"}, ""))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid multipart form", env.Error)
}

func TestCreateProfileRejectsOversizedFile(t *testing.T) {
	s := newTestServer(t)
	big := coverFile()
	big.content = strings.Repeat("x", 2<<20)

	rec, _ := s.do(t, multipartRequest(t, "/api/profiles", profileFields(), []testFile{big}))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	s.assertStagingEmpty(t)
}

func TestModerationGates(t *testing.T) {
	s := newTestServer(t)
	p := s.createProfile(t)
	statusURL := "/api/profiles/" + p.ID + "/status"

	rec, _ := s.do(t, jsonRequest(t, http.MethodPatch, statusURL, map[string]string{"status": "accepted"}, ""))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, jsonRequest(t, http.MethodPatch, statusURL, map[string]string{"status": "accepted"}, "garbage"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, jsonRequest(t, http.MethodGet, "/api/profiles/pending", nil, ""))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env := s.do(t, jsonRequest(t, http.MethodGet, "/api/profiles/pending", nil, s.token(t, models.RoleModerator)))
	require.Equal(t, http.StatusOK, rec.Code)
	var pending []models.Profile
	require.NoError(t, json.Unmarshal(env.Data, &pending))
	assert.Len(t, pending, 1)

	rec, env = s.do(t, jsonRequest(t, http.MethodPatch, statusURL, map[string]string{"status": "archived"}, s.token(t, models.RoleAdmin)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid status", env.Error)

	rec, _ = s.do(t, jsonRequest(t, http.MethodPatch, statusURL, map[string]string{"status": "accepted"}, s.token(t, models.RoleModerator)))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, jsonRequest(t, http.MethodDelete, "/api/profiles/"+p.ID, nil, s.token(t, models.RoleModerator)))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, jsonRequest(t, http.MethodDelete, "/api/profiles/"+p.ID, nil, s.token(t, models.RoleAdmin)))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, jsonRequest(t, http.MethodDelete, "/api/profiles/"+p.ID, nil, s.token(t, models.RoleAdmin)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateStatusUnknownProfile(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, jsonRequest(t, http.MethodPatch, "/api/profiles/does-not-exist/status",
		map[string]string{"status": "accepted"}, s.token(t, models.RoleAdmin)))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Profile not found", env.Error)
}

func TestAcceptedCardsAreStable(t *testing.T) {
	s := newTestServer(t)
	p := s.createProfile(t)
	_, err := s.profiles.UpdateStatus(context.Background(), p.ID, models.ProfileStatusAccepted)
	require.NoError(t, err)

	first, env := s.do(t, httptest.NewRequest(http.MethodGet, "/api/accepted/profiles", nil))
	second, _ := s.do(t, httptest.NewRequest(http.MethodGet, "/api/accepted/profiles", nil))

	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())

	var cards []models.ProfileCard
	require.NoError(t, json.Unmarshal(env.Data, &cards))
	require.Len(t, cards, 1)
	assert.Equal(t, "1900 - 1980", cards[0].Years)
	assert.Equal(t, p.CoverImage, cards[0].Image)

	one, _ := s.do(t, httptest.NewRequest(http.MethodGet, "/api/profiles/"+p.ID, nil))
	again, _ := s.do(t, httptest.NewRequest(http.MethodGet, "/api/profiles/"+p.ID, nil))
	require.Equal(t, http.StatusOK, one.Code)
	assert.Equal(t, one.Body.String(), again.Body.String())

	rec, env := s.do(t, httptest.NewRequest(http.MethodGet, "/api/profiles", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var full []models.Profile
	require.NoError(t, json.Unmarshal(env.Data, &full))
	assert.Len(t, full, 1)
}

func TestProfileAppendsOverHTTP(t *testing.T) {
	s := newTestServer(t)
	p := s.createProfile(t)

	rec, _ := s.do(t, jsonRequest(t, http.MethodPatch, "/api/profiles/"+p.ID+"/achievement", map[string]string{"achievement": ""}, ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, jsonRequest(t, http.MethodPatch, "/api/profiles/"+p.ID+"/achievement", map[string]string{"achievement": "Built a temple"}, ""))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, jsonRequest(t, http.MethodPatch, "/api/profiles/"+p.ID+"/timeline", map[string]string{"title": "No year"}, ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env := s.do(t, jsonRequest(t, http.MethodPatch, "/api/profiles/"+p.ID+"/timeline", map[string]string{"year": "1970", "event": "Took sannyasa"}, ""))
	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.Profile
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, []string{"Built a temple"}, updated.KeyAchievements)
	assert.Equal(t, []models.TimelineEntry{{Year: "1970", Event: "Took sannyasa"}}, updated.Timeline)

	rec, _ = s.do(t, jsonRequest(t, http.MethodPatch, "/api/profiles/missing/timeline", map[string]string{"year": "1970", "event": "x"}, ""))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/api/profiles/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOfferingsOverHTTP(t *testing.T) {
	s := newTestServer(t)
	p := s.createProfile(t)

	rec, env := s.do(t, multipartRequest(t, "/api/offerings", map[string][]string{
		"devoteeId": {p.ID},
		"message":   {"Dandavats"},
		"videoLink": {"https://vimeo.com/76979871"},
	}, []testFile{
		{field: "images", filename: "a.jpg", contentType: "image/jpeg", content: "img"},
		{field: "audios", filename: "a.txt", contentType: "text/plain", content: "not audio"},
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var view models.OfferingView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Len(t, view.Images, 1)
	assert.Empty(t, view.Audios)
	require.NotNil(t, view.Video)
	assert.Equal(t, "https://player.vimeo.com/video/76979871", view.Video.EmbedURL)
	s.assertStagingEmpty(t)

	rec, env = s.do(t, httptest.NewRequest(http.MethodGet, "/api/offerings/profile/"+p.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var views []models.OfferingView
	require.NoError(t, json.Unmarshal(env.Data, &views))
	require.Len(t, views, 1)
	assert.Equal(t, "Dandavats", views[0].Message)
}

func TestOfferingRejections(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, multipartRequest(t, "/api/offerings", map[string][]string{
		"devoteeId": {"unknown"},
		"message":   {"Hello"},
	}, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env := s.do(t, multipartRequest(t, "/api/offerings", map[string][]string{"message": {"Hello"}}, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Errors, "devoteeId")

	files := make([]testFile, 0, models.MaxOfferingAudios+1)
	for i := 0; i <= models.MaxOfferingAudios; i++ {
		files = append(files, testFile{field: "audios", filename: fmt.Sprintf("%d.mp3", i), contentType: "audio/mpeg", content: "mp3"})
	}
	rec, _ = s.do(t, multipartRequest(t, "/api/offerings", map[string][]string{
		"devoteeId": {"unknown"},
		"message":   {"Hello"},
	}, files))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	s.assertStagingEmpty(t)
}

func TestLoginAndCheck(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]string{"username": "admin", "password": "nope"}, ""))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env := s.do(t, jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]string{"username": "admin"}, ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Errors, "password")

	rec, env = s.do(t, jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]string{"username": "admin", "password": "pw"}, ""))
	require.Equal(t, http.StatusOK, rec.Code)
	var auth models.AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &auth))
	assert.Equal(t, models.RoleAdmin, auth.Principal.Role)

	rec, env = s.do(t, jsonRequest(t, http.MethodGet, "/api/auth/check", nil, auth.Token))
	require.Equal(t, http.StatusOK, rec.Code)
	var principal models.Principal
	require.NoError(t, json.Unmarshal(env.Data, &principal))
	assert.Equal(t, "admin", principal.Subject)
}

type stubCaptcha struct{ ok bool }

func (c stubCaptcha) Verify(ctx context.Context, token, remoteIP string) (bool, string, error) {
	return c.ok && token == "human", "rejected", nil
}

func TestCaptchaGuardsSubmissions(t *testing.T) {
	s := newTestServer(t)
	s.uploads.WithCaptcha(stubCaptcha{ok: true})

	rec, env := s.do(t, multipartRequest(t, "/api/profiles", profileFields(), []testFile{coverFile()}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Captcha verification failed", env.Error)
	s.assertStagingEmpty(t)

	fields := profileFields()
	fields[CaptchaField] = []string{"human"}
	rec, _ = s.do(t, multipartRequest(t, "/api/profiles", fields, []testFile{coverFile()}))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "memorial_http_requests_total")
}
