package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"file_portal/internal/config"
	portaldb "file_portal/internal/db"
	"file_portal/internal/domain"
	"file_portal/internal/storage"
	"file_portal/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testPassword = "password123"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logrus.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type testEnv struct {
	r     *gin.Engine
	db    *gorm.DB
	store *storage.LocalStorage
	cfg   *config.Config
	mr    *miniredis.Miniredis // nil unless built by newRedisTestEnv
}

func newTestEnv(t *testing.T, opts ...func(*config.Config)) *testEnv {
	t.Helper()
	return buildTestEnv(t, nil, opts...)
}

// newRedisTestEnv backs the stats cache and rate limit with an in-memory Redis
func newRedisTestEnv(t *testing.T, opts ...func(*config.Config)) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	e := buildTestEnv(t, rdb, opts...)
	e.mr = mr
	return e
}

func buildTestEnv(t *testing.T, rdb *redis.Client, opts ...func(*config.Config)) *testEnv {
	t.Helper()
	dir := t.TempDir()
	gdb, err := portaldb.OpenSQLite(filepath.Join(dir, "portal.db"), nil)
	require.NoError(t, err)
	require.NoError(t, portaldb.Migrate(gdb))

	store, err := storage.NewLocalStorage(filepath.Join(dir, "media"))
	require.NoError(t, err)
	require.NoError(t, store.EnsureBucket(t.Context()))

	cfg := &config.Config{
		JWTSecret:     "test-secret",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		StatsCacheTTL: time.Minute,
		RateLimitMax:  100,
		RateLimitWin:  time.Minute,
		MaxUploadSize: 1 << 20,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	r := gin.New()
	RegisterRoutes(r, Deps{DB: gdb, Storage: store, Redis: rdb, Config: cfg})
	return &testEnv{r: r, db: gdb, store: store, cfg: cfg}
}

// createUser inserts an account directly and returns a Bearer header for it
func (e *testEnv) createUser(t *testing.T, username, role string) (domain.User, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	u := domain.User{Username: username, Email: username + "@example.com", Password: string(hash), Role: role}
	require.NoError(t, e.db.Create(&u).Error)
	access, err := utils.GenerateJWT(u.ID, utils.AccessToken, e.cfg.JWTSecret, time.Minute)
	require.NoError(t, err)
	return u, "Bearer " + access
}

func (e *testEnv) do(t *testing.T, method, path, auth string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

// upload sends a multipart request with a file part and optional extra fields
func (e *testEnv) upload(t *testing.T, method, path, auth, name string, content []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if name != "" {
		part, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", auth)
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type validationBody struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields"`
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
}
