package api

import (
	"fmt"
	"net/http"
	"testing"

	"file_portal/internal/config"
	"file_portal/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/clause"
)

func (e *testEnv) stats(t *testing.T, auth string) StatsResponse {
	t.Helper()
	w := e.do(t, http.MethodGet, "/api/stats", auth, nil)
	requireStatus(t, w, http.StatusOK)
	return decode[StatsResponse](t, w)
}

func TestStatsServedFromCacheUntilFileWrite(t *testing.T) {
	e := newRedisTestEnv(t)
	alice, auth := e.createUser(t, "alice", "")
	e.uploadFile(t, auth, "a.pdf", "%PDF-1.4", nil)

	assert.EqualValues(t, 1, e.stats(t, auth).TotalFiles)
	assert.True(t, e.mr.Exists(statsCacheKey))

	// A row written behind the handlers' back is not seen while cached
	require.NoError(t, e.db.Omit(clause.Associations).Create(&domain.UploadedFile{
		UserID: alice.ID, StorageKey: "user_1/x/x.txt", Filename: "x.txt", FileType: domain.FileTypeText,
	}).Error)
	assert.EqualValues(t, 1, e.stats(t, auth).TotalFiles)

	f := e.uploadFile(t, auth, "b.docx", "doc", nil)
	assert.False(t, e.mr.Exists(statsCacheKey), "upload drops the cache")
	assert.EqualValues(t, 3, e.stats(t, auth).TotalFiles)

	path := fmt.Sprintf("/api/files/%d", f.ID)
	requireStatus(t, e.do(t, http.MethodPatch, path, auth, gin.H{"file_type": "pdf"}), http.StatusOK)
	assert.False(t, e.mr.Exists(statsCacheKey), "update drops the cache")
	stats := e.stats(t, auth)
	assert.Equal(t, []TypeCount{{FileType: "pdf", Count: 2}, {FileType: "txt", Count: 1}}, stats.FilesByType)

	requireStatus(t, e.do(t, http.MethodDelete, path, auth, nil), http.StatusNoContent)
	assert.False(t, e.mr.Exists(statsCacheKey), "delete drops the cache")
	assert.EqualValues(t, 2, e.stats(t, auth).TotalFiles)
}

func TestProfileRenameRefreshesStats(t *testing.T) {
	e := newRedisTestEnv(t)
	_, auth := e.createUser(t, "alice", "")
	e.uploadFile(t, auth, "a.pdf", "%PDF-1.4", nil)
	e.uploadFile(t, auth, "b.pdf", "%PDF-1.4", nil)
	assert.Equal(t, []UserCount{{Username: "alice", Count: 2}}, e.stats(t, auth).FilesByUser)

	// Name fields do not appear in stats and keep the cache
	requireStatus(t, e.do(t, http.MethodPatch, "/api/profile", auth, gin.H{"first_name": "Alice"}), http.StatusOK)
	assert.True(t, e.mr.Exists(statsCacheKey))

	requireStatus(t, e.do(t, http.MethodPatch, "/api/profile", auth, gin.H{"username": "alicia"}), http.StatusOK)
	assert.False(t, e.mr.Exists(statsCacheKey))
	assert.Equal(t, []UserCount{{Username: "alicia", Count: 2}}, e.stats(t, auth).FilesByUser)
}

func TestOpenRoutesAreRateLimited(t *testing.T) {
	e := newRedisTestEnv(t, func(c *config.Config) { c.RateLimitMax = 2 })
	e.createUser(t, "alice", "")
	bad := gin.H{"username": "alice", "password": "wrong-password"}

	requireStatus(t, e.do(t, http.MethodPost, "/api/login", "", bad), http.StatusBadRequest)
	requireStatus(t, e.do(t, http.MethodPost, "/api/login", "", bad), http.StatusBadRequest)
	requireStatus(t, e.do(t, http.MethodPost, "/api/login", "", bad), http.StatusTooManyRequests)

	// Each route keeps its own window
	requireStatus(t, e.do(t, http.MethodPost, "/api/token", "", bad), http.StatusUnauthorized)
}
