package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flowboard/flowboard/db"
	"github.com/flowboard/flowboard/internal/auth"
	"github.com/flowboard/flowboard/internal/router"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret"

// setupTest wires the real router to a fresh in-memory database. The
// connection pool is pinned to one connection so every query sees the
// same sqlite instance.
func setupTest(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	t.Setenv("IDENTITY_JWT_SECRET", testSecret)

	if err := auth.InitIdentitySecret(); err != nil {
		t.Fatalf("init identity secret: %v", err)
	}

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	db.DB = gdb

	if err := db.MigrateDatabase(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return router.NewRouter()
}

// identityToken mints a provider-style bearer token for the given subject.
func identityToken(t *testing.T, subject string) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	return token
}

func doRequest(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()

	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

// syncUser registers a local user through the sync endpoint and returns
// its record.
func syncUser(t *testing.T, r *gin.Engine, token, email, username string) map[string]interface{} {
	t.Helper()

	w := doRequest(t, r, http.MethodPost, "/api/users/sync", token, map[string]interface{}{
		"email":    email,
		"username": username,
	})

	if w.Code != http.StatusOK {
		t.Fatalf("sync user: status %d, body %s", w.Code, w.Body.String())
	}

	var record map[string]interface{}
	decodeBody(t, w, &record)
	return record
}

func createProject(t *testing.T, r *gin.Engine, token, name string) uint {
	t.Helper()

	w := doRequest(t, r, http.MethodPost, "/api/projects", token, map[string]interface{}{
		"name":       name,
		"visibility": "private",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("create project: status %d, body %s", w.Code, w.Body.String())
	}

	var view struct {
		ID uint `json:"id"`
	}
	decodeBody(t, w, &view)
	return view.ID
}
