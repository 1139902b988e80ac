package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newInMemoryDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	return db
}

func TestDatabaseMiddleware_InjectsDB(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newInMemoryDB(t)

	w := httptest.NewRecorder()
	_, r := gin.CreateTestContext(w)
	r.Use(DatabaseMiddleware(db))
	r.GET("/test", func(c *gin.Context) {
		if GetDB(c) != db {
			t.Errorf("expected the injected DB handle")
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestGetDB_MissingReturnsNil(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if GetDB(c) != nil {
		t.Fatalf("expected nil when no DB was injected")
	}
}

func TestGetDB_WrongTypeReturnsNil(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set(DBKey, "not a db")
	if GetDB(c) != nil {
		t.Fatalf("expected nil for a mistyped context value")
	}
}

func TestCORSMiddleware_SetsHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	_, r := gin.CreateTestContext(w)
	r.Use(CORSMiddleware())
	r.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard origin, got %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got == "" {
		t.Errorf("expected allowed methods header")
	}
}

func TestCORSMiddleware_PreflightAborts(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	_, r := gin.CreateTestContext(w)
	r.Use(CORSMiddleware())
	handlerCalled := false
	r.OPTIONS("/test", func(c *gin.Context) {
		handlerCalled = true
	})

	req := httptest.NewRequest("OPTIONS", "/test", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", w.Code)
	}
	if handlerCalled {
		t.Fatalf("expected preflight to abort before the handler")
	}
}
