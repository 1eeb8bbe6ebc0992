package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func guardedEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/secret", OperatorAuth("key"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func get(r *gin.Engine, authz string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secret", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	r.ServeHTTP(w, req)
	return w.Code
}

func TestOperatorAuth(t *testing.T) {
	t.Parallel()

	r := guardedEngine()
	token, _, err := Issue("operator", "operator", "key", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if code := get(r, "Bearer "+token); code != http.StatusOK {
		t.Errorf("valid token got %d, want 200", code)
	}
	if code := get(r, ""); code != http.StatusUnauthorized {
		t.Errorf("missing header got %d, want 401", code)
	}
	if code := get(r, "Bearer nonsense"); code != http.StatusUnauthorized {
		t.Errorf("garbage token got %d, want 401", code)
	}
	if code := get(r, token); code != http.StatusUnauthorized {
		t.Errorf("bare token without scheme got %d, want 401", code)
	}

	other, _, _ := Issue("operator", "operator", "other-key", time.Hour)
	if code := get(r, "Bearer "+other); code != http.StatusUnauthorized {
		t.Errorf("token from another key got %d, want 401", code)
	}
}
