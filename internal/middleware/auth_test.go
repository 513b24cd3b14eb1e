package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func authRouter(t *testing.T, key string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("INTERNAL_API_KEY", key)

	router := gin.New()
	router.Use(InternalAuthMiddleware())
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	return router
}

func get(router *gin.Engine, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/ping", nil)
	if key != "" {
		req.Header.Set(internalKeyHeader, key)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestInternalAuthAcceptsMatchingKey(t *testing.T) {
	router := authRouter(t, "sesame")
	assert.Equal(t, http.StatusOK, get(router, "sesame").Code)
}

func TestInternalAuthRejectsBadKey(t *testing.T) {
	router := authRouter(t, "sesame")

	assert.Equal(t, http.StatusUnauthorized, get(router, "wrong").Code)
	assert.Equal(t, http.StatusUnauthorized, get(router, "").Code)
}

func TestInternalAuthRejectsWhenUnconfigured(t *testing.T) {
	router := authRouter(t, "")
	assert.Equal(t, http.StatusInternalServerError, get(router, "anything").Code)
}
