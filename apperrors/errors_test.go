package apperrors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapKeepsCannedErrorIntact(t *testing.T) {
	cause := errors.New("max 10MB")
	wrapped := ErrFileTooLarge.Wrap(cause)

	assert.True(t, errors.Is(wrapped, ErrFileTooLarge))
	assert.True(t, errors.Is(wrapped, cause))
	assert.Nil(t, ErrFileTooLarge.Err)
	assert.Equal(t, "File too large: max 10MB", wrapped.Error())
}

func TestRespond(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"client error with cause", ErrBadRequest.Wrap(errors.New("job id required")), http.StatusBadRequest, "Bad request: job id required"},
		{"server error hides cause", ErrInternalServer.Wrap(errors.New("mongo: no reachable servers")), http.StatusInternalServerError, "Internal server error"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			Respond(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var env Envelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
			assert.False(t, env.Success)
			assert.Equal(t, tt.message, env.Message)
		})
	}
}

func TestErrorMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorMiddleware())
	r.GET("/fail", func(c *gin.Context) {
		_ = c.Error(ErrNotFound)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Not found")
}
